// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants query and manage the ingested policy corpus.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retrieval service is not provided.
var ErrMissingRetriever = errors.New("mcp: retrieval service is required")

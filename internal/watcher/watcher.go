// Package watcher keeps the corpus in sync with a directory of policy
// documents, re-ingesting files as they change and deleting documents
// whose files are removed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jimvb55/security-compliance-assistant/internal/core/domain"
	"github.com/jimvb55/security-compliance-assistant/internal/core/ports/driving"
	"github.com/jimvb55/security-compliance-assistant/internal/logger"
)

// DefaultDebounce coalesces rapid successive writes to the same file.
const DefaultDebounce = 500 * time.Millisecond

// changeType classifies a filesystem event's effect on the corpus.
type changeType int

const (
	changeNone changeType = iota
	changeUpsert
	changeDelete
)

// Watcher re-ingests documents as their source files change.
type Watcher struct {
	dir      string
	ingestor driving.Ingestor
	tags     []string
	debounce time.Duration

	// OnSync, when set, runs after every applied change. The CLI uses it
	// to persist the vector index.
	OnSync func(ctx context.Context)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over dir.
func New(dir string, ingestor driving.Ingestor, tags []string) *Watcher {
	return &Watcher{
		dir:      dir,
		ingestor: ingestor,
		tags:     tags,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches the directory tree until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsWatcher.Close()
	defer w.stopTimers()

	// Watch the whole tree; fsnotify does not recurse on its own.
	err = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !isHidden(path) {
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			// New subdirectories join the watch set.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(event.Name) {
					if err := fsWatcher.Add(event.Name); err != nil {
						logger.Warn("Watching new directory %s failed: %v", event.Name, err)
					}
					continue
				}
			}
			w.dispatch(ctx, event)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// dispatch classifies an event and schedules or applies the change.
func (w *Watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	switch classify(event) {
	case changeUpsert:
		// Debounce: editors fire several writes per save.
		w.mu.Lock()
		if timer, ok := w.timers[event.Name]; ok {
			timer.Stop()
		}
		path := event.Name
		w.timers[path] = time.AfterFunc(w.debounce, func() {
			w.mu.Lock()
			delete(w.timers, path)
			w.mu.Unlock()
			// A timer can fire between cancellation and stopTimers while
			// the caller is tearing services down.
			if ctx.Err() != nil {
				return
			}
			w.ingest(ctx, path)
		})
		w.mu.Unlock()

	case changeDelete:
		w.remove(ctx, event.Name)
	}
}

// classify maps a filesystem event to its corpus effect.
func classify(event fsnotify.Event) changeType {
	if isHidden(event.Name) || !ingestable(event.Name) {
		return changeNone
	}
	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		return changeDelete
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		// Directories are handled by the watch-set logic, not here.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return changeNone
		}
		return changeUpsert
	}
	return changeNone
}

// ingest re-ingests one file under its filename-derived document ID.
func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}

	name := docIDForPath(path)
	report, err := w.ingestor.Ingest(ctx, driving.IngestRequest{
		DocID:      name,
		Title:      name,
		SourcePath: path,
		Text:       string(data),
		Tags:       w.tags,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDocument) {
			logger.Debug("Skipping empty file %s", path)
			return
		}
		logger.Warn("Ingesting %s failed: %v", path, err)
		return
	}

	logger.Info("Synced %s (%d chunks)", report.DocID, report.ChunksCreated)
	w.synced(ctx)
}

// remove deletes the document backing a removed file.
func (w *Watcher) remove(ctx context.Context, path string) {
	name := docIDForPath(path)
	count, err := w.ingestor.DeleteDocument(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		logger.Warn("Deleting %s failed: %v", name, err)
		return
	}

	logger.Info("Removed %s (%d chunks)", name, count)
	w.synced(ctx)
}

// stopTimers cancels every pending debounce timer so no ingest fires
// after Run has returned.
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) synced(ctx context.Context) {
	if w.OnSync != nil {
		w.OnSync(ctx)
	}
}

// docIDForPath derives the document ID used for files under watch.
func docIDForPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ingestable reports whether path names a supported document type.
func ingestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

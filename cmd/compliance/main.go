// Command compliance is the entry point for the security compliance
// assistant CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimvb55/security-compliance-assistant/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

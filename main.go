package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibeckermayer/threadfeed/internal/cli"
)

func main() {
	// Ctrl+C stops a run cleanly and closes the browser
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

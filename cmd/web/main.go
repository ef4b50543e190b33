package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bajadash/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}
}

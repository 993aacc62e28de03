package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForShutdown returns a context that is cancelled on SIGINT or SIGTERM.
func WaitForShutdown(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Package engine binds the diff pipeline to a SQL execution engine.
package engine

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbsmedya/goregress/internal/logger"
)

// WithShutdown derives a context that is canceled on SIGTERM or SIGINT.
// In-flight statements observe the cancellation through the session's
// context-aware calls; the returned CancelFunc releases the signal handler.
func WithShutdown(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			if log != nil {
				log.Warnw("Shutdown signal received, canceling run", "signal", sig.String())
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

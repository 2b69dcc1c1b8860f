// Package shutdown wires operator interrupts into context cancellation.
// On SIGINT/SIGTERM the monitor loop exits promptly; the remote update it
// was observing is left to the hosting provider.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals returns a context cancelled on SIGINT or SIGTERM. The
// signal is logged once; a second signal terminates the process via the
// default handler. The returned stop function releases the signal
// registration.
func WithSignals(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal, stopping monitor", "signal", sig)
			signal.Stop(sigCh)
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
		}
	}()

	return ctx, cancel
}

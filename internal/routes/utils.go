package routes

import (
	"context"
	"log/slog"
	"time"

	"github.com/evn/versiongate/internal/handlers"
)

// RefreshLoop refreshes once at startup and then every interval until ctx
// is done. Outcomes are logged by the refresher itself; only store errors
// are reported here.
func RefreshLoop(ctx context.Context, refresher handlers.Refresher, interval time.Duration, logger *slog.Logger) {
	logger = logger.With("component", "refresh_loop", "interval", interval.String())
	logger.Info("periodic refresh started")

	runOnce := func() {
		if _, err := refresher.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Error("refresh failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic refresh stopped")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

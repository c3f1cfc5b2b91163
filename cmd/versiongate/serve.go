package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evn/versiongate/internal/middleware"
	"github.com/evn/versiongate/internal/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		gate := middleware.NewAppVersionGate(a.engine, a.store, a.cfg.AppVersion.CacheKey,
			middleware.WithLogger(a.logger),
			middleware.WithObserver(a.metrics))
		router, err := routes.Setup(routes.Deps{
			Config:    a.cfg,
			Store:     a.store,
			Gate:      gate,
			Refresher: a.refresher,
			Metrics:   a.metrics,
			Logger:    a.logger,
		})
		if err != nil {
			return err
		}

		if a.cfg.RefreshInterval > 0 {
			go routes.RefreshLoop(ctx, a.refresher, a.cfg.RefreshInterval, a.logger)
		}

		server := &http.Server{
			Addr:              ":" + a.cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("server starting", "addr", server.Addr, "store", a.cfg.Store.Driver)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

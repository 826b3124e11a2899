package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for triggering and inspecting runs",
		Args:  cobra.NoArgs,
		RunE: withSignalWatcher(func(ctx context.Context, _ *cobra.Command, _ []string) error {
			cfg := a.cfg

			d, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			limiter := pipeline.NewRunLimiter(pipeline.DefaultMaxConcurrentRuns)
			server := web.NewServer(cfg, d.runner, limiter, newValidator(cfg))

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.Server.Addr())
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if status := limiter.Status(); status.Active > 0 {
				slog.Info("waiting for active run to complete", "active", status.Active)
			}
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		}),
	}
}

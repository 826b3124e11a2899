package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/history"
	"github.com/JonMunkholm/dataclean/internal/loader"
	"github.com/JonMunkholm/dataclean/internal/notify"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/publisher"
	"github.com/JonMunkholm/dataclean/internal/staging"
	"github.com/JonMunkholm/dataclean/internal/storage"
)

// deps are the long-lived resources behind a runner.
type deps struct {
	store  storage.Store
	ledger history.Store
	runner *pipeline.Runner
}

func (d *deps) Close() {
	if d.ledger != nil {
		d.ledger.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Warn("closing object store", "error", err)
		}
	}
}

// newValidator builds the row validator from configuration.
func newValidator(cfg *config.Config) *core.Validator {
	return core.NewValidator(core.Options{RequireHeader: cfg.Validation.RequireHeader})
}

// newLedger opens the Postgres run ledger when a database URL is set and
// falls back to memory otherwise.
func newLedger(ctx context.Context, cfg config.DatabaseConfig) (history.Store, error) {
	if cfg.URL == "" {
		slog.Info("DATABASE_URL not set, keeping run history in memory")
		return history.NewMemoryStore(), nil
	}
	store, err := history.NewPostgresStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening run ledger: %w", err)
	}
	slog.Info("run ledger connected")
	return store, nil
}

// buildPipeline wires download, validate and upload, with notify as a
// finalizer so it reports failed runs too.
func buildPipeline(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating %s object store: %w", cfg.Storage.Backend, err)
	}
	d.store = store

	ledger, err := newLedger(ctx, cfg.Database)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.ledger = ledger

	area := staging.New(cfg.Staging.Dir)
	stages := []pipeline.Stage{
		loader.New(store, area, cfg.Storage.Bucket, cfg.Storage.InputKey),
		pipeline.NewValidateStage(area, newValidator(cfg)),
		publisher.New(store, area, cfg.Storage),
	}
	d.runner = pipeline.NewRunner(ledger, stages,
		pipeline.WithFinalizers(notify.New(cfg.Notify, cfg.Storage)),
	)

	slog.Info("pipeline ready",
		"backend", cfg.Storage.Backend,
		"bucket", cfg.Storage.Bucket,
		"input", cfg.Storage.InputKey,
		"staging_dir", cfg.Staging.Dir,
		"notify", cfg.Notify.WebhookURL != "",
	)
	return d, nil
}

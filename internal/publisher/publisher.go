// Package publisher implements the upload stage: it republishes the staged
// clean table and rejects report to object storage under timestamped keys.
package publisher

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/logging"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/staging"
	"github.com/JonMunkholm/dataclean/internal/storage"
)

// TimestampLayout formats the UTC run timestamp embedded in object names.
const TimestampLayout = "20060102T150405Z"

// Publisher uploads both validation outputs.
type Publisher struct {
	store        storage.Store
	area         *staging.Area
	bucket       string
	inputKey     string
	outputPrefix string
	rejectPrefix string
	clock        clockwork.Clock
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock overrides the clock that stamps object names.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Publisher) {
		p.clock = clock
	}
}

// New creates a publisher for the bucket and prefixes in cfg.
func New(store storage.Store, area *staging.Area, cfg config.StorageConfig, opts ...Option) *Publisher {
	p := &Publisher{
		store:        store,
		area:         area,
		bucket:       cfg.Bucket,
		inputKey:     cfg.InputKey,
		outputPrefix: cfg.OutputPrefix,
		rejectPrefix: cfg.RejectPrefix,
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements pipeline.Stage.
func (p *Publisher) Name() string { return pipeline.StageUpload }

// Run implements pipeline.Stage. Both staged files must exist before
// anything is uploaded.
func (p *Publisher) Run(ctx context.Context, h *pipeline.Handoff) error {
	cleanedPath := staging.Or(h.CleanedPath, p.area.CleanedPath())
	rejectedPath := staging.Or(h.RejectedPath, p.area.RejectedPath())

	cleaned, err := p.area.ReadFile(cleanedPath)
	if err != nil {
		return fmt.Errorf("cleaned file %w", err)
	}
	rejected, err := p.area.ReadFile(rejectedPath)
	if err != nil {
		return fmt.Errorf("rejects file %w", err)
	}

	cleanKey, rejectsKey := ObjectNames(p.inputKey, p.outputPrefix, p.rejectPrefix, p.clock.Now())

	if err := p.store.Put(ctx, p.bucket, cleanKey, cleaned, storage.ContentTypeCSV); err != nil {
		return err
	}
	h.CleanedObject = cleanKey

	if err := p.store.Put(ctx, p.bucket, rejectsKey, rejected, storage.ContentTypeCSV); err != nil {
		return err
	}
	h.RejectsObject = rejectsKey

	logging.FromContext(ctx).Info("outputs published",
		"bucket", p.bucket,
		"cleaned_object", cleanKey,
		"rejects_object", rejectsKey,
	)
	return nil
}

// ObjectNames returns the clean and rejects object keys for one run.
//
// The base name is the last path segment of inputKey without its final
// extension. Prefixes lose trailing slashes. An empty prefix places the
// object at the bucket root as "name", never "/name", so the key does not
// start with an empty path segment.
func ObjectNames(inputKey, outputPrefix, rejectPrefix string, now time.Time) (cleanKey, rejectsKey string) {
	base := path.Base(inputKey)
	base = strings.TrimSuffix(base, path.Ext(base))
	ts := now.UTC().Format(TimestampLayout)

	cleanKey = joinKey(outputPrefix, base+"_clean_"+ts+".csv")
	rejectsKey = joinKey(rejectPrefix, base+"_rejects_"+ts+".csv")
	return cleanKey, rejectsKey
}

// joinKey joins prefix and name with a single slash; an empty prefix adds none.
func joinKey(prefix, name string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

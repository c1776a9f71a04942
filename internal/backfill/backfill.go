// Package backfill drives batch generation for keys missing acceptable content.
package backfill

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/carewise-labs/guidance-cli/internal/chain"
	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/orchestrator"
	"github.com/carewise-labs/guidance-cli/internal/prompt"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

// Summary tallies one backfill run.
type Summary struct {
	Targets   int64 `json:"targets"`
	Generated int64 `json:"generated"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// Options tune a backfill run.
type Options struct {
	// Concurrency bounds in-flight generations. Default 4.
	Concurrency int
	// BatchSize is how many keys are processed between pacing pauses. Default 25.
	BatchSize int
	// RatePerSecond caps generations per second across all workers. Default 2.
	RatePerSecond float64
	// BatchPause is the idle time between batches. Default 2s.
	BatchPause time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 25
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 2
	}
	if o.BatchPause <= 0 {
		o.BatchPause = 2 * time.Second
	}
	return o
}

// Backfiller runs batch generation with the same claim protocol as the
// on-demand path.
type Backfiller struct {
	store store.Store
	gen   orchestrator.ContentGenerator
	quota orchestrator.QuotaChecker
}

// New creates a Backfiller.
func New(st store.Store, gen orchestrator.ContentGenerator, quota orchestrator.QuotaChecker) *Backfiller {
	return &Backfiller{store: st, gen: gen, quota: quota}
}

// Run enumerates missing keys matching the filter and generates them with a
// bounded worker pool. Individual key failures never abort the run.
func (b *Backfiller) Run(ctx context.Context, filter store.BackfillFilter, opts Options) (*Summary, error) {
	opts = opts.withDefaults()

	keys, err := b.store.ListMissing(ctx, filter, b.gen.Threshold())
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list missing")
	}

	catalog, err := b.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Targets: int64(len(keys))}
	if len(keys) == 0 {
		zap.L().Info("backfill: nothing to do")
		return summary, nil
	}

	zap.L().Info("backfill starting",
		zap.Int("targets", len(keys)),
		zap.Int("concurrency", opts.Concurrency),
		zap.Int("batch_size", opts.BatchSize))

	limiter := rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)

	var generated, failed, skipped atomic.Int64
	for start := 0; start < len(keys); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(keys) {
			end = len(keys)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, key := range keys[start:end] {
			g.Go(func() error {
				switch b.processKey(gctx, key, catalog, limiter) {
				case outcomeGenerated:
					generated.Add(1)
				case outcomeFailed:
					failed.Add(1)
				case outcomeSkipped:
					skipped.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "backfill: batch")
		}
		if ctx.Err() != nil {
			break
		}

		if end < len(keys) {
			select {
			case <-ctx.Done():
			case <-time.After(opts.BatchPause):
			}
		}
	}

	summary.Generated = generated.Load()
	summary.Failed = failed.Load()
	summary.Skipped = skipped.Load()

	zap.L().Info("backfill complete",
		zap.Int64("targets", summary.Targets),
		zap.Int64("generated", summary.Generated),
		zap.Int64("failed", summary.Failed),
		zap.Int64("skipped", summary.Skipped))
	return summary, nil
}

type keyOutcome int

const (
	outcomeSkipped keyOutcome = iota
	outcomeGenerated
	outcomeFailed
)

func (b *Backfiller) processKey(ctx context.Context, key model.Key, catalog *catalogIndex, limiter *rate.Limiter) keyOutcome {
	log := zap.L().With(zap.String("key", key.String()))

	device, lang, style, ok := catalog.lookup(key)
	if !ok {
		log.Warn("key references unknown catalog entry, skipping")
		return outcomeSkipped
	}

	allowed, err := b.quota.CanGenerate(ctx, lang)
	if err != nil {
		log.Warn("quota check failed", zap.Error(err))
		return outcomeSkipped
	}
	if !allowed {
		return outcomeSkipped
	}

	// Enumerated gaps may never have been requested on demand, so a backlog
	// row might not exist yet.
	if err := b.store.EnsureBacklog(ctx, key); err != nil {
		log.Warn("failed to ensure backlog entry", zap.Error(err))
		return outcomeSkipped
	}
	claimed, err := b.store.TryClaim(ctx, key, orchestrator.MaxAttempts)
	if err != nil {
		log.Warn("claim failed", zap.Error(err))
		return outcomeSkipped
	}
	if !claimed {
		return outcomeSkipped
	}

	if err := limiter.Wait(ctx); err != nil {
		b.releaseClaim(ctx, key, log)
		return outcomeSkipped
	}

	req := prompt.Request{Key: key, Device: device, Lang: lang, Style: style}
	content, genErr := b.gen.Generate(ctx, req)

	if genErr == nil {
		if err := b.store.UpsertContent(ctx, *content); err != nil {
			log.Error("failed to store generated content", zap.Error(err))
			b.releaseClaim(ctx, key, log)
			return outcomeFailed
		}
		if err := b.store.Complete(ctx, key); err != nil {
			log.Warn("failed to complete backlog entry", zap.Error(err))
		}
		b.quota.Invalidate(lang.Code)
		return outcomeGenerated
	}

	b.releaseClaim(ctx, key, log)

	if errors.Is(genErr, chain.ErrNoAcceptableContent) && content != nil {
		// Store the best sub-threshold candidate; the key stays pending and
		// a later run may still improve it.
		if err := b.store.UpsertContent(ctx, *content); err != nil {
			log.Warn("failed to store best-effort content", zap.Error(err))
		}
		b.quota.Invalidate(lang.Code)
	}

	log.Warn("generation failed", zap.Error(genErr))
	return outcomeFailed
}

func (b *Backfiller) releaseClaim(ctx context.Context, key model.Key, log *zap.Logger) {
	if err := b.store.Fail(ctx, key, orchestrator.MaxAttempts); err != nil {
		log.Warn("failed to release claim", zap.Error(err))
	}
}

// catalogIndex preloads the reference data so workers avoid per-key lookups.
type catalogIndex struct {
	devices   map[string]model.Device
	languages map[string]model.Language
	styles    map[string]model.Style
}

func (b *Backfiller) loadCatalog(ctx context.Context) (*catalogIndex, error) {
	devices, err := b.store.ListDevices(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list devices")
	}
	languages, err := b.store.ListLanguages(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list languages")
	}
	styles, err := b.store.ListStyles(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "backfill: list styles")
	}

	idx := &catalogIndex{
		devices:   make(map[string]model.Device, len(devices)),
		languages: make(map[string]model.Language, len(languages)),
		styles:    make(map[string]model.Style, len(styles)),
	}
	for _, d := range devices {
		idx.devices[d.Key] = d
	}
	for _, l := range languages {
		idx.languages[l.Code] = l
	}
	for _, st := range styles {
		idx.styles[st.Key] = st
	}
	return idx, nil
}

func (c *catalogIndex) lookup(key model.Key) (model.Device, model.Language, model.Style, bool) {
	device, ok := c.devices[key.DeviceKey]
	if !ok {
		return model.Device{}, model.Language{}, model.Style{}, false
	}
	lang, ok := c.languages[key.LanguageCode]
	if !ok {
		return model.Device{}, model.Language{}, model.Style{}, false
	}
	style, ok := c.styles[key.StyleKey]
	if !ok {
		return model.Device{}, model.Language{}, model.Style{}, false
	}
	return device, lang, style, true
}

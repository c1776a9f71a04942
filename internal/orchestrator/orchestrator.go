// Package orchestrator resolves guidance keys against the cache, the store,
// the provider chain, and the fallback ladder.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/chain"
	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/prompt"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

// MaxAttempts caps backlog generation attempts per key before it is parked
// as failed.
const MaxAttempts = 3

// FallbackKind identifies which rung of the fallback ladder served a request.
type FallbackKind string

const (
	FallbackNone           FallbackKind = ""
	FallbackBelowThreshold FallbackKind = "below_threshold"
	FallbackStyle          FallbackKind = "style"
	FallbackLanguage       FallbackKind = "language"
	FallbackEmergency      FallbackKind = "emergency"
)

// Resolution is the outcome of resolving one key.
type Resolution struct {
	Content   *model.Content
	CacheHit  bool
	Generated bool
	Fallback  FallbackKind
}

// ContentGenerator is the provider chain surface the orchestrator needs.
type ContentGenerator interface {
	Generate(ctx context.Context, req prompt.Request) (*model.Content, error)
	Threshold() float64
}

// QuotaChecker gates generation per language.
type QuotaChecker interface {
	CanGenerate(ctx context.Context, lang model.Language) (bool, error)
	Invalidate(languageCode string)
}

// Options tune the orchestrator.
type Options struct {
	CacheTTL     time.Duration
	CacheMaxSize int
}

// Orchestrator implements the Resolve algorithm.
type Orchestrator struct {
	store store.Store
	gen   ContentGenerator
	quota QuotaChecker
	cache *ttlCache
}

// New creates an Orchestrator.
func New(st store.Store, gen ContentGenerator, quota QuotaChecker, opts Options) *Orchestrator {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheMaxSize <= 0 {
		opts.CacheMaxSize = 4096
	}
	return &Orchestrator{
		store: st,
		gen:   gen,
		quota: quota,
		cache: newTTLCache(opts.CacheTTL, opts.CacheMaxSize),
	}
}

// Resolve returns guidance content for a key. For a valid key it never
// returns an error: the fallback ladder bottoms out at the per-device
// emergency template. Invalid keys get a ValidationError.
func (o *Orchestrator) Resolve(ctx context.Context, key model.Key) (*Resolution, error) {
	key = model.NormalizeKey(key)

	// Cached entries were validated when stored, so the cache can answer
	// even when the catalog is unreachable.
	if cached, ok := o.cache.Get(key); ok {
		return &Resolution{Content: cached, CacheHit: true}, nil
	}

	device, lang, style, err := o.validate(ctx, key)
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			return nil, err
		}
		zap.L().Error("catalog lookup failed, serving emergency fallback",
			zap.String("key", key.String()),
			zap.Error(err))
		return o.emergency(key, device), nil
	}

	threshold := o.gen.Threshold()

	existing, err := o.store.GetContent(ctx, key)
	if err != nil {
		// A degraded store must not break lookups for keys we can still serve.
		zap.L().Error("content lookup failed, serving emergency fallback",
			zap.String("key", key.String()),
			zap.Error(err))
		return o.emergency(key, device), nil
	}
	if existing != nil && existing.QualityScore >= threshold {
		o.cache.Set(key, *existing)
		return &Resolution{Content: existing, CacheHit: true}, nil
	}

	if err := o.store.RecordMiss(ctx, key); err != nil {
		zap.L().Warn("failed to record miss", zap.String("key", key.String()), zap.Error(err))
	}

	if res := o.tryGenerate(ctx, key, *device, *lang, *style); res != nil {
		return res, nil
	}

	return o.fallback(ctx, key, device, existing), nil
}

// validate resolves the key against the catalog. On a store error the
// device loaded so far is still returned so the caller can degrade with it.
func (o *Orchestrator) validate(ctx context.Context, key model.Key) (*model.Device, *model.Language, *model.Style, error) {
	device, err := o.store.GetDevice(ctx, key.DeviceKey)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "orchestrator: load device %s", key.DeviceKey)
	}
	if err := model.ValidateKey(key, device); err != nil {
		return nil, nil, nil, err
	}

	lang, err := o.store.GetLanguage(ctx, key.LanguageCode)
	if err != nil {
		return device, nil, nil, eris.Wrapf(err, "orchestrator: load language %s", key.LanguageCode)
	}
	if lang == nil {
		return nil, nil, nil, model.NewValidationError("language_code", "unknown language %q", key.LanguageCode)
	}

	style, err := o.store.GetStyle(ctx, key.StyleKey)
	if err != nil {
		return device, lang, nil, eris.Wrapf(err, "orchestrator: load style %s", key.StyleKey)
	}
	if style == nil {
		return nil, nil, nil, model.NewValidationError("style_key", "unknown style %q", key.StyleKey)
	}

	return device, lang, style, nil
}

// tryGenerate runs the synchronous generation path when quota and claim
// allow. It returns nil when the caller should fall back instead.
func (o *Orchestrator) tryGenerate(ctx context.Context, key model.Key, device model.Device, lang model.Language, style model.Style) *Resolution {
	allowed, err := o.quota.CanGenerate(ctx, lang)
	if err != nil {
		zap.L().Warn("quota check failed", zap.String("language", lang.Code), zap.Error(err))
		return nil
	}
	if !allowed {
		return nil
	}

	claimed, err := o.store.TryClaim(ctx, key, MaxAttempts)
	if err != nil {
		zap.L().Warn("claim failed", zap.String("key", key.String()), zap.Error(err))
		return nil
	}
	if !claimed {
		return nil
	}

	// The chain carries its own per-provider timeouts. Detaching from the
	// caller's deadline lets a generation the caller gave up on still land in
	// the store for the next request.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()

	req := prompt.Request{Key: key, Device: device, Lang: lang, Style: style}
	content, genErr := o.gen.Generate(genCtx, req)

	if genErr == nil {
		if err := o.store.UpsertContent(genCtx, *content); err != nil {
			zap.L().Error("failed to store generated content", zap.String("key", key.String()), zap.Error(err))
			o.release(genCtx, key)
			return nil
		}
		if err := o.store.Complete(genCtx, key); err != nil {
			zap.L().Warn("failed to complete backlog entry", zap.String("key", key.String()), zap.Error(err))
		}
		o.quota.Invalidate(lang.Code)
		o.cache.Set(key, *content)
		return &Resolution{Content: content, Generated: true}
	}

	if errors.Is(genErr, chain.ErrNoAcceptableContent) && content != nil {
		// Keep the best sub-threshold candidate: it serves reads until the
		// backfiller or sweep replaces it, and it beats the emergency text.
		// The upsert happens while the claim is still held so a concurrent
		// worker cannot land a better row that this one would overwrite.
		upsertErr := o.store.UpsertContent(genCtx, *content)
		o.release(genCtx, key)
		if upsertErr != nil {
			zap.L().Warn("failed to store best-effort content", zap.String("key", key.String()), zap.Error(upsertErr))
			return nil
		}
		o.quota.Invalidate(lang.Code)
		return &Resolution{Content: content, Generated: true, Fallback: FallbackBelowThreshold}
	}

	o.release(genCtx, key)
	zap.L().Warn("generation failed", zap.String("key", key.String()), zap.Error(genErr))
	return nil
}

func (o *Orchestrator) release(ctx context.Context, key model.Key) {
	if err := o.store.Fail(ctx, key, MaxAttempts); err != nil {
		zap.L().Warn("failed to release claim", zap.String("key", key.String()), zap.Error(err))
	}
}

// fallback walks the degradation ladder for a key that could not be served
// with fresh acceptable content.
func (o *Orchestrator) fallback(ctx context.Context, key model.Key, device *model.Device, existing *model.Content) *Resolution {
	if existing != nil {
		return &Resolution{Content: existing, Fallback: FallbackBelowThreshold}
	}

	if styleAlt, err := o.store.GetStyleFallback(ctx, key); err != nil {
		zap.L().Warn("style fallback lookup failed", zap.String("key", key.String()), zap.Error(err))
	} else if styleAlt != nil {
		return &Resolution{Content: styleAlt, Fallback: FallbackStyle}
	}

	if key.LanguageCode != "en" {
		if english, err := o.store.GetLanguageFallback(ctx, key, "en"); err != nil {
			zap.L().Warn("language fallback lookup failed", zap.String("key", key.String()), zap.Error(err))
		} else if english != nil {
			return &Resolution{Content: english, Fallback: FallbackLanguage}
		}
	}

	return o.emergency(key, device)
}

// emergency synthesizes the static per-device template, the floor of the
// ladder for every valid key. device may be nil when the catalog itself
// is unreachable.
func (o *Orchestrator) emergency(key model.Key, device *model.Device) *Resolution {
	name := key.DeviceKey
	text := ""
	if device != nil {
		name = device.Name
		text = device.EmergencyText
	}
	if text == "" {
		text = fmt.Sprintf("Guidance for %s step %d is temporarily unavailable. "+
			"Stop using the device if you are unsure how to proceed and contact your care provider.",
			name, key.StepNumber)
	}
	content := &model.Content{
		Key:          key,
		Title:        fmt.Sprintf("%s, step %d", name, key.StepNumber),
		Instructions: text,
		ProviderID:   "emergency",
		GeneratedAt:  time.Now().UTC(),
	}
	return &Resolution{Content: content, Fallback: FallbackEmergency}
}

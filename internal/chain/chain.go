// Package chain runs the ordered provider cascade for a single guidance key.
package chain

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/prompt"
	"github.com/carewise-labs/guidance-cli/internal/provider"
	"github.com/carewise-labs/guidance-cli/internal/quality"
	"github.com/carewise-labs/guidance-cli/internal/resilience"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

// ErrNoAcceptableContent is returned when every provider was tried and none
// produced content at or above the quality threshold.
var ErrNoAcceptableContent = eris.New("chain: no acceptable content")

// Chain tries providers in configured order until one produces content that
// clears the quality threshold.
type Chain struct {
	cfg      *Config
	registry *provider.Registry
	breakers *resilience.BreakerSet
	genLog   store.GenerationLog
	retry    resilience.RetryConfig
}

// New creates a Chain. genLog may not be nil; every attempt is recorded.
func New(cfg *Config, registry *provider.Registry, breakers *resilience.BreakerSet, genLog store.GenerationLog) *Chain {
	return &Chain{
		cfg:      cfg,
		registry: registry,
		breakers: breakers,
		genLog:   genLog,
		retry:    resilience.DefaultRetryConfig(),
	}
}

// Threshold returns the configured quality threshold.
func (c *Chain) Threshold() float64 {
	return c.cfg.Defaults.QualityThreshold
}

// Generate runs the cascade for the given request. On success the returned
// content scores at or above the threshold. When every provider is exhausted
// it returns ErrNoAcceptableContent together with the best-scoring candidate
// seen, which may be nil if nothing parseable came back at all.
func (c *Chain) Generate(ctx context.Context, req prompt.Request) (*model.Content, error) {
	system := prompt.SystemPrompt(req.Style)
	user := prompt.UserPrompt(req)
	fallbackTitle := prompt.FallbackTitle(req)

	var best *model.Content
	for _, pc := range c.cfg.Providers {
		gen := c.registry.Get(pc.ID)
		if gen == nil {
			zap.L().Warn("chain provider not registered, skipping",
				zap.String("provider", pc.ID))
			continue
		}

		content, score, err := c.tryProvider(ctx, pc, gen, req, system, user, fallbackTitle)
		if err != nil {
			if ctx.Err() != nil {
				return best, eris.Wrapf(ctx.Err(), "chain: generate %s", req.Key)
			}
			continue
		}

		if score >= c.cfg.Defaults.QualityThreshold {
			return content, nil
		}
		if best == nil || score > best.QualityScore {
			best = content
		}
	}

	return best, ErrNoAcceptableContent
}

// tryProvider runs one provider with its timeout, breaker, and retry budget,
// appends a generation-log row, and returns the parsed scored content.
func (c *Chain) tryProvider(ctx context.Context, pc ProviderConfig, gen provider.Generator, req prompt.Request, system, user, fallbackTitle string) (*model.Content, float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, pc.Timeout())
	defer cancel()

	retryCfg := c.retry
	retryCfg.MaxAttempts = c.cfg.Defaults.MaxAttempts
	retryCfg.OnRetry = resilience.RetryLogger(pc.ID, "generate")

	breaker := c.breakers.Get(pc.ID)

	start := time.Now()
	result, err := resilience.DoVal(callCtx, retryCfg, func(ctx context.Context) (*provider.Result, error) {
		var res *provider.Result
		execErr := breaker.Execute(ctx, func(ctx context.Context) error {
			var genErr error
			res, genErr = gen.Generate(ctx, system, user, pc.MaxTokens, *pc.Temperature)
			return genErr
		})
		return res, execErr
	})
	latency := time.Since(start)

	entry := model.GenerationLogEntry{
		Key:        req.Key,
		ProviderID: pc.ID,
		LatencyMs:  latency.Milliseconds(),
	}

	if err != nil {
		entry.Outcome = classifyFailure(callCtx, err)
		entry.Error = err.Error()
		c.appendLog(ctx, entry)
		zap.L().Warn("provider attempt failed",
			zap.String("provider", pc.ID),
			zap.String("key", req.Key.String()),
			zap.String("outcome", string(entry.Outcome)),
			zap.Duration("latency", latency),
			zap.Error(err))
		return nil, 0, err
	}

	entry.InputTokens = result.InputTokens
	entry.OutputTokens = result.OutputTokens
	entry.CostUSD = result.CostUSD

	content, parseErr := provider.ParseContent(result.Text, req.Key, fallbackTitle)
	if parseErr != nil {
		entry.Outcome = model.OutcomeParseFailure
		entry.Error = parseErr.Error()
		c.appendLog(ctx, entry)
		return nil, 0, parseErr
	}

	score := quality.Score(content)
	content.QualityScore = score
	content.IsAIGenerated = true
	content.ProviderID = pc.ID
	content.GeneratedAt = time.Now().UTC()

	entry.QualityScore = score
	if score >= c.cfg.Defaults.QualityThreshold {
		entry.Outcome = model.OutcomeSuccess
	} else {
		entry.Outcome = model.OutcomeLowQuality
	}
	c.appendLog(ctx, entry)

	zap.L().Info("provider attempt finished",
		zap.String("provider", pc.ID),
		zap.String("key", req.Key.String()),
		zap.Float64("quality_score", score),
		zap.Duration("latency", latency))

	return &content, score, nil
}

// appendLog writes the attempt row outside the caller's deadline so a timed
// out request still leaves an audit trail.
func (c *Chain) appendLog(ctx context.Context, entry model.GenerationLogEntry) {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.genLog.AppendGeneration(logCtx, entry); err != nil {
		zap.L().Warn("failed to append generation log",
			zap.String("key", entry.Key.String()),
			zap.Error(err))
	}
}

func classifyFailure(callCtx context.Context, err error) model.GenerationOutcome {
	switch {
	case errors.Is(err, resilience.ErrBreakerOpen):
		return model.OutcomeCircuitOpen
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return model.OutcomeTimeout
	default:
		return model.OutcomeProviderErr
	}
}

package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/backfill"
	"github.com/carewise-labs/guidance-cli/internal/chain"
	"github.com/carewise-labs/guidance-cli/internal/orchestrator"
	"github.com/carewise-labs/guidance-cli/internal/provider"
	"github.com/carewise-labs/guidance-cli/internal/quota"
	"github.com/carewise-labs/guidance-cli/internal/resilience"
	"github.com/carewise-labs/guidance-cli/internal/store"
	anthropicpkg "github.com/carewise-labs/guidance-cli/pkg/anthropic"
)

// runtime bundles the wired application components for one command run.
type runtime struct {
	Store store.Store
	Chain *chain.Chain
	Quota *quota.Manager
	Orch  *orchestrator.Orchestrator

	closers []func() error
}

// Close releases all held resources in reverse acquisition order.
func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "guidance.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns:           cfg.Store.MaxConns,
			MinConns:           cfg.Store.MinConns,
			StatementTimeoutMs: cfg.Store.StatementTimeoutMs,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initRuntime wires the store, provider registry, chain, quota manager, and
// orchestrator from config.
func initRuntime(ctx context.Context) (*runtime, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	rt := &runtime{Store: st}
	rt.closers = append(rt.closers, st.Close)

	registry := provider.NewRegistry()

	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		registry.Register(provider.NewAnthropicGenerator("anthropic", client, cfg.Anthropic.Model))
	}
	if cfg.OpenAI.Key != "" {
		registry.Register(provider.NewOpenAIGenerator("openai", cfg.OpenAI.Key, cfg.OpenAI.Model))
	}
	if cfg.Gemini.Key != "" {
		gem, err := provider.NewGeminiGenerator(ctx, "gemini", cfg.Gemini.Key, cfg.Gemini.Model)
		if err != nil {
			rt.Close()
			return nil, eris.Wrap(err, "init gemini provider")
		}
		registry.Register(gem)
		rt.closers = append(rt.closers, gem.Close)
	}

	if len(registry.List()) == 0 {
		rt.Close()
		return nil, eris.New("no generation providers configured (set anthropic.key, openai.key, or gemini.key)")
	}

	chainCfg := chain.DefaultConfigChain()
	if cfg.Chain.ConfigPath != "" {
		chainCfg, err = chain.LoadConfig(cfg.Chain.ConfigPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	breakers := resilience.NewBreakerSet(resilience.DefaultBreakerConfig())
	rt.Chain = chain.New(chainCfg, registry, breakers, st)
	rt.Quota = quota.NewManager(st).WithDefaultCap(cfg.Quota.DefaultDailyCap)
	rt.Orch = orchestrator.New(st, rt.Chain, rt.Quota, orchestrator.Options{
		CacheTTL:     time.Duration(cfg.Cache.TTLSecs) * time.Second,
		CacheMaxSize: cfg.Cache.MaxSize,
	})

	zap.L().Info("runtime initialized",
		zap.String("driver", cfg.Store.Driver),
		zap.Strings("providers", registry.List()),
	)
	return rt, nil
}

// backfillOptions translates config defaults into backfill options.
func backfillOptions() backfill.Options {
	return backfill.Options{
		Concurrency:   cfg.Backfill.Concurrency,
		BatchSize:     cfg.Backfill.BatchSize,
		RatePerSecond: cfg.Backfill.RatePerSecond,
		BatchPause:    time.Duration(cfg.Backfill.BatchPauseSecs) * time.Second,
	}
}

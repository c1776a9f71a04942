package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/config"
	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

func TestCheckerSendsAlertsOnTick(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := &fakeStatsStore{
		backlog: map[model.BacklogStatus]int{},
		stats: []store.LanguageGenerationStat{
			{LanguageCode: "en", Successes: 10, CostUSD: 50.0},
		},
	}

	cfg := config.MonitoringConfig{
		WebhookURL:           srv.URL,
		FailureRateThreshold: 0.5,
		DailyCostLimitUSD:    25.0,
	}
	checker := NewChecker(NewCollector(st, 100), NewAlerter(cfg), cfg)

	// Drive one check directly instead of waiting out a ticker.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	checker.check(ctx, zap.NewNop())

	assert.Equal(t, int32(1), received.Load())
}

func TestCheckerStopsOnCancel(t *testing.T) {
	st := &fakeStatsStore{backlog: map[model.BacklogStatus]int{}}
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1}
	checker := NewChecker(NewCollector(st, 100), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("checker did not stop after cancellation")
	}
}

func TestCheckerSurvivesCollectError(t *testing.T) {
	st := &fakeStatsStore{err: assert.AnError}
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1}
	checker := NewChecker(NewCollector(st, 100), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	checker.check(ctx, zap.NewNop())
}

package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise-labs/guidance-cli/internal/config"
)

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		FailureRateThreshold: 0.5,
		MaxFailedBacklog:     100,
		DailyCostLimitUSD:    25.0,
	}
}

func TestEvaluateHealthySnapshot(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{
		GenerationsToday: 50,
		FailuresToday:    2,
		FailureRate:      float64(2) / 52,
		BacklogFailed:    10,
		CostTodayUSD:     3.50,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestEvaluateFailureRate(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{
		GenerationsToday: 3,
		FailuresToday:    7,
		FailureRate:      0.7,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertGenerationFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "70.0%")
}

func TestEvaluateFailureRateTooFewAttempts(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{
		GenerationsToday: 1,
		FailuresToday:    3,
		FailureRate:      0.75,
	}

	// Under 5 attempts the rate is noise, not a signal.
	assert.Empty(t, a.Evaluate(snap))
}

func TestEvaluateFailedBacklogDepth(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{BacklogFailed: 150}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertBacklogFailedDepth, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
}

func TestEvaluateCostOverrun(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{CostTodayUSD: 31.20}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCostOverrun, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "$31.20")
}

func TestEvaluateCostLimitDisabled(t *testing.T) {
	cfg := testMonitoringConfig()
	cfg.DailyCostLimitUSD = 0
	a := NewAlerter(cfg)
	snap := &MetricsSnapshot{CostTodayUSD: 500}

	assert.Empty(t, a.Evaluate(snap))
}

func TestEvaluateMultipleAlerts(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	snap := &MetricsSnapshot{
		GenerationsToday: 2,
		FailuresToday:    8,
		FailureRate:      0.8,
		BacklogFailed:    200,
		CostTodayUSD:     40,
	}

	alerts := a.Evaluate(snap)
	assert.Len(t, alerts, 3)
}

func TestSendAlertsPostsWebhook(t *testing.T) {
	var received atomic.Int32
	var gotAlert Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotAlert))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	alerts := a.Evaluate(&MetricsSnapshot{CostTodayUSD: 31.20})
	sent := a.SendAlerts(context.Background(), alerts)

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, AlertCostOverrun, gotAlert.Type)
}

func TestSendAlertsWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCostOverrun}})
	assert.Equal(t, 0, sent)
}

func TestSendAlertsNoWebhookConfigured(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCostOverrun}})
	assert.Equal(t, 0, sent)
}

package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertGenerationFailureRate AlertType = "generation_failure_rate"
	AlertBacklogFailedDepth    AlertType = "backlog_failed_depth"
	AlertCostOverrun           AlertType = "cost_overrun"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Generation failure rate today. A handful of attempts is too noisy to
	// alert on.
	attempts := snap.GenerationsToday + snap.FailuresToday
	if attempts >= 5 && snap.FailureRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertGenerationFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Generation failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempts today)",
				snap.FailureRate*100, a.cfg.FailureRateThreshold*100,
				snap.FailuresToday, attempts,
			),
			Details: map[string]any{
				"failure_rate": snap.FailureRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.FailuresToday,
				"attempts":     attempts,
			},
			Timestamp: now,
		})
	}

	// Permanently failed backlog entries needing manual requeue.
	if a.cfg.MaxFailedBacklog > 0 && snap.BacklogFailed > a.cfg.MaxFailedBacklog {
		alerts = append(alerts, Alert{
			Type:     AlertBacklogFailedDepth,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d backlog entries have exhausted their attempts (threshold %d)",
				snap.BacklogFailed, a.cfg.MaxFailedBacklog,
			),
			Details: map[string]any{
				"failed_entries": snap.BacklogFailed,
				"threshold":      a.cfg.MaxFailedBacklog,
				"pending":        snap.BacklogPending,
			},
			Timestamp: now,
		})
	}

	// Daily spend overrun.
	if a.cfg.DailyCostLimitUSD > 0 && snap.CostTodayUSD > a.cfg.DailyCostLimitUSD {
		alerts = append(alerts, Alert{
			Type:     AlertCostOverrun,
			Severity: "high",
			Message: fmt.Sprintf(
				"API cost $%.2f today exceeds limit $%.2f",
				snap.CostTodayUSD, a.cfg.DailyCostLimitUSD,
			),
			Details: map[string]any{
				"cost_usd":    snap.CostTodayUSD,
				"limit_usd":   a.cfg.DailyCostLimitUSD,
				"generations": snap.GenerationsToday,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

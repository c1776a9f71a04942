// Package monitoring gathers coverage and spend metrics and raises webhook
// alerts when generation health degrades.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/quality"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Content coverage.
	ContentTotal      int     `json:"content_total"`
	ContentAcceptable int     `json:"content_acceptable"`
	AcceptableRate    float64 `json:"acceptable_rate"`

	// Backlog depth by status.
	BacklogPending    int `json:"backlog_pending"`
	BacklogProcessing int `json:"backlog_processing"`
	BacklogCompleted  int `json:"backlog_completed"`
	BacklogFailed     int `json:"backlog_failed"`

	// Today's generation activity (UTC day).
	Languages        []store.LanguageGenerationStat `json:"languages"`
	GenerationsToday int                            `json:"generations_today"`
	FailuresToday    int                            `json:"failures_today"`
	FailureRate      float64                        `json:"failure_rate"`
	CostTodayUSD     float64                        `json:"cost_today_usd"`

	// Languages whose daily quota is exhausted.
	LanguagesAtCap []string `json:"languages_at_cap,omitempty"`

	// Metadata.
	QualityThreshold float64   `json:"quality_threshold"`
	CollectedAt      time.Time `json:"collected_at"`
}

// StatsStore is the slice of the store the collector reads from.
type StatsStore interface {
	CountContent(ctx context.Context, threshold float64) (total, acceptable int, err error)
	CountBacklog(ctx context.Context) (map[model.BacklogStatus]int, error)
	GenerationStatsToday(ctx context.Context) ([]store.LanguageGenerationStat, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
}

// Collector gathers metrics from the store.
type Collector struct {
	store      StatsStore
	defaultCap int
}

// NewCollector creates a metrics collector. defaultCap is the per-language
// daily quota applied when a language carries no override.
func NewCollector(st StatsStore, defaultCap int) *Collector {
	return &Collector{store: st, defaultCap: defaultCap}
}

// Collect gathers a snapshot of coverage, backlog depth, and today's spend.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		QualityThreshold: quality.DefaultThreshold,
		CollectedAt:      time.Now().UTC(),
	}

	total, acceptable, err := c.store.CountContent(ctx, quality.DefaultThreshold)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count content")
	}
	snap.ContentTotal = total
	snap.ContentAcceptable = acceptable
	if total > 0 {
		snap.AcceptableRate = float64(acceptable) / float64(total)
	}

	backlog, err := c.store.CountBacklog(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count backlog")
	}
	snap.BacklogPending = backlog[model.BacklogPending]
	snap.BacklogProcessing = backlog[model.BacklogProcessing]
	snap.BacklogCompleted = backlog[model.BacklogCompleted]
	snap.BacklogFailed = backlog[model.BacklogFailed]

	stats, err := c.store.GenerationStatsToday(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: generation stats")
	}
	snap.Languages = stats
	for _, s := range stats {
		snap.GenerationsToday += s.Successes
		snap.FailuresToday += s.Failures
		snap.CostTodayUSD += s.CostUSD
	}
	attempts := snap.GenerationsToday + snap.FailuresToday
	if attempts > 0 {
		snap.FailureRate = float64(snap.FailuresToday) / float64(attempts)
	}

	caps, err := c.languageCaps(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range stats {
		if limit, ok := caps[s.LanguageCode]; ok && s.Successes >= limit {
			snap.LanguagesAtCap = append(snap.LanguagesAtCap, s.LanguageCode)
		}
	}

	return snap, nil
}

func (c *Collector) languageCaps(ctx context.Context) (map[string]int, error) {
	languages, err := c.store.ListLanguages(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list languages")
	}
	caps := make(map[string]int, len(languages))
	for _, l := range languages {
		limit := c.defaultCap
		if l.DailyCap > 0 {
			limit = l.DailyCap
		}
		caps[l.Code] = limit
	}
	return caps, nil
}

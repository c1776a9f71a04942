package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

type fakeStatsStore struct {
	total      int
	acceptable int
	backlog    map[model.BacklogStatus]int
	stats      []store.LanguageGenerationStat
	languages  []model.Language
	err        error
}

func (f *fakeStatsStore) CountContent(_ context.Context, _ float64) (int, int, error) {
	return f.total, f.acceptable, f.err
}

func (f *fakeStatsStore) CountBacklog(_ context.Context) (map[model.BacklogStatus]int, error) {
	return f.backlog, f.err
}

func (f *fakeStatsStore) GenerationStatsToday(_ context.Context) ([]store.LanguageGenerationStat, error) {
	return f.stats, f.err
}

func (f *fakeStatsStore) ListLanguages(_ context.Context) ([]model.Language, error) {
	return f.languages, f.err
}

func TestCollectAggregates(t *testing.T) {
	st := &fakeStatsStore{
		total:      200,
		acceptable: 150,
		backlog: map[model.BacklogStatus]int{
			model.BacklogPending:    12,
			model.BacklogProcessing: 3,
			model.BacklogCompleted:  80,
			model.BacklogFailed:     5,
		},
		stats: []store.LanguageGenerationStat{
			{LanguageCode: "en", Successes: 40, Failures: 4, CostUSD: 0.80},
			{LanguageCode: "de", Successes: 20, Failures: 16, CostUSD: 0.55},
		},
		languages: []model.Language{
			{Code: "en", DailyCap: 0},
			{Code: "de", DailyCap: 0},
		},
	}

	snap, err := NewCollector(st, 100).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, snap.ContentTotal)
	assert.Equal(t, 150, snap.ContentAcceptable)
	assert.InDelta(t, 0.75, snap.AcceptableRate, 0.001)
	assert.Equal(t, 12, snap.BacklogPending)
	assert.Equal(t, 3, snap.BacklogProcessing)
	assert.Equal(t, 80, snap.BacklogCompleted)
	assert.Equal(t, 5, snap.BacklogFailed)
	assert.Equal(t, 60, snap.GenerationsToday)
	assert.Equal(t, 20, snap.FailuresToday)
	assert.InDelta(t, 0.25, snap.FailureRate, 0.001)
	assert.InDelta(t, 1.35, snap.CostTodayUSD, 0.001)
	assert.Empty(t, snap.LanguagesAtCap)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollectLanguagesAtCap(t *testing.T) {
	st := &fakeStatsStore{
		stats: []store.LanguageGenerationStat{
			{LanguageCode: "en", Successes: 100},
			{LanguageCode: "de", Successes: 30},
			{LanguageCode: "th", Successes: 10},
		},
		languages: []model.Language{
			{Code: "en"},
			{Code: "de"},
			{Code: "th", DailyCap: 10},
		},
	}

	snap, err := NewCollector(st, 100).Collect(context.Background())
	require.NoError(t, err)

	// en hit the default cap, th hit its override, de is under.
	assert.ElementsMatch(t, []string{"en", "th"}, snap.LanguagesAtCap)
}

func TestCollectEmptyStore(t *testing.T) {
	st := &fakeStatsStore{backlog: map[model.BacklogStatus]int{}}

	snap, err := NewCollector(st, 100).Collect(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.ContentTotal)
	assert.Zero(t, snap.AcceptableRate)
	assert.Zero(t, snap.FailureRate)
}

func TestCollectStoreError(t *testing.T) {
	st := &fakeStatsStore{err: errors.New("connection refused")}

	_, err := NewCollector(st, 100).Collect(context.Background())
	assert.Error(t, err)
}

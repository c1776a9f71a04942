package quota

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

type fakeGenLog struct {
	counts map[string]int
	err    error
	calls  int
}

func (f *fakeGenLog) AppendGeneration(context.Context, model.GenerationLogEntry) error { return nil }

func (f *fakeGenLog) CountGenerationsToday(_ context.Context, lang string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[lang], nil
}

func (f *fakeGenLog) GenerationStatsToday(context.Context) ([]store.LanguageGenerationStat, error) {
	return nil, nil
}

func TestCap(t *testing.T) {
	assert.Equal(t, 100, Cap(model.Language{Code: "en"}))
	assert.Equal(t, 25, Cap(model.Language{Code: "th", DailyCap: 25}))
}

func TestCanGenerate_UnderCap(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 99}}
	m := NewManager(log)

	ok, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanGenerate_AtCap(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 100}}
	m := NewManager(log)

	ok, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanGenerate_LanguageOverride(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"th": 25}}
	m := NewManager(log)

	ok, err := m.CanGenerate(context.Background(), model.Language{Code: "th", DailyCap: 25})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.CanGenerate(context.Background(), model.Language{Code: "th", DailyCap: 26})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanGenerate_ConfiguredDefaultCap(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 150}}
	m := NewManager(log).WithDefaultCap(200)

	ok, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.True(t, ok)

	// Catalog overrides still win over the configured default.
	ok, err = m.CanGenerate(context.Background(), model.Language{Code: "en", DailyCap: 150})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanGenerate_MemoizesCount(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 5}}
	m := NewManager(log)

	for i := 0; i < 10; i++ {
		_, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, log.calls)
}

func TestCanGenerate_MemoExpires(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 5}}
	clock := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	m := NewManager(log).WithNow(func() time.Time { return clock })

	_, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)

	clock = clock.Add(memoTTL + time.Second)
	_, err = m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.Equal(t, 2, log.calls)
}

func TestCanGenerate_MemoDroppedAtUTCMidnight(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 100}}
	clock := time.Date(2026, 8, 29, 23, 59, 50, 0, time.UTC)
	m := NewManager(log).WithNow(func() time.Time { return clock })

	ok, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.False(t, ok)

	// Ten seconds later a new UTC day starts and the counter resets.
	clock = clock.Add(10 * time.Second)
	log.counts["en"] = 0
	ok, err = m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanGenerate_Invalidate(t *testing.T) {
	log := &fakeGenLog{counts: map[string]int{"en": 5}}
	m := NewManager(log)

	_, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)

	m.Invalidate("en")
	_, err = m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.NoError(t, err)
	assert.Equal(t, 2, log.calls)
}

func TestCanGenerate_StoreError(t *testing.T) {
	log := &fakeGenLog{err: eris.New("db down")}
	m := NewManager(log)

	_, err := m.CanGenerate(context.Background(), model.Language{Code: "en"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota:")
}

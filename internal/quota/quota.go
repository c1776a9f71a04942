// Package quota enforces per-language daily generation caps.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

// DefaultDailyCap applies to languages without an explicit catalog override.
const DefaultDailyCap = 100

// memoTTL bounds how stale a cached count may be. A worst-case overshoot of a
// few generations per language is acceptable; the cap is a cost control, not
// a hard security boundary.
const memoTTL = 30 * time.Second

type cachedCount struct {
	count     int
	fetchedAt time.Time
}

// Manager answers whether a language may consume another generation today.
type Manager struct {
	genLog     store.GenerationLog
	defaultCap int

	mu    sync.Mutex
	cache map[string]cachedCount
	now   func() time.Time
}

// NewManager creates a quota Manager backed by the generation log.
func NewManager(genLog store.GenerationLog) *Manager {
	return &Manager{
		genLog:     genLog,
		defaultCap: DefaultDailyCap,
		cache:      make(map[string]cachedCount),
		now:        time.Now,
	}
}

// WithDefaultCap overrides the cap applied to languages without a catalog
// override.
func (m *Manager) WithDefaultCap(cap int) *Manager {
	if cap > 0 {
		m.defaultCap = cap
	}
	return m
}

// WithNow sets a fixed clock for testing.
func (m *Manager) WithNow(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Cap returns the daily cap for a language.
func Cap(lang model.Language) int {
	if lang.DailyCap > 0 {
		return lang.DailyCap
	}
	return DefaultDailyCap
}

func (m *Manager) capFor(lang model.Language) int {
	if lang.DailyCap > 0 {
		return lang.DailyCap
	}
	return m.defaultCap
}

// CanGenerate reports whether the language is under its daily cap. Counts are
// memoized briefly to keep the hot lookup path off the database.
func (m *Manager) CanGenerate(ctx context.Context, lang model.Language) (bool, error) {
	count, err := m.countToday(ctx, lang.Code)
	if err != nil {
		return false, eris.Wrapf(err, "quota: count %s", lang.Code)
	}

	cap := m.capFor(lang)
	if count >= cap {
		zap.L().Info("daily quota exhausted",
			zap.String("language", lang.Code),
			zap.Int("count", count),
			zap.Int("cap", cap))
		return false, nil
	}
	return true, nil
}

// Invalidate drops the memoized count for a language after a successful
// generation so the next check sees it.
func (m *Manager) Invalidate(languageCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, languageCode)
}

func (m *Manager) countToday(ctx context.Context, languageCode string) (int, error) {
	now := m.now()

	m.mu.Lock()
	cached, ok := m.cache[languageCode]
	m.mu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < memoTTL && sameUTCDay(cached.fetchedAt, now) {
		return cached.count, nil
	}

	count, err := m.genLog.CountGenerationsToday(ctx, languageCode)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.cache[languageCode] = cachedCount{count: count, fetchedAt: now}
	m.mu.Unlock()
	return count, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Package store defines the persistence interfaces for guidance content, the
// generation backlog, the generation audit log, and the device catalog.
package store

import (
	"context"
	"time"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// BackfillFilter narrows the key enumeration for a backfill run.
type BackfillFilter struct {
	// DeviceKey limits enumeration to one device when set.
	DeviceKey string
	// MaxLanguagePriority includes only languages with priority <= N (1 =
	// highest). Zero includes all languages.
	MaxLanguagePriority int
	// StyleKey limits enumeration to one style when set.
	StyleKey string
	// MinRequestCount includes only keys whose backlog entry has at least
	// this many recorded misses. Zero includes never-requested keys.
	MinRequestCount int
	// Limit caps the number of keys returned. Zero means the store default.
	Limit int
}

// LanguageGenerationStat summarizes today's generation activity for one language.
type LanguageGenerationStat struct {
	LanguageCode string  `json:"language_code"`
	Successes    int     `json:"successes"`
	Failures     int     `json:"failures"`
	CostUSD      float64 `json:"cost_usd"`
}

// ContentStore persists guidance content keyed by the 4-tuple.
type ContentStore interface {
	// GetContent returns the content row for a key, or (nil, nil) on a miss.
	// It never blocks on in-flight generation.
	GetContent(ctx context.Context, key model.Key) (*model.Content, error)
	// UpsertContent atomically replaces the row for content.Key.
	UpsertContent(ctx context.Context, content model.Content) error
	// GetStyleFallback returns the best-scoring cached content for the same
	// device/step/language in any other style, or (nil, nil).
	GetStyleFallback(ctx context.Context, key model.Key) (*model.Content, error)
	// GetLanguageFallback returns cached content for the same device/step/style
	// in the given language, or (nil, nil).
	GetLanguageFallback(ctx context.Context, key model.Key, languageCode string) (*model.Content, error)
	// ListMissing enumerates keys lacking content at or above threshold,
	// ordered by backlog priority.
	ListMissing(ctx context.Context, filter BackfillFilter, threshold float64) ([]model.Key, error)
	// SweepLowQuality deletes AI-generated rows generated before cutoff with a
	// score below floor and returns the affected keys for re-queueing.
	SweepLowQuality(ctx context.Context, cutoff time.Time, floor float64) ([]model.Key, error)
	// CountContent returns total rows and rows at or above threshold.
	CountContent(ctx context.Context, threshold float64) (total, acceptable int, err error)
}

// BacklogTracker records keys lacking acceptable content and arbitrates
// generation attempts between the on-demand and batch paths.
type BacklogTracker interface {
	// RecordMiss upserts the backlog entry for a key: created as pending with
	// requestCount 1, or incremented in place. Status is left untouched for
	// existing entries.
	RecordMiss(ctx context.Context, key model.Key) error
	// EnsureBacklog creates a pending entry if none exists, without touching
	// counters or status on existing entries (the batch path's on-ramp).
	EnsureBacklog(ctx context.Context, key model.Key) error
	// TryClaim atomically transitions pending -> processing. Returns false if
	// the entry is absent, already processing, completed, failed, or has
	// exhausted maxAttempts.
	TryClaim(ctx context.Context, key model.Key, maxAttempts int) (bool, error)
	// Complete marks a processing entry completed.
	Complete(ctx context.Context, key model.Key) error
	// Fail releases a processing entry, incrementing attempts; the entry
	// returns to pending, or to failed once attempts reach maxAttempts.
	Fail(ctx context.Context, key model.Key, maxAttempts int) error
	// Requeue resets an entry to pending with zero attempts (manual recovery
	// and the low-quality sweep).
	Requeue(ctx context.Context, key model.Key) error
	// CountBacklog returns entry counts grouped by status.
	CountBacklog(ctx context.Context) (map[model.BacklogStatus]int, error)
}

// GenerationLog is the append-only audit trail of provider attempts.
type GenerationLog interface {
	// AppendGeneration records one provider attempt. Entries are never mutated.
	AppendGeneration(ctx context.Context, entry model.GenerationLogEntry) error
	// CountGenerationsToday counts successful generations for a language since
	// the UTC day boundary.
	CountGenerationsToday(ctx context.Context, languageCode string) (int, error)
	// GenerationStatsToday summarizes today's attempts per language.
	GenerationStatsToday(ctx context.Context) ([]LanguageGenerationStat, error)
}

// Catalog exposes the device, language, and style reference data.
type Catalog interface {
	GetDevice(ctx context.Context, deviceKey string) (*model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	GetLanguage(ctx context.Context, code string) (*model.Language, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
	GetStyle(ctx context.Context, styleKey string) (*model.Style, error)
	ListStyles(ctx context.Context) ([]model.Style, error)
	// SeedCatalog idempotently upserts reference rows.
	SeedCatalog(ctx context.Context, devices []model.Device, languages []model.Language, styles []model.Style) error
}

// Store is the full persistence surface backed by one database.
type Store interface {
	ContentStore
	BacklogTracker
	GenerationLog
	Catalog

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

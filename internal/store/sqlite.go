package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for local
// development and tests; production runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// Claim atomicity relies on serialized writers.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS devices (
	key            TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	total_steps    INTEGER NOT NULL,
	emergency_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS languages (
	code      TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	daily_cap INTEGER NOT NULL DEFAULT 0,
	priority  INTEGER NOT NULL DEFAULT 9
);

CREATE TABLE IF NOT EXISTS styles (
	key        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	descriptor TEXT NOT NULL DEFAULT '',
	is_default INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS guidance_content (
	id              TEXT PRIMARY KEY,
	device_key      TEXT NOT NULL,
	step_number     INTEGER NOT NULL,
	language_code   TEXT NOT NULL,
	style_key       TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	instructions    TEXT NOT NULL,
	warnings        TEXT NOT NULL DEFAULT '',
	tips            TEXT NOT NULL DEFAULT '',
	quality_score   REAL NOT NULL DEFAULT 0,
	is_ai_generated INTEGER NOT NULL DEFAULT 0,
	provider_id     TEXT NOT NULL DEFAULT '',
	generated_at    DATETIME NOT NULL,
	UNIQUE (device_key, step_number, language_code, style_key)
);

CREATE INDEX IF NOT EXISTS idx_content_step ON guidance_content(device_key, step_number, language_code);

CREATE TABLE IF NOT EXISTS missing_guidance_requests (
	id                TEXT PRIMARY KEY,
	device_key        TEXT NOT NULL,
	step_number       INTEGER NOT NULL,
	language_code     TEXT NOT NULL,
	style_key         TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	attempts          INTEGER NOT NULL DEFAULT 0,
	request_count     INTEGER NOT NULL DEFAULT 0,
	priority_score    REAL NOT NULL DEFAULT 0,
	last_requested_at DATETIME NOT NULL,
	created_at        DATETIME NOT NULL,
	UNIQUE (device_key, step_number, language_code, style_key)
);

CREATE INDEX IF NOT EXISTS idx_backlog_status ON missing_guidance_requests(status);

CREATE TABLE IF NOT EXISTS guidance_generation_log (
	id            TEXT PRIMARY KEY,
	device_key    TEXT NOT NULL,
	step_number   INTEGER NOT NULL,
	language_code TEXT NOT NULL,
	style_key     TEXT NOT NULL,
	provider_id   TEXT NOT NULL,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd      REAL NOT NULL DEFAULT 0,
	quality_score REAL NOT NULL DEFAULT 0,
	outcome       TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_genlog_quota ON guidance_generation_log(language_code, outcome, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Content

func (s *SQLiteStore) GetContent(ctx context.Context, key model.Key) (*model.Content, error) {
	c := model.Content{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key = ?`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	).Scan(&c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get content %s", key)
	}
	return &c, nil
}

func (s *SQLiteStore) UpsertContent(ctx context.Context, content model.Content) error {
	k := content.Key
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guidance_content
		 (id, device_key, step_number, language_code, style_key, title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   title = excluded.title, description = excluded.description,
		   instructions = excluded.instructions, warnings = excluded.warnings,
		   tips = excluded.tips, quality_score = excluded.quality_score,
		   is_ai_generated = excluded.is_ai_generated, provider_id = excluded.provider_id,
		   generated_at = excluded.generated_at`,
		uuid.New().String(), k.DeviceKey, k.StepNumber, k.LanguageCode, k.StyleKey,
		content.Title, content.Description, content.Instructions, content.Warnings, content.Tips,
		content.QualityScore, content.IsAIGenerated, content.ProviderID, content.GeneratedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert content %s", k)
}

func (s *SQLiteStore) GetStyleFallback(ctx context.Context, key model.Key) (*model.Content, error) {
	c := model.Content{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT style_key, title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key <> ?
		 ORDER BY quality_score DESC LIMIT 1`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	).Scan(&c.Key.StyleKey, &c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: style fallback %s", key)
	}
	return &c, nil
}

func (s *SQLiteStore) GetLanguageFallback(ctx context.Context, key model.Key, languageCode string) (*model.Content, error) {
	c := model.Content{Key: key}
	c.Key.LanguageCode = languageCode
	err := s.db.QueryRowContext(ctx,
		`SELECT title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key = ?`,
		key.DeviceKey, key.StepNumber, languageCode, key.StyleKey,
	).Scan(&c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: language fallback %s", key)
	}
	return &c, nil
}

// ListMissing enumerates combinations in Go rather than SQL: SQLite has no
// generate_series, and the catalog is small enough to cross in memory.
func (s *SQLiteStore) ListMissing(ctx context.Context, filter BackfillFilter, threshold float64) ([]model.Key, error) {
	devices, err := s.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	languages, err := s.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	styles, err := s.ListStyles(ctx)
	if err != nil {
		return nil, err
	}

	acceptable, err := s.acceptableKeys(ctx, threshold)
	if err != nil {
		return nil, err
	}
	priorities, requests, err := s.backlogWeights(ctx)
	if err != nil {
		return nil, err
	}

	var keys []model.Key
	for _, d := range devices {
		if filter.DeviceKey != "" && d.Key != filter.DeviceKey {
			continue
		}
		for step := 1; step <= d.TotalSteps; step++ {
			for _, l := range languages {
				if filter.MaxLanguagePriority > 0 && l.Priority > filter.MaxLanguagePriority {
					continue
				}
				for _, st := range styles {
					if filter.StyleKey != "" && st.Key != filter.StyleKey {
						continue
					}
					k := model.Key{DeviceKey: d.Key, StepNumber: step, LanguageCode: l.Code, StyleKey: st.Key}
					if acceptable[k] {
						continue
					}
					if filter.MinRequestCount > 0 && requests[k] < filter.MinRequestCount {
						continue
					}
					keys = append(keys, k)
				}
			}
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return priorities[keys[i]] > priorities[keys[j]]
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *SQLiteStore) acceptableKeys(ctx context.Context, threshold float64) (map[model.Key]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_key, step_number, language_code, style_key
		 FROM guidance_content WHERE quality_score >= ?`,
		threshold,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: acceptable keys")
	}
	defer rows.Close()

	set := make(map[model.Key]bool)
	for rows.Next() {
		var k model.Key
		if err := rows.Scan(&k.DeviceKey, &k.StepNumber, &k.LanguageCode, &k.StyleKey); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan acceptable key")
		}
		set[k] = true
	}
	return set, eris.Wrap(rows.Err(), "sqlite: acceptable keys iterate")
}

func (s *SQLiteStore) backlogWeights(ctx context.Context) (map[model.Key]float64, map[model.Key]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_key, step_number, language_code, style_key, priority_score, request_count
		 FROM missing_guidance_requests`,
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: backlog weights")
	}
	defer rows.Close()

	priorities := make(map[model.Key]float64)
	requests := make(map[model.Key]int)
	for rows.Next() {
		var k model.Key
		var p float64
		var r int
		if err := rows.Scan(&k.DeviceKey, &k.StepNumber, &k.LanguageCode, &k.StyleKey, &p, &r); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: scan backlog weight")
		}
		priorities[k] = p
		requests[k] = r
	}
	return priorities, requests, eris.Wrap(rows.Err(), "sqlite: backlog weights iterate")
}

func (s *SQLiteStore) SweepLowQuality(ctx context.Context, cutoff time.Time, floor float64) ([]model.Key, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM guidance_content
		 WHERE is_ai_generated AND quality_score < ? AND generated_at < ?
		 RETURNING device_key, step_number, language_code, style_key`,
		floor, cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sweep low quality")
	}
	defer rows.Close()

	var keys []model.Key
	for rows.Next() {
		var k model.Key
		if err := rows.Scan(&k.DeviceKey, &k.StepNumber, &k.LanguageCode, &k.StyleKey); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan swept key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: sweep iterate")
}

func (s *SQLiteStore) CountContent(ctx context.Context, threshold float64) (int, int, error) {
	var total, acceptable int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE quality_score >= ?) FROM guidance_content`,
		threshold,
	).Scan(&total, &acceptable)
	return total, acceptable, eris.Wrap(err, "sqlite: count content")
}

// Backlog

func (s *SQLiteStore) RecordMiss(ctx context.Context, key model.Key) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', 0, 1, 1, ?, ?)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   request_count = request_count + 1,
		   priority_score = priority_score + 1,
		   last_requested_at = excluded.last_requested_at`,
		uuid.New().String(), key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, now, now,
	)
	return eris.Wrapf(err, "sqlite: record miss %s", key)
}

func (s *SQLiteStore) EnsureBacklog(ctx context.Context, key model.Key) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', 0, 0, 0, ?, ?)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO NOTHING`,
		uuid.New().String(), key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, now, now,
	)
	return eris.Wrapf(err, "sqlite: ensure backlog %s", key)
}

func (s *SQLiteStore) TryClaim(ctx context.Context, key model.Key, maxAttempts int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE missing_guidance_requests
		 SET status = 'processing'
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key = ?
		   AND status = 'pending' AND attempts < ?`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, maxAttempts,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: try claim %s", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: try claim rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) Complete(ctx context.Context, key model.Key) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE missing_guidance_requests SET status = 'completed'
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key = ?
		   AND status = 'processing'`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete backlog %s", key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("backlog entry not processing: %s", key)
	}
	return nil
}

func (s *SQLiteStore) Fail(ctx context.Context, key model.Key, maxAttempts int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE missing_guidance_requests
		 SET attempts = attempts + 1,
		     status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
		 WHERE device_key = ? AND step_number = ? AND language_code = ? AND style_key = ?
		   AND status = 'processing'`,
		maxAttempts, key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail backlog %s", key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("backlog entry not processing: %s", key)
	}
	return nil
}

func (s *SQLiteStore) Requeue(ctx context.Context, key model.Key) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', 0, 0, 0, ?, ?)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   status = 'pending', attempts = 0`,
		uuid.New().String(), key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, now, now,
	)
	return eris.Wrapf(err, "sqlite: requeue %s", key)
}

func (s *SQLiteStore) CountBacklog(ctx context.Context) (map[model.BacklogStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM missing_guidance_requests GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count backlog")
	}
	defer rows.Close()

	counts := make(map[model.BacklogStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan backlog count")
		}
		counts[model.BacklogStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count backlog iterate")
}

// Generation log

func (s *SQLiteStore) AppendGeneration(ctx context.Context, entry model.GenerationLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	k := entry.Key
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guidance_generation_log
		 (id, device_key, step_number, language_code, style_key, provider_id, latency_ms, input_tokens, output_tokens, cost_usd, quality_score, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, k.DeviceKey, k.StepNumber, k.LanguageCode, k.StyleKey,
		entry.ProviderID, entry.LatencyMs, entry.InputTokens, entry.OutputTokens,
		entry.CostUSD, entry.QualityScore, string(entry.Outcome), entry.Error, entry.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: append generation log %s", k)
}

func (s *SQLiteStore) CountGenerationsToday(ctx context.Context, languageCode string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guidance_generation_log
		 WHERE language_code = ? AND outcome = 'success'
		   AND created_at >= datetime('now', 'start of day')`,
		languageCode,
	).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count generations today %s", languageCode)
}

func (s *SQLiteStore) GenerationStatsToday(ctx context.Context) ([]LanguageGenerationStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language_code,
		        COUNT(*) FILTER (WHERE outcome = 'success'),
		        COUNT(*) FILTER (WHERE outcome <> 'success'),
		        COALESCE(SUM(cost_usd), 0)
		 FROM guidance_generation_log
		 WHERE created_at >= datetime('now', 'start of day')
		 GROUP BY language_code
		 ORDER BY language_code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: generation stats")
	}
	defer rows.Close()

	var stats []LanguageGenerationStat
	for rows.Next() {
		var st LanguageGenerationStat
		if err := rows.Scan(&st.LanguageCode, &st.Successes, &st.Failures, &st.CostUSD); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan generation stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: generation stats iterate")
}

// Catalog

func (s *SQLiteStore) GetDevice(ctx context.Context, deviceKey string) (*model.Device, error) {
	var d model.Device
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, category, total_steps, emergency_text FROM devices WHERE key = ?`,
		deviceKey,
	).Scan(&d.Key, &d.Name, &d.Category, &d.TotalSteps, &d.EmergencyText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get device %s", deviceKey)
	}
	return &d, nil
}

func (s *SQLiteStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, category, total_steps, emergency_text FROM devices ORDER BY key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list devices")
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.Key, &d.Name, &d.Category, &d.TotalSteps, &d.EmergencyText); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan device")
		}
		devices = append(devices, d)
	}
	return devices, eris.Wrap(rows.Err(), "sqlite: list devices iterate")
}

func (s *SQLiteStore) GetLanguage(ctx context.Context, code string) (*model.Language, error) {
	var l model.Language
	err := s.db.QueryRowContext(ctx,
		`SELECT code, name, daily_cap, priority FROM languages WHERE code = ?`,
		code,
	).Scan(&l.Code, &l.Name, &l.DailyCap, &l.Priority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get language %s", code)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, daily_cap, priority FROM languages ORDER BY priority, code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list languages")
	}
	defer rows.Close()

	var langs []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.Code, &l.Name, &l.DailyCap, &l.Priority); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan language")
		}
		langs = append(langs, l)
	}
	return langs, eris.Wrap(rows.Err(), "sqlite: list languages iterate")
}

func (s *SQLiteStore) GetStyle(ctx context.Context, styleKey string) (*model.Style, error) {
	var st model.Style
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, descriptor, is_default FROM styles WHERE key = ?`,
		styleKey,
	).Scan(&st.Key, &st.Name, &st.Descriptor, &st.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get style %s", styleKey)
	}
	return &st, nil
}

func (s *SQLiteStore) ListStyles(ctx context.Context) ([]model.Style, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, descriptor, is_default FROM styles ORDER BY key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list styles")
	}
	defer rows.Close()

	var styles []model.Style
	for rows.Next() {
		var st model.Style
		if err := rows.Scan(&st.Key, &st.Name, &st.Descriptor, &st.IsDefault); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan style")
		}
		styles = append(styles, st)
	}
	return styles, eris.Wrap(rows.Err(), "sqlite: list styles iterate")
}

func (s *SQLiteStore) SeedCatalog(ctx context.Context, devices []model.Device, languages []model.Language, styles []model.Style) error {
	for _, d := range devices {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO devices (key, name, category, total_steps, emergency_text)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (key) DO UPDATE SET
			   name = excluded.name, category = excluded.category,
			   total_steps = excluded.total_steps, emergency_text = excluded.emergency_text`,
			d.Key, d.Name, d.Category, d.TotalSteps, d.EmergencyText,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed device %s", d.Key)
		}
	}
	for _, l := range languages {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO languages (code, name, daily_cap, priority)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (code) DO UPDATE SET
			   name = excluded.name, daily_cap = excluded.daily_cap, priority = excluded.priority`,
			l.Code, l.Name, l.DailyCap, l.Priority,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed language %s", l.Code)
		}
	}
	for _, st := range styles {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO styles (key, name, descriptor, is_default)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (key) DO UPDATE SET
			   name = excluded.name, descriptor = excluded.descriptor, is_default = excluded.is_default`,
			st.Key, st.Name, st.Descriptor, st.IsDefault,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed style %s", st.Key)
		}
	}
	return nil
}

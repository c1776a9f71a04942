package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/carewise-labs/guidance-cli/internal/db"
	"github.com/carewise-labs/guidance-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns           int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns           int32 `yaml:"min_conns" mapstructure:"min_conns"`
	StatementTimeoutMs int   `yaml:"statement_timeout_ms" mapstructure:"statement_timeout_ms"`
}

// preparedStatements lists queries to prepare on each new connection for the
// hot request-time path.
var preparedStatements = map[string]string{
	"get_content": `SELECT title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
	 FROM guidance_content
	 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4`,
	"record_miss": `INSERT INTO missing_guidance_requests
	 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
	 VALUES ($1, $2, $3, $4, $5, 'pending', 0, 1, 1, $6, $6)
	 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
	   request_count = missing_guidance_requests.request_count + 1,
	   priority_score = missing_guidance_requests.priority_score + 1,
	   last_requested_at = EXCLUDED.last_requested_at`,
	"try_claim": `UPDATE missing_guidance_requests
	 SET status = 'processing'
	 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4
	   AND status = 'pending' AND attempts < $5`,
	"count_generations_today": `SELECT COUNT(*) FROM guidance_generation_log
	 WHERE language_code = $1 AND outcome = 'success' AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc') AT TIME ZONE 'utc'`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	stmtTimeout := 10000
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
		if poolCfg.StatementTimeoutMs > 0 {
			stmtTimeout = poolCfg.StatementTimeoutMs
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	// A hung statement must not hold a lookup hostage; the orchestrator
	// degrades to fallback content instead.
	pgxCfg.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", stmtTimeout)

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for the seed importer.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
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
	is_default BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS guidance_content (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	device_key      TEXT NOT NULL REFERENCES devices(key),
	step_number     INTEGER NOT NULL,
	language_code   TEXT NOT NULL,
	style_key       TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	instructions    TEXT NOT NULL,
	warnings        TEXT NOT NULL DEFAULT '',
	tips            TEXT NOT NULL DEFAULT '',
	quality_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_ai_generated BOOLEAN NOT NULL DEFAULT false,
	provider_id     TEXT NOT NULL DEFAULT '',
	generated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (device_key, step_number, language_code, style_key)
);

CREATE INDEX IF NOT EXISTS idx_content_step ON guidance_content(device_key, step_number, language_code);
CREATE INDEX IF NOT EXISTS idx_content_quality ON guidance_content(quality_score);

CREATE TABLE IF NOT EXISTS missing_guidance_requests (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	device_key        TEXT NOT NULL,
	step_number       INTEGER NOT NULL,
	language_code     TEXT NOT NULL,
	style_key         TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	attempts          INTEGER NOT NULL DEFAULT 0,
	request_count     INTEGER NOT NULL DEFAULT 0,
	priority_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_requested_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (device_key, step_number, language_code, style_key)
);

CREATE INDEX IF NOT EXISTS idx_backlog_status ON missing_guidance_requests(status);
CREATE INDEX IF NOT EXISTS idx_backlog_priority ON missing_guidance_requests(status, priority_score DESC);

CREATE TABLE IF NOT EXISTS guidance_generation_log (
	id            TEXT PRIMARY KEY,
	device_key    TEXT NOT NULL,
	step_number   INTEGER NOT NULL,
	language_code TEXT NOT NULL,
	style_key     TEXT NOT NULL,
	provider_id   TEXT NOT NULL,
	latency_ms    BIGINT NOT NULL DEFAULT 0,
	input_tokens  BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	outcome       TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_genlog_quota ON guidance_generation_log(language_code, outcome, created_at);
CREATE INDEX IF NOT EXISTS idx_genlog_key ON guidance_generation_log(device_key, step_number, language_code, style_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Content

func (s *PostgresStore) GetContent(ctx context.Context, key model.Key) (*model.Content, error) {
	c := model.Content{Key: key}
	err := s.pool.QueryRow(ctx,
		`SELECT title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	).Scan(&c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get content %s", key)
	}
	return &c, nil
}

func (s *PostgresStore) UpsertContent(ctx context.Context, content model.Content) error {
	id := uuid.New().String()
	k := content.Key
	_, err := s.pool.Exec(ctx,
		`INSERT INTO guidance_content
		 (id, device_key, step_number, language_code, style_key, title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   title = $6, description = $7, instructions = $8, warnings = $9, tips = $10,
		   quality_score = $11, is_ai_generated = $12, provider_id = $13, generated_at = $14`,
		id, k.DeviceKey, k.StepNumber, k.LanguageCode, k.StyleKey,
		content.Title, content.Description, content.Instructions, content.Warnings, content.Tips,
		content.QualityScore, content.IsAIGenerated, content.ProviderID, content.GeneratedAt,
	)
	return eris.Wrapf(err, "postgres: upsert content %s", k)
}

func (s *PostgresStore) GetStyleFallback(ctx context.Context, key model.Key) (*model.Content, error) {
	c := model.Content{Key: key}
	err := s.pool.QueryRow(ctx,
		`SELECT style_key, title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key <> $4
		 ORDER BY quality_score DESC LIMIT 1`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	).Scan(&c.Key.StyleKey, &c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: style fallback %s", key)
	}
	return &c, nil
}

func (s *PostgresStore) GetLanguageFallback(ctx context.Context, key model.Key, languageCode string) (*model.Content, error) {
	c := model.Content{Key: key}
	c.Key.LanguageCode = languageCode
	err := s.pool.QueryRow(ctx,
		`SELECT title, description, instructions, warnings, tips, quality_score, is_ai_generated, provider_id, generated_at
		 FROM guidance_content
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4`,
		key.DeviceKey, key.StepNumber, languageCode, key.StyleKey,
	).Scan(&c.Title, &c.Description, &c.Instructions, &c.Warnings, &c.Tips,
		&c.QualityScore, &c.IsAIGenerated, &c.ProviderID, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: language fallback %s", key)
	}
	return &c, nil
}

func (s *PostgresStore) ListMissing(ctx context.Context, filter BackfillFilter, threshold float64) ([]model.Key, error) {
	query := `SELECT d.key, step.n, l.code, st.key
	 FROM devices d
	 CROSS JOIN LATERAL generate_series(1, d.total_steps) AS step(n)
	 CROSS JOIN languages l
	 CROSS JOIN styles st
	 LEFT JOIN missing_guidance_requests m
	   ON m.device_key = d.key AND m.step_number = step.n
	  AND m.language_code = l.code AND m.style_key = st.key
	 WHERE NOT EXISTS (
	   SELECT 1 FROM guidance_content c
	   WHERE c.device_key = d.key AND c.step_number = step.n
	     AND c.language_code = l.code AND c.style_key = st.key
	     AND c.quality_score >= $1
	 )`
	args := []any{threshold}
	argIdx := 2

	if filter.DeviceKey != "" {
		query += fmt.Sprintf(` AND d.key = $%d`, argIdx)
		args = append(args, filter.DeviceKey)
		argIdx++
	}
	if filter.MaxLanguagePriority > 0 {
		query += fmt.Sprintf(` AND l.priority <= $%d`, argIdx)
		args = append(args, filter.MaxLanguagePriority)
		argIdx++
	}
	if filter.StyleKey != "" {
		query += fmt.Sprintf(` AND st.key = $%d`, argIdx)
		args = append(args, filter.StyleKey)
		argIdx++
	}
	if filter.MinRequestCount > 0 {
		query += fmt.Sprintf(` AND COALESCE(m.request_count, 0) >= $%d`, argIdx)
		args = append(args, filter.MinRequestCount)
		argIdx++
	}

	query += ` ORDER BY COALESCE(m.priority_score, 0) DESC, d.key, step.n, l.code, st.key`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list missing")
	}
	defer rows.Close()

	var keys []model.Key
	for rows.Next() {
		var k model.Key
		if err := rows.Scan(&k.DeviceKey, &k.StepNumber, &k.LanguageCode, &k.StyleKey); err != nil {
			return nil, eris.Wrap(err, "postgres: scan missing key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "postgres: list missing iterate")
}

func (s *PostgresStore) SweepLowQuality(ctx context.Context, cutoff time.Time, floor float64) ([]model.Key, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM guidance_content
		 WHERE is_ai_generated AND quality_score < $1 AND generated_at < $2
		 RETURNING device_key, step_number, language_code, style_key`,
		floor, cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sweep low quality")
	}
	defer rows.Close()

	var keys []model.Key
	for rows.Next() {
		var k model.Key
		if err := rows.Scan(&k.DeviceKey, &k.StepNumber, &k.LanguageCode, &k.StyleKey); err != nil {
			return nil, eris.Wrap(err, "postgres: scan swept key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "postgres: sweep iterate")
}

func (s *PostgresStore) CountContent(ctx context.Context, threshold float64) (int, int, error) {
	var total, acceptable int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE quality_score >= $1) FROM guidance_content`,
		threshold,
	).Scan(&total, &acceptable)
	return total, acceptable, eris.Wrap(err, "postgres: count content")
}

// Backlog

func (s *PostgresStore) RecordMiss(ctx context.Context, key model.Key) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', 0, 1, 1, $6, $6)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   request_count = missing_guidance_requests.request_count + 1,
		   priority_score = missing_guidance_requests.priority_score + 1,
		   last_requested_at = EXCLUDED.last_requested_at`,
		id, key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, now,
	)
	return eris.Wrapf(err, "postgres: record miss %s", key)
}

func (s *PostgresStore) EnsureBacklog(ctx context.Context, key model.Key) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', 0, 0, 0, $6, $6)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO NOTHING`,
		uuid.New().String(), key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: ensure backlog %s", key)
}

func (s *PostgresStore) TryClaim(ctx context.Context, key model.Key, maxAttempts int) (bool, error) {
	// The WHERE clause is the mutual-exclusion point: only one caller can move
	// a row out of pending, regardless of how many workers race on the key.
	tag, err := s.pool.Exec(ctx,
		`UPDATE missing_guidance_requests
		 SET status = 'processing'
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4
		   AND status = 'pending' AND attempts < $5`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, maxAttempts,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: try claim %s", key)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Complete(ctx context.Context, key model.Key) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE missing_guidance_requests
		 SET status = 'completed'
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4
		   AND status = 'processing'`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete backlog %s", key)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("backlog entry not processing: %s", key)
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, key model.Key, maxAttempts int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE missing_guidance_requests
		 SET attempts = attempts + 1,
		     status = CASE WHEN attempts + 1 >= $5 THEN 'failed' ELSE 'pending' END
		 WHERE device_key = $1 AND step_number = $2 AND language_code = $3 AND style_key = $4
		   AND status = 'processing'`,
		key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, maxAttempts,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail backlog %s", key)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("backlog entry not processing: %s", key)
	}
	return nil
}

func (s *PostgresStore) Requeue(ctx context.Context, key model.Key) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO missing_guidance_requests
		 (id, device_key, step_number, language_code, style_key, status, attempts, request_count, priority_score, last_requested_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', 0, 0, 0, $6, $6)
		 ON CONFLICT (device_key, step_number, language_code, style_key) DO UPDATE SET
		   status = 'pending', attempts = 0`,
		uuid.New().String(), key.DeviceKey, key.StepNumber, key.LanguageCode, key.StyleKey, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: requeue %s", key)
}

func (s *PostgresStore) CountBacklog(ctx context.Context) (map[model.BacklogStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM missing_guidance_requests GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count backlog")
	}
	defer rows.Close()

	counts := make(map[model.BacklogStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan backlog count")
		}
		counts[model.BacklogStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count backlog iterate")
}

// Generation log

func (s *PostgresStore) AppendGeneration(ctx context.Context, entry model.GenerationLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	k := entry.Key
	_, err := s.pool.Exec(ctx,
		`INSERT INTO guidance_generation_log
		 (id, device_key, step_number, language_code, style_key, provider_id, latency_ms, input_tokens, output_tokens, cost_usd, quality_score, outcome, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, k.DeviceKey, k.StepNumber, k.LanguageCode, k.StyleKey,
		entry.ProviderID, entry.LatencyMs, entry.InputTokens, entry.OutputTokens,
		entry.CostUSD, entry.QualityScore, string(entry.Outcome), entry.Error, entry.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: append generation log %s", k)
}

func (s *PostgresStore) CountGenerationsToday(ctx context.Context, languageCode string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM guidance_generation_log
		 WHERE language_code = $1 AND outcome = 'success'
		   AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc') AT TIME ZONE 'utc'`,
		languageCode,
	).Scan(&n)
	return n, eris.Wrapf(err, "postgres: count generations today %s", languageCode)
}

func (s *PostgresStore) GenerationStatsToday(ctx context.Context) ([]LanguageGenerationStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT language_code,
		        COUNT(*) FILTER (WHERE outcome = 'success'),
		        COUNT(*) FILTER (WHERE outcome <> 'success'),
		        COALESCE(SUM(cost_usd), 0)
		 FROM guidance_generation_log
		 WHERE created_at >= date_trunc('day', now() AT TIME ZONE 'utc') AT TIME ZONE 'utc'
		 GROUP BY language_code
		 ORDER BY language_code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: generation stats")
	}
	defer rows.Close()

	var stats []LanguageGenerationStat
	for rows.Next() {
		var st LanguageGenerationStat
		if err := rows.Scan(&st.LanguageCode, &st.Successes, &st.Failures, &st.CostUSD); err != nil {
			return nil, eris.Wrap(err, "postgres: scan generation stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: generation stats iterate")
}

// Catalog

func (s *PostgresStore) GetDevice(ctx context.Context, deviceKey string) (*model.Device, error) {
	var d model.Device
	err := s.pool.QueryRow(ctx,
		`SELECT key, name, category, total_steps, emergency_text FROM devices WHERE key = $1`,
		deviceKey,
	).Scan(&d.Key, &d.Name, &d.Category, &d.TotalSteps, &d.EmergencyText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get device %s", deviceKey)
	}
	return &d, nil
}

func (s *PostgresStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, name, category, total_steps, emergency_text FROM devices ORDER BY key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list devices")
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.Key, &d.Name, &d.Category, &d.TotalSteps, &d.EmergencyText); err != nil {
			return nil, eris.Wrap(err, "postgres: scan device")
		}
		devices = append(devices, d)
	}
	return devices, eris.Wrap(rows.Err(), "postgres: list devices iterate")
}

func (s *PostgresStore) GetLanguage(ctx context.Context, code string) (*model.Language, error) {
	var l model.Language
	err := s.pool.QueryRow(ctx,
		`SELECT code, name, daily_cap, priority FROM languages WHERE code = $1`,
		code,
	).Scan(&l.Code, &l.Name, &l.DailyCap, &l.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get language %s", code)
	}
	return &l, nil
}

func (s *PostgresStore) ListLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, daily_cap, priority FROM languages ORDER BY priority, code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list languages")
	}
	defer rows.Close()

	var langs []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.Code, &l.Name, &l.DailyCap, &l.Priority); err != nil {
			return nil, eris.Wrap(err, "postgres: scan language")
		}
		langs = append(langs, l)
	}
	return langs, eris.Wrap(rows.Err(), "postgres: list languages iterate")
}

func (s *PostgresStore) GetStyle(ctx context.Context, styleKey string) (*model.Style, error) {
	var st model.Style
	err := s.pool.QueryRow(ctx,
		`SELECT key, name, descriptor, is_default FROM styles WHERE key = $1`,
		styleKey,
	).Scan(&st.Key, &st.Name, &st.Descriptor, &st.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get style %s", styleKey)
	}
	return &st, nil
}

func (s *PostgresStore) ListStyles(ctx context.Context) ([]model.Style, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, name, descriptor, is_default FROM styles ORDER BY key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list styles")
	}
	defer rows.Close()

	var styles []model.Style
	for rows.Next() {
		var st model.Style
		if err := rows.Scan(&st.Key, &st.Name, &st.Descriptor, &st.IsDefault); err != nil {
			return nil, eris.Wrap(err, "postgres: scan style")
		}
		styles = append(styles, st)
	}
	return styles, eris.Wrap(rows.Err(), "postgres: list styles iterate")
}

func (s *PostgresStore) SeedCatalog(ctx context.Context, devices []model.Device, languages []model.Language, styles []model.Style) error {
	for _, d := range devices {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO devices (key, name, category, total_steps, emergency_text)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (key) DO UPDATE SET
			   name = $2, category = $3, total_steps = $4, emergency_text = $5`,
			d.Key, d.Name, d.Category, d.TotalSteps, d.EmergencyText,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed device %s", d.Key)
		}
	}
	for _, l := range languages {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO languages (code, name, daily_cap, priority)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO UPDATE SET name = $2, daily_cap = $3, priority = $4`,
			l.Code, l.Name, l.DailyCap, l.Priority,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed language %s", l.Code)
		}
	}
	for _, st := range styles {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO styles (key, name, descriptor, is_default)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (key) DO UPDATE SET name = $2, descriptor = $3, is_default = $4`,
			st.Key, st.Name, st.Descriptor, st.IsDefault,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed style %s", st.Key)
		}
	}
	return nil
}

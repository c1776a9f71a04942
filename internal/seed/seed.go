// Package seed loads hand-authored catalog and content fixtures from YAML and
// imports them idempotently.
package seed

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/carewise-labs/guidance-cli/internal/db"
	"github.com/carewise-labs/guidance-cli/internal/model"
)

// ContentEntry is one authored guidance row in a seed file.
type ContentEntry struct {
	DeviceKey    string  `yaml:"device_key"`
	StepNumber   int     `yaml:"step_number"`
	LanguageCode string  `yaml:"language_code"`
	StyleKey     string  `yaml:"style_key"`
	Title        string  `yaml:"title"`
	Description  string  `yaml:"description"`
	Instructions string  `yaml:"instructions"`
	Warnings     string  `yaml:"warnings"`
	Tips         string  `yaml:"tips"`
	QualityScore float64 `yaml:"quality_score"`
}

// File is a parsed seed file.
type File struct {
	Devices   []model.Device   `yaml:"devices"`
	Languages []model.Language `yaml:"languages"`
	Styles    []model.Style    `yaml:"styles"`
	Content   []ContentEntry   `yaml:"content"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "seed: parse %s", path)
	}

	for i, d := range f.Devices {
		if d.Key == "" || d.TotalSteps < 1 {
			return nil, eris.Errorf("seed: device %d needs a key and total_steps >= 1", i)
		}
	}
	for i, l := range f.Languages {
		if l.Code == "" {
			return nil, eris.Errorf("seed: language %d needs a code", i)
		}
	}
	for i, s := range f.Styles {
		if s.Key == "" {
			return nil, eris.Errorf("seed: style %d needs a key", i)
		}
	}
	for i, c := range f.Content {
		if c.DeviceKey == "" || c.StepNumber < 1 || c.LanguageCode == "" || c.StyleKey == "" {
			return nil, eris.Errorf("seed: content %d needs device_key, step_number, language_code, style_key", i)
		}
		if c.Title == "" || c.Instructions == "" {
			return nil, eris.Errorf("seed: content %d needs a title and instructions", i)
		}
	}

	return &f, nil
}

// Contents converts the authored entries into model rows. Authored content
// defaults to a perfect quality score so it always clears the threshold.
func (f *File) Contents() []model.Content {
	now := time.Now().UTC()
	out := make([]model.Content, 0, len(f.Content))
	for _, c := range f.Content {
		score := c.QualityScore
		if score == 0 {
			score = 1.0
		}
		out = append(out, model.Content{
			Key: model.Key{
				DeviceKey:    c.DeviceKey,
				StepNumber:   c.StepNumber,
				LanguageCode: c.LanguageCode,
				StyleKey:     c.StyleKey,
			},
			Title:        c.Title,
			Description:  c.Description,
			Instructions: c.Instructions,
			Warnings:     c.Warnings,
			Tips:         c.Tips,
			QualityScore: score,
			ProviderID:   "authored",
			GeneratedAt:  now,
		})
	}
	return out
}

// contentColumns is the column order for the Postgres bulk path.
var contentColumns = []string{
	"device_key", "step_number", "language_code", "style_key",
	"title", "description", "instructions", "warnings", "tips",
	"quality_score", "is_ai_generated", "provider_id", "generated_at",
}

// ImportContentBulk merges authored content through the temp-table upsert.
// Re-running an import never duplicates rows.
func ImportContentBulk(ctx context.Context, pool db.Pool, contents []model.Content) (int64, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(contents))
	for _, c := range contents {
		rows = append(rows, []any{
			c.Key.DeviceKey, c.Key.StepNumber, c.Key.LanguageCode, c.Key.StyleKey,
			c.Title, c.Description, c.Instructions, c.Warnings, c.Tips,
			c.QualityScore, c.IsAIGenerated, c.ProviderID, c.GeneratedAt,
		})
	}

	return db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        "guidance_content",
		Columns:      contentColumns,
		ConflictKeys: []string{"device_key", "step_number", "language_code", "style_key"},
	}, rows)
}

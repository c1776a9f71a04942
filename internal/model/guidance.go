package model

import (
	"fmt"
	"time"
)

// Key identifies one unit of guidance content: a single step of a device's
// instructions in a given language and tone style.
type Key struct {
	DeviceKey    string `json:"device_key"`
	StepNumber   int    `json:"step_number"`
	LanguageCode string `json:"language_code"`
	StyleKey     string `json:"style_key"`
}

// String renders the key in device/step/lang/style form for logs.
func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s/%s", k.DeviceKey, k.StepNumber, k.LanguageCode, k.StyleKey)
}

// Content is the guidance payload stored for a key.
type Content struct {
	Key           Key       `json:"key"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Instructions  string    `json:"instructions"`
	Warnings      string    `json:"warnings,omitempty"`
	Tips          string    `json:"tips,omitempty"`
	QualityScore  float64   `json:"quality_score"`
	IsAIGenerated bool      `json:"is_ai_generated"`
	ProviderID    string    `json:"provider_id,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// BacklogStatus represents the lifecycle state of a backlog entry.
type BacklogStatus string

const (
	BacklogPending    BacklogStatus = "pending"
	BacklogProcessing BacklogStatus = "processing"
	BacklogCompleted  BacklogStatus = "completed"
	BacklogFailed     BacklogStatus = "failed"
)

// BacklogEntry records a key that lacks acceptable content.
type BacklogEntry struct {
	ID              string        `json:"id"`
	Key             Key           `json:"key"`
	Status          BacklogStatus `json:"status"`
	Attempts        int           `json:"attempts"`
	RequestCount    int           `json:"request_count"`
	PriorityScore   float64       `json:"priority_score"`
	LastRequestedAt time.Time     `json:"last_requested_at"`
	CreatedAt       time.Time     `json:"created_at"`
}

// GenerationOutcome classifies a single provider attempt in the generation log.
type GenerationOutcome string

const (
	OutcomeSuccess      GenerationOutcome = "success"
	OutcomeLowQuality   GenerationOutcome = "low_quality"
	OutcomeProviderErr  GenerationOutcome = "provider_error"
	OutcomeTimeout      GenerationOutcome = "timeout"
	OutcomeCircuitOpen  GenerationOutcome = "circuit_open"
	OutcomeParseFailure GenerationOutcome = "parse_failure"
)

// GenerationLogEntry is one append-only audit row per provider attempt.
type GenerationLogEntry struct {
	ID           string            `json:"id"`
	Key          Key               `json:"key"`
	ProviderID   string            `json:"provider_id"`
	LatencyMs    int64             `json:"latency_ms"`
	InputTokens  int64             `json:"input_tokens"`
	OutputTokens int64             `json:"output_tokens"`
	CostUSD      float64           `json:"cost_usd"`
	QualityScore float64           `json:"quality_score"`
	Outcome      GenerationOutcome `json:"outcome"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Device is a catalog row for a supported medical device.
type Device struct {
	Key        string `json:"key" yaml:"key"`
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category,omitempty" yaml:"category"`
	TotalSteps int    `json:"total_steps" yaml:"total_steps"`
	// EmergencyText is the hand-authored always-available fallback shown when
	// no cached or generated content exists for a step.
	EmergencyText string `json:"emergency_text,omitempty" yaml:"emergency_text"`
}

// Language is a catalog row for a supported language.
type Language struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	// DailyCap overrides the global per-language generation cap when > 0.
	DailyCap int `json:"daily_cap,omitempty" yaml:"daily_cap"`
	// Priority orders languages for phased backfill (1 = highest).
	Priority int `json:"priority,omitempty" yaml:"priority"`
}

// Style is a catalog row for a tone style.
type Style struct {
	Key        string `json:"key" yaml:"key"`
	Name       string `json:"name" yaml:"name"`
	Descriptor string `json:"descriptor" yaml:"descriptor"` // prompt fragment describing the voice
	IsDefault  bool   `json:"is_default,omitempty" yaml:"is_default"`
}

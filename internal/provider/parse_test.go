package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

var parseKey = model.Key{DeviceKey: "infusion-pump", StepNumber: 1, LanguageCode: "en", StyleKey: "clinical"}

func TestParseContent_CleanJSON(t *testing.T) {
	raw := `{"title":"Connect tubing","description":"Prep","instructions":"Attach the line.","warnings":"Do not kink.","tips":"Warm the bag first."}`

	c, err := ParseContent(raw, parseKey, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Connect tubing", c.Title)
	assert.Equal(t, "Attach the line.", c.Instructions)
	assert.Equal(t, "Do not kink.", c.Warnings)
	assert.Equal(t, parseKey, c.Key)
}

func TestParseContent_MarkdownFencedJSON(t *testing.T) {
	raw := "```json\n{\"title\":\"Connect tubing\",\"instructions\":\"Attach the line.\"}\n```"

	c, err := ParseContent(raw, parseKey, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Connect tubing", c.Title)
	assert.Equal(t, "Attach the line.", c.Instructions)
}

func TestParseContent_JSONEmbeddedInProse(t *testing.T) {
	raw := `Here is the guidance you asked for:

{"title":"Connect tubing","instructions":"Attach the line."}

Let me know if you need anything else.`

	c, err := ParseContent(raw, parseKey, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Connect tubing", c.Title)
}

func TestParseContent_PlainTextFallsBackToInstructions(t *testing.T) {
	raw := "Attach the line to the pump, then prime it until no air remains."

	c, err := ParseContent(raw, parseKey, "Infusion Pump, step 1")
	require.NoError(t, err)
	assert.Equal(t, "Infusion Pump, step 1", c.Title)
	assert.Equal(t, raw, c.Instructions)
	assert.Empty(t, c.Warnings)
}

func TestParseContent_JSONWithoutInstructionsNotAccepted(t *testing.T) {
	// A JSON object missing the one required field is treated as prose.
	raw := `{"title":"Connect tubing"}`

	c, err := ParseContent(raw, parseKey, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", c.Title)
	assert.Equal(t, raw, c.Instructions)
}

func TestParseContent_EmptyResponse(t *testing.T) {
	_, err := ParseContent("   \n", parseKey, "fallback")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("anthropic"))

	r.Register(stubGenerator{id: "anthropic"})
	r.Register(stubGenerator{id: "openai"})

	assert.NotNil(t, r.Get("anthropic"))
	assert.Nil(t, r.Get("gemini"))
	assert.ElementsMatch(t, []string{"anthropic", "openai"}, r.List())
}

type stubGenerator struct {
	id string
}

func (s stubGenerator) ID() string { return s.id }

func (s stubGenerator) Generate(_ context.Context, _, _ string, _ int64, _ float64) (*Result, error) {
	return &Result{Text: "ok"}, nil
}

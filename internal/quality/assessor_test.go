package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

func fullContent() model.Content {
	return model.Content{
		Title:        "Insert the test strip",
		Description:  "Prepare the meter and insert a fresh test strip into the port.",
		Instructions: strings.Repeat("Hold the strip with the contact bars facing up. ", 3),
		Warnings:     "Do not reuse test strips.",
		Tips:         "Keep strips in their sealed vial until use.",
	}
}

func TestScore_FullPayload(t *testing.T) {
	assert.InDelta(t, 1.0, Score(fullContent()), 1e-9)
}

func TestScore_Empty(t *testing.T) {
	assert.InDelta(t, 0.5, Score(model.Content{}), 1e-9)
}

func TestScore_Components(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Content)
		want   float64
	}{
		{"short title", func(c *model.Content) { c.Title = "Step" }, 0.9},
		{"short description", func(c *model.Content) { c.Description = "Brief." }, 0.9},
		{"short instructions", func(c *model.Content) { c.Instructions = "Insert strip." }, 0.8},
		{"no warnings", func(c *model.Content) { c.Warnings = "" }, 0.9},
		{"no tips", func(c *model.Content) { c.Tips = "" }, 0.9},
		{"whitespace warnings ignored", func(c *model.Content) { c.Warnings = "   " }, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fullContent()
			tt.mutate(&c)
			assert.InDelta(t, tt.want, Score(c), 1e-9)
		})
	}
}

func TestScore_MultibyteRunes(t *testing.T) {
	// Thai title: 5+ runes but byte length would already pass; ensure rune
	// counting does not inflate short CJK/Thai text.
	c := fullContent()
	c.Title = "ใส่แถบ" // 6 runes
	assert.InDelta(t, 1.0, Score(c), 1e-9)

	c.Title = "ใส่" // 3 runes
	assert.InDelta(t, 0.9, Score(c), 1e-9)
}

func TestScore_Deterministic(t *testing.T) {
	c := fullContent()
	first := Score(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(c))
	}
}

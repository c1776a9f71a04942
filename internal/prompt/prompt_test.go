package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

func TestSystemPrompt_IncludesStyleDescriptor(t *testing.T) {
	style := model.Style{Key: "plain", Descriptor: "Short sentences, no medical jargon."}
	p := SystemPrompt(style)
	assert.Contains(t, p, "valid JSON")
	assert.Contains(t, p, "Short sentences, no medical jargon.")
}

func TestSystemPrompt_StableAcrossKeys(t *testing.T) {
	style := model.Style{Key: "clinical", Descriptor: "Precise clinical terminology."}
	assert.Equal(t, SystemPrompt(style), SystemPrompt(style))
}

func TestUserPrompt_RendersKeyContext(t *testing.T) {
	p := UserPrompt(Request{
		Key:    model.Key{DeviceKey: "infusion-pump", StepNumber: 3, LanguageCode: "de", StyleKey: "plain"},
		Device: model.Device{Key: "infusion-pump", Name: "Infusion Pump", Category: "infusion", TotalSteps: 7},
		Lang:   model.Language{Code: "de", Name: "German"},
		Style:  model.Style{Key: "plain", Name: "Plain Language"},
	})
	assert.Contains(t, p, "Infusion Pump")
	assert.Contains(t, p, "Step: 3 of 7")
	assert.Contains(t, p, "German (de)")
	assert.Contains(t, p, "Plain Language")
}

func TestLanguageName_FallsBackToRegistry(t *testing.T) {
	assert.Equal(t, "Thai", LanguageName(model.Language{Code: "th"}))
	assert.Equal(t, "Catalog Name", LanguageName(model.Language{Code: "th", Name: "Catalog Name"}))
	assert.Equal(t, "zz-invalid!", LanguageName(model.Language{Code: "zz-invalid!"}))
}

package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// systemPrompt is the shared system instruction for all providers and styles.
const systemPrompt = `You are a medical device usage guide writer. You produce step-by-step guidance that helps patients and caregivers operate home medical devices safely.

Rules:
- Return valid JSON for every response with exactly these fields: "title", "description", "instructions", "warnings", "tips"
- Write in the requested language only; never mix languages
- Describe only the requested step, not the whole procedure
- Never invent device capabilities, dosages, or clinical claims
- Safety warnings must be concrete and specific to the step
- If a step could harm the user when done wrong, say so in "warnings"
- Keep "title" under 80 characters
- "instructions" must be complete enough to perform the step without other sources`

// Request carries everything a builder needs to render prompts for one key.
type Request struct {
	Key    model.Key
	Device model.Device
	Lang   model.Language
	Style  model.Style
}

// SystemPrompt renders the full system instruction including the style
// descriptor. The result is identical for every key sharing a style, which
// keeps it cacheable across a backfill run.
func SystemPrompt(style model.Style) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if style.Descriptor != "" {
		sb.WriteString("\n\nWriting style: ")
		sb.WriteString(style.Descriptor)
	}
	return sb.String()
}

// UserPrompt renders the per-key request message.
func UserPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Device: %s", req.Device.Name)
	if req.Device.Category != "" {
		fmt.Fprintf(&sb, " (%s)", req.Device.Category)
	}
	fmt.Fprintf(&sb, "\nStep: %d of %d", req.Key.StepNumber, req.Device.TotalSteps)
	fmt.Fprintf(&sb, "\nLanguage: %s (%s)", LanguageName(req.Lang), req.Key.LanguageCode)
	if req.Style.Name != "" {
		fmt.Fprintf(&sb, "\nStyle: %s", req.Style.Name)
	}
	sb.WriteString("\n\nWrite the guidance for this step as JSON.")
	return sb.String()
}

// FallbackTitle synthesizes a title for responses that came back as prose
// instead of the requested JSON.
func FallbackTitle(req Request) string {
	return fmt.Sprintf("%s, step %d", req.Device.Name, req.Key.StepNumber)
}

// LanguageName returns a human-readable English name for the language,
// preferring the catalog entry and falling back to the BCP 47 registry.
func LanguageName(lang model.Language) string {
	if lang.Name != "" {
		return lang.Name
	}
	tag, err := language.Parse(lang.Code)
	if err != nil {
		return lang.Code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang.Code
}

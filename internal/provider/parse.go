package provider

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// contentPayload mirrors the JSON shape providers are instructed to return.
type contentPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	Warnings     string `json:"warnings"`
	Tips         string `json:"tips"`
}

// ErrEmptyResponse is returned when a provider produces no usable text.
var ErrEmptyResponse = eris.New("provider: empty response")

// ParseContent converts raw provider output into Content for the given key.
// Providers are told to return JSON, but models drift: the parser strips
// markdown fences, locates the outermost JSON object, and as a last resort
// treats the whole text as instructions so a response is never wasted.
func ParseContent(raw string, key model.Key, fallbackTitle string) (model.Content, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return model.Content{}, ErrEmptyResponse
	}

	if payload, ok := extractJSON(text); ok {
		return model.Content{
			Key:          key,
			Title:        strings.TrimSpace(payload.Title),
			Description:  strings.TrimSpace(payload.Description),
			Instructions: strings.TrimSpace(payload.Instructions),
			Warnings:     strings.TrimSpace(payload.Warnings),
			Tips:         strings.TrimSpace(payload.Tips),
		}, nil
	}

	return model.Content{
		Key:          key,
		Title:        fallbackTitle,
		Instructions: text,
	}, nil
}

// extractJSON tries to unmarshal the text, first as-is, then after stripping
// code fences, then from the outermost brace pair.
func extractJSON(text string) (contentPayload, bool) {
	candidates := []string{text, stripFences(text)}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var payload contentPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil && payload.Instructions != "" {
			return payload, true
		}
	}
	return contentPayload{}, false
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

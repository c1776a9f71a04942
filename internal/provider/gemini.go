package provider

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/carewise-labs/guidance-cli/internal/resilience"
)

// GeminiGenerator adapts the Google Gemini API to the Generator interface.
type GeminiGenerator struct {
	id     string
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, id, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, eris.New("provider gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "provider gemini: create client")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiGenerator{id: id, client: client, model: model}, nil
}

// Close releases the underlying client connection.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) ID() string {
	return g.id
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, user string, maxTokens int64, temperature float64) (*Result, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	m.SetMaxOutputTokens(int32(maxTokens))
	m.SetTemperature(float32(temperature))

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		wrapped := eris.Wrapf(err, "provider %s: generate", g.id)
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.Code) {
			return nil, resilience.NewTransientError(wrapped, apiErr.Code)
		}
		return nil, wrapped
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	result := &Result{Text: text, Model: g.model}
	if resp.UsageMetadata != nil {
		result.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

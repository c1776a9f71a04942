package provider

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/carewise-labs/guidance-cli/internal/resilience"
)

// openAIPricing holds per-million-token pricing for known models.
var openAIPricing = map[string][2]float64{
	"gpt-4o-mini": {0.15, 0.60},
	"gpt-4o":      {2.50, 10.00},
}

// OpenAIGenerator adapts the OpenAI chat completion API to the Generator interface.
type OpenAIGenerator struct {
	id     string
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API.
func NewOpenAIGenerator(id, apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{id: id, client: openai.NewClient(apiKey), model: model}
}

func (g *OpenAIGenerator) ID() string {
	return g.id
}

func (g *OpenAIGenerator) Generate(ctx context.Context, system, user string, maxTokens int64, temperature float64) (*Result, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   int(maxTokens),
		Temperature: float32(temperature),
	})
	if err != nil {
		wrapped := eris.Wrapf(err, "provider %s: generate", g.id)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode) {
			return nil, resilience.NewTransientError(wrapped, apiErr.HTTPStatusCode)
		}
		return nil, wrapped
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	in := int64(resp.Usage.PromptTokens)
	out := int64(resp.Usage.CompletionTokens)
	var cost float64
	if pricing, ok := openAIPricing[g.model]; ok {
		cost = (float64(in)/1e6)*pricing[0] + (float64(out)/1e6)*pricing[1]
	}

	return &Result{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      cost,
	}, nil
}

package provider

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/carewise-labs/guidance-cli/internal/resilience"
	"github.com/carewise-labs/guidance-cli/pkg/anthropic"
)

// AnthropicGenerator adapts the Anthropic client to the Generator interface.
type AnthropicGenerator struct {
	id     string
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API.
func NewAnthropicGenerator(id string, client anthropic.Client, model string) *AnthropicGenerator {
	return &AnthropicGenerator{id: id, client: client, model: model}
}

func (g *AnthropicGenerator) ID() string {
	return g.id
}

func (g *AnthropicGenerator) Generate(ctx context.Context, system, user string, maxTokens int64, temperature float64) (*Result, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temperature,
	})
	if err != nil {
		wrapped := eris.Wrapf(err, "provider %s: generate", g.id)
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, resilience.NewTransientError(wrapped, apiErr.StatusCode)
		}
		return nil, wrapped
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}
	resp.Usage.LogCost(g.model, "guidance")

	return &Result{
		Text:         text,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      resp.Usage.EstimateCost(g.model),
	}, nil
}

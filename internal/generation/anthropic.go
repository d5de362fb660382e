package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// Generator produces a persona candidate for a generation request. The
// validation context carries the constraints and any previous attempt's
// errors so the generator can correct them.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest, vctx rules.Context) (models.Candidate, error)
}

const defaultMaxTokens = 4096

// AnthropicGenerator generates persona candidates with a single Claude call
// per attempt.
type AnthropicGenerator struct {
	client    *Client
	maxTokens int64
}

// NewAnthropicGenerator creates a generator over the given client.
func NewAnthropicGenerator(client *Client) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    client,
		maxTokens: defaultMaxTokens,
	}
}

// Generate asks the model for a persona document and parses the reply into
// a candidate.
func (g *AnthropicGenerator) Generate(ctx context.Context, req models.GenerationRequest, vctx rules.Context) (models.Candidate, error) {
	resp, err := g.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.client.Model(),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(req.PersonaType)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req, vctx))),
		},
	})
	if err != nil {
		return models.Candidate{}, fmt.Errorf("generate persona: %w", err)
	}

	g.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	raw, err := extractJSON(text.String())
	if err != nil {
		return models.Candidate{}, fmt.Errorf("parse model reply: %w", err)
	}

	candidate, err := models.ParseCandidate(raw)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("parse model reply: %w", err)
	}
	return candidate, nil
}

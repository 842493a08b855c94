package ai

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient is the Personalizer backed by the Anthropic Messages API.
type anthropicClient struct {
	client sdk.Client
	model  string
}

// NewAnthropicClient returns a Personalizer that calls the Anthropic API.
//   - apiKey: your ANTHROPIC_API_KEY
//   - model:  e.g. "claude-sonnet-4-5"
//
// Extra request options (base URL, retries) are passed through to the SDK.
func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) Personalizer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &anthropicClient{
		client: sdk.NewClient(opts...),
		model:  model,
	}
}

func (c *anthropicClient) Personalize(ctx context.Context, p Prospect) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 300,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(p))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: anthropic create message: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return cleanIntro(block.Text)
		}
	}
	return "", fmt.Errorf("ai: anthropic: %w", ErrEmptyResponse)
}

package valuation

import (
	"context"
	"errors"

	"github.com/liushuangls/go-anthropic/v2"
)

var errNoContent = errors.New("no response content")

// ClaudeCompleter talks to the Anthropic Messages API.
type ClaudeCompleter struct {
	client *anthropic.Client
	model  string
}

// NewClaudeCompleter creates a completer. An empty baseURL uses the default endpoint.
func NewClaudeCompleter(apiKey, model, baseURL string) *ClaudeCompleter {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeCompleter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Complete sends req with its system prompt set on the request.
func (c *ClaudeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temperature := req.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: req.System,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return "", errNoContent
	}
	return *resp.Content[0].Text, nil
}

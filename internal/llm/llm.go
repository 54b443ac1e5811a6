// Package llm wraps the external inference service behind the Reviewer
// interface so the pipeline stays testable without network calls.
package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gosuda/reviewd/internal/domain"
)

// ReviewRequest carries everything the inference call needs.
type ReviewRequest struct {
	Owner  string
	Repo   string
	Branch string
	Rules  []string
	Files  []domain.FetchedFile
}

// Reviewer produces a structured review given files, rules and repository
// metadata. Implementations must make exactly one inference call per Review
// invocation and must not swallow failures.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (string, error)
}

// Client is the Anthropic-backed Reviewer.
type Client struct {
	api           *anthropic.Client
	model         anthropic.Model
	maxTokens     int
	fileCharLimit int
}

// NewClient creates a Reviewer with the given API key and model. fileCharLimit
// bounds the per-file content sent upstream.
func NewClient(apiKey, model string, maxTokens, fileCharLimit int) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:           &client,
		model:         anthropic.Model(model),
		maxTokens:     maxTokens,
		fileCharLimit: fileCharLimit,
	}
}

// Review sends the full file batch to the inference service and returns its
// raw textual response.
func (c *Client) Review(ctx context.Context, req ReviewRequest) (string, error) {
	systemPrompt, userPrompt := buildPrompt(req, c.fileCharLimit)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm.Client.Review: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("llm.Client.Review: no text content in API response")
	}

	return text, nil
}

package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"skillgap-backend/internal/llm"
)

const (
	providerName     = "anthropic"
	defaultMaxTokens = 8000
)

// Client implements llm.Client on the Anthropic Messages API.
type Client struct {
	model   string
	baseURL string
}

// NewClient returns a Claude client. baseURL may be empty.
func NewClient(model, baseURL string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	return &Client{model: model, baseURL: strings.TrimSpace(baseURL)}, nil
}

// Generate sends one Messages.New request and joins the text blocks.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return llm.Response{}, llm.ErrMissingAPIKey
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	opts := []option.RequestOption{
		option.WithAPIKey(req.APIKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if strings.TrimSpace(req.System) != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, llm.Classify(providerName, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return llm.Response{}, llm.ErrEmptyResponse
	}
	return llm.Response{
		Text:             strings.TrimSpace(text.String()),
		Model:            firstNonEmpty(string(resp.Model), model),
		Provider:         providerName,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ llm.Client = (*Client)(nil)

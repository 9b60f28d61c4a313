package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"skillgap-backend/internal/llm"
)

const providerName = "gemini"

// Client implements llm.Client on the Gemini API.
type Client struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSpace(u) }
}

// WithHTTPClient sets the transport used for API calls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient returns a Gemini client using model unless a request overrides it.
func NewClient(model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	c := &Client{model: model}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate issues one GenerateContent call with a JSON response type. A
// genai client is built per call because the key may be the user's own.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return llm.Response{}, llm.ErrMissingAPIKey
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	cfg := &genai.ClientConfig{
		APIKey:     req.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return llm.Response{}, fmt.Errorf("create gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return llm.Response{}, llm.Classify(providerName, err)
	}

	text := extractText(resp)
	if text == "" {
		return llm.Response{}, llm.ErrEmptyResponse
	}
	out := llm.Response{
		Text:     text,
		Model:    model,
		Provider: providerName,
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// extractText joins the text parts of the first candidate that has any.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

var _ llm.Client = (*Client)(nil)

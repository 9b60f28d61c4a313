package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skillgap-backend/internal/llm"
)

const providerName = "openai"

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. The timeout bounds each HTTP call;
// callers usually also set a context deadline.
func NewClient(model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		model: model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate sends one chat completion request in JSON mode.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return llm.Response{}, llm.ErrMissingAPIKey
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	reqBody := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.Response{}, llm.Classify(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, llm.Classify(providerName, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return llm.Response{}, llm.Classify(providerName, fmt.Errorf("status %d", resp.StatusCode))
		}
		return llm.Response{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, llm.Classify(providerName,
			fmt.Errorf("status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return llm.Response{}, llm.Classify(providerName, fmt.Errorf("status %d", resp.StatusCode))
	}
	if len(parsed.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Response{}, llm.ErrEmptyResponse
	}
	out := llm.Response{
		Text:     content,
		Model:    firstNonEmpty(parsed.Model, model),
		Provider: providerName,
	}
	if parsed.Usage != nil {
		out.PromptTokens = parsed.Usage.PromptTokens
		out.CompletionTokens = parsed.Usage.CompletionTokens
	}
	return out, nil
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

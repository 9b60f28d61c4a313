package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client abstracts LLM providers for skill gap analysis. The API key is
// supplied per call because it may belong to the requesting user.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is one provider call.
type Request struct {
	APIKey      string
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response is the raw text returned by a provider.
type Response struct {
	Text             string
	Model            string
	Provider         string
	PromptTokens     int
	CompletionTokens int
}

var (
	// ErrQuota marks provider rate limit or quota exhaustion responses.
	ErrQuota = errors.New("llm quota exceeded")
	// ErrTimeout marks calls abandoned because the deadline passed.
	ErrTimeout = errors.New("llm request timeout")
	// ErrEmptyResponse is returned when the provider sends no text.
	ErrEmptyResponse = errors.New("llm response empty")
	// ErrMissingAPIKey is returned when a request has no key to call with.
	ErrMissingAPIKey = errors.New("llm api key is required")
)

// IsQuotaError reports whether err looks like a provider quota or rate limit
// failure.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuota) {
		return true
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit")
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "Client.Timeout")
}

// Classify tags a provider error with ErrQuota or ErrTimeout when it matches.
func Classify(provider string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsTimeout(err):
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	case IsQuotaError(err):
		return fmt.Errorf("%s: %w: %w", provider, ErrQuota, err)
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}

// StubClient returns a fixed response. It backs dev mode without a provider
// key and the render demo.
type StubClient struct {
	Text string
	Err  error
}

// Generate returns the configured text or error.
func (s StubClient) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if s.Err != nil {
		return Response{}, s.Err
	}
	return Response{Text: s.Text, Model: req.Model, Provider: "stub"}, nil
}

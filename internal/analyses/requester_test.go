package analyses

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"skillgap-backend/internal/llm"
	"skillgap-backend/internal/profiles"
	"skillgap-backend/internal/shared/apperr"
)

type scriptedLLM struct {
	mu    sync.Mutex
	steps []func(req llm.Request) (llm.Response, error)
	calls []llm.Request
}

func (s *scriptedLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.steps) == 0 {
		return llm.Response{}, errors.New("unexpected call")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step(req)
}

func reply(text string) func(llm.Request) (llm.Response, error) {
	return func(llm.Request) (llm.Response, error) { return llm.Response{Text: text}, nil }
}

func fail(err error) func(llm.Request) (llm.Response, error) {
	return func(llm.Request) (llm.Response, error) { return llm.Response{}, err }
}

type staticKeys struct {
	key string
}

func (k staticKeys) ResolveAPIKey(ctx context.Context, userID string) (string, bool, error) {
	return k.key, k.key != "", nil
}

func testContext() Context {
	return Context{
		Subject: Subject{UserID: "u1", Name: "Ada", Email: "ada@example.com"},
		Roles:   []string{"Backend Engineer"},
		Skills:  []profiles.Skill{{Name: "Go", Source: profiles.SourceGitHub, ConfidenceScore: 0.9}},
	}
}

func TestRequesterUsesUserKey(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){reply(SampleJSON)}}
	r := NewRequester(client, staticKeys{key: "user-key-123"}, RequesterConfig{Model: "gemini-2.5-pro", SystemAPIKey: "system-key"})

	a, err := r.Request(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.APIKeySource != KeySourceUser || a.Result.APIKeySource != KeySourceUser {
		t.Fatalf("expected user key source, got %q", a.APIKeySource)
	}
	if a.ModelUsed != "gemini-2.5-pro" || a.Result.ModelUsed != "gemini-2.5-pro" {
		t.Fatalf("unexpected model %q", a.ModelUsed)
	}
	if client.calls[0].APIKey != "user-key-123" {
		t.Fatalf("expected user key to be sent")
	}
	if !strings.Contains(client.calls[0].Prompt, "Backend Engineer") {
		t.Fatalf("prompt does not mention target role")
	}
	if a.ID == "" || a.UserID != "u1" {
		t.Fatalf("analysis identity not set: %+v", a)
	}
}

func TestRequesterFallsBackToSystemKeyOnQuota(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(llm.Classify("gemini", errors.New("Error 429, RESOURCE_EXHAUSTED"))),
		reply(SampleJSON),
	}}
	r := NewRequester(client, staticKeys{key: "user-key-123"}, RequesterConfig{
		Model:               "m",
		SystemAPIKey:        "system-key",
		FallbackToSystemKey: true,
	})

	a, err := r.Request(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.APIKeySource != KeySourceSystem {
		t.Fatalf("expected system key source after fallback, got %q", a.APIKeySource)
	}
	if len(client.calls) != 2 || client.calls[1].APIKey != "system-key" {
		t.Fatalf("expected retry with system key, calls=%d", len(client.calls))
	}
}

func TestRequesterQuotaWithoutFallback(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(errors.New("googleapi: Error 429: quota exceeded")),
	}}
	r := NewRequester(client, staticKeys{key: "user-key-123"}, RequesterConfig{Model: "m", SystemAPIKey: "system-key"})

	_, err := r.Request(context.Background(), testContext())
	if !apperr.Is(err, apperr.KindProviderQuota) {
		t.Fatalf("expected provider quota error, got %v", err)
	}
	if !strings.Contains(apperr.DetailOf(err), "API key") {
		t.Fatalf("detail should suggest adding a key: %q", apperr.DetailOf(err))
	}
	if len(client.calls) != 1 {
		t.Fatalf("quota errors must not be retried, calls=%d", len(client.calls))
	}
}

func TestRequesterRetriesFormatOnce(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		reply("Sure! Here is the analysis you asked for."),
		reply(SampleJSON),
	}}
	r := NewRequester(client, nil, RequesterConfig{Model: "m", SystemAPIKey: "system-key"})

	a, err := r.Request(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.APIKeySource != KeySourceSystem {
		t.Fatalf("expected system key, got %q", a.APIKeySource)
	}
	retry := client.calls[1].Prompt
	if !strings.Contains(retry, "Sure! Here is the analysis") || !strings.Contains(retry, "JSON only") {
		t.Fatalf("retry prompt should carry previous output and stricter rules")
	}
}

func TestRequesterFormatRetriesExhausted(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		reply(`{"executive_summary": "x"}`),
		reply(`{"executive_summary": "still x"}`),
	}}
	r := NewRequester(client, nil, RequesterConfig{Model: "m", SystemAPIKey: "system-key"})

	_, err := r.Request(context.Background(), testContext())
	if !apperr.Is(err, apperr.KindProviderFormat) {
		t.Fatalf("expected provider format error, got %v", err)
	}
	if apperr.DetailOf(err) != "analysis generation failed" {
		t.Fatalf("unexpected detail %q", apperr.DetailOf(err))
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected exactly one extra attempt, got %d calls", len(client.calls))
	}
}

func TestRequesterRetriesEmptyReplyOnce(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(llm.ErrEmptyResponse),
		reply(SampleJSON),
	}}
	r := NewRequester(client, nil, RequesterConfig{Model: "m", SystemAPIKey: "system-key"})

	a, err := r.Request(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if a.Result.OverallFitScore != 75 {
		t.Fatalf("unexpected fit score %d", a.Result.OverallFitScore)
	}
	if len(client.calls) != 2 || !strings.Contains(client.calls[1].Prompt, "JSON only") {
		t.Fatalf("expected one reformat attempt after the empty reply")
	}
}

func TestRequesterEmptyRepliesExhaustRetry(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(llm.ErrEmptyResponse),
		fail(llm.ErrEmptyResponse),
	}}
	r := NewRequester(client, nil, RequesterConfig{Model: "m", SystemAPIKey: "system-key"})

	_, err := r.Request(context.Background(), testContext())
	if !apperr.Is(err, apperr.KindProviderFormat) {
		t.Fatalf("expected provider format error, got %v", err)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected exactly two calls, got %d", len(client.calls))
	}
}

func TestRequesterTimeout(t *testing.T) {
	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(llm.Classify("gemini", context.DeadlineExceeded)),
	}}
	r := NewRequester(client, nil, RequesterConfig{Model: "m", SystemAPIKey: "k", Timeout: time.Second})

	_, err := r.Request(context.Background(), testContext())
	if !apperr.Is(err, apperr.KindProviderTimeout) {
		t.Fatalf("expected provider timeout, got %v", err)
	}
}

func TestRequesterWithoutAnyKey(t *testing.T) {
	r := NewRequester(&scriptedLLM{}, staticKeys{}, RequesterConfig{Model: "m"})

	_, err := r.Request(context.Background(), testContext())
	if !apperr.Is(err, apperr.KindPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestRetryingLLMRetriesTransientOnce(t *testing.T) {
	prev := llmRetryBaseDelay
	llmRetryBaseDelay = time.Millisecond
	t.Cleanup(func() { llmRetryBaseDelay = prev })

	client := &scriptedLLM{steps: []func(llm.Request) (llm.Response, error){
		fail(errors.New("read tcp: connection reset by peer")),
		reply("ok"),
	}}
	resp, err := newRetryingLLM(client, "u1").Generate(context.Background(), llm.Request{})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(client.calls))
	}
}

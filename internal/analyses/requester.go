package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillgap-backend/internal/llm"
	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/telemetry"
)

const (
	defaultLLMTimeout = 150 * time.Second
	defaultMaxTokens  = 8000
	defaultTemp       = 0.7
)

// RequesterConfig is resolved once at process start.
type RequesterConfig struct {
	Provider     string
	Model        string
	SystemAPIKey string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	// FallbackToSystemKey retries once with SystemAPIKey when a user key
	// hits its quota.
	FallbackToSystemKey bool
}

// KeyResolver returns the user's own provider key when one is stored.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, userID string) (string, bool, error)
}

// Requester turns a Context into an Analysis through one model call.
type Requester struct {
	LLM  llm.Client
	Keys KeyResolver
	Cfg  RequesterConfig
	now  func() time.Time
}

func NewRequester(client llm.Client, keys KeyResolver, cfg RequesterConfig) *Requester {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemp
	}
	return &Requester{LLM: client, Keys: keys, Cfg: cfg, now: time.Now}
}

// Request calls the model and returns a validated, clamped analysis. The
// returned Analysis is not yet persisted.
func (r *Requester) Request(ctx context.Context, c Context) (Analysis, error) {
	key, source, err := r.selectKey(ctx, c.UserID)
	if err != nil {
		return Analysis{}, err
	}

	now := r.now().UTC()
	prompt, err := BuildPrompt(c, now)
	if err != nil {
		return Analysis{}, apperr.Wrap(apperr.KindInternal, DetailProvider, err)
	}

	res, err := r.generate(ctx, c.UserID, key, prompt)
	if err != nil && llm.IsQuotaError(err) && source == KeySourceUser && r.canFallback(key) {
		telemetry.Warn("analysis.quota_fallback", map[string]any{"user_id": c.UserID})
		source = KeySourceSystem
		res, err = r.generate(ctx, c.UserID, r.Cfg.SystemAPIKey, prompt)
	}
	if err != nil {
		return Analysis{}, classify(err)
	}

	res.APIKeySource = source
	res.ModelUsed = r.Cfg.Model
	if strings.TrimSpace(res.ReportGeneratedAt) == "" {
		res.ReportGeneratedAt = now.Format(time.RFC3339)
	}
	return Analysis{
		ID:           uuid.NewString(),
		UserID:       c.UserID,
		TargetRoles:  c.Roles,
		ModelUsed:    r.Cfg.Model,
		APIKeySource: source,
		Result:       res,
		CreatedAt:    now,
	}, nil
}

func (r *Requester) canFallback(userKey string) bool {
	return r.Cfg.FallbackToSystemKey && r.Cfg.SystemAPIKey != "" && r.Cfg.SystemAPIKey != userKey
}

func (r *Requester) selectKey(ctx context.Context, userID string) (string, string, error) {
	if r.Keys != nil {
		key, ok, err := r.Keys.ResolveAPIKey(ctx, userID)
		if err != nil {
			// An unreadable user key falls through to the system key.
			telemetry.Error("analysis.user_key_unavailable", map[string]any{"user_id": userID, "error": err.Error()})
		} else if ok && key != "" {
			return key, KeySourceUser, nil
		}
	}
	if r.Cfg.SystemAPIKey != "" {
		return r.Cfg.SystemAPIKey, KeySourceSystem, nil
	}
	return "", "", apperr.Wrap(apperr.KindPrecondition, DetailNoKey, ErrNoSystemKey)
}

func (r *Requester) generate(ctx context.Context, userID, key, prompt string) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.Cfg.Timeout)
	defer cancel()

	fr := formatRetry{client: newRetryingLLM(r.LLM, userID), maxExtra: 1}
	return fr.Do(callCtx, llm.Request{
		APIKey:      key,
		Model:       r.Cfg.Model,
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: r.Cfg.Temperature,
		MaxTokens:   r.Cfg.MaxTokens,
	})
}

// formatRetry re-asks the model when its answer cannot be parsed. An empty
// reply counts as unparsable; other provider errors are returned immediately.
type formatRetry struct {
	client   llm.Client
	maxExtra int
}

func (f formatRetry) Do(ctx context.Context, req llm.Request) (Result, error) {
	original := req.Prompt
	var lastErr error
	for attempt := 0; attempt <= f.maxExtra; attempt++ {
		resp, err := f.client.Generate(ctx, req)
		if err != nil {
			if !errors.Is(err, llm.ErrEmptyResponse) {
				return Result{}, err
			}
			resp = llm.Response{}
		}
		res, err := ParseResult(resp.Text)
		if err == nil {
			return res, nil
		}
		lastErr = err
		telemetry.Warn("analysis.format_invalid", map[string]any{"attempt": attempt + 1, "error": err.Error()})
		if attempt == f.maxExtra {
			break
		}
		retryPrompt, perr := BuildReformatPrompt(original, resp.Text, err)
		if perr != nil {
			return Result{}, perr
		}
		req.Prompt = retryPrompt
	}
	return Result{}, fmt.Errorf("%w: %w", ErrFormatRetries, lastErr)
}

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrFormatRetries):
		return apperr.Wrap(apperr.KindProviderFormat, DetailFormat, err)
	case llm.IsTimeout(err):
		return apperr.Wrap(apperr.KindProviderTimeout, DetailTimeout, err)
	case llm.IsQuotaError(err):
		return apperr.Wrap(apperr.KindProviderQuota, DetailQuota, err)
	case errors.Is(err, llm.ErrMissingAPIKey):
		return apperr.Wrap(apperr.KindPrecondition, DetailNoKey, err)
	case errors.Is(err, llm.ErrEmptyResponse):
		return apperr.Wrap(apperr.KindProviderFormat, DetailFormat, err)
	default:
		return apperr.Wrap(apperr.KindInternal, DetailProvider, err)
	}
}

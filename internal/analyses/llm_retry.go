package analyses

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"skillgap-backend/internal/llm"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/telemetry"
)

var llmRetryBaseDelay = 300 * time.Millisecond

// retryingLLM retries one transient network failure. Quota and deadline
// errors are returned as is.
type retryingLLM struct {
	base   llm.Client
	userID string
}

func newRetryingLLM(base llm.Client, userID string) llm.Client {
	if base == nil {
		return nil
	}
	return retryingLLM{base: base, userID: userID}
}

func (r retryingLLM) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	resp, err := r.timed(ctx, req)
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	telemetry.Warn("analysis.llm_retry", map[string]any{
		"attempt": 1,
		"user_id": r.userID,
		"error":   err.Error(),
	})
	select {
	case <-time.After(llmRetryBaseDelay):
	case <-ctx.Done():
		return llm.Response{}, ctx.Err()
	}
	return r.timed(ctx, req)
}

func (r retryingLLM) timed(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()
	resp, err := r.base.Generate(ctx, req)
	metrics.ObserveLLMDurationMs(float64(time.Since(start).Milliseconds()))
	return resp, err
}

func shouldRetryLLM(err error) bool {
	if err == nil || llm.IsQuotaError(err) || llm.IsTimeout(err) {
		return false
	}
	if errors.Is(err, llm.ErrMissingAPIKey) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof")
}

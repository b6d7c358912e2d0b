package llm

import (
	"context"
	"errors"
	"net"

	"github.com/zsunny6658/clipforge/internal/apperr"
)

// classify maps a provider transport error onto the shared error taxonomy
// so every stage can branch on apperr.KindOf regardless of which provider
// produced it.
func classify(stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.LLMTimeout(err, "%s: request timed out", stage)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var hse *httpStatusError
	if errors.As(err, &hse) {
		switch {
		case hse.status == 429:
			return apperr.LLMRateLimited(err, hse.retryAfter, "%s: rate limited", stage)
		case hse.status == 413:
			return apperr.LLMTooLarge("%s: request too large", stage)
		case hse.status == 408 || (hse.status >= 500 && hse.status <= 599):
			return apperr.LLMUnavailable(err, "%s: provider unavailable (http %d)", stage, hse.status)
		default:
			return apperr.LLMInvalidOutput(err, "%s: provider rejected request (http %d)", stage, hse.status)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.LLMTimeout(err, "%s: network timeout", stage)
	}

	return apperr.LLMUnavailable(err, "%s: request failed", stage)
}

// isRetryable reports whether the classified error represents a transient
// condition worth another attempt.
func isRetryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindLLMUnavailable, apperr.KindLLMRateLimited, apperr.KindLLMTimeout:
		return true
	default:
		return false
	}
}

// retryAfterOf extracts a provider-supplied retry-after hint, in seconds, or
// 0 if none is available.
func retryAfterOf(err error) int {
	if e, ok := apperr.Of(err); ok {
		return e.RetryAfter
	}
	return 0
}

// Package llm implements the provider-agnostic LLM gateway used by every
// LLM-driven pipeline stage: outline extraction, timeline localization,
// scoring, title generation, and thematic clustering. It wraps a choice of
// upstream provider (OpenAI or Anthropic) behind retry/backoff, JSON
// extraction with one repair attempt, and the shared error taxonomy.
package llm

import (
	"context"
	"strconv"
)

// Provider is a single upstream chat-completion backend. Complete returns
// the model's raw text response; the Gateway is responsible for JSON
// extraction, repair, and retry policy so that behavior is identical
// across providers.
type Provider interface {
	// Complete issues one request and returns the raw text response.
	Complete(ctx context.Context, system, user string) (string, error)
	// Name identifies the provider for logging and error messages.
	Name() string
}

// httpStatusError is returned by provider HTTP transports and carries the
// upstream status code so the gateway can classify retryability without
// string-matching error messages.
type httpStatusError struct {
	status     int
	body       string
	retryAfter int // seconds, 0 if the response carried no Retry-After header
}

func (e *httpStatusError) Error() string {
	return "llm provider: http " + strconv.Itoa(e.status) + ": " + truncate(e.body, 500)
}

func (e *httpStatusError) HTTPStatusCode() int { return e.status }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

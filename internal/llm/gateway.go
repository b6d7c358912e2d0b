package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/prompt"
)

// Gateway is the single entry point every pipeline stage uses to talk to
// whichever provider is configured. It owns retry/backoff policy, per-call
// timeout, and JSON extraction with one repair attempt, so stage code never
// deals with provider-specific transport details.
type Gateway struct {
	provider   Provider
	log        *logger.Logger
	maxRetries int
	timeout    time.Duration
}

func NewGateway(p Provider, log *logger.Logger, maxRetries int, timeout time.Duration) *Gateway {
	if log == nil {
		log = logger.NewNop()
	}
	return &Gateway{provider: p, log: log, maxRetries: maxRetries, timeout: timeout}
}

// Complete renders nothing itself — it takes an already-rendered Prompt,
// issues it to the provider with retry/backoff, and returns the parsed JSON
// response. A response that isn't valid JSON triggers exactly one repair
// attempt (re-prompting the model with its own malformed output and the
// parse error) before being treated as LLMInvalidOutput.
func (g *Gateway) Complete(ctx context.Context, p prompt.Prompt) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var result map[string]any

	operation := func() error {
		raw, err := g.provider.Complete(ctx, p.System, p.User)
		if err != nil {
			classified := classify(string(p.Name), err)
			if !isRetryable(classified) {
				return backoff.Permanent(classified)
			}
			return classified
		}

		obj, jerr := extractJSON(raw)
		if jerr != nil {
			repaired, rerr := g.repair(ctx, p, raw, jerr)
			if rerr != nil {
				return backoff.Permanent(apperr.LLMInvalidOutput(rerr,
					"%s: response was not valid JSON and the repair attempt also failed", p.Name))
			}
			obj = repaired
		}
		result = obj
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = 10 * time.Second
	bo.RandomizationFactor = 0.2
	wrapped := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxInt(g.maxRetries, 0))), ctx)

	notify := func(err error, d time.Duration) {
		retryAfter := retryAfterOf(err)
		if retryAfter > 0 {
			d = time.Duration(retryAfter) * time.Second
		}
		g.log.Warn("llm request retrying",
			"provider", g.provider.Name(),
			"stage", string(p.Name),
			"category", string(p.Category),
			"sleep", d.String(),
			"error", err.Error(),
		)
	}

	if err := backoff.RetryNotify(operation, wrapped, notify); err != nil {
		return nil, err
	}
	return result, nil
}

// repair is the single re-prompt attempt allowed when a response fails JSON
// extraction: it hands the model back its own output plus the parse error
// and asks for a corrected object only.
func (g *Gateway) repair(ctx context.Context, p prompt.Prompt, badOutput string, cause error) (map[string]any, error) {
	repairUser := fmt.Sprintf(
		"%s\n\nYour previous response was not valid JSON (%s):\n%s\n\nReply again with ONLY the corrected JSON object. No prose, no code fences.",
		p.User, cause.Error(), badOutput,
	)
	raw, err := g.provider.Complete(ctx, p.System, repairUser)
	if err != nil {
		return nil, classify(string(p.Name), err)
	}
	obj, jerr := extractJSON(raw)
	if jerr != nil {
		return nil, jerr
	}
	return obj, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

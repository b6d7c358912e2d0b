package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/prompt"
)

func testPrompt() prompt.Prompt {
	return prompt.Prompt{Name: prompt.NameScoring, Category: prompt.CategoryDefault, System: "sys", User: "user"}
}

func TestGateway_Complete_SuccessOnFirstTry(t *testing.T) {
	p := NewFakeProvider("fake").QueueText(`{"hook":0.8}`)
	g := NewGateway(p, logger.NewNop(), 3, time.Second)

	obj, err := g.Complete(context.Background(), testPrompt())
	require.NoError(t, err)
	require.Equal(t, 0.8, obj["hook"])
	require.Equal(t, 1, p.Calls())
}

func TestGateway_Complete_RetriesTransientErrorThenSucceeds(t *testing.T) {
	p := NewFakeProvider("fake").
		QueueError(&httpStatusError{status: 503, body: "unavailable"}).
		QueueText(`{"hook":0.5}`)
	g := NewGateway(p, logger.NewNop(), 3, 5*time.Second)

	obj, err := g.Complete(context.Background(), testPrompt())
	require.NoError(t, err)
	require.Equal(t, 0.5, obj["hook"])
	require.Equal(t, 2, p.Calls())
}

func TestGateway_Complete_PermanentErrorStopsImmediately(t *testing.T) {
	p := NewFakeProvider("fake").
		QueueError(&httpStatusError{status: 400, body: "bad request"}).
		QueueText(`{"hook":0.5}`) // would succeed if retried, but must not be reached
	g := NewGateway(p, logger.NewNop(), 3, 5*time.Second)

	_, err := g.Complete(context.Background(), testPrompt())
	require.Error(t, err)
	require.Equal(t, apperr.KindLLMInvalidOutput, apperr.KindOf(err))
	require.Equal(t, 1, p.Calls())
}

func TestGateway_Complete_RepairsMalformedJSONOnce(t *testing.T) {
	p := NewFakeProvider("fake").
		QueueText("I think the hook score is pretty high, around point nine, no structured data here"). // no JSON at all
		QueueText(`{"hook":0.9}`)
	g := NewGateway(p, logger.NewNop(), 3, 5*time.Second)

	obj, err := g.Complete(context.Background(), testPrompt())
	require.NoError(t, err)
	require.Equal(t, 0.9, obj["hook"])
	require.Equal(t, 2, p.Calls())
}

func TestGateway_Complete_RepairFailureIsInvalidOutput(t *testing.T) {
	p := NewFakeProvider("fake").
		QueueText("not json at all").
		QueueText("still not json")
	g := NewGateway(p, logger.NewNop(), 3, 5*time.Second)

	_, err := g.Complete(context.Background(), testPrompt())
	require.Error(t, err)
	require.Equal(t, apperr.KindLLMInvalidOutput, apperr.KindOf(err))
	require.Equal(t, 2, p.Calls())
}

func TestGateway_Complete_RetriesAfterRateLimit(t *testing.T) {
	p := NewFakeProvider("fake").
		QueueError(&httpStatusError{status: 429, body: "slow down", retryAfter: 1}).
		QueueText(`{"hook":0.1}`)
	g := NewGateway(p, logger.NewNop(), 3, 5*time.Second)

	obj, err := g.Complete(context.Background(), testPrompt())
	require.NoError(t, err)
	require.Equal(t, 0.1, obj["hook"])
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	obj, err := extractJSON(raw)
	require.NoError(t, err)
	require.Equal(t, float64(1), obj["a"])
}

func TestExtractJSON_BalancedBracesWithProse(t *testing.T) {
	raw := "Sure, here you go: {\"a\": {\"b\": 2}} -- hope that helps"
	obj, err := extractJSON(raw)
	require.NoError(t, err)
	nested, ok := obj["a"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(2), nested["b"])
}

package subtitle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func threeCueStore(t *testing.T) *Store {
	t.Helper()
	cues, err := Parse(strings.NewReader(threeCueSRT))
	require.NoError(t, err)
	return NewStore(cues)
}

func TestChunk_NeverSplitsACue(t *testing.T) {
	s := threeCueStore(t)
	// chunk_size=1000 easily fits all three single-character cues into one
	// chunk, matching the literal happy-path scenario from spec.md §8.
	chunks, err := s.Chunk(1000, CharTokenizer{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "A\nB\nC", chunks[0].Text)
	require.Equal(t, 1, chunks[0].CueStart)
	require.Equal(t, 3, chunks[0].CueEnd)
}

func TestChunk_SplitsWhenBudgetExceeded(t *testing.T) {
	s := threeCueStore(t)
	// Each cue is one character ("A","B","C" joined with newlines costs 1
	// char each); a budget of 1 forces a chunk per cue.
	chunks, err := s.Chunk(1, CharTokenizer{})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
	}
}

func TestChunk_RejectsNonPositiveBudget(t *testing.T) {
	s := threeCueStore(t)
	_, err := s.Chunk(0, CharTokenizer{})
	require.Error(t, err)
}

func TestRoundTrip_ConcatenationMatchesOriginal(t *testing.T) {
	s := threeCueStore(t)
	chunks, err := s.Chunk(2, CharTokenizer{})
	require.NoError(t, err)

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	concatenated := normalizeWhitespace(strings.Join(texts, "\n"))
	require.Equal(t, s.ConcatenatedText(), concatenated)
}

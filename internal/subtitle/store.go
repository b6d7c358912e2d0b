package subtitle

import (
	"fmt"
	"strings"

	"github.com/zsunny6658/clipforge/internal/model"
)

// Tokenizer measures the "size" of a piece of text against the chunk
// budget. The default, CharTokenizer, uses character length — the same
// proxy the distilled source used — per the Open Question in spec.md §9:
// an implementation may substitute a true tokenizer so long as the default
// budget retains the same effective chunk count on representative inputs.
type Tokenizer interface {
	Len(s string) int
}

// CharTokenizer counts runes. It is the default Tokenizer and is what
// chunk_size is denominated in unless a different Tokenizer is supplied.
type CharTokenizer struct{}

func (CharTokenizer) Len(s string) int { return len([]rune(s)) }

// Store holds a parsed subtitle track and provides chunking and
// timestamp-mapping services over it.
type Store struct {
	cues []Cue
}

// NewStore builds a Store from already-parsed cues, sorted by start time.
func NewStore(cues []Cue) *Store {
	sorted := make([]Cue, len(cues))
	copy(sorted, cues)
	// Cues in a well-formed SRT are already ordered; a stable insertion
	// sort keeps this cheap and guards against out-of-order input.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Start > sorted[j].Start; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return &Store{cues: sorted}
}

// Cues returns the underlying cue slice. Callers must not mutate it.
func (s *Store) Cues() []Cue { return s.cues }

// Chunk splits the subtitle track into SubtitleChunks whose concatenated
// text length (per tok) is <= chunkSize, breaking only on cue boundaries
// and never splitting a single cue across chunks (§4.1).
func (s *Store) Chunk(chunkSize int, tok Tokenizer) ([]model.SubtitleChunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("subtitle: chunkSize must be > 0")
	}
	if tok == nil {
		tok = CharTokenizer{}
	}
	if len(s.cues) == 0 {
		return nil, nil
	}

	var chunks []model.SubtitleChunk
	var cur []Cue
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, buildChunk(len(chunks), cur))
		cur = nil
		curLen = 0
	}

	for _, c := range s.cues {
		cLen := tok.Len(c.Text)
		// A single cue may itself exceed chunkSize; it still gets its own
		// chunk rather than being split, per the "never split a cue"
		// invariant.
		if curLen > 0 && curLen+cLen > chunkSize {
			flush()
		}
		cur = append(cur, c)
		curLen += cLen
	}
	flush()
	return chunks, nil
}

func buildChunk(index int, cues []Cue) model.SubtitleChunk {
	texts := make([]string, 0, len(cues))
	for _, c := range cues {
		texts = append(texts, c.Text)
	}
	return model.SubtitleChunk{
		Index:     index,
		StartTime: FormatTimestamp(cues[0].Start),
		EndTime:   FormatTimestamp(cues[len(cues)-1].End),
		Text:      strings.Join(texts, "\n"),
		CueStart:  cues[0].Index,
		CueEnd:    cues[len(cues)-1].Index,
	}
}

// ConcatenatedText returns the whitespace-normalized concatenation of every
// cue's text, used by the round-trip testable property in spec.md §8:
// parse(SRT) -> chunk -> concatenate chunk texts == original concatenated
// cue texts (modulo whitespace).
func (s *Store) ConcatenatedText() string {
	texts := make([]string, 0, len(s.cues))
	for _, c := range s.cues {
		texts = append(texts, c.Text)
	}
	return normalizeWhitespace(strings.Join(texts, "\n"))
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

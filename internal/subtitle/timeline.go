package subtitle

import (
	"time"

	"github.com/zsunny6658/clipforge/internal/model"
)

// CuesForChunk returns the cues that fall within the chunk's recorded cue
// index range, in order. Used by stage 2 to resolve a TimelineItem's
// LLM-proposed span back onto real cue boundaries.
func (s *Store) CuesForChunk(chunk model.SubtitleChunk) []Cue {
	var out []Cue
	for _, c := range s.cues {
		if c.Index >= chunk.CueStart && c.Index <= chunk.CueEnd {
			out = append(out, c)
		}
	}
	return out
}

// SnapSpan maps a free-form [start,end] span proposed by the LLM onto the
// nearest enclosing cue boundaries within cues ("snap outward", §4.1): the
// returned start is the latest cue start <= start, and the returned end is
// the earliest cue end >= end. When the proposed span falls outside every
// cue, it snaps to the closest cue boundary instead and outOfBounds is
// true so the caller can log a warning without failing the stage.
func SnapSpan(cues []Cue, start, end time.Duration) (snappedStart, snappedEnd time.Duration, outOfBounds bool) {
	if len(cues) == 0 {
		return start, end, true
	}
	first := cues[0].Start
	last := cues[len(cues)-1].End

	// Span falls entirely outside the chunk's cue range: collapse to the
	// single closest cue boundary rather than enclosing outward.
	if start >= last {
		return last, last, true
	}
	if end <= first {
		return first, first, true
	}

	left := first
	for _, c := range cues {
		if c.Start <= start {
			left = c.Start
		} else {
			break
		}
	}
	right := last
	for i := len(cues) - 1; i >= 0; i-- {
		if cues[i].End >= end {
			right = cues[i].End
		} else {
			break
		}
	}

	outOfBounds = start < first || end > last
	if start < first {
		left = first
	}
	if end > last {
		right = last
	}
	if right <= left {
		// Degenerate proposal (e.g. start==end, or an inverted span): widen
		// to the enclosing single cue rather than emit a zero-length item.
		for _, c := range cues {
			if c.Start <= left && c.End >= left {
				right = c.End
				break
			}
		}
		if right <= left {
			right = cues[len(cues)-1].End
		}
		outOfBounds = true
	}
	return left, right, outOfBounds
}

// TimestampIndex returns the index of the cue that contains instant t, or
// -1 if none does. Cues are assumed contiguous/non-overlapping within a
// single track, consistent with well-formed SRT input.
func (s *Store) TimestampIndex(t time.Duration) int {
	for i, c := range s.cues {
		if t >= c.Start && t < c.End {
			return i
		}
	}
	return -1
}

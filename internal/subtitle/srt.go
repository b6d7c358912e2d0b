// Package subtitle implements SubtitleStore (C1): parsing an SRT subtitle
// track into cues, chunking cues into LLM-sized budgets, and mapping
// timestamps back onto cue boundaries. Grounded on the cue-oriented
// subtitle scanning in ThirdCoastInteractive-Rewind's caption ingestion,
// generalized from WebVTT to SRT.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Cue is one SRT subtitle entry: an index, a [Start,End) span, and text.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

const timestampLayout = "15:04:05,000"

// ParseTimestamp parses an SRT "HH:MM:SS,mmm" timestamp into a duration
// since midnight.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	main, ms, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("subtitle: timestamp %q missing millisecond component", s)
	}
	parts := strings.Split(main, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("subtitle: timestamp %q is not HH:MM:SS,mmm", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("subtitle: bad hours in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("subtitle: bad minutes in %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("subtitle: bad seconds in %q: %w", s, err)
	}
	msVal, err := strconv.Atoi(ms)
	if err != nil {
		return 0, fmt.Errorf("subtitle: bad milliseconds in %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(msVal)*time.Millisecond, nil
}

// FormatTimestamp renders a duration as an SRT "HH:MM:SS,mmm" timestamp.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Parse reads an SRT document and returns its cues in file order. Malformed
// blocks are skipped rather than failing the whole parse, since upstream
// downloads occasionally produce slightly non-conformant SRT.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	var cues []Cue
	var curIndex int
	var curStart, curEnd time.Duration
	var curText []string
	state := stateIndex

	flush := func() {
		if state != stateText && state != stateIndex {
			return
		}
		if len(curText) == 0 && curStart == 0 && curEnd == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(curText, "\n"))
		if text == "" {
			return
		}
		cues = append(cues, Cue{Index: curIndex, Start: curStart, End: curEnd, Text: text})
		curText = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateIndex:
			if trimmed == "" {
				continue
			}
			if idx, err := strconv.Atoi(trimmed); err == nil {
				curIndex = idx
				state = stateTime
				continue
			}
			// Some SRT variants omit the numeric index; treat this line as
			// a timestamp line instead.
			if strings.Contains(trimmed, "-->") {
				if s, e, ok := parseTimeRange(trimmed); ok {
					curStart, curEnd = s, e
					state = stateText
				}
				continue
			}
		case stateTime:
			if s, e, ok := parseTimeRange(trimmed); ok {
				curStart, curEnd = s, e
				state = stateText
			}
		case stateText:
			if trimmed == "" {
				flush()
				state = stateIndex
				continue
			}
			curText = append(curText, line)
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("subtitle: scan: %w", err)
	}
	return cues, nil
}

type parseState int

const (
	stateIndex parseState = iota
	stateTime
	stateText
)

func parseTimeRange(line string) (time.Duration, time.Duration, bool) {
	left, right, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, false
	}
	start, err := ParseTimestamp(left)
	if err != nil {
		return 0, 0, false
	}
	// The right side may carry trailing cue-settings ("align:middle" etc.);
	// only the first whitespace-delimited field is the timestamp.
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, false
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

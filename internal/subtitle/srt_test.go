package subtitle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const threeCueSRT = `1
00:00:00,000 --> 00:00:05,000
A

2
00:00:05,000 --> 00:00:10,000
B

3
00:00:10,000 --> 00:00:15,000
C
`

func TestParseTimestamp(t *testing.T) {
	d, err := ParseTimestamp("00:01:02,500")
	require.NoError(t, err)
	require.Equal(t, time.Minute+2*time.Second+500*time.Millisecond, d)

	_, err = ParseTimestamp("bogus")
	require.Error(t, err)
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	d := 2*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond
	s := FormatTimestamp(d)
	require.Equal(t, "02:03:04,005", s)

	back, err := ParseTimestamp(s)
	require.NoError(t, err)
	require.Equal(t, d, back)
}

func TestParse_ThreeCues(t *testing.T) {
	cues, err := Parse(strings.NewReader(threeCueSRT))
	require.NoError(t, err)
	require.Len(t, cues, 3)

	require.Equal(t, 1, cues[0].Index)
	require.Equal(t, "A", cues[0].Text)
	require.Equal(t, time.Duration(0), cues[0].Start)
	require.Equal(t, 5*time.Second, cues[0].End)

	require.Equal(t, "C", cues[2].Text)
	require.Equal(t, 10*time.Second, cues[2].Start)
	require.Equal(t, 15*time.Second, cues[2].End)
}

func TestParse_MultilineCueText(t *testing.T) {
	doc := "1\n00:00:00,000 --> 00:00:02,000\nline one\nline two\n"
	cues, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	require.Equal(t, "line one\nline two", cues[0].Text)
}

func TestParse_SkipsMalformedBlocks(t *testing.T) {
	doc := "1\nnot-a-timestamp\ngarbage\n\n2\n00:00:05,000 --> 00:00:06,000\nok\n"
	cues, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	require.Equal(t, "ok", cues[0].Text)
}

package transcode

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// codecProfile is the subset of a probed file's codec parameters that
// decide stream-copy eligibility: two files can be concatenated (or a cut
// can be stream-copied straight through) only when these match.
type codecProfile struct {
	videoCodec  string
	audioCodec  string
	width       int
	height      int
	pixelFormat string
}

func (c codecProfile) compatibleWith(o codecProfile) bool {
	return c.videoCodec == o.videoCodec &&
		c.audioCodec == o.audioCodec &&
		c.width == o.width &&
		c.height == o.height &&
		c.pixelFormat == o.pixelFormat
}

// probe runs ffprobe (via go-ffprobe.v2) against path, retrying transient
// failures a few times the way the pack's video prober does.
func probe(ctx context.Context, path string) (codecProfile, error) {
	var data *ffprobe.ProbeData
	operation := func() error {
		var err error
		data, err = ffprobe.ProbeURL(ctx, path)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = time.Second
	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, 2)); err != nil {
		return codecProfile{}, fmt.Errorf("probe %s: %w", path, err)
	}

	var prof codecProfile
	if v := data.FirstVideoStream(); v != nil {
		prof.videoCodec = v.CodecName
		prof.width = v.Width
		prof.height = v.Height
		prof.pixelFormat = v.PixFmt
	}
	if a := data.FirstAudioStream(); a != nil {
		prof.audioCodec = a.CodecName
	}
	return prof, nil
}

// probeDuration returns a media file's duration in seconds.
func probeDuration(ctx context.Context, path string) (float64, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("probe duration %s: %w", path, err)
	}
	return data.Format.DurationSeconds, nil
}

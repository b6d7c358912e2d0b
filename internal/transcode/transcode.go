// Package transcode implements MediaTranscoder (spec.md §4.6): cutting a
// clip out of the source video and concatenating an ordered list of clips
// into a collection, by shelling out to an external ffmpeg binary the way
// every stage-6 operation does. Stream-copy is used whenever the inputs'
// codecs allow it; otherwise the transcoder falls back to a uniform
// re-encode. Failures surface as apperr.TranscodeFailed; partial outputs are
// removed so a retry never finds a half-written file.
package transcode

import (
	"context"
	"time"

	"github.com/zsunny6658/clipforge/internal/model"
)

// Transcoder is the interface StageRunner's stage 6 depends on; the
// production implementation is FFmpegTranscoder, and tests substitute
// FakeTranscoder.
type Transcoder interface {
	Cut(ctx context.Context, sourcePath string, start, end time.Duration, clipID, outPath string) (model.ClipArtifact, error)
	Concat(ctx context.Context, orderedClipPaths []string, collectionID, outPath string) (model.CollectionArtifact, error)

	// Thumbnail extracts a single frame at atSecond into outPath (jpeg),
	// feeding ProjectStore's thumbnail cache (spec.md §3/§9: deletion must
	// evict cached thumbnails, so something must produce them first).
	Thumbnail(ctx context.Context, sourcePath string, atSecond float64, outPath string) error
}

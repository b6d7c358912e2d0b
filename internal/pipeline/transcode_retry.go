package pipeline

import (
	"context"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/subtitle"
	"github.com/zsunny6658/clipforge/internal/transcode"
)

// TranscodeFailed is retried once before escalating (§7). Both helpers share
// that one-retry policy rather than duplicating it at each call site.

func cutWithRetry(ctx context.Context, tc transcode.Transcoder, source string, clip model.TitledClip, out string) (model.ClipArtifact, error) {
	start, err := subtitle.ParseTimestamp(clip.StartTime)
	if err != nil {
		return model.ClipArtifact{}, apperr.TranscodeFailed(err, "parsing start time for clip %s", clip.ID)
	}
	end, err := subtitle.ParseTimestamp(clip.EndTime)
	if err != nil {
		return model.ClipArtifact{}, apperr.TranscodeFailed(err, "parsing end time for clip %s", clip.ID)
	}

	artifact, err := tc.Cut(ctx, source, start, end, clip.ID, out)
	if err != nil {
		artifact, err = tc.Cut(ctx, source, start, end, clip.ID, out)
	}
	return artifact, err
}

func concatWithRetry(ctx context.Context, tc transcode.Transcoder, paths []string, coll model.Collection, out string) (model.CollectionArtifact, error) {
	artifact, err := tc.Concat(ctx, paths, coll.ID, out)
	if err != nil {
		artifact, err = tc.Concat(ctx, paths, coll.ID, out)
	}
	return artifact, err
}

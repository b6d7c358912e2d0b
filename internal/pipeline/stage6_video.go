package pipeline

import (
	"context"
	"os"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
)

// runVideoStage is stage 6: no LLM. Every titled clip is cut from the
// source video, then every collection is concatenated from its member
// clips in order. This stage alone writes clips_metadata.json and
// collections_metadata.json (§4.4, §9) — re-running it replaces both
// files and the physical media they describe.
func (p *Pipeline) runVideoStage(ctx context.Context, projectID string) error {
	var titled []model.TitledClip
	if err := p.Store.ReadMetadata(projectID, fileStage4Result, &titled); err != nil {
		return apperr.StageFailed(StageVideo, err)
	}
	if len(titled) == 0 {
		return apperr.StageEmpty(StageVideo)
	}

	var collections []model.Collection
	if err := p.Store.ReadMetadata(projectID, fileStage5Result, &collections); err != nil && !os.IsNotExist(err) {
		return apperr.StageFailed(StageVideo, err)
	}

	layout := p.Store.Layout(projectID)
	source := layout.InputVideo()

	clipEntries, err := mapConcurrent(ctx, p.MaxInFlightTranscode, titled, func(ctx context.Context, clip model.TitledClip) (model.ClipMetadataEntry, error) {
		out := layout.ClipPath(clip.ID, ".mp4")
		artifact, err := cutWithRetry(ctx, p.Transcoder, source, clip, out)
		if err != nil {
			return model.ClipMetadataEntry{}, err
		}
		return model.ClipMetadataEntry{TitledClip: clip, Artifact: artifact}, nil
	})
	if err != nil {
		return err
	}

	clipPathByID := make(map[string]string, len(clipEntries))
	for _, e := range clipEntries {
		clipPathByID[e.ID] = e.Artifact.Path
	}

	collEntries, err := mapConcurrent(ctx, p.MaxInFlightTranscode, collections, func(ctx context.Context, coll model.Collection) (model.CollectionMetadataEntry, error) {
		paths := make([]string, 0, len(coll.ClipIDs))
		for _, id := range coll.ClipIDs {
			if path, ok := clipPathByID[id]; ok {
				paths = append(paths, path)
			}
		}
		if len(paths) == 0 {
			p.Log.Warn("video stage: collection has no resolvable clips, skipping", "collection_id", coll.ID)
			return model.CollectionMetadataEntry{}, nil
		}
		out := layout.CollectionPath(coll.ID, ".mp4")
		artifact, err := concatWithRetry(ctx, p.Transcoder, paths, coll, out)
		if err != nil {
			return model.CollectionMetadataEntry{}, err
		}
		return model.CollectionMetadataEntry{Collection: coll, Artifact: artifact}, nil
	})
	if err != nil {
		return err
	}
	nonEmptyColls := make([]model.CollectionMetadataEntry, 0, len(collEntries))
	for _, e := range collEntries {
		if e.Artifact.Path != "" {
			nonEmptyColls = append(nonEmptyColls, e)
		}
	}

	if err := p.Store.WriteMetadata(projectID, fileClipsMetadata, model.ClipsMetadata{Clips: clipEntries}); err != nil {
		return err
	}
	if err := p.Store.WriteMetadata(projectID, fileCollectionsMeta, model.CollectionsMetadata{Collections: nonEmptyColls}); err != nil {
		return err
	}

	p.cacheThumbnail(ctx, projectID, clipEntries)
	return nil
}

// cacheThumbnail grabs one representative frame from the first surviving
// clip into ProjectStore's thumbnail cache (spec.md §3/§9: deletion must
// evict cached thumbnails, so stage 6 is what populates them). Best-effort:
// a failure here never fails the pipeline run.
func (p *Pipeline) cacheThumbnail(ctx context.Context, projectID string, clips []model.ClipMetadataEntry) {
	if len(clips) == 0 {
		return
	}
	clip := clips[0]
	atSecond := clip.Artifact.DurationSeconds / 2
	out := p.Store.ThumbnailCachePath(projectID)
	if err := p.Transcoder.Thumbnail(ctx, clip.Artifact.Path, atSecond, out); err != nil {
		p.Log.Warn("video stage: thumbnail cache write failed", "project_id", projectID, "error", err.Error())
	}
}

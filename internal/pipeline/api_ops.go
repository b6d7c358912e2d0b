package pipeline

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
)

// This file holds the post-stage-6 metadata operations the API facade needs
// (§4.9): editing a clip's title/reason and CRUDing collections. These
// mutate the same clips_metadata.json/collections_metadata.json files
// stage 6 produces, but stage 6 itself is the only place that RE-DERIVES
// them from stage4/stage5 output (§9) — these operations only ever edit
// in place or regenerate one collection's artifact.

// ReadClips returns the project's current clip metadata.
func (p *Pipeline) ReadClips(projectID string) (model.ClipsMetadata, error) {
	var m model.ClipsMetadata
	if err := p.Store.ReadMetadata(projectID, fileClipsMetadata, &m); err != nil {
		if os.IsNotExist(err) {
			return model.ClipsMetadata{}, nil
		}
		return model.ClipsMetadata{}, err
	}
	return m, nil
}

// ReadCollections returns the project's current collection metadata.
func (p *Pipeline) ReadCollections(projectID string) (model.CollectionsMetadata, error) {
	var m model.CollectionsMetadata
	if err := p.Store.ReadMetadata(projectID, fileCollectionsMeta, &m); err != nil {
		if os.IsNotExist(err) {
			return model.CollectionsMetadata{}, nil
		}
		return model.CollectionsMetadata{}, err
	}
	return m, nil
}

// UpdateClip edits a surviving clip's generated title and/or recommend
// reason in place. A nil pointer leaves the corresponding field unchanged.
func (p *Pipeline) UpdateClip(projectID, clipID string, title, reason *string) (model.ClipMetadataEntry, error) {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	clips, err := p.ReadClips(projectID)
	if err != nil {
		return model.ClipMetadataEntry{}, err
	}
	idx := -1
	for i, c := range clips.Clips {
		if c.ID == clipID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.ClipMetadataEntry{}, apperr.NotFound("clip %q not found", clipID)
	}
	if title != nil {
		clips.Clips[idx].GeneratedTitle = *title
	}
	if reason != nil {
		clips.Clips[idx].RecommendReason = *reason
	}
	if err := p.Store.WriteMetadata(projectID, fileClipsMetadata, clips); err != nil {
		return model.ClipMetadataEntry{}, err
	}
	return clips.Clips[idx], nil
}

// CreateCollection adds a manual collection. Every clipID must reference an
// existing clip (§3 invariant a); the list is capped at
// MaxClipsPerCollection at creation time (§3 invariant b). The new
// collection has no artifact until Generate is called.
func (p *Pipeline) CreateCollection(projectID, title, summary string, clipIDs []string) (model.CollectionMetadataEntry, error) {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	clips, err := p.ReadClips(projectID)
	if err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	if err := p.validateClipIDs(clips, clipIDs); err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	if len(clipIDs) > p.MaxClipsPerCollection {
		return model.CollectionMetadataEntry{}, apperr.InvalidArgument("collection has %d clips, exceeds max_clips_per_collection (%d)", len(clipIDs), p.MaxClipsPerCollection)
	}

	colls, err := p.ReadCollections(projectID)
	if err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	entry := model.CollectionMetadataEntry{Collection: model.Collection{
		ID:        uuid.NewString(),
		Title:     title,
		Summary:   summary,
		ClipIDs:   append([]string(nil), clipIDs...),
		Type:      model.CollectionManual,
		CreatedAt: p.Clock.Now(),
	}}
	colls.Collections = append(colls.Collections, entry)
	if err := p.Store.WriteMetadata(projectID, fileCollectionsMeta, colls); err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	return entry, nil
}

// UpdateCollection edits title/summary and/or reorders/replaces clip_ids
// (§3 invariant c: ordering is meaningful and preserved through edits —
// callers pass clipIDs in the desired final order). A nil title/summary or
// clipIDs leaves that field unchanged; the existing artifact, if any, is
// left stale until the caller calls Generate again.
func (p *Pipeline) UpdateCollection(projectID, collectionID string, title, summary *string, clipIDs []string) (model.CollectionMetadataEntry, error) {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	colls, err := p.ReadCollections(projectID)
	if err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	idx := indexOfCollection(colls, collectionID)
	if idx < 0 {
		return model.CollectionMetadataEntry{}, apperr.NotFound("collection %q not found", collectionID)
	}

	if clipIDs != nil {
		clips, err := p.ReadClips(projectID)
		if err != nil {
			return model.CollectionMetadataEntry{}, err
		}
		if err := p.validateClipIDs(clips, clipIDs); err != nil {
			return model.CollectionMetadataEntry{}, err
		}
		colls.Collections[idx].ClipIDs = append([]string(nil), clipIDs...)
	}
	if title != nil {
		colls.Collections[idx].Title = *title
	}
	if summary != nil {
		colls.Collections[idx].Summary = *summary
	}
	if err := p.Store.WriteMetadata(projectID, fileCollectionsMeta, colls); err != nil {
		return model.CollectionMetadataEntry{}, err
	}
	return colls.Collections[idx], nil
}

// DeleteCollection removes a collection record. It does not touch the
// underlying clips — collections only ever weak-reference them (§3).
func (p *Pipeline) DeleteCollection(projectID, collectionID string) error {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	colls, err := p.ReadCollections(projectID)
	if err != nil {
		return err
	}
	idx := indexOfCollection(colls, collectionID)
	if idx < 0 {
		return apperr.NotFound("collection %q not found", collectionID)
	}
	colls.Collections = append(colls.Collections[:idx], colls.Collections[idx+1:]...)
	return p.Store.WriteMetadata(projectID, fileCollectionsMeta, colls)
}

// RegenerateCollection re-concatenates one collection's current clip_ids
// into a fresh artifact, the on-demand counterpart to stage 6's bulk
// regeneration — used after a manual collection is created or reordered.
func (p *Pipeline) RegenerateCollection(ctx context.Context, projectID, collectionID string) error {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	clips, err := p.ReadClips(projectID)
	if err != nil {
		return err
	}
	colls, err := p.ReadCollections(projectID)
	if err != nil {
		return err
	}
	idx := indexOfCollection(colls, collectionID)
	if idx < 0 {
		return apperr.NotFound("collection %q not found", collectionID)
	}
	coll := colls.Collections[idx].Collection

	pathByID := make(map[string]string, len(clips.Clips))
	for _, c := range clips.Clips {
		pathByID[c.ID] = c.Artifact.Path
	}
	paths := make([]string, 0, len(coll.ClipIDs))
	for _, id := range coll.ClipIDs {
		if path, ok := pathByID[id]; ok {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return apperr.InvalidArgument("collection %q has no resolvable clips to generate", collectionID)
	}

	out := p.Store.Layout(projectID).CollectionPath(coll.ID, ".mp4")
	artifact, err := concatWithRetry(ctx, p.Transcoder, paths, coll, out)
	if err != nil {
		return err
	}
	colls.Collections[idx] = model.CollectionMetadataEntry{Collection: coll, Artifact: artifact}
	return p.Store.WriteMetadata(projectID, fileCollectionsMeta, colls)
}

func (p *Pipeline) validateClipIDs(clips model.ClipsMetadata, clipIDs []string) error {
	known := make(map[string]bool, len(clips.Clips))
	for _, c := range clips.Clips {
		known[c.ID] = true
	}
	for _, id := range clipIDs {
		if !known[id] {
			return apperr.InvalidArgument("clip %q does not exist in this project", id)
		}
	}
	return nil
}

func indexOfCollection(colls model.CollectionsMetadata, id string) int {
	for i, c := range colls.Collections {
		if c.ID == id {
			return i
		}
	}
	return -1
}

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/prompt"
)

// runClusteringStage is stage 5: a single whole-project LLM call groups the
// titled clips into themed collections. Unlike stages 1-4, this is one call
// over everything, not a per-item fan-out, since clustering is inherently a
// cross-clip decision. Collections referencing an unknown clip ID, or
// exceeding MaxClipsPerCollection, are repaired here rather than trusted.
func (p *Pipeline) runClusteringStage(ctx context.Context, projectID string, category prompt.Category) error {
	var titled []model.TitledClip
	if err := p.Store.ReadMetadata(projectID, fileStage4Result, &titled); err != nil {
		return apperr.StageFailed(StageClustering, err)
	}
	if len(titled) == 0 {
		return apperr.StageEmpty(StageClustering)
	}

	known := make(map[string]bool, len(titled))
	type clipRef struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Topic string `json:"topic"`
	}
	refs := make([]clipRef, 0, len(titled))
	for _, c := range titled {
		known[c.ID] = true
		refs = append(refs, clipRef{ID: c.ID, Title: c.GeneratedTitle, Topic: c.Topic})
	}
	clipsJSON, err := json.Marshal(refs)
	if err != nil {
		return apperr.StageFailed(StageClustering, err)
	}

	in := prompt.Input{
		ClipsJSON:             string(clipsJSON),
		MaxClipsPerCollection: p.MaxClipsPerCollection,
	}
	pr, err := p.Prompts.Render(prompt.NameClustering, category, in)
	if err != nil {
		return err
	}
	obj, err := p.Gateway.Complete(ctx, pr)
	if err != nil {
		return err
	}

	rows := asItems(obj, "collections")
	out := make([]model.Collection, 0, len(rows))
	for _, row := range rows {
		title := asString(row, "title")
		if title == "" {
			p.Log.Warn("clustering stage: dropping collection with empty title")
			continue
		}
		var ids []string
		for _, id := range asStringSlice(row, "clip_ids") {
			if !known[id] {
				p.Log.Warn("clustering stage: dropping unknown clip id from collection", "clip_id", id)
				continue
			}
			ids = append(ids, id)
			if len(ids) >= p.MaxClipsPerCollection {
				break
			}
		}
		if len(ids) == 0 {
			continue
		}
		out = append(out, model.Collection{
			ID:        uuid.NewString(),
			Title:     title,
			Summary:   asString(row, "summary"),
			ClipIDs:   ids,
			Type:      model.CollectionAIRecommended,
			CreatedAt: p.Clock.Now(),
		})
	}

	return p.Store.WriteMetadata(projectID, fileStage5Result, out)
}

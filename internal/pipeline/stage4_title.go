package pipeline

import (
	"context"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/prompt"
)

// runTitleStage is stage 4: one LLM call per surviving scored clip,
// producing a short, shareable title. This stage writes only
// stage4_result.json — it must never touch clips_metadata.json, which
// stage 6 alone owns once physical media exists (§4.4, §9).
func (p *Pipeline) runTitleStage(ctx context.Context, projectID string, category prompt.Category) error {
	var scored []model.ScoredClip
	if err := p.Store.ReadMetadata(projectID, fileStage3Result, &scored); err != nil {
		return apperr.StageFailed(StageTitle, err)
	}
	if len(scored) == 0 {
		return apperr.StageEmpty(StageTitle)
	}

	titled, err := mapConcurrent(ctx, p.MaxInFlightLLM, scored, func(ctx context.Context, clip model.ScoredClip) (model.TitledClip, error) {
		in := prompt.Input{
			TopicTitle:      clip.Topic,
			ChunkText:       clip.Content,
			RecommendReason: clip.RecommendReason,
		}
		pr, err := p.Prompts.Render(prompt.NameTitle, category, in)
		if err != nil {
			return model.TitledClip{}, err
		}
		obj, err := p.Gateway.Complete(ctx, pr)
		if err != nil {
			return model.TitledClip{}, err
		}
		title := asString(obj, "title")
		if title == "" {
			title = clip.Topic
		}
		return model.TitledClip{ScoredClip: clip, GeneratedTitle: title}, nil
	})
	if err != nil {
		return err
	}

	return p.Store.WriteMetadata(projectID, fileStage4Result, titled)
}

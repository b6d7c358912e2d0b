package pipeline

import (
	"context"
	"time"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/subtitle"
)

// runScoringStage is stage 3: one LLM call per timeline item, producing the
// five sub-scores. FinalScore is always computed here from p.Weights, never
// trusted from the LLM (§4.4) — items below MinScoreThreshold are dropped.
// The ≥ comparison is strict: a clip scoring exactly the threshold survives.
func (p *Pipeline) runScoringStage(ctx context.Context, projectID string, category prompt.Category, subStore *subtitle.Store) error {
	var timeline []model.TimelineItem
	if err := p.Store.ReadMetadata(projectID, fileStage2Result, &timeline); err != nil {
		return apperr.StageFailed(StageScoring, err)
	}
	if len(timeline) == 0 {
		return apperr.StageEmpty(StageScoring)
	}

	scored, err := mapConcurrent(ctx, p.MaxInFlightLLM, timeline, func(ctx context.Context, item model.TimelineItem) (*model.ScoredClip, error) {
		start, err := subtitle.ParseTimestamp(item.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := subtitle.ParseTimestamp(item.EndTime)
		if err != nil {
			return nil, err
		}
		content := cuesText(subStore, start, end)

		in := prompt.Input{
			ChunkIndex: item.ChunkIndex,
			StartTime:  item.StartTime,
			EndTime:    item.EndTime,
			ChunkText:  content,
			TopicTitle: item.Topic,
		}
		pr, err := p.Prompts.Render(prompt.NameScoring, category, in)
		if err != nil {
			return nil, err
		}
		obj, err := p.Gateway.Complete(ctx, pr)
		if err != nil {
			return nil, err
		}

		sub := model.SubScores{
			Hook:          asFloat(obj, "hook"),
			Informational: asFloat(obj, "informational"),
			Emotional:     asFloat(obj, "emotional"),
			Shareability:  asFloat(obj, "shareability"),
			Completeness:  asFloat(obj, "completeness"),
		}
		final := p.Weights.apply(sub)
		if final < p.MinScoreThreshold {
			return nil, nil
		}

		return &model.ScoredClip{
			TimelineItem:    item,
			SubScores:       sub,
			FinalScore:      final,
			RecommendReason: asString(obj, "recommend_reason"),
			Content:         content,
		}, nil
	})
	if err != nil {
		return err
	}

	out := make([]model.ScoredClip, 0, len(scored))
	for _, c := range scored {
		if c != nil {
			out = append(out, *c)
		}
	}
	flagCrossChunkOverlaps(out)
	if len(out) == 0 {
		return apperr.StageEmpty(StageScoring)
	}

	return p.Store.WriteMetadata(projectID, fileStage3Result, out)
}

// cuesText concatenates the subtitle text spanning [start, end), so the
// scoring prompt sees the clip's actual words rather than just its topic.
func cuesText(subStore *subtitle.Store, start, end time.Duration) string {
	var out string
	for _, cue := range subStore.Cues() {
		if cue.End <= start || cue.Start >= end {
			continue
		}
		if out != "" {
			out += " "
		}
		out += cue.Text
	}
	return out
}

// flagCrossChunkOverlaps marks clips whose span overlaps another retained
// clip originating from a different chunk. Overlaps are permitted by §3 —
// multiple topics can legitimately share airtime — but downstream consumers
// (stage 6, the API) are told about them rather than silently merging.
func flagCrossChunkOverlaps(clips []model.ScoredClip) {
	for i := range clips {
		si, err := subtitle.ParseTimestamp(clips[i].StartTime)
		if err != nil {
			continue
		}
		ei, err := subtitle.ParseTimestamp(clips[i].EndTime)
		if err != nil {
			continue
		}
		for j := range clips {
			if i == j || clips[i].ChunkIndex == clips[j].ChunkIndex {
				continue
			}
			sj, err := subtitle.ParseTimestamp(clips[j].StartTime)
			if err != nil {
				continue
			}
			ej, err := subtitle.ParseTimestamp(clips[j].EndTime)
			if err != nil {
				continue
			}
			if si < ej && sj < ei {
				clips[i].OverlapsAcrossChunks = true
				break
			}
		}
	}
}

package pipeline

import (
	"context"
	"strings"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/subtitle"
)

// runTimelineStage is stage 2: for each stage-1 outline item, one LLM call
// proposes a span inside its originating chunk, which is then snapped onto
// real cue boundaries via SubtitleStore (so every TimelineItem's timestamps
// are guaranteed to land on an actual cue edge, never mid-utterance).
func (p *Pipeline) runTimelineStage(ctx context.Context, projectID string, category prompt.Category, subStore *subtitle.Store) error {
	var outline []model.OutlineItem
	if err := p.Store.ReadMetadata(projectID, fileStage1Result, &outline); err != nil {
		return apperr.StageFailed(StageTimeline, err)
	}
	if len(outline) == 0 {
		return apperr.StageEmpty(StageTimeline)
	}

	chunksByIndex := chunkIndexMap(subStore, p.ChunkSize)

	items, err := mapConcurrent(ctx, p.MaxInFlightLLM, outline, func(ctx context.Context, item model.OutlineItem) (*model.TimelineItem, error) {
		chunk, ok := chunksByIndex[item.ChunkIndex]
		if !ok {
			p.Log.Warn("timeline stage: outline item references unknown chunk, dropping", "outline_id", item.ID, "chunk_index", item.ChunkIndex)
			return nil, nil
		}
		cues := subStore.CuesForChunk(chunk)

		in := prompt.Input{
			ChunkIndex: chunk.Index,
			StartTime:  chunk.StartTime,
			EndTime:    chunk.EndTime,
			ChunkText:  chunk.Text,
			TopicTitle: item.Topic,
			Keywords:   strings.Join(item.Keywords, ", "),
		}
		pr, err := p.Prompts.Render(prompt.NameTimeline, category, in)
		if err != nil {
			return nil, err
		}
		obj, err := p.Gateway.Complete(ctx, pr)
		if err != nil {
			return nil, err
		}

		start, err := subtitle.ParseTimestamp(asString(obj, "start_time"))
		if err != nil {
			p.Log.Warn("timeline stage: unparseable start_time, dropping", "outline_id", item.ID)
			return nil, nil
		}
		end, err := subtitle.ParseTimestamp(asString(obj, "end_time"))
		if err != nil {
			p.Log.Warn("timeline stage: unparseable end_time, dropping", "outline_id", item.ID)
			return nil, nil
		}

		snappedStart, snappedEnd, outOfBounds := subtitle.SnapSpan(cues, start, end)
		if outOfBounds {
			p.Log.Warn("timeline stage: proposed span snapped out of bounds", "outline_id", item.ID)
		}
		if snappedEnd <= snappedStart {
			p.Log.Warn("timeline stage: degenerate span after snapping, dropping", "outline_id", item.ID)
			return nil, nil
		}

		return &model.TimelineItem{
			OutlineItem: item,
			StartTime:   subtitle.FormatTimestamp(snappedStart),
			EndTime:     subtitle.FormatTimestamp(snappedEnd),
		}, nil
	})
	if err != nil {
		return err
	}

	out := make([]model.TimelineItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *it)
		}
	}
	if len(out) == 0 {
		return apperr.StageEmpty(StageTimeline)
	}

	return p.Store.WriteMetadata(projectID, fileStage2Result, out)
}

// chunkIndexMap rebuilds each chunk keyed by index, so stage 2 can resolve
// an outline item's originating chunk without re-walking the whole list.
func chunkIndexMap(subStore *subtitle.Store, chunkSize int) map[int]model.SubtitleChunk {
	chunks, err := subStore.Chunk(chunkSize, subtitle.CharTokenizer{})
	if err != nil {
		return nil
	}
	out := make(map[int]model.SubtitleChunk, len(chunks))
	for _, c := range chunks {
		out[c.Index] = c
	}
	return out
}

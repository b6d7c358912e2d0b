package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/subtitle"
)

// runOutlineStage is stage 1: one LLM call per chunk, extracting topical
// segments. Chunks are order-invariant so calls run with bounded
// concurrency; the flat output list is re-sorted into chunk order for a
// deterministic, idempotent stage1_result.json.
func (p *Pipeline) runOutlineStage(ctx context.Context, projectID string, category prompt.Category, subStore *subtitle.Store) error {
	chunks, err := subStore.Chunk(p.ChunkSize, subtitle.CharTokenizer{})
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return apperr.StageEmpty(StageOutline)
	}

	perChunk, err := mapConcurrent(ctx, p.MaxInFlightLLM, chunks, func(ctx context.Context, chunk model.SubtitleChunk) ([]model.OutlineItem, error) {
		in := prompt.Input{
			ChunkIndex: chunk.Index,
			StartTime:  chunk.StartTime,
			EndTime:    chunk.EndTime,
			ChunkText:  chunk.Text,
		}
		pr, err := p.Prompts.Render(prompt.NameOutline, category, in)
		if err != nil {
			return nil, err
		}
		obj, err := p.Gateway.Complete(ctx, pr)
		if err != nil {
			return nil, err
		}
		return parseOutlineItems(obj, chunk.Index, p.Log), nil
	})
	if err != nil {
		return err
	}

	var out []model.OutlineItem
	for _, items := range perChunk {
		out = append(out, items...)
	}
	if len(out) == 0 {
		return apperr.StageEmpty(StageOutline)
	}

	return p.Store.WriteMetadata(projectID, fileStage1Result, out)
}

func parseOutlineItems(obj map[string]any, chunkIndex int, log *logger.Logger) []model.OutlineItem {
	rows := asItems(obj, "items")
	out := make([]model.OutlineItem, 0, len(rows))
	for _, row := range rows {
		topic := asString(row, "topic")
		if topic == "" {
			log.Warn("outline stage: dropping item with empty topic", "chunk_index", chunkIndex)
			continue
		}
		id := asString(row, "id")
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, model.OutlineItem{
			ID:         id,
			Topic:      topic,
			Keywords:   asStringSlice(row, "keywords"),
			ChunkIndex: chunkIndex,
		})
	}
	return out
}

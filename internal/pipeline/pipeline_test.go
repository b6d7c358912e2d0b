package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/llm"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/project"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/subtitle"
	"github.com/zsunny6658/clipforge/internal/transcode"
)

// threeCueSRT has boundaries at 0, 5, 10, 15 seconds, matching the literal
// end-to-end scenario narrated in spec.md §8.
const threeCueSRT = `1
00:00:00,000 --> 00:00:05,000
A

2
00:00:05,000 --> 00:00:10,000
B

3
00:00:10,000 --> 00:00:15,000
C
`

func newTestPipeline(t *testing.T) (*Pipeline, *project.Store, *llm.FakeProvider, *transcode.FakeTranscoder, string) {
	t.Helper()
	store, err := project.NewStore(t.TempDir(), clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	projectID := "proj-1"
	_, err = store.CreateProject(projectID, "my video", "")
	require.NoError(t, err)

	layout := store.Layout(projectID)
	require.NoError(t, os.WriteFile(layout.InputSubtitles(), []byte(threeCueSRT), 0o644))
	require.NoError(t, os.WriteFile(layout.InputVideo(), []byte("fake video bytes"), 0o644))

	prompts, err := prompt.Load("")
	require.NoError(t, err)

	fakeProvider := llm.NewFakeProvider("fake")
	gateway := llm.NewGateway(fakeProvider, logger.NewNop(), 0, 5*time.Second)
	fakeTranscoder := transcode.NewFakeTranscoder()

	p := New(store, prompts, gateway, fakeTranscoder, logger.NewNop())
	p.MaxInFlightLLM = 1
	p.MaxInFlightTranscode = 1

	return p, store, fakeProvider, fakeTranscoder, projectID
}

func TestPipeline_HappyPath_EndToEnd(t *testing.T) {
	p, store, fp, ft, projectID := newTestPipeline(t)

	// Stage 1: one chunk, two outline items.
	fp.QueueText(`{"items":[{"id":"o1","topic":"Topic A","keywords":["a"]},{"id":"o2","topic":"Topic B","keywords":["b"]}]}`)
	// Stage 2: one call per outline item, in order.
	fp.QueueText(`{"start_time":"00:00:00,000","end_time":"00:00:05,000"}`)
	fp.QueueText(`{"start_time":"00:00:10,000","end_time":"00:00:15,000"}`)
	// Stage 3: o1 scores high and survives; o2 scores zero and is dropped.
	fp.QueueText(`{"hook":1,"informational":1,"emotional":1,"shareability":1,"completeness":1,"recommend_reason":"great hook"}`)
	fp.QueueText(`{"hook":0,"informational":0,"emotional":0,"shareability":0,"completeness":0,"recommend_reason":"weak"}`)
	// Stage 4: one surviving clip to title.
	fp.QueueText(`{"title":"Amazing Topic A"}`)
	// Stage 5: whole-project clustering call; a single surviving clip needs
	// no grouping, matching the scenario's "empty collections list".
	fp.QueueText(`{"collections":[]}`)

	err := p.Start(context.Background(), projectID)
	require.NoError(t, err)

	proj, err := store.GetProject(projectID)
	require.NoError(t, err)
	require.Equal(t, model.ProjectCompleted, proj.Status)
	require.Equal(t, len(stageOrder), proj.CurrentStep)

	var outline []model.OutlineItem
	require.NoError(t, store.ReadMetadata(projectID, fileStage1Result, &outline))
	require.Len(t, outline, 2)

	var clips model.ClipsMetadata
	require.NoError(t, store.ReadMetadata(projectID, fileClipsMetadata, &clips))
	require.Len(t, clips.Clips, 1)
	require.Equal(t, "o1", clips.Clips[0].ID)
	require.Equal(t, "Amazing Topic A", clips.Clips[0].GeneratedTitle)

	var colls model.CollectionsMetadata
	require.NoError(t, store.ReadMetadata(projectID, fileCollectionsMeta, &colls))
	require.Empty(t, colls.Collections)

	cuts := ft.Cuts()
	require.Len(t, cuts, 1)
	require.Equal(t, "o1", cuts[0].ClipID)
	require.Empty(t, ft.Concats())

	thumbs := ft.Thumbnails()
	require.Len(t, thumbs, 1)
	require.Equal(t, store.Layout(projectID).ClipPath("o1", ".mp4"), thumbs[0].SourcePath)
	require.Equal(t, store.ThumbnailCachePath(projectID), thumbs[0].OutPath)
}

func TestScoringStage_ThresholdBoundaryIsInclusive(t *testing.T) {
	p, store, fp, _, projectID := newTestPipeline(t)

	timeline := []model.TimelineItem{
		{OutlineItem: model.OutlineItem{ID: "o1", Topic: "A", ChunkIndex: 0}, StartTime: "00:00:00,000", EndTime: "00:00:05,000"},
		{OutlineItem: model.OutlineItem{ID: "o2", Topic: "B", ChunkIndex: 0}, StartTime: "00:00:05,000", EndTime: "00:00:10,000"},
	}
	require.NoError(t, store.WriteMetadata(projectID, fileStage2Result, timeline))

	// Exactly at threshold: kept (strict >=). Just under: dropped.
	fp.QueueText(`{"hook":0.70,"informational":0.70,"emotional":0.70,"shareability":0.70,"completeness":0.70}`)
	fp.QueueText(`{"hook":0.6999,"informational":0.6999,"emotional":0.6999,"shareability":0.6999,"completeness":0.6999}`)

	cues, err := subtitle.Parse(strings.NewReader(threeCueSRT))
	require.NoError(t, err)
	subStore := subtitle.NewStore(cues)

	err = p.runScoringStage(context.Background(), projectID, prompt.CategoryDefault, subStore)
	require.NoError(t, err)

	var scored []model.ScoredClip
	require.NoError(t, store.ReadMetadata(projectID, fileStage3Result, &scored))
	require.Len(t, scored, 1)
	require.Equal(t, "o1", scored[0].ID)
	require.InDelta(t, 0.70, scored[0].FinalScore, 0.0001)
}

func TestPipeline_FailureThenResume(t *testing.T) {
	p, store, fp, _, projectID := newTestPipeline(t)

	fp.QueueText(`{"items":[{"id":"o1","topic":"Topic A"}]}`)
	fp.QueueText(`{"start_time":"00:00:00,000","end_time":"00:00:05,000"}`)
	fp.QueueError(errors.New("provider unreachable"))

	err := p.Start(context.Background(), projectID)
	require.Error(t, err)

	proj, err := store.GetProject(projectID)
	require.NoError(t, err)
	require.Equal(t, model.ProjectError, proj.Status)
	require.NotEmpty(t, proj.ErrorMessage)

	stage1Before, err := os.ReadFile(store.Layout(projectID).MetadataPath(fileStage1Result))
	require.NoError(t, err)
	stage2Before, err := os.ReadFile(store.Layout(projectID).MetadataPath(fileStage2Result))
	require.NoError(t, err)
	_, err = os.Stat(store.Layout(projectID).MetadataPath(fileStage3Result))
	require.True(t, os.IsNotExist(err))

	// Resume with a gateway whose provider now succeeds for every remaining
	// call: stage 3 (score), stage 4 (title), stage 5 (clustering).
	fp2 := llm.NewFakeProvider("fake2")
	fp2.QueueText(`{"hook":1,"informational":1,"emotional":1,"shareability":1,"completeness":1}`)
	fp2.QueueText(`{"title":"Amazing Topic A"}`)
	fp2.QueueText(`{"collections":[]}`)
	p.Gateway = llm.NewGateway(fp2, logger.NewNop(), 0, 5*time.Second)

	err = p.Resume(context.Background(), projectID, 3)
	require.NoError(t, err)

	proj, err = store.GetProject(projectID)
	require.NoError(t, err)
	require.Equal(t, model.ProjectCompleted, proj.Status)

	stage1After, err := os.ReadFile(store.Layout(projectID).MetadataPath(fileStage1Result))
	require.NoError(t, err)
	stage2After, err := os.ReadFile(store.Layout(projectID).MetadataPath(fileStage2Result))
	require.NoError(t, err)
	require.Equal(t, stage1Before, stage1After, "resume must not rewrite earlier stage outputs")
	require.Equal(t, stage2Before, stage2After, "resume must not rewrite earlier stage outputs")
}

func TestPipeline_CancelMidStage_ReachesCancelledWithNoPartialOutput(t *testing.T) {
	p, store, fp, _, projectID := newTestPipeline(t)

	fp.QueueText(`{"items":[{"id":"o1","topic":"Topic A"}]}`)
	// Stage 2 would need a response too, but cancellation is expected to
	// stop the run before stage 2 ever calls the gateway.

	ctx, cancel := context.WithCancel(context.Background())
	p.OnProgress = func(_ string, _ int, stageName string, _ int, message string) {
		if stageName == StageOutline && message == StageOutline+" complete" {
			cancel()
		}
	}

	err := p.Start(ctx, projectID)
	require.Error(t, err)

	proj, err := store.GetProject(projectID)
	require.NoError(t, err)
	require.Equal(t, model.ProjectCancelled, proj.Status)

	_, err = os.Stat(store.Layout(projectID).MetadataPath(fileStage1Result))
	require.NoError(t, err, "stage 1 completed before cancellation, its output must survive")
	_, err = os.Stat(store.Layout(projectID).MetadataPath(fileStage2Result))
	require.True(t, os.IsNotExist(err), "stage 2 never ran, it must have no output file")
}

func TestVideoStage_RegenerateAfterReorderUsesNewOrder(t *testing.T) {
	p, store, _, ft, projectID := newTestPipeline(t)

	titled := []model.TitledClip{
		{ScoredClip: model.ScoredClip{TimelineItem: model.TimelineItem{OutlineItem: model.OutlineItem{ID: "o1", Topic: "A"}, StartTime: "00:00:00,000", EndTime: "00:00:05,000"}}, GeneratedTitle: "Clip A"},
		{ScoredClip: model.ScoredClip{TimelineItem: model.TimelineItem{OutlineItem: model.OutlineItem{ID: "o2", Topic: "B"}, StartTime: "00:00:05,000", EndTime: "00:00:10,000"}}, GeneratedTitle: "Clip B"},
	}
	require.NoError(t, store.WriteMetadata(projectID, fileStage4Result, titled))

	collections := []model.Collection{
		{ID: "c1", Title: "Best bits", ClipIDs: []string{"o1", "o2"}, Type: model.CollectionAIRecommended},
	}
	require.NoError(t, store.WriteMetadata(projectID, fileStage5Result, collections))

	require.NoError(t, p.runVideoStage(context.Background(), projectID))
	require.Len(t, ft.Concats(), 1)
	require.Equal(t, []string{store.Layout(projectID).ClipPath("o1", ".mp4"), store.Layout(projectID).ClipPath("o2", ".mp4")}, ft.Concats()[0].OrderedClipPaths)

	// Reorder the collection's clip_ids (equivalent to a reorder request)
	// and regenerate: the new concat call must reflect the new order.
	collections[0].ClipIDs = []string{"o2", "o1"}
	require.NoError(t, store.WriteMetadata(projectID, fileStage5Result, collections))
	require.NoError(t, p.runVideoStage(context.Background(), projectID))

	concats := ft.Concats()
	require.Len(t, concats, 2)
	require.Equal(t, []string{store.Layout(projectID).ClipPath("o2", ".mp4"), store.Layout(projectID).ClipPath("o1", ".mp4")}, concats[1].OrderedClipPaths)
}

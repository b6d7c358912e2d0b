package pipeline

// Metadata filenames, fixed by spec.md §4.7/§6. Stage 4 deliberately does
// not own clips_metadata.json — only stage 6 ever writes it.
const (
	fileStage1Result       = "stage1_result.json"
	fileStage2Result       = "stage2_result.json"
	fileStage3Result       = "stage3_result.json"
	fileStage4Result       = "stage4_result.json"
	fileStage5Result       = "stage5_result.json"
	fileClipsMetadata      = "clips_metadata.json"
	fileCollectionsMeta    = "collections_metadata.json"
	filePipelineState      = "pipeline_state.json"
)

// Stage names used for progress events, stage.State records, and
// apperr.StageFailed's stage field.
const (
	StageOutline    = "outline"
	StageTimeline   = "timeline"
	StageScoring    = "scoring"
	StageTitle      = "title"
	StageClustering = "clustering"
	StageVideo      = "video"
)

var stageOrder = []string{StageOutline, StageTimeline, StageScoring, StageTitle, StageClustering, StageVideo}

func stageIndex(name string) int {
	for i, s := range stageOrder {
		if s == name {
			return i + 1
		}
	}
	return 0
}

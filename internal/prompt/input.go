package prompt

// Input is a superset of every field any stage template might reference.
// A field left unset simply renders as its zero value (templates are
// parsed with Option("missingkey=zero")), so one struct can serve every
// stage's template without per-stage boilerplate.
type Input struct {
	// Stage 1 (outline extraction), stage 2 (timeline localization),
	// stage 3 (scoring)
	ChunkIndex int
	StartTime  string
	EndTime    string
	ChunkText  string

	// Stage 2: the outline item being localized
	TopicTitle  string
	Keywords    string // comma-separated

	// Stage 1: prior chunks' outline items, rendered by the outline template
	// when non-empty; runOutlineStage does not set it, so it stays empty
	PreviousOutlineJSON string

	// Stage 4 (title generation)
	RecommendReason string

	// Stage 5 (clustering, whole-project)
	ClipsJSON             string
	MaxClipsPerCollection int
}

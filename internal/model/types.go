// Package model holds the data model from spec.md §3: the types every
// pipeline stage reads and writes, and that ProjectStore persists as JSON.
// These are plain structs — there is no ORM here, because ProjectStore is
// explicitly a filesystem/JSON store, not a database (§4.7).
package model

import "time"

// ProjectStatus is the Project lifecycle state (§3).
type ProjectStatus string

const (
	ProjectUploading  ProjectStatus = "uploading"
	ProjectProcessing ProjectStatus = "processing"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectError      ProjectStatus = "error"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Project is the top-level unit of work.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// CurrentStep and TotalSteps track pipeline progress; TotalSteps is
	// always 6 for this pipeline.
	CurrentStep int    `json:"current_step"`
	TotalSteps  int    `json:"total_steps"`
	ErrorMessage string `json:"error_message,omitempty"`

	// WorkDir is the project's root directory under ProjectStore's root.
	WorkDir string `json:"work_dir"`
}

// SubtitleChunk is a contiguous, cue-aligned slice of the subtitle stream
// sized to fit the LLM context budget. Immutable once produced.
type SubtitleChunk struct {
	Index     int       `json:"index"`
	StartTime string    `json:"start_time"` // SRT HH:MM:SS,mmm
	EndTime   string    `json:"end_time"`
	Text      string    `json:"text"`
	CueStart  int       `json:"cue_start"` // first cue index covered (inclusive)
	CueEnd    int       `json:"cue_end"`   // last cue index covered (inclusive)
}

// OutlineItem is produced by stage 1 per chunk.
type OutlineItem struct {
	ID         string   `json:"id"`
	Topic      string   `json:"topic"`
	Keywords   []string `json:"keywords,omitempty"`
	ChunkIndex int      `json:"chunk_index"`
}

// TimelineItem extends an OutlineItem with cue-aligned timestamps (stage 2).
type TimelineItem struct {
	OutlineItem
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SubScores are the stage-3 dimensions combined into FinalScore by a fixed,
// configurable weighted sum (never LLM output, per §4.4).
type SubScores struct {
	Hook            float64 `json:"hook"`
	Informational   float64 `json:"informational"`
	Emotional       float64 `json:"emotional"`
	Shareability    float64 `json:"shareability"`
	Completeness    float64 `json:"completeness"`
}

// ScoredClip extends a TimelineItem with its final score and rationale.
type ScoredClip struct {
	TimelineItem
	SubScores       SubScores `json:"sub_scores"`
	FinalScore      float64   `json:"final_score"`
	RecommendReason string    `json:"recommend_reason"`
	Content         string    `json:"content"`
	// OverlapsAcrossChunks is set when this clip's span overlaps another
	// retained clip from a different chunk (§3: permitted, but flagged).
	OverlapsAcrossChunks bool `json:"overlaps_across_chunks,omitempty"`
}

// TitledClip adds the stage-4 generated title.
type TitledClip struct {
	ScoredClip
	GeneratedTitle string `json:"generated_title"`
}

// CollectionType distinguishes AI-suggested groupings from user-created ones.
type CollectionType string

const (
	CollectionAIRecommended CollectionType = "ai_recommended"
	CollectionManual        CollectionType = "manual"
)

// Collection is an ordered grouping of clips sharing a theme.
type Collection struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	ClipIDs   []string       `json:"clip_ids"`
	Type      CollectionType `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}

// ClipArtifact is the physical media file produced for a clip at stage 6.
type ClipArtifact struct {
	ClipID          string    `json:"clip_id"`
	Path            string    `json:"path"`
	DurationSeconds float64   `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// CollectionArtifact is the concatenated media file for a Collection.
type CollectionArtifact struct {
	CollectionID    string    `json:"collection_id"`
	Path            string    `json:"path"`
	DurationSeconds float64   `json:"duration_seconds"`
	SizeBytes       int64     `json:"size_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// ClipsMetadata is the authoritative stage-6 output: one entry per
// surviving TitledClip plus its artifact. Stage 4 must never write this
// file (§4.4, §9) — stage4_result.json is its own, separate output.
type ClipsMetadata struct {
	Clips []ClipMetadataEntry `json:"clips"`
}

type ClipMetadataEntry struct {
	TitledClip
	Artifact ClipArtifact `json:"artifact"`
}

// CollectionsMetadata is the authoritative stage-6 collections output.
type CollectionsMetadata struct {
	Collections []CollectionMetadataEntry `json:"collections"`
}

type CollectionMetadataEntry struct {
	Collection
	Artifact CollectionArtifact `json:"artifact"`
}

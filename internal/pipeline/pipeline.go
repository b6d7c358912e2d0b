// Package pipeline implements Pipeline (spec.md §4.5): the state machine
// that drives a project through the six stages in order, persisting
// progress so a crash or an explicit cancel leaves the project resumable
// from exactly the stage it stopped at. It owns no LLM/transcode/storage
// logic of its own — it composes StageRunner (internal/pipeline/stage)
// with the six stage implementations in this package.
package pipeline

import (
	"context"
	"fmt"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/llm"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/model"
	"github.com/zsunny6658/clipforge/internal/pipeline/stage"
	"github.com/zsunny6658/clipforge/internal/project"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/subtitle"
	"github.com/zsunny6658/clipforge/internal/transcode"
)

// Weights are the stage-3 sub-score weighting constants, externalized as
// configuration per the Open Question in spec.md §9 (the source never
// enumerated them in one place).
type Weights struct {
	Hook, Informational, Emotional, Shareability, Completeness float64
}

// DefaultWeights sum to 1.0 and favor hook and informational content,
// matching the emphasis implied by the source's clip-scoring narrative.
var DefaultWeights = Weights{Hook: 0.3, Informational: 0.25, Emotional: 0.15, Shareability: 0.15, Completeness: 0.15}

func (w Weights) apply(s model.SubScores) float64 {
	return w.Hook*s.Hook + w.Informational*s.Informational + w.Emotional*s.Emotional +
		w.Shareability*s.Shareability + w.Completeness*s.Completeness
}

// Pipeline composes every collaborator a stage needs.
type Pipeline struct {
	Store      *project.Store
	Prompts    *prompt.Library
	Gateway    *llm.Gateway
	Transcoder transcode.Transcoder
	Clock      clock.Clock
	Log        *logger.Logger

	MinScoreThreshold     float64
	MaxClipsPerCollection int
	MaxInFlightLLM        int64
	MaxInFlightTranscode  int64
	Weights               Weights
	ChunkSize             int

	// OnProgress, when set, is notified of every stage transition in
	// addition to the per-project pipeline_state.json record, letting the
	// scheduler maintain its in-memory status map.
	OnProgress func(projectID string, stageIndex int, stageName string, percent int, message string)
}

// New builds a Pipeline with the given collaborators and sane defaults for
// any zero-valued tunables.
func New(store *project.Store, prompts *prompt.Library, gateway *llm.Gateway, tc transcode.Transcoder, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		Store:                 store,
		Prompts:               prompts,
		Gateway:               gateway,
		Transcoder:            tc,
		Clock:                 clock.Real,
		Log:                   log,
		MinScoreThreshold:     0.7,
		MaxClipsPerCollection: 5,
		MaxInFlightLLM:        3,
		MaxInFlightTranscode:  2,
		Weights:               DefaultWeights,
		ChunkSize:             5000,
	}
}

// Start runs every stage from the beginning.
func (p *Pipeline) Start(ctx context.Context, projectID string) error {
	return p.run(ctx, projectID, 1)
}

// Resume runs from stage fromStage onward, requiring that every earlier
// stage's output file already exists. The contents of those files are not
// read or validated here.
func (p *Pipeline) Resume(ctx context.Context, projectID string, fromStage int) error {
	if fromStage < 1 || fromStage > len(stageOrder) {
		return apperr.InvalidArgument("resume: stage %d out of range", fromStage)
	}
	for i := 0; i < fromStage-1; i++ {
		if !p.Store.HasMetadata(projectID, resultFileFor(stageOrder[i])) {
			return apperr.InvalidArgument("resume: stage %q output missing, cannot resume at stage %d", stageOrder[i], fromStage)
		}
	}
	return p.run(ctx, projectID, fromStage)
}

// Retry resumes from the last stage recorded as failed, or stage 1 if none
// is recorded.
func (p *Pipeline) Retry(ctx context.Context, projectID string) error {
	rs, err := loadRunState(p.Store, projectID)
	if err != nil {
		return err
	}
	from := stageIndex(rs.lastFailedStage())
	if from == 0 {
		from = 1
	}
	return p.run(ctx, projectID, from)
}

func resultFileFor(stageName string) string {
	switch stageName {
	case StageOutline:
		return fileStage1Result
	case StageTimeline:
		return fileStage2Result
	case StageScoring:
		return fileStage3Result
	case StageTitle:
		return fileStage4Result
	case StageClustering:
		return fileStage5Result
	case StageVideo:
		return fileClipsMetadata
	default:
		return ""
	}
}

func (p *Pipeline) run(ctx context.Context, projectID string, fromStage int) error {
	unlock := p.Store.Lock(projectID)
	defer unlock()

	proj, err := p.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	rs, err := loadRunState(p.Store, projectID)
	if err != nil {
		return err
	}

	proj.Status = model.ProjectProcessing
	proj.ErrorMessage = ""
	if err := p.Store.SaveProject(proj); err != nil {
		return err
	}

	var subStore *subtitle.Store
	if fromStage <= 3 {
		subStore, err = p.loadSubtitles(projectID)
		if err != nil {
			return p.fail(proj, err)
		}
	}

	runner := stage.NewRunner(p.Clock.Now, p.progressFunc(projectID))

	for i := fromStage - 1; i < len(stageOrder); i++ {
		name := stageOrder[i]

		if ctx.Err() != nil {
			return p.cancelled(proj, ctx.Err())
		}

		def := p.definitionFor(ctx, projectID, name, i, subStore, proj)
		runErr := runner.Run(def, rs.Stages[name])
		if serr := rs.save(p.Store, projectID); serr != nil && runErr == nil {
			runErr = serr
		}
		if runErr != nil {
			if ctx.Err() != nil {
				return p.cancelled(proj, ctx.Err())
			}
			return p.fail(proj, runErr)
		}

		proj.CurrentStep = i + 1
		if err := p.Store.SaveProject(proj); err != nil {
			return err
		}
	}

	proj.Status = model.ProjectCompleted
	proj.CurrentStep = len(stageOrder)
	return p.Store.SaveProject(proj)
}

func (p *Pipeline) fail(proj *model.Project, cause error) error {
	proj.Status = model.ProjectError
	proj.ErrorMessage = cause.Error()
	if err := p.Store.SaveProject(proj); err != nil {
		return err
	}
	return cause
}

func (p *Pipeline) cancelled(proj *model.Project, cause error) error {
	proj.Status = model.ProjectCancelled
	proj.ErrorMessage = ""
	if err := p.Store.SaveProject(proj); err != nil {
		return err
	}
	return cause
}

func (p *Pipeline) progressFunc(projectID string) stage.ProgressFunc {
	return func(name string, pct int, message string) {
		idx := stageIndex(name)
		p.Log.Info("pipeline stage progress", "project_id", projectID, "stage", name, "percent", pct, "message", message)
		if p.OnProgress != nil {
			p.OnProgress(projectID, idx, name, pct, message)
		}
	}
}

func (p *Pipeline) loadSubtitles(projectID string) (*subtitle.Store, error) {
	layout := p.Store.Layout(projectID)
	cues, err := parseSubtitleFile(layout.InputSubtitles())
	if err != nil {
		return nil, apperr.SubtitlesMissing(err, "reading %s", layout.InputSubtitles())
	}
	return subtitle.NewStore(cues), nil
}

func (p *Pipeline) definitionFor(ctx context.Context, projectID, name string, idx int, subStore *subtitle.Store, proj *model.Project) stage.Definition {
	startPct := idx * 100 / len(stageOrder)
	endPct := (idx + 1) * 100 / len(stageOrder)
	category := prompt.Category(proj.Category)
	if category == "" {
		category = prompt.CategoryDefault
	}

	var run func() error
	switch name {
	case StageOutline:
		run = func() error { return p.runOutlineStage(ctx, projectID, category, subStore) }
	case StageTimeline:
		run = func() error { return p.runTimelineStage(ctx, projectID, category, subStore) }
	case StageScoring:
		run = func() error { return p.runScoringStage(ctx, projectID, category, subStore) }
	case StageTitle:
		run = func() error { return p.runTitleStage(ctx, projectID, category) }
	case StageClustering:
		run = func() error { return p.runClusteringStage(ctx, projectID, category) }
	case StageVideo:
		run = func() error { return p.runVideoStage(ctx, projectID) }
	default:
		run = func() error { return fmt.Errorf("pipeline: unknown stage %q", name) }
	}

	return stage.Definition{Name: name, StartPct: startPct, EndPct: endPct, Run: run}
}

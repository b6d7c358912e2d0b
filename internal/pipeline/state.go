package pipeline

import (
	"os"

	"github.com/zsunny6658/clipforge/internal/pipeline/stage"
	"github.com/zsunny6658/clipforge/internal/project"
)

// runState is the persisted record of every stage's execution status for
// one project, letting resume/retry pick up exactly where a prior run left
// off without re-reading stage output files to infer progress.
type runState struct {
	Stages map[string]*stage.State `json:"stages"`
}

func newRunState() *runState {
	rs := &runState{Stages: make(map[string]*stage.State)}
	for _, name := range stageOrder {
		rs.Stages[name] = &stage.State{Name: name}
	}
	return rs
}

func loadRunState(store *project.Store, projectID string) (*runState, error) {
	rs := newRunState()
	err := store.ReadMetadata(projectID, filePipelineState, rs)
	if err != nil {
		if os.IsNotExist(err) {
			return newRunState(), nil
		}
		return nil, err
	}
	for _, name := range stageOrder {
		if rs.Stages[name] == nil {
			rs.Stages[name] = &stage.State{Name: name}
		}
	}
	return rs, nil
}

func (rs *runState) save(store *project.Store, projectID string) error {
	return store.WriteMetadata(projectID, filePipelineState, rs)
}

// lastFailedStage returns the name of the earliest stage, in pipeline order,
// recorded as failed, or "" if none is recorded, used by Retry to resume
// from the right point.
func (rs *runState) lastFailedStage() string {
	for _, name := range stageOrder {
		if rs.Stages[name].Status == stage.StatusFailed {
			return name
		}
	}
	return ""
}

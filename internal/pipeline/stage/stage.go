// Package stage defines the per-stage execution contract shared by every
// step of the six-stage pipeline: a uniform state record (so pipeline.go
// can persist and resume progress at stage granularity) and a Runner that
// executes one stage, translating whatever it returns into the stage_failed
// error kind while preserving the original cause for diagnostics.
//
// This is a deliberately narrower contract than a general job orchestrator:
// a stage either completes or fails outright. Automatic retry of a failed
// stage is not a Runner concern — the LLMGateway already retries transient
// provider errors internally, and a stage that still fails after that
// requires a user-triggered retry/resume, not an in-process polling loop.
package stage

import (
	"time"

	"github.com/zsunny6658/clipforge/internal/apperr"
)

// Status is the lifecycle state of a single stage.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is the durable execution record for one stage, persisted as part
// of the project's pipeline state so a crash or restart can resume exactly
// where it left off.
type State struct {
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Attempts   int        `json:"attempts"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

func (s *State) markStarted(now time.Time) {
	s.Status = StatusRunning
	s.Attempts++
	s.StartedAt = &now
	s.FinishedAt = nil
	s.LastError = ""
}

func (s *State) markSucceeded(now time.Time) {
	s.Status = StatusSucceeded
	s.FinishedAt = &now
	s.LastError = ""
}

func (s *State) markFailed(now time.Time, err error) {
	s.Status = StatusFailed
	s.FinishedAt = &now
	if err != nil {
		s.LastError = err.Error()
	}
}

// Definition is one stage's behavior: an optional idempotence check
// (IsDone) and the work itself (Run). StartPct/EndPct bound the progress
// range reported to the scheduler's status map while this stage executes.
type Definition struct {
	Name     string
	StartPct int
	EndPct   int
	// IsDone reports whether this stage's output already exists on disk
	// (e.g. when resuming), letting the Runner skip re-execution.
	IsDone func() (bool, error)
	Run    func() error
}

// ProgressFunc reports a stage's progress to whatever is tracking it (the
// scheduler's in-memory status map, in practice).
type ProgressFunc func(stageName string, pct int, message string)

// Runner executes Definitions against a State, handling status transitions,
// timestamps, attempt counting, and error classification uniformly so
// individual stage implementations only need to supply Run (and optionally
// IsDone).
type Runner struct {
	Now      func() time.Time
	Progress ProgressFunc
}

func NewRunner(now func() time.Time, progress ProgressFunc) *Runner {
	if now == nil {
		now = time.Now
	}
	if progress == nil {
		progress = func(string, int, string) {}
	}
	return &Runner{Now: now, Progress: progress}
}

// Run executes def once. On success, st transitions to Succeeded. On
// failure, st transitions to Failed and the returned error is wrapped as
// apperr.KindStageFailed (stage name + original cause) unless it already
// carries that kind.
func (r *Runner) Run(def Definition, st *State) error {
	if def.IsDone != nil {
		done, err := def.IsDone()
		if err != nil {
			return r.fail(def, st, err)
		}
		if done {
			st.markSucceeded(r.Now())
			r.Progress(def.Name, def.EndPct, "already complete, skipping")
			return nil
		}
	}

	st.markStarted(r.Now())
	r.Progress(def.Name, def.StartPct, "starting "+def.Name)

	if err := def.Run(); err != nil {
		return r.fail(def, st, err)
	}

	st.markSucceeded(r.Now())
	r.Progress(def.Name, def.EndPct, def.Name+" complete")
	return nil
}

func (r *Runner) fail(def Definition, st *State, err error) error {
	wrapped := err
	if e, ok := apperr.Of(err); !ok || e.Kind != apperr.KindStageFailed {
		wrapped = apperr.StageFailed(def.Name, err)
	}
	st.markFailed(r.Now(), wrapped)
	r.Progress(def.Name, def.StartPct, "failed: "+wrapped.Error())
	return wrapped
}

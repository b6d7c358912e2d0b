// Package scheduler implements TaskScheduler (spec.md §4.8): bounded
// concurrency admission over Pipeline runs, an in-memory progress status
// map polled by the API, and cooperative per-project cancellation.
//
// Grounded on the teacher's job worker (internal/jobs/worker): a fixed-size
// pool of execution slots, one goroutine per admitted job, panic recovery
// so one bad run never takes the process down, and heartbeat-free status
// reporting (there's no DB heartbeat here — the Pipeline's own OnProgress
// callback is the only liveness signal a caller needs). Unlike the
// teacher's SQL-backed claim queue, admission here is in-process: a
// buffered channel sized to max_concurrent_processing stands in for the
// DB lease, and the queue is disabled by default (§4.8) — a submission
// that finds the channel full is rejected with SystemBusy rather than
// enqueued.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/pipeline"
)

const projectLogFile = "pipeline.log"

// RunState is a project's terminal or in-flight scheduling state, distinct
// from model.ProjectStatus in that it also covers "queued"-adjacent
// rejection, which never becomes a persisted Project state.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Status is one project's latest scheduling snapshot, polled by the API.
type Status struct {
	ProjectID  string   `json:"project_id"`
	State      RunState `json:"state"`
	StageIndex int      `json:"stage_index"`
	StageName  string   `json:"stage_name"`
	Percent    int      `json:"progress_percent"`
	Message    string   `json:"message"`
	Error      string   `json:"error,omitempty"`
}

// Scheduler admits Pipeline runs up to a fixed concurrency cap and tracks
// their progress in memory.
type Scheduler struct {
	pipeline *pipeline.Pipeline
	log      *logger.Logger

	slots chan struct{}

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	statuses map[string]Status
}

// New builds a Scheduler bounded to maxConcurrent simultaneous pipeline
// runs, and wires itself as the Pipeline's single OnProgress sink.
func New(p *pipeline.Pipeline, maxConcurrent int, log *logger.Logger) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Scheduler{
		pipeline: p,
		log:      log,
		slots:    make(chan struct{}, maxConcurrent),
		cancels:  make(map[string]context.CancelFunc),
		statuses: make(map[string]Status),
	}
	p.OnProgress = s.onProgress
	return s
}

// Start admits a fresh pipeline run for projectID, or returns SystemBusy
// if the concurrency cap is already saturated.
func (s *Scheduler) Start(projectID string) error {
	return s.admit(projectID, func(ctx context.Context) error {
		return s.pipeline.Start(ctx, projectID)
	})
}

// Resume admits a resumed run starting at fromStage.
func (s *Scheduler) Resume(projectID string, fromStage int) error {
	return s.admit(projectID, func(ctx context.Context) error {
		return s.pipeline.Resume(ctx, projectID, fromStage)
	})
}

// Retry admits a retry run from the last failed stage.
func (s *Scheduler) Retry(projectID string) error {
	return s.admit(projectID, func(ctx context.Context) error {
		return s.pipeline.Retry(ctx, projectID)
	})
}

// admit reserves a concurrency slot (rejecting immediately with SystemBusy
// if none is free, since the default queue is disabled) and runs work in
// a new goroutine under a cancellable context registered for projectID.
func (s *Scheduler) admit(projectID string, work func(ctx context.Context) error) error {
	select {
	case s.slots <- struct{}{}:
	default:
		return apperr.SystemBusy("scheduler: at capacity, rejecting project %s", projectID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[projectID] = cancel
	s.statuses[projectID] = Status{ProjectID: projectID, State: RunRunning}
	s.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("scheduler: pipeline run panicked", "project_id", projectID, "panic", r)
				s.finish(projectID, RunFailed, "internal error")
			}
			<-s.slots
			cancel()
			s.mu.Lock()
			delete(s.cancels, projectID)
			s.mu.Unlock()
		}()

		err := work(ctx)
		switch {
		case err == nil:
			s.finish(projectID, RunCompleted, "")
		case ctx.Err() != nil:
			s.finish(projectID, RunCancelled, "")
		default:
			s.finish(projectID, RunFailed, err.Error())
		}
	}()

	return nil
}

// Cancel requests cooperative cancellation of projectID's in-flight run,
// if any. It is a no-op if the project isn't currently running.
func (s *Scheduler) Cancel(projectID string) {
	s.mu.Lock()
	cancel, ok := s.cancels[projectID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// Status returns the last known scheduling snapshot for projectID.
func (s *Scheduler) Status(projectID string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[projectID]
	return st, ok
}

// LogPath returns the path of projectID's tailable pipeline log file.
func (s *Scheduler) LogPath(projectID string) string {
	return filepath.Join(s.pipeline.Store.Layout(projectID).LogsDir(), projectLogFile)
}

func (s *Scheduler) finish(projectID string, state RunState, errMsg string) {
	s.mu.Lock()
	st := s.statuses[projectID]
	st.ProjectID = projectID
	st.State = state
	st.Error = errMsg
	s.statuses[projectID] = st
	s.mu.Unlock()

	line := string(state)
	if errMsg != "" {
		line = fmt.Sprintf("%s: %s", state, errMsg)
	}
	s.appendLog(projectID, line)
}

func (s *Scheduler) onProgress(projectID string, stageIndex int, stageName string, percent int, message string) {
	s.mu.Lock()
	st := s.statuses[projectID]
	st.ProjectID = projectID
	st.State = RunRunning
	st.StageIndex = stageIndex
	st.StageName = stageName
	st.Percent = percent
	st.Message = message
	s.statuses[projectID] = st
	s.mu.Unlock()

	s.appendLog(projectID, fmt.Sprintf("[%s] %s", stageName, message))
}

// appendLog appends a timestamped line to the project's pipeline.log, the
// file the API facade's logs endpoint tails. Best-effort: a logging failure
// never surfaces to the caller driving the actual pipeline run.
func (s *Scheduler) appendLog(projectID, line string) {
	layout := s.pipeline.Store.Layout(projectID)
	if err := os.MkdirAll(layout.LogsDir(), 0o755); err != nil {
		s.log.Warn("scheduler: creating logs dir failed", "project_id", projectID, "error", err)
		return
	}
	f, err := os.OpenFile(filepath.Join(layout.LogsDir(), projectLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.log.Warn("scheduler: opening project log failed", "project_id", projectID, "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s\n", time.Now().UTC().Format(time.RFC3339), line)
}

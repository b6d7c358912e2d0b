package scheduler

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/llm"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/pipeline"
	"github.com/zsunny6658/clipforge/internal/project"
	"github.com/zsunny6658/clipforge/internal/prompt"
	"github.com/zsunny6658/clipforge/internal/transcode"
)

const threeCueSRT = `1
00:00:00,000 --> 00:00:05,000
A

2
00:00:05,000 --> 00:00:10,000
B
`

func newTestScheduler(t *testing.T, maxConcurrent int) (*Scheduler, *project.Store) {
	t.Helper()
	store, err := project.NewStore(t.TempDir(), clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	prompts, err := prompt.Load("")
	require.NoError(t, err)

	fp := llm.NewFakeProvider("fake")
	gateway := llm.NewGateway(fp, logger.NewNop(), 0, 5*time.Second)
	ft := transcode.NewFakeTranscoder()

	p := pipeline.New(store, prompts, gateway, ft, logger.NewNop())
	p.MaxInFlightLLM = 1
	p.MaxInFlightTranscode = 1

	return New(p, maxConcurrent, logger.NewNop()), store
}

func mkProject(t *testing.T, store *project.Store, id string) {
	t.Helper()
	_, err := store.CreateProject(id, "video", "")
	require.NoError(t, err)
	layout := store.Layout(id)
	require.NoError(t, os.WriteFile(layout.InputSubtitles(), []byte(threeCueSRT), 0o644))
	require.NoError(t, os.WriteFile(layout.InputVideo(), []byte("bytes"), 0o644))
}

// TestAdmission_RejectsWhenAtCapacity is the literal scenario from spec.md
// §8: with max_concurrent_processing=1, a second submission while the
// first occupies the only slot is rejected with SystemBusy, and no new
// project state is created as a side effect of the rejection itself.
func TestAdmission_RejectsWhenAtCapacity(t *testing.T) {
	s, store := newTestScheduler(t, 1)
	mkProject(t, store, "proj-a")
	mkProject(t, store, "proj-b")

	// Occupy the only slot directly, standing in for a still-running first
	// submission, so the rejection assertion below is deterministic rather
	// than racing a real pipeline run to completion.
	s.slots <- struct{}{}

	err := s.Start("proj-b")
	require.Error(t, err)
	require.Equal(t, apperr.KindSystemBusy, apperr.KindOf(err))
	_, ok := s.Status("proj-b")
	require.False(t, ok)

	<-s.slots // release, as if the first run finished

	err = s.Start("proj-a")
	require.NoError(t, err)
}

func TestCancel_UnknownProjectIsNoOp(t *testing.T) {
	s, store := newTestScheduler(t, 2)
	mkProject(t, store, "proj-c")

	// Cancel on a project with no in-flight run must be a no-op, not a
	// panic. No fake LLM responses are queued, so the fake provider answers
	// "{}", stage 1 finds no outline items, and proj-c's run ends quickly.
	s.Cancel("does-not-exist")

	err := s.Start("proj-c")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, ok := s.Status("proj-c")
		return ok && st.State != RunRunning
	}, time.Second, 10*time.Millisecond)
}

func TestStatus_ReflectsPipelineProgress(t *testing.T) {
	s, store := newTestScheduler(t, 1)
	mkProject(t, store, "proj-d")

	_, err := s.pipeline.Store.GetProject("proj-d")
	require.NoError(t, err)

	_ = s.Start("proj-d")

	require.Eventually(t, func() bool {
		_, ok := s.Status("proj-d")
		return ok
	}, time.Second, 10*time.Millisecond)
}

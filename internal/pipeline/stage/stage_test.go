package stage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
)

func fixedNow() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) }

func TestRunner_Run_Succeeds(t *testing.T) {
	var progressed []int
	r := NewRunner(fixedNow, func(name string, pct int, msg string) { progressed = append(progressed, pct) })

	def := Definition{Name: "outline", StartPct: 0, EndPct: 20, Run: func() error { return nil }}

	err := r.Run(def, &State{Name: "outline"})
	require.NoError(t, err)
	require.Equal(t, []int{0, 20}, progressed)
}

func TestRunner_Run_SkipsWhenIsDone(t *testing.T) {
	r := NewRunner(fixedNow, nil)
	ranRun := false
	def := Definition{
		Name:     "outline",
		EndPct:   20,
		IsDone:   func() (bool, error) { return true, nil },
		Run:      func() error { ranRun = true; return nil },
	}
	st := &State{}
	err := r.Run(def, st)
	require.NoError(t, err)
	require.False(t, ranRun)
	require.Equal(t, StatusSucceeded, st.Status)
}

func TestRunner_Run_FailureWrapsAsStageFailed(t *testing.T) {
	r := NewRunner(fixedNow, nil)
	cause := apperr.LLMUnavailable(errors.New("boom"), "provider down")
	def := Definition{Name: "scoring", Run: func() error { return cause }}

	st := &State{}
	err := r.Run(def, st)
	require.Error(t, err)
	require.Equal(t, apperr.KindStageFailed, apperr.KindOf(err))

	wrapped, ok := apperr.Of(err)
	require.True(t, ok)
	require.Equal(t, "scoring", wrapped.Stage)
	require.Equal(t, cause, wrapped.Cause)
	require.Equal(t, StatusFailed, st.Status)
	require.Equal(t, 1, st.Attempts)
}

func TestRunner_Run_RecordsAttemptsAcrossRetries(t *testing.T) {
	r := NewRunner(fixedNow, nil)
	calls := 0
	def := Definition{Name: "timeline", Run: func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}}

	st := &State{}
	err := r.Run(def, st)
	require.Error(t, err)
	require.Equal(t, 1, st.Attempts)

	// Simulates a user-triggered retry: Run is called again on the same State.
	err = r.Run(def, st)
	require.NoError(t, err)
	require.Equal(t, 2, st.Attempts)
	require.Equal(t, StatusSucceeded, st.Status)
}

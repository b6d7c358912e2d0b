package project

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	ck := clock.NewFixed(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	s, err := NewStore(root, ck)
	require.NoError(t, err)
	return s
}

func TestCreateProject_BuildsDirectoryTreeAndIndexEntry(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject("proj-1", "My Video", "knowledge")
	require.NoError(t, err)
	require.Equal(t, model.ProjectUploading, p.Status)
	require.Equal(t, 6, p.TotalSteps)

	for _, sub := range []string{dirInput, dirOutputClips, dirOutputColls, dirOutputMeta, dirLogs, dirTemp} {
		info, err := os.Stat(filepath.Join(s.Layout("proj-1").WorkDir(), sub))
		require.NoError(t, err, "expected %s to exist", sub)
		require.True(t, info.IsDir())
	}

	got, err := s.GetProject("proj-1")
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, "My Video", got.Name)
}

func TestCreateProject_DuplicateIDIsConflict(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProject("proj-1", "A", "default")
	require.NoError(t, err)

	_, err = s.CreateProject("proj-1", "B", "default")
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGetProject_UnknownIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProject("nope")
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSaveProject_PersistsAcrossStoreInstances(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreateProject("proj-1", "A", "default")
	require.NoError(t, err)

	p.Status = model.ProjectProcessing
	p.CurrentStep = 3
	require.NoError(t, s.SaveProject(p))

	reloaded, err := NewStore(s.root, s.clock)
	require.NoError(t, err)
	got, err := reloaded.GetProject("proj-1")
	require.NoError(t, err)
	require.Equal(t, model.ProjectProcessing, got.Status)
	require.Equal(t, 3, got.CurrentStep)
}

func TestListProjects_SortedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	fixed := s.clock.(*clock.Fixed)

	_, err := s.CreateProject("older", "Older", "default")
	require.NoError(t, err)
	fixed.Advance(time.Hour)
	_, err = s.CreateProject("newer", "Newer", "default")
	require.NoError(t, err)

	list, err := s.ListProjects()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "newer", list[0].ID)
	require.Equal(t, "older", list[1].ID)
}

func TestDeleteProject_RemovesTreeThumbnailAndIndexEntry(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProject("proj-1", "A", "default")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.ThumbnailCachePath("proj-1"), []byte("jpeg bytes"), 0o644))

	schedulerEvicted := false
	require.NoError(t, s.DeleteProject("proj-1", func() { schedulerEvicted = true }))

	_, err = os.Stat(s.Layout("proj-1").WorkDir())
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(s.ThumbnailCachePath("proj-1"))
	require.True(t, os.IsNotExist(err))

	require.True(t, schedulerEvicted)

	_, err = s.GetProject("proj-1")
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteProject_UnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DeleteProject("never-existed", nil))
}

func TestWriteReadMetadata_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProject("proj-1", "A", "default")
	require.NoError(t, err)

	type outlineItem struct {
		Topic string `json:"topic"`
	}
	in := []outlineItem{{Topic: "intro"}, {Topic: "conclusion"}}
	require.NoError(t, s.WriteMetadata("proj-1", "outline.json", in))

	require.True(t, s.HasMetadata("proj-1", "outline.json"))
	require.False(t, s.HasMetadata("proj-1", "timeline.json"))

	var out []outlineItem
	require.NoError(t, s.ReadMetadata("proj-1", "outline.json", &out))
	require.Equal(t, in, out)
}

func TestLock_SerializesConcurrentMutationsOnSameProject(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProject("proj-1", "A", "default")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock := s.Lock("proj-1")
			defer unlock()

			p, err := s.GetProject("proj-1")
			require.NoError(t, err)
			p.CurrentStep++
			require.NoError(t, s.SaveProject(p))
		}()
	}
	wg.Wait()

	got, err := s.GetProject("proj-1")
	require.NoError(t, err)
	require.Equal(t, n, got.CurrentStep)
}

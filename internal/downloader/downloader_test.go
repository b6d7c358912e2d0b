package downloader

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/project"
)

func newTestLayout(t *testing.T) (project.Layout, *project.Store) {
	t.Helper()
	store, err := project.NewStore(t.TempDir(), clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = store.CreateProject("proj-1", "video", "")
	require.NoError(t, err)
	return store.Layout("proj-1"), store
}

func TestFakeDownloader_PopulatesInputFiles(t *testing.T) {
	layout, _ := newTestLayout(t)
	d := NewFakeDownloader()

	err := d.Download(context.Background(), "https://example.com/video", layout)
	require.NoError(t, err)

	require.FileExists(t, layout.InputVideo())
	require.FileExists(t, layout.InputSubtitles())
	require.Equal(t, []string{"https://example.com/video"}, d.Calls())
}

func TestFakeDownloader_NoSubtitleTrackFailsEarly(t *testing.T) {
	layout, _ := newTestLayout(t)
	d := NewFakeDownloader().WithNoSubtitles()

	err := d.Download(context.Background(), "https://example.com/video", layout)
	require.Error(t, err)
	require.Equal(t, apperr.KindSubtitlesUnavailable, apperr.KindOf(err))

	_, statErr := os.Stat(layout.InputVideo())
	require.True(t, os.IsNotExist(statErr), "no partial video should be left behind on failure")
}

func TestFakeDownloader_PropagatesProviderError(t *testing.T) {
	layout, _ := newTestLayout(t)
	d := NewFakeDownloader().FailWith(errors.New("network unreachable"))

	err := d.Download(context.Background(), "https://example.com/video", layout)
	require.Error(t, err)
	require.Contains(t, err.Error(), "network unreachable")
}

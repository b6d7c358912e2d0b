package transcode

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
)

func TestCutArgs_StreamCopyUsesCopyCodec(t *testing.T) {
	args := cutArgs("in.mp4", "out.mp4", 2*time.Second, 5*time.Second, true)
	require.Contains(t, args, "copy")
	require.Contains(t, args, "2.000")
	require.Contains(t, args, "3.000")
}

func TestCutArgs_ReencodeUsesLibx264(t *testing.T) {
	args := cutArgs("in.mp4", "out.mp4", 0, time.Second, false)
	require.Contains(t, args, "libx264")
	require.Contains(t, args, "aac")
}

func TestCodecProfile_CompatibleWith(t *testing.T) {
	a := codecProfile{videoCodec: "h264", audioCodec: "aac", width: 1280, height: 720, pixelFormat: "yuv420p"}
	b := a
	require.True(t, a.compatibleWith(b))
	b.width = 1920
	require.False(t, a.compatibleWith(b))
}

func TestWriteConcatList_ProducesOneFileLinePerClip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "collection.mp4")
	clips := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")}

	listPath, cleanup, err := writeConcatList(out, clips)
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "a.mp4")
	require.Contains(t, string(data), "b.mp4")
}

// fakeRun simulates an ffmpeg invocation without running a real binary:
// it records every call and writes a dummy output file (so Stat succeeds)
// unless configured to fail.
func fakeRun(t *testing.T, fail bool) (commandRunner, *[]string) {
	t.Helper()
	var seen []string
	run := func(ctx context.Context, bin string, args ...string) (string, error) {
		seen = append(seen, bin)
		if fail {
			return "error: codec not supported\nmore context\nlast line", context.DeadlineExceeded
		}
		// last arg is always the output path for both cut and concat builders.
		out := args[len(args)-1]
		require.NoError(t, os.WriteFile(out, []byte("fake-media"), 0o644))
		return "", nil
	}
	return run, &seen
}

func TestCut_WritesArtifactOnSuccess(t *testing.T) {
	dir := t.TempDir()
	run, _ := fakeRun(t, false)
	tr := NewFFmpegTranscoder(time.Second, logger.NewNop())
	tr.run = run

	out := filepath.Join(dir, "clip-1.mp4")
	artifact, err := tr.Cut(context.Background(), filepath.Join(dir, "source.mp4"), 0, 5*time.Second, "clip-1", out)
	require.NoError(t, err)
	require.Equal(t, "clip-1", artifact.ClipID)
	require.Equal(t, 5.0, artifact.DurationSeconds)
	require.FileExists(t, out)
}

func TestCut_FfmpegFailureIsTranscodeFailedAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	run, _ := fakeRun(t, true)
	tr := NewFFmpegTranscoder(time.Second, logger.NewNop())
	tr.run = run

	out := filepath.Join(dir, "clip-1.mp4")
	_, err := tr.Cut(context.Background(), filepath.Join(dir, "source.mp4"), 0, 5*time.Second, "clip-1", out)
	require.Error(t, err)
	require.Equal(t, apperr.KindTranscodeFailed, apperr.KindOf(err))
	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))
}

func TestCut_EndBeforeStartIsTranscodeFailed(t *testing.T) {
	tr := NewFFmpegTranscoder(time.Second, logger.NewNop())
	_, err := tr.Cut(context.Background(), "source.mp4", 5*time.Second, time.Second, "clip-1", "out.mp4")
	require.Error(t, err)
	require.Equal(t, apperr.KindTranscodeFailed, apperr.KindOf(err))
}

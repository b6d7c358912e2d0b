// Package downloader implements Downloader (spec.md §4.10): fetching a
// remote video plus its subtitles via an external tool and producing the
// two input files a fresh project's Pipeline run requires.
//
// Grounded on ThirdCoastInteractive-Rewind's pkg/ytdlp: an external-binary
// wrapper around yt-dlp, run via exec.CommandContext with buffered
// stdout/stderr, a stable output template so the produced files can be
// found afterward, and an ExecError that preserves exit code and captured
// output for diagnostics. Unlike the teacher's client (which keeps the
// downloaded media, thumbnails, and info.json for its own ingest
// pipeline), this package only needs the muxed video and an SRT subtitle
// track, so unrelated yt-dlp sidecar outputs are discarded after the move.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/project"
)

// Downloader fetches source material for a project.
type Downloader interface {
	// Download populates layout's input directory with input.mp4 and
	// input.srt, or fails with SubtitlesUnavailable if the source has no
	// subtitle track — the pipeline requires subtitles and never
	// transcribes audio itself.
	Download(ctx context.Context, url string, layout project.Layout) error
}

// YtDlpDownloader shells out to yt-dlp.
type YtDlpDownloader struct {
	Bin     string
	Timeout time.Duration
	log     *logger.Logger
}

func NewYtDlpDownloader(timeout time.Duration, log *logger.Logger) *YtDlpDownloader {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &YtDlpDownloader{Bin: "yt-dlp", Timeout: timeout, log: log}
}

func (d *YtDlpDownloader) bin() string {
	if d.Bin == "" {
		return "yt-dlp"
	}
	return d.Bin
}

func (d *YtDlpDownloader) Download(ctx context.Context, url string, layout project.Layout) error {
	if strings.TrimSpace(url) == "" {
		return apperr.InvalidArgument("downloader: url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	tempDir := layout.TempDir()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("downloader: creating temp dir: %w", err)
	}

	tmpl := filepath.Join(tempDir, "source.%(ext)s")
	args := []string{
		"-o", tmpl,
		"--remux-video", "mp4",
		"--fixup", "force",
		"--write-subs",
		"--write-auto-subs",
		"--sub-lang", "en",
		"--sub-format", "srt",
		"--convert-subs", "srt",
		"--no-colors",
		"--newline",
		"--format", "bestvideo+bestaudio/best",
		url,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.bin(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return wrapExecError(d.bin(), args, stderr.String(), err)
	}

	videoPath, err := findByExt(tempDir, ".mp4")
	if err != nil {
		return fmt.Errorf("downloader: locating downloaded video: %w", err)
	}
	if videoPath == "" {
		return fmt.Errorf("downloader: yt-dlp reported success but no .mp4 was produced")
	}

	subsPath, err := findByExt(tempDir, ".srt")
	if err != nil {
		return fmt.Errorf("downloader: locating downloaded subtitles: %w", err)
	}
	if subsPath == "" {
		return apperr.SubtitlesUnavailable(nil, "downloader: source has no subtitle track")
	}

	if err := os.MkdirAll(layout.InputDir(), 0o755); err != nil {
		return fmt.Errorf("downloader: creating input dir: %w", err)
	}
	if err := moveFile(videoPath, layout.InputVideo()); err != nil {
		return fmt.Errorf("downloader: moving video into place: %w", err)
	}
	if err := moveFile(subsPath, layout.InputSubtitles()); err != nil {
		return fmt.Errorf("downloader: moving subtitles into place: %w", err)
	}

	d.log.Info("download complete", "video", layout.InputVideo(), "subtitles", layout.InputSubtitles())
	return os.RemoveAll(tempDir)
}

// findByExt returns the first file in dir with the given extension, or ""
// if none exists.
func findByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", nil
}

// moveFile renames src to dst, falling back to copy-then-remove when the
// rename fails across filesystem boundaries (e.g. temp dir on a different
// mount than the project store's root).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// ExecError preserves exit code and captured stderr for diagnostics.
type ExecError struct {
	Cmd    string
	Args   []string
	Stderr string
	Cause  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("downloader: %s failed: %s: %s", e.Cmd, e.Cause, lastLines(e.Stderr))
}

func (e *ExecError) Unwrap() error { return e.Cause }

func wrapExecError(cmd string, args []string, stderr string, cause error) error {
	return &ExecError{Cmd: cmd, Args: args, Stderr: stderr, Cause: cause}
}

func lastLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}

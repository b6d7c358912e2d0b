package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/logger"
	"github.com/zsunny6658/clipforge/internal/model"
)

// FFmpegTranscoder is the production Transcoder, wrapping the ffmpeg/ffprobe
// binaries on PATH. Timeout bounds a single cut or concat invocation
// (spec default 2h for collections).
type FFmpegTranscoder struct {
	Bin     string
	Timeout time.Duration
	log     *logger.Logger
	run     commandRunner
}

func NewFFmpegTranscoder(timeout time.Duration, log *logger.Logger) *FFmpegTranscoder {
	if log == nil {
		log = logger.NewNop()
	}
	return &FFmpegTranscoder{Bin: "ffmpeg", Timeout: timeout, log: log, run: execRunner}
}

// Cut extracts [start,end) from sourcePath into outPath, stream-copying
// when the source's codecs allow a seekable copy and re-encoding otherwise.
func (t *FFmpegTranscoder) Cut(ctx context.Context, sourcePath string, start, end time.Duration, clipID, outPath string) (model.ClipArtifact, error) {
	if end <= start {
		return model.ClipArtifact{}, apperr.TranscodeFailed(nil, "cut %s: end %s <= start %s", clipID, end, start)
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return model.ClipArtifact{}, apperr.TranscodeFailed(err, "cut %s: preparing output dir", clipID)
	}

	canCopy := t.canStreamCopy(ctx, sourcePath, outPath)
	args := cutArgs(sourcePath, outPath, start, end, canCopy)

	if stderr, err := t.run(ctx, t.Bin, args...); err != nil {
		os.Remove(outPath)
		return model.ClipArtifact{}, apperr.TranscodeFailed(err, "cut %s: ffmpeg failed: %s", clipID, lastLines(stderr))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return model.ClipArtifact{}, apperr.TranscodeFailed(err, "cut %s: output missing after ffmpeg exit", clipID)
	}

	return model.ClipArtifact{
		ClipID:          clipID,
		Path:            outPath,
		DurationSeconds: (end - start).Seconds(),
		SizeBytes:       info.Size(),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// canStreamCopy reports whether sourcePath's codecs are directly compatible
// with outPath's container, avoiding a probe failure from ever blocking the
// cut — on any probe error it conservatively falls back to re-encoding.
func (t *FFmpegTranscoder) canStreamCopy(ctx context.Context, sourcePath, outPath string) bool {
	prof, err := probe(ctx, sourcePath)
	if err != nil {
		t.log.Warn("transcode: probe failed, re-encoding", "source", sourcePath, "error", err.Error())
		return false
	}
	ext := strings.ToLower(filepath.Ext(outPath))
	if ext != ".mp4" && ext != ".mov" && ext != ".m4v" {
		return false
	}
	return (prof.videoCodec == "h264" || prof.videoCodec == "hevc") &&
		(prof.audioCodec == "aac" || prof.audioCodec == "")
}

func cutArgs(source, out string, start, end time.Duration, canCopy bool) []string {
	args := []string{
		"-hide_banner", "-y",
		"-ss", formatSeconds(start),
		"-i", source,
		"-t", formatSeconds(end - start),
	}
	if canCopy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-c:a", "aac")
	}
	args = append(args, "-movflags", "+faststart", out)
	return args
}

// Concat joins orderedClipPaths, in order, into outPath. It uses ffmpeg's
// concat demuxer with stream copy when every clip shares the same codec
// profile, and a filter_complex re-encode concat otherwise.
func (t *FFmpegTranscoder) Concat(ctx context.Context, orderedClipPaths []string, collectionID, outPath string) (model.CollectionArtifact, error) {
	if len(orderedClipPaths) == 0 {
		return model.CollectionArtifact{}, apperr.TranscodeFailed(nil, "concat %s: no clips", collectionID)
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return model.CollectionArtifact{}, apperr.TranscodeFailed(err, "concat %s: preparing output dir", collectionID)
	}

	uniform, err := t.allSameProfile(ctx, orderedClipPaths)
	if err != nil {
		t.log.Warn("transcode: concat probe failed, re-encoding", "collection", collectionID, "error", err.Error())
		uniform = false
	}

	var args []string
	var cleanup func()
	if uniform {
		listPath, rmList, lerr := writeConcatList(outPath, orderedClipPaths)
		if lerr != nil {
			return model.CollectionArtifact{}, apperr.TranscodeFailed(lerr, "concat %s: writing concat list", collectionID)
		}
		cleanup = rmList
		args = []string{"-hide_banner", "-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outPath}
	} else {
		args = reencodeConcatArgs(orderedClipPaths, outPath)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if stderr, err := t.run(ctx, t.Bin, args...); err != nil {
		os.Remove(outPath)
		return model.CollectionArtifact{}, apperr.TranscodeFailed(err, "concat %s: ffmpeg failed: %s", collectionID, lastLines(stderr))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return model.CollectionArtifact{}, apperr.TranscodeFailed(err, "concat %s: output missing after ffmpeg exit", collectionID)
	}
	dur, err := probeDuration(ctx, outPath)
	if err != nil {
		t.log.Warn("transcode: duration probe failed", "collection", collectionID, "error", err.Error())
	}

	return model.CollectionArtifact{
		CollectionID:    collectionID,
		Path:            outPath,
		DurationSeconds: dur,
		SizeBytes:       info.Size(),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Thumbnail grabs a single frame at atSecond and writes it to outPath as a
// jpeg, grounded on the pack's yt-dlp/local-media thumbnail extraction
// pattern (seek then take one frame).
func (t *FFmpegTranscoder) Thumbnail(ctx context.Context, sourcePath string, atSecond float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return apperr.TranscodeFailed(err, "thumbnail %s: preparing output dir", outPath)
	}

	args := []string{
		"-hide_banner", "-y",
		"-ss", formatSeconds(time.Duration(atSecond * float64(time.Second))),
		"-i", sourcePath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	}
	if stderr, err := t.run(ctx, t.Bin, args...); err != nil {
		os.Remove(outPath)
		return apperr.TranscodeFailed(err, "thumbnail %s: ffmpeg failed: %s", outPath, lastLines(stderr))
	}
	if _, err := os.Stat(outPath); err != nil {
		return apperr.TranscodeFailed(err, "thumbnail %s: output missing after ffmpeg exit", outPath)
	}
	return nil
}

func (t *FFmpegTranscoder) allSameProfile(ctx context.Context, paths []string) (bool, error) {
	first, err := probe(ctx, paths[0])
	if err != nil {
		return false, err
	}
	for _, p := range paths[1:] {
		prof, err := probe(ctx, p)
		if err != nil {
			return false, err
		}
		if !first.compatibleWith(prof) {
			return false, nil
		}
	}
	return true, nil
}

func writeConcatList(outPath string, paths []string) (listPath string, cleanup func(), err error) {
	listPath = filepath.Join(filepath.Dir(outPath), fmt.Sprintf(".concat-%d.txt", time.Now().UnixNano()))
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", "'\\''"))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return "", nil, err
	}
	return listPath, func() { os.Remove(listPath) }, nil
}

func reencodeConcatArgs(paths []string, outPath string) []string {
	args := []string{"-hide_banner", "-y"}
	for _, p := range paths {
		args = append(args, "-i", p)
	}
	var filterParts []string
	for i := range paths {
		filterParts = append(filterParts, fmt.Sprintf("[%d:v:0][%d:a:0]", i, i))
	}
	filter := strings.Join(filterParts, "") + fmt.Sprintf("concat=n=%d:v=1:a=1[outv][outa]", len(paths))
	args = append(args,
		"-filter_complex", filter,
		"-map", "[outv]", "-map", "[outa]",
		"-c:v", "libx264", "-preset", "veryfast", "-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	return args
}

func lastLines(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}

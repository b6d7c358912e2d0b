package transcode

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"time"
)

// commandRunner executes a command and returns its captured stderr output
// (for diagnostics) and any error. Swappable in tests so ffmpeg_test.go
// never shells out to a real ffmpeg binary.
type commandRunner func(ctx context.Context, bin string, args ...string) (stderr string, err error)

func execRunner(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

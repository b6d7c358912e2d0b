package downloader

import (
	"context"
	"os"
	"sync"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/project"
)

func errSubtitlesUnavailable() error {
	return apperr.SubtitlesUnavailable(nil, "downloader: source has no subtitle track")
}

// FakeDownloader is a deterministic Downloader test double: it never shells
// out, recording every call and writing the queued video/subtitle content
// (or failing with a queued error) directly into the layout's input dir.
type FakeDownloader struct {
	mu    sync.Mutex
	calls []string

	video   []byte
	subs    []byte
	fakeErr error
}

func NewFakeDownloader() *FakeDownloader {
	return &FakeDownloader{video: []byte("fake video"), subs: []byte("1\n00:00:00,000 --> 00:00:05,000\nhello\n")}
}

// WithNoSubtitles configures the fake to simulate a source with no
// subtitle track, the SubtitlesUnavailable path.
func (f *FakeDownloader) WithNoSubtitles() *FakeDownloader {
	f.subs = nil
	return f
}

func (f *FakeDownloader) FailWith(err error) *FakeDownloader {
	f.fakeErr = err
	return f
}

func (f *FakeDownloader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeDownloader) Download(_ context.Context, url string, layout project.Layout) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.fakeErr != nil {
		return f.fakeErr
	}
	if len(f.subs) == 0 {
		return errSubtitlesUnavailable()
	}
	if err := os.MkdirAll(layout.InputDir(), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(layout.InputVideo(), f.video, 0o644); err != nil {
		return err
	}
	return os.WriteFile(layout.InputSubtitles(), f.subs, 0o644)
}

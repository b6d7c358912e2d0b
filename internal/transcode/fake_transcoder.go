package transcode

import (
	"context"
	"sync"
	"time"

	"github.com/zsunny6658/clipforge/internal/model"
)

// FakeTranscoder is a deterministic Transcoder test double: it never shells
// out, recording every Cut/Concat/Thumbnail call and returning a
// synthesized artifact, or the error configured for that operation.
type FakeTranscoder struct {
	mu          sync.Mutex
	cuts        []CutCall
	concats     []ConcatCall
	thumbnails  []ThumbnailCall
	cutErr      error
	concatErr   error
	thumbnailErr error
}

type CutCall struct {
	SourcePath       string
	Start, End       time.Duration
	ClipID, OutPath  string
}

type ConcatCall struct {
	OrderedClipPaths []string
	CollectionID     string
	OutPath          string
}

type ThumbnailCall struct {
	SourcePath string
	AtSecond   float64
	OutPath    string
}

func NewFakeTranscoder() *FakeTranscoder { return &FakeTranscoder{} }

func (f *FakeTranscoder) FailCutsWith(err error)       { f.cutErr = err }
func (f *FakeTranscoder) FailConcatsWith(err error)    { f.concatErr = err }
func (f *FakeTranscoder) FailThumbnailsWith(err error) { f.thumbnailErr = err }

func (f *FakeTranscoder) Cuts() []CutCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CutCall(nil), f.cuts...)
}

func (f *FakeTranscoder) Concats() []ConcatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ConcatCall(nil), f.concats...)
}

func (f *FakeTranscoder) Thumbnails() []ThumbnailCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ThumbnailCall(nil), f.thumbnails...)
}

func (f *FakeTranscoder) Cut(_ context.Context, sourcePath string, start, end time.Duration, clipID, outPath string) (model.ClipArtifact, error) {
	f.mu.Lock()
	f.cuts = append(f.cuts, CutCall{sourcePath, start, end, clipID, outPath})
	f.mu.Unlock()
	if f.cutErr != nil {
		return model.ClipArtifact{}, f.cutErr
	}
	return model.ClipArtifact{
		ClipID:          clipID,
		Path:            outPath,
		DurationSeconds: (end - start).Seconds(),
		SizeBytes:       1024,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (f *FakeTranscoder) Concat(_ context.Context, orderedClipPaths []string, collectionID, outPath string) (model.CollectionArtifact, error) {
	f.mu.Lock()
	f.concats = append(f.concats, ConcatCall{append([]string(nil), orderedClipPaths...), collectionID, outPath})
	f.mu.Unlock()
	if f.concatErr != nil {
		return model.CollectionArtifact{}, f.concatErr
	}
	return model.CollectionArtifact{
		CollectionID:    collectionID,
		Path:            outPath,
		DurationSeconds: float64(len(orderedClipPaths)) * 5,
		SizeBytes:       2048,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (f *FakeTranscoder) Thumbnail(_ context.Context, sourcePath string, atSecond float64, outPath string) error {
	f.mu.Lock()
	f.thumbnails = append(f.thumbnails, ThumbnailCall{sourcePath, atSecond, outPath})
	f.mu.Unlock()
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return nil
}

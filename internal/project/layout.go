// Package project implements ProjectStore (spec.md §4.7): the filesystem
// layout each project lives under, a JSON index of all known projects, and
// atomic read/write primitives every pipeline stage uses to persist its
// output. There is no database here — every durable fact is a file under
// the project's own directory tree, written atomically so a crash mid-write
// never leaves a stage's output half-written.
package project

import "path/filepath"

// Standard sub-directories created under a project's work directory.
const (
	dirInput       = "input"
	dirOutputClips = "output/clips"
	dirOutputColls = "output/collections"
	dirOutputMeta  = "output/metadata"
	dirLogs        = "logs"
	dirTemp        = "temp"
)

var projectSubdirs = []string{dirInput, dirOutputClips, dirOutputColls, dirOutputMeta, dirLogs, dirTemp}

// Layout resolves every path a pipeline stage or the API facade needs for
// one project, rooted at root/<id>.
type Layout struct {
	root string
	id   string
}

func newLayout(root, id string) Layout { return Layout{root: root, id: id} }

func (l Layout) WorkDir() string         { return filepath.Join(l.root, l.id) }
func (l Layout) InputDir() string        { return filepath.Join(l.WorkDir(), dirInput) }
func (l Layout) ClipsDir() string        { return filepath.Join(l.WorkDir(), dirOutputClips) }
func (l Layout) CollectionsDir() string  { return filepath.Join(l.WorkDir(), dirOutputColls) }
func (l Layout) MetadataDir() string     { return filepath.Join(l.WorkDir(), dirOutputMeta) }
func (l Layout) LogsDir() string         { return filepath.Join(l.WorkDir(), dirLogs) }
func (l Layout) TempDir() string         { return filepath.Join(l.WorkDir(), dirTemp) }

// InputVideo and InputSubtitles are the two files a Downloader (or direct
// upload) produces into InputDir before the pipeline can start.
func (l Layout) InputVideo() string      { return filepath.Join(l.InputDir(), "input.mp4") }
func (l Layout) InputSubtitles() string  { return filepath.Join(l.InputDir(), "input.srt") }

// MetadataPath resolves a named stage-output file under MetadataDir, e.g.
// "stage1_result.json" .. "stage5_result.json", "clips_metadata.json",
// "collections_metadata.json", "pipeline_state.json".
func (l Layout) MetadataPath(name string) string {
	return filepath.Join(l.MetadataDir(), name)
}

func (l Layout) ClipPath(clipID, ext string) string {
	return filepath.Join(l.ClipsDir(), clipID+ext)
}

func (l Layout) CollectionPath(collectionID, ext string) string {
	return filepath.Join(l.CollectionsDir(), collectionID+ext)
}

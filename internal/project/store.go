package project

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zsunny6658/clipforge/internal/apperr"
	"github.com/zsunny6658/clipforge/internal/clock"
	"github.com/zsunny6658/clipforge/internal/model"
)

const indexFileName = "projects.json"

// thumbnailCacheDirName holds cached representative thumbnails keyed by
// project id, deliberately outside any project's own WorkDir — deletion
// evicts it as its own cascade step (spec.md §3/§9), not as a byproduct of
// removing the project directory.
const thumbnailCacheDirName = ".thumbnail_cache"

// Store is ProjectStore: it owns the on-disk project tree and the JSON
// index of every known project. Mutations to a single project's record are
// serialized by a per-project mutex (one entry in locks per project ID,
// created lazily); the index file itself is guarded separately so that
// listing or creating projects never blocks on an unrelated project's long
// running stage work.
type Store struct {
	root  string
	clock clock.Clock

	indexMu sync.Mutex   // guards read-modify-write of the projects.json index
	locks   sync.Map     // project ID -> *sync.Mutex, one per project
}

// NewStore creates root (and its parent directories) if missing and
// returns a Store rooted there.
func NewStore(root string, ck clock.Clock) (*Store, error) {
	if ck == nil {
		ck = clock.Real
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, thumbnailCacheDirName), 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, clock: ck}, nil
}

func (s *Store) Layout(id string) Layout { return newLayout(s.root, id) }

// ThumbnailCachePath is where a project's representative thumbnail (if
// any) is cached, keyed by project id. Stage 6 writes it; DeleteProject
// evicts it.
func (s *Store) ThumbnailCachePath(id string) string {
	return filepath.Join(s.root, thumbnailCacheDirName, id+".jpg")
}

// Lock returns an unlock function for project id's mutex, creating it on
// first use. Callers hold this for the duration of any multi-step mutation
// (e.g. running a whole pipeline stage) so two goroutines never interleave
// writes to the same project's files.
func (s *Store) Lock(id string) (unlock func()) {
	muAny, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// indexFile returns the path to the global projects.json index.
func (s *Store) indexFile() string {
	return filepath.Join(s.root, indexFileName)
}

// readIndex loads the current index, tolerating a missing file (empty
// index) on a fresh store.
func (s *Store) readIndex() (map[string]*model.Project, error) {
	idx := map[string]*model.Project{}
	err := readJSON(s.indexFile(), &idx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	return idx, nil
}

func (s *Store) writeIndex(idx map[string]*model.Project) error {
	return writeJSON(s.indexFile(), idx)
}

// CreateProject creates id's directory tree and registers it in the index
// with status ProjectUploading. It is an error to create an id that
// already exists.
func (s *Store) CreateProject(id, name, category string) (*model.Project, error) {
	unlock := s.Lock(id)
	defer unlock()

	layout := s.Layout(id)
	if _, err := os.Stat(layout.WorkDir()); err == nil {
		return nil, apperr.Conflict("project %q already exists", id)
	}

	for _, sub := range projectSubdirs {
		if err := os.MkdirAll(filepath.Join(layout.WorkDir(), sub), 0o755); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	p := &model.Project{
		ID:          id,
		Name:        name,
		Category:    category,
		Status:      model.ProjectUploading,
		CreatedAt:   now,
		UpdatedAt:   now,
		TotalSteps:  6,
		WorkDir:     layout.WorkDir(),
	}
	if err := s.upsert(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProject persists an updated project record, stamping UpdatedAt. It
// does not itself acquire the project's Lock: a caller performing a
// read-modify-write (GetProject, mutate, SaveProject) must hold Lock across
// all three steps, the way a pipeline run does for the duration of a stage.
func (s *Store) SaveProject(p *model.Project) error {
	p.UpdatedAt = s.clock.Now()
	return s.upsert(p)
}

func (s *Store) upsert(p *model.Project) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	idx[p.ID] = p
	return s.writeIndex(idx)
}

// GetProject returns the project record for id, or a NotFound apperr.
func (s *Store) GetProject(id string) (*model.Project, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	p, ok := idx[id]
	if !ok {
		return nil, apperr.NotFound("project %q not found", id)
	}
	return p, nil
}

// ListProjects returns every known project, sorted by CreatedAt descending
// (newest first), matching the order the API facade's list endpoint
// presents to a caller.
func (s *Store) ListProjects() ([]*model.Project, error) {
	s.indexMu.Lock()
	idx, err := s.readIndex()
	s.indexMu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*model.Project, 0, len(idx))
	for _, p := range idx {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteProject cascades id's deletion in the exact order spec.md §9
// requires: working directory, cached thumbnails, scheduler in-memory
// status, then the projects.json entry — each step best-effort, so a
// failure in one (e.g. a stray open file handle under WorkDir) never
// blocks the later steps from running. evictScheduler is invoked between
// the thumbnail and index steps and may be nil (e.g. CLI-mode delete,
// where there is no scheduler to evict). Every step's error is collected
// and returned via errors.Join; deleting an unknown id is a no-op.
func (s *Store) DeleteProject(id string, evictScheduler func()) error {
	unlock := s.Lock(id)
	defer unlock()

	var errs []error

	if err := os.RemoveAll(s.Layout(id).WorkDir()); err != nil {
		errs = append(errs, err)
	}

	if err := os.Remove(s.ThumbnailCachePath(id)); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	if evictScheduler != nil {
		evictScheduler()
	}

	s.indexMu.Lock()
	idx, err := s.readIndex()
	if err != nil {
		errs = append(errs, err)
	} else {
		delete(idx, id)
		if err := s.writeIndex(idx); err != nil {
			errs = append(errs, err)
		}
	}
	s.indexMu.Unlock()

	return errors.Join(errs...)
}

// WriteMetadata atomically writes v as JSON under project id's metadata
// directory, e.g. WriteMetadata(id, "outline.json", outlineItems).
func (s *Store) WriteMetadata(id, name string, v any) error {
	return writeJSON(s.Layout(id).MetadataPath(name), v)
}

// ReadMetadata reads a previously written metadata file into v.
func (s *Store) ReadMetadata(id, name string, v any) error {
	return readJSON(s.Layout(id).MetadataPath(name), v)
}

// HasMetadata reports whether a stage's output file already exists, used by
// Pipeline.Resume to check that every earlier stage has produced its output.
func (s *Store) HasMetadata(id, name string) bool {
	_, err := os.Stat(s.Layout(id).MetadataPath(name))
	return err == nil
}

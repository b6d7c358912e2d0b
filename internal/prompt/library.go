package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*/*.tmpl
var defaultTemplates embed.FS

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Library holds every (stage, category) template pair, compiled once at
// construction. A category with no dedicated override renders through
// the "default" category's templates for that stage.
type Library struct {
	templates map[Name]map[Category]compiled
}

// Load compiles the embedded default template set, then overlays any
// templates found under overrideDir. overrideDir may be empty, in which
// case only the embedded defaults are used. overrideDir must follow the
// same layout as templates/: <stage>/<category>.system.tmpl and
// <stage>/<category>.user.tmpl.
func Load(overrideDir string) (*Library, error) {
	lib := &Library{templates: make(map[Name]map[Category]compiled)}
	if err := lib.loadEmbedded(); err != nil {
		return nil, fmt.Errorf("prompt: loading embedded templates: %w", err)
	}
	if overrideDir != "" {
		if err := lib.loadDir(overrideDir); err != nil {
			return nil, fmt.Errorf("prompt: loading override templates from %s: %w", overrideDir, err)
		}
	}
	return lib, nil
}

// templateTree abstracts over embed.FS and the os-backed override
// directory, which otherwise need identical directory-walking logic.
type templateTree interface {
	readDir(name string) ([]string, []bool, error) // names, isDir, err
	readFile(name string) ([]byte, error)
}

type embedTree struct{ fsys embed.FS }

func (t embedTree) readDir(name string) ([]string, []bool, error) {
	entries, err := fs.ReadDir(t.fsys, name)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(entries))
	dirs := make([]bool, len(entries))
	for i, e := range entries {
		names[i], dirs[i] = e.Name(), e.IsDir()
	}
	return names, dirs, nil
}
func (t embedTree) readFile(name string) ([]byte, error) { return t.fsys.ReadFile(name) }

type osTree struct{}

func (osTree) readDir(name string) ([]string, []bool, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(entries))
	dirs := make([]bool, len(entries))
	for i, e := range entries {
		names[i], dirs[i] = e.Name(), e.IsDir()
	}
	return names, dirs, nil
}
func (osTree) readFile(name string) ([]byte, error) { return os.ReadFile(name) }

type templatePair struct {
	sysFile  string
	userFile string
}

func groupTemplateFiles(names []string) map[Category]templatePair {
	out := make(map[Category]templatePair)
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".system.tmpl"):
			cat := Category(strings.TrimSuffix(name, ".system.tmpl"))
			p := out[cat]
			p.sysFile = name
			out[cat] = p
		case strings.HasSuffix(name, ".user.tmpl"):
			cat := Category(strings.TrimSuffix(name, ".user.tmpl"))
			p := out[cat]
			p.userFile = name
			out[cat] = p
		}
	}
	return out
}

func (l *Library) loadTree(tree templateTree, root string) error {
	stageNames, stageDirs, err := tree.readDir(root)
	if err != nil {
		return err
	}
	for i, name := range stageNames {
		if !stageDirs[i] {
			continue
		}
		stage := Name(name)
		fileNames, _, err := tree.readDir(filepath.Join(root, name))
		if err != nil {
			return err
		}
		grouped := groupTemplateFiles(fileNames)
		for category, pair := range grouped {
			if pair.sysFile == "" || pair.userFile == "" {
				return fmt.Errorf("incomplete template pair for %s/%s", stage, category)
			}
			sysBytes, err := tree.readFile(filepath.Join(root, name, pair.sysFile))
			if err != nil {
				return err
			}
			userBytes, err := tree.readFile(filepath.Join(root, name, pair.userFile))
			if err != nil {
				return err
			}
			if err := l.set(stage, category, string(sysBytes), string(userBytes)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Library) loadEmbedded() error {
	return l.loadTree(embedTree{fsys: defaultTemplates}, "templates")
}

func (l *Library) loadDir(root string) error {
	return l.loadTree(osTree{}, root)
}

func (l *Library) set(stage Name, category Category, systemSrc, userSrc string) error {
	sysT, err := template.New(string(stage) + "/" + string(category) + "/system").
		Option("missingkey=zero").Parse(systemSrc)
	if err != nil {
		return fmt.Errorf("parsing %s/%s system template: %w", stage, category, err)
	}
	userT, err := template.New(string(stage) + "/" + string(category) + "/user").
		Option("missingkey=zero").Parse(userSrc)
	if err != nil {
		return fmt.Errorf("parsing %s/%s user template: %w", stage, category, err)
	}
	if l.templates[stage] == nil {
		l.templates[stage] = make(map[Category]compiled)
	}
	l.templates[stage][category] = compiled{system: sysT, user: userT}
	return nil
}

// Render executes the stage's template for the given category, falling
// back to CategoryDefault when no override exists for that category.
func (l *Library) Render(stage Name, category Category, in Input) (Prompt, error) {
	byCategory, ok := l.templates[stage]
	if !ok {
		return Prompt{}, fmt.Errorf("prompt: unknown stage %q", stage)
	}
	c, ok := byCategory[category]
	used := category
	if !ok {
		c, ok = byCategory[CategoryDefault]
		used = CategoryDefault
		if !ok {
			return Prompt{}, fmt.Errorf("prompt: no template for stage %q (category %q or default)", stage, category)
		}
	}

	var sysBuf, userBuf strings.Builder
	if err := c.system.Execute(&sysBuf, in); err != nil {
		return Prompt{}, fmt.Errorf("prompt: rendering %s/%s system template: %w", stage, used, err)
	}
	if err := c.user.Execute(&userBuf, in); err != nil {
		return Prompt{}, fmt.Errorf("prompt: rendering %s/%s user template: %w", stage, used, err)
	}

	return Prompt{
		Name:     stage,
		Category: used,
		System:   strings.TrimSpace(sysBuf.String()),
		User:     strings.TrimSpace(userBuf.String()),
	}, nil
}

// Package persona loads persona definitions from markdown files.
//
// A persona file starts with YAML frontmatter:
//
//	---
//	persona_id: data-scientist
//	avatar_url: https://example.com/ds.png
//	knowledgebase_dir: ../kb/data-scientist
//	---
//	# Data Scientist
//
// persona_id is required and is the key every session is stored under.
package persona

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/shared/markdown"
)

// ErrMissingID is returned for frontmatter without a persona_id.
var ErrMissingID = errors.New("persona_id is required")

// Persona is one configured agent profile.
type Persona struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	FilePath          string `json:"file_path"`
	AvatarURL         string `json:"avatar_url,omitempty"`
	KnowledgebasePath string `json:"knowledgebase_path,omitempty"`
}

type frontmatter struct {
	PersonaID        string `yaml:"persona_id"`
	AvatarURL        string `yaml:"avatar_url"`
	KnowledgebaseDir string `yaml:"knowledgebase_dir"`
}

// FromFile parses a persona markdown file. The display name is the first
// level-1 heading, or the title-cased file stem when there is none. A
// knowledgebase_dir is resolved against the file's directory and dropped
// when it is not an existing directory.
func FromFile(path string) (*Persona, error) {
	p, _, err := load(path)
	return p, err
}

func load(path string) (*Persona, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	front, body, err := markdown.SplitFrontmatter(string(content))
	if err != nil {
		return nil, nil, err
	}
	var meta frontmatter
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return nil, nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	meta.PersonaID = strings.TrimSpace(meta.PersonaID)
	if meta.PersonaID == "" {
		return nil, nil, ErrMissingID
	}

	name, ok := markdown.FirstHeading([]byte(body))
	if !ok {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name = markdown.TitleFromStem(stem, "-")
		if name == "" {
			name = "Unknown"
		}
	}

	var warnings []string
	var kbPath string
	if meta.KnowledgebaseDir != "" {
		resolved := meta.KnowledgebaseDir
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(path), resolved)
		}
		if info, err := os.Stat(resolved); err == nil && info.IsDir() {
			kbPath = resolved
		} else {
			warnings = append(warnings, fmt.Sprintf("knowledgebase directory does not exist: %s", resolved))
		}
	}

	return &Persona{
		ID:                meta.PersonaID,
		Name:              name,
		FilePath:          path,
		AvatarURL:         meta.AvatarURL,
		KnowledgebasePath: kbPath,
	}, warnings, nil
}

// LoadDir loads every *.md file directly inside dir, sorted by name. Files
// that fail to parse are logged and skipped; a missing directory yields an
// empty list.
func LoadDir(dir string, logger *logging.Logger) []Persona {
	if _, err := os.Stat(dir); err != nil {
		logger.Warn("Personas directory not found", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "*.md")
	if err != nil {
		logger.Warn("Failed to read personas directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	personas := make([]Persona, 0, len(matches))
	seen := make(map[string]string, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, m)
		p, warnings, err := load(path)
		if err != nil {
			logger.Warn("Failed to load persona", zap.String("path", path), zap.Error(err))
			continue
		}
		for _, w := range warnings {
			logger.Warn(w, zap.String("persona", p.ID))
		}
		if prev, dup := seen[p.ID]; dup {
			logger.Warn("Duplicate persona id", zap.String("persona", p.ID),
				zap.String("path", path), zap.String("first", prev))
		}
		seen[p.ID] = path
		personas = append(personas, *p)
	}

	sort.SliceStable(personas, func(i, j int) bool {
		return personas[i].Name < personas[j].Name
	})
	return personas
}

// Find returns the persona with the given id.
func Find(personas []Persona, id string) (Persona, bool) {
	for _, p := range personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

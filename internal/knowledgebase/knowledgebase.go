// Package knowledgebase lists and edits the markdown notes that back a
// persona's knowledgebase directory.
package knowledgebase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/persona/internal/shared/markdown"
)

// ErrNotText is returned when a file does not look like text.
var ErrNotText = errors.New("not a text file")

// Entry is one note in a knowledgebase.
type Entry struct {
	FilePath   string    `json:"file_path"`
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
}

// File is an entry with its content.
type File struct {
	Entry
	Content string `json:"content"`
}

// LoadEntries lists the *.md files directly inside dir, newest first.
// Unreadable and binary files are skipped; a missing directory yields an
// empty list.
func LoadEntries(dir string) []Entry {
	if dir == "" {
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "*.md")
	if err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entry, err := newEntry(filepath.Join(dir, m))
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModifiedAt.After(entries[j].ModifiedAt)
	})
	return entries
}

// LoadFile reads one note.
func LoadFile(path string) (*File, error) {
	entry, err := newEntry(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{Entry: entry, Content: string(content)}, nil
}

// SaveFile overwrites a note, keeping its permissions when it exists.
func SaveFile(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newEntry(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s: not a regular file", path)
	}
	if info.Size() > 0 {
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return Entry{}, err
		}
		if !strings.HasPrefix(mtype.String(), "text/") {
			return Entry{}, fmt.Errorf("%s: %w (%s)", path, ErrNotText, mtype.String())
		}
	}

	return Entry{
		FilePath:   path,
		Name:       entryName(path),
		ModifiedAt: info.ModTime(),
	}, nil
}

func entryName(path string) string {
	if content, err := os.ReadFile(path); err == nil {
		if name, ok := markdown.FirstHeading(content); ok {
			return name
		}
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	if strings.TrimSpace(name) == "" {
		return "Unknown"
	}
	return name
}

// Package prefs persists user preferences across restarts in a small yaml
// file. The theme is the only preference today.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

const fileName = "preferences.yaml"

type document struct {
	Theme entity.Theme `yaml:"theme,omitempty"`
}

// FileStore reads and writes the preference file. Writes replace the file
// atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	system entity.Theme
}

// DefaultPath is <user config dir>/datasmith/preferences.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "datasmith", fileName), nil
}

// NewFileStore returns a store at path. system is the environment theme used
// when the file holds no valid theme; when empty, COLORFGBG is consulted.
func NewFileStore(path string, system entity.Theme) *FileStore {
	return &FileStore{path: path, system: system}
}

func (s *FileStore) Path() string {
	return s.path
}

// Theme returns the stored theme, or the system theme if none is stored.
func (s *FileStore) Theme() entity.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read preferences, using system theme", "path", s.path, "error", err)
	}
	if doc.Theme.Valid() {
		return doc.Theme
	}

	return SystemTheme(s.system, os.Getenv("COLORFGBG"))
}

// SaveTheme persists theme.
func (s *FileStore) SaveTheme(theme entity.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("invalid theme %q", theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("overwriting unreadable preferences", "path", s.path, "error", err)
	}
	doc.Theme = theme

	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	var doc document

	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("decode preferences: %w", err)
	}

	return doc, nil
}

func (s *FileStore) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}

	return nil
}

// SystemTheme resolves the environment preference. A valid configured theme
// wins; otherwise a COLORFGBG value ("fg;bg" or "fg;x;bg") whose background
// color index is 0-6 or 8 means a dark terminal. Anything else is light.
func SystemTheme(configured entity.Theme, colorfgbg string) entity.Theme {
	if configured.Valid() {
		return configured
	}

	parts := strings.Split(colorfgbg, ";")
	if colorfgbg == "" || len(parts) < 2 {
		return entity.ThemeLight
	}

	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return entity.ThemeLight
	}
	if (bg >= 0 && bg <= 6) || bg == 8 {
		return entity.ThemeDark
	}

	return entity.ThemeLight
}

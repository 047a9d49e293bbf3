// Package prefs persists songdeck user preferences.
// Preferences are stored in ~/.config/songdeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/songdeck/internal/catalog"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme         string `toml:"theme"`
	SortKey       string `toml:"sort_key"`
	SortDirection string `toml:"sort_direction"`
}

const (
	defaultPrefsPath = "~/.config/songdeck/prefs.toml"
	defaultTheme     = "Dracula"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	sort := catalog.DefaultSortState()
	return Prefs{
		Theme:         defaultTheme,
		SortKey:       string(sort.Key),
		SortDirection: string(sort.Direction),
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// SortState returns the stored sort, or the default when either field is
// unrecognized.
func (p Prefs) SortState() catalog.SortState {
	key, err := catalog.ParseSortKey(p.SortKey)
	if err != nil {
		return catalog.DefaultSortState()
	}
	dir, err := catalog.ParseDirection(p.SortDirection)
	if err != nil {
		return catalog.DefaultSortState()
	}
	return catalog.SortState{Key: key, Direction: dir}
}

// WithSortState returns a copy of p storing s.
func (p Prefs) WithSortState(s catalog.SortState) Prefs {
	p.SortKey = string(s.Key)
	p.SortDirection = string(s.Direction)
	return p
}

// Load reads preferences from the given path, falling back to defaults if
// missing or unreadable.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	return prefs.WithSortState(prefs.SortState()), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/five82/songdeck/internal/catalog"
)

//go:embed sample.yaml
var sampleCatalog []byte

// FileLoader reads the catalog from a local JSON or YAML file, or from the
// built-in sample when Path is empty.
type FileLoader struct {
	Path string
}

// FetchSongs reads and decodes the file. Errors wrap ErrUnavailable.
func (l *FileLoader) FetchSongs(ctx context.Context) ([]catalog.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if l == nil || strings.TrimSpace(l.Path) == "" {
		songs, err := decodeYAML(sampleCatalog)
		if err != nil {
			return nil, fmt.Errorf("%w: sample catalog: %w", ErrUnavailable, err)
		}
		return Sanitize(songs), nil
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, l.Path, err)
	}
	var songs []catalog.Song
	switch ext := strings.ToLower(filepath.Ext(l.Path)); ext {
	case ".json":
		err = json.Unmarshal(data, &songs)
	case ".yaml", ".yml":
		songs, err = decodeYAML(data)
	default:
		err = fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, l.Path, err)
	}
	return Sanitize(songs), nil
}

func decodeYAML(data []byte) ([]catalog.Song, error) {
	var songs []catalog.Song
	if err := yaml.Unmarshal(data, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

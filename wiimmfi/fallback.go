package wiimmfi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FallbackLoader retrieves a previously stored raw document by name.
// Implementations return ErrNoFallback when no such document exists.
type FallbackLoader interface {
	LoadDocument(name string) (string, error)
}

// DirLoader loads fallback documents from a directory. An empty Dir means
// the current working directory.
type DirLoader struct {
	Dir string
}

func (l DirLoader) LoadDocument(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoFallback
	}
	if err != nil {
		return "", fmt.Errorf("wiimmfi: read fallback %s: %w", name, err)
	}
	return string(data), nil
}

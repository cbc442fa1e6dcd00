package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoRoot is returned by FindRoot when no ancestor holds a notebook.
var ErrNoRoot = errors.New("no notebook directory found")

// rootMarkers are the entries that make a directory a notebook root.
var rootMarkers = []string{".wingnotes", ConfigFileName}

// FindRoot returns the closest directory, startDir included, that holds a
// .wingnotes directory or a wingnotes.yaml file.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if isRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRoot
		}
		dir = parent
	}
}

func isRoot(dir string) bool {
	for _, name := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

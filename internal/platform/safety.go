package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the process is a `go run` or `go test` binary.
// Both are built in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataPath returns the directory to use for userPath.
// With forceTemp, paths outside the system temp dir are re-rooted under
// <tmp>/wingnotes-dev/<base name>; paths already inside it are kept.
func ResolveDataPath(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = "."
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if abs, err := filepath.Abs(clean); err == nil {
		rel, err := filepath.Rel(os.TempDir(), abs)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "wingnotes-dev", name)
}

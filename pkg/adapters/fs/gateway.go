// Package fs implements core.Gateway on the local filesystem.
//
// Each key is stored as "<key>.json" in the data directory. Writes are atomic
// (temp file + rename) and serialized across processes by a lock file in the
// system directory.
package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/wingnotes/pkg/core"
)

const (
	// FileExt is the extension of snapshot files.
	FileExt = ".json"
	// DefaultSystemDir holds the lock file and other process state.
	DefaultSystemDir = ".wingnotes"
	lockFileName     = "write.lock"
)

var (
	// ErrReadOnly is returned by Set when the gateway is read-only.
	ErrReadOnly = errors.New("gateway is read-only")
	// ErrQuotaExceeded is returned by Set when the data directory would
	// outgrow the configured quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
	ErrInvalidKey = errors.New("invalid key")
)

// Config holds the configuration for the filesystem gateway.
type Config struct {
	Path        string
	MustExist   bool
	ReadOnly    bool
	Logger      *slog.Logger
	SystemDir   string        // e.g. ".wingnotes"
	Quota       int64         // Max bytes of all snapshot files. Zero means unlimited.
	LockTimeout time.Duration // Zero means wait until ctx is done.
	// WatchPattern filters the keys reported by Watch (doublestar syntax).
	// Empty means every key.
	WatchPattern string
	// ErrorHandler receives runtime watcher errors that are otherwise only logged.
	ErrorHandler func(error)
}

// Gateway implements core.Gateway using one file per key.
type Gateway struct {
	Path   string
	config Config
	lock   *fileLock

	mu            sync.RWMutex
	written       map[string][sha256.Size]byte
	writes        int
	lastWrite     *time.Time
	watcherActive bool
}

// NewGateway creates a filesystem gateway. Call Initialize before use.
func NewGateway(config Config) *Gateway {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		Path:    config.Path,
		config:  config,
		lock:    newFileLock(filepath.Join(config.Path, config.SystemDir), lockFileName, config.LockTimeout),
		written: make(map[string][sha256.Size]byte),
	}
}

// Initialize ensures the data and system directories exist.
func (g *Gateway) Initialize(ctx context.Context) error {
	if g.config.MustExist || g.config.ReadOnly {
		info, err := os.Stat(g.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", g.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", g.Path)
		}
	}
	if g.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(g.Path, g.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Get returns the content of the key's file, or core.ErrKeyNotFound.
func (g *Gateway) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := g.pathOf(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", core.ErrKeyNotFound, key)
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// Set atomically replaces the key's file with value.
func (g *Gateway) Set(ctx context.Context, key, value string) error {
	if g.config.ReadOnly {
		return ErrReadOnly
	}
	path, err := g.pathOf(key)
	if err != nil {
		return err
	}

	unlock, err := g.lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if g.config.Quota > 0 {
		used, err := g.usage(key)
		if err != nil {
			return err
		}
		if total := used + int64(len(value)); total > g.config.Quota {
			return fmt.Errorf("%w: %d > %d bytes", ErrQuotaExceeded, total, g.config.Quota)
		}
	}

	// Recorded before the rename so the watcher can recognize our own write.
	g.mu.Lock()
	g.written[key] = sha256.Sum256([]byte(value))
	g.mu.Unlock()

	if err := writeFileAtomic(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	g.mu.Lock()
	now := time.Now()
	g.writes++
	g.lastWrite = &now
	g.mu.Unlock()

	g.config.Logger.Debug("snapshot written", "key", key, "bytes", len(value))
	return nil
}

// Keys lists the stored keys in lexical order.
func (g *Gateway) Keys() ([]string, error) {
	entries, err := os.ReadDir(g.Path)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if key, ok := keyOf(e.Name()); ok && !e.IsDir() {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (g *Gateway) pathOf(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, TempFilePrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(g.Path, key+FileExt), nil
}

// keyOf maps a file name back to its key.
func keyOf(name string) (string, bool) {
	if !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, ".") || strings.HasPrefix(name, TempFilePrefix) {
		return "", false
	}
	return strings.TrimSuffix(name, FileExt), true
}

// usage sums the size of every snapshot file except key's own.
func (g *Gateway) usage(except string) (int64, error) {
	entries, err := os.ReadDir(g.Path)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		key, ok := keyOf(e.Name())
		if !ok || key == except || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// isOwnWrite reports whether the file content matches the last value this
// gateway wrote under key.
func (g *Gateway) isOwnWrite(key string) bool {
	g.mu.RLock()
	sum, ok := g.written[key]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	path, err := g.pathOf(key)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

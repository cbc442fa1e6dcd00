package wingnotes

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/wingnotes/internal/platform"
	"github.com/aretw0/wingnotes/pkg/core"
)

// --- Types ---

// Store is the notebook store.
type Store = core.Store

// Note is a titled sequence of blocks.
type Note = core.Note

// Block is one row of the two-pane editor.
type Block = core.Block

// FileConfig is the content of wingnotes.yaml.
type FileConfig = platform.FileConfig

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = platform.ConfigFileName

// --- Configuration ---

// Option defines a functional option for configuring wingnotes.
type Option = platform.Option

// WithLogger sets the logger for the store and its gateway.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithGateway allows injecting a custom persistence gateway.
func WithGateway(gw core.Gateway) Option {
	return platform.WithGateway(gw)
}

// WithAdapter selects the gateway adapter by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithDebounce sets the autosave quiet period.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithStorageKey sets the key the notebook is stored under.
func WithStorageKey(key string) Option {
	return platform.WithStorageKey(key)
}

// WithDefaultTitle sets the title of notes created without one.
func WithDefaultTitle(title string) Option {
	return platform.WithDefaultTitle(title)
}

// WithClock replaces the store's time source.
func WithClock(c core.Clock) Option {
	return platform.WithClock(c)
}

// WithIDGenerator sets the generator of note and block IDs.
func WithIDGenerator(fn func() string) Option {
	return platform.WithIDGenerator(fn)
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithQuota caps the bytes the gateway may store.
func WithQuota(bytes int64) Option {
	return platform.WithQuota(bytes)
}

// WithLockTimeout bounds how long a write waits for the cross-process lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithSystemDir sets the hidden directory name (e.g. ".wingnotes").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithWatchPattern filters the keys reported by the gateway watcher.
func WithWatchPattern(pattern string) Option {
	return platform.WithWatchPattern(pattern)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithForceTemp forces the use of a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// Open creates a Store over the data at uri and loads the notebook.
func Open(ctx context.Context, uri string, opts ...Option) (*core.Store, error) {
	return platform.Open(ctx, uri, opts...)
}

// Init returns the configured gateway without creating a store.
func Init(ctx context.Context, uri string, opts ...Option) (core.Gateway, error) {
	return platform.Init(ctx, uri, opts...)
}

// LoadConfig reads wingnotes.yaml at path. A missing file yields defaults.
func LoadConfig(path string) (FileConfig, error) {
	return platform.LoadConfig(path)
}

// --- Safety & Utils ---

// ResolveDataPath determines the directory actually used for userPath.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot recursively looks upwards for a data directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

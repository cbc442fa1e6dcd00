package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/wingnotes/pkg/core"
)

// options holds the internal configuration for a wingnotes session.
type options struct {
	gateway core.Gateway
	logger  *slog.Logger
	adapter string
	config  map[string]any
	store   []core.StoreOption
}

// Option defines a functional option for configuring wingnotes.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]any),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the store and its gateway.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGateway allows injecting a custom persistence gateway (e.g. mock, browser bridge).
// If provided, the adapter selection is skipped.
func WithGateway(gw core.Gateway) Option {
	return func(o *options) {
		o.gateway = gw
	}
}

// WithAdapter selects the gateway adapter by name ("fs" or "memory").
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithDebounce sets the autosave quiet period.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.store = append(o.store, core.WithDebounce(d))
	}
}

// WithStorageKey sets the key the notebook is stored under.
func WithStorageKey(key string) Option {
	return func(o *options) {
		o.store = append(o.store, core.WithStorageKey(key))
	}
}

// WithDefaultTitle sets the title of notes created without one.
func WithDefaultTitle(title string) Option {
	return func(o *options) {
		o.store = append(o.store, core.WithDefaultTitle(title))
	}
}

// WithClock replaces the store's time source (useful for testing).
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.store = append(o.store, core.WithClock(c))
	}
}

// WithIDGenerator sets the generator of note and block IDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.store = append(o.store, core.WithIDGenerator(fn))
	}
}

// WithMustExist requires the data directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly rejects every write with fs.ErrReadOnly. Loading still works.
// Dev safety is bypassed, as nothing can be damaged.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithQuota caps the bytes the gateway may store. Zero means unlimited.
func WithQuota(bytes int64) Option {
	return func(o *options) {
		o.config["quota"] = bytes
	}
}

// WithLockTimeout bounds how long a write waits for the cross-process lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["lock_timeout"] = d
	}
}

// WithSystemDir sets the hidden directory name (e.g. ".wingnotes").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithWatchPattern filters the keys reported by the gateway watcher.
func WithWatchPattern(pattern string) Option {
	return func(o *options) {
		o.config["watch_pattern"] = pattern
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) the data directory is re-rooted under the
// system temp dir so development runs never touch real notes.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

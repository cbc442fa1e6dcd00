package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/wingnotes/pkg/adapters/fs"
	"github.com/aretw0/wingnotes/pkg/adapters/memory"
	"github.com/aretw0/wingnotes/pkg/core"
)

// Open builds the gateway for uri, creates the store and loads the notebook.
//
//	store, err := platform.Open(ctx, "./notes", platform.WithDebounce(time.Second))
//
// The URI is adapter-specific (a directory for "fs", ignored for "memory").
func Open(ctx context.Context, uri string, opts ...Option) (*core.Store, error) {
	gw, err := Init(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	storeOpts := o.store
	if o.logger != nil {
		storeOpts = append([]core.StoreOption{core.WithLogger(o.logger)}, storeOpts...)
	}

	store := core.NewStore(gw, storeOpts...)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Init returns the configured gateway, ready for use.
func Init(ctx context.Context, uri string, opts ...Option) (core.Gateway, error) {
	o := applyOptions(opts)

	if o.gateway != nil {
		return o.gateway, nil
	}

	switch o.adapter {
	case "fs":
		gw := initFS(uri, o)
		if err := gw.Initialize(ctx); err != nil {
			return nil, err
		}
		return gw, nil
	case "memory":
		var mopts []memory.Option
		if quota, ok := o.config["quota"].(int64); ok && quota > 0 {
			mopts = append(mopts, memory.WithQuota(int(quota)))
		}
		return memory.New(mopts...), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// initFS handles the configuration logic for the filesystem adapter.
func initFS(path string, o *options) *fs.Gateway {
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	quota, _ := o.config["quota"].(int64)
	lockTimeout, _ := o.config["lock_timeout"].(time.Duration)
	systemDir, _ := o.config["system_dir"].(string)
	watchPattern, _ := o.config["watch_pattern"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypassSafety := readOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolved := ResolveDataPath(path, useTemp)

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if useTemp {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}
	if lockTimeout == 0 {
		lockTimeout = 5 * time.Second
	}

	return fs.NewGateway(fs.Config{
		Path:         resolved,
		MustExist:    mustExist,
		ReadOnly:     readOnly,
		Logger:       logger,
		SystemDir:    systemDir,
		Quota:        quota,
		LockTimeout:  lockTimeout,
		WatchPattern: watchPattern,
		ErrorHandler: errorHandler,
	})
}

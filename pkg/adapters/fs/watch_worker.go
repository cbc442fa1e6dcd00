package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/wingnotes/pkg/core"
)

// eventQuietPeriod coalesces the burst of fsnotify events produced by a
// single save.
const eventQuietPeriod = 50 * time.Millisecond

// Watch reports snapshot files changed by other processes. Writes made
// through this Gateway are not reported. The channel is closed when ctx is
// done.
func (g *Gateway) Watch(ctx context.Context) (<-chan core.ChangeEvent, error) {
	events := make(chan core.ChangeEvent, 16)
	w := newWatchWorker(g, g.config.WatchPattern, events)
	w.closeEvents = true
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var _ core.Watchable = (*Gateway)(nil)

type pendingChange struct {
	typ       core.EventType
	debouncer *core.Debouncer
}

type watchWorker struct {
	*worker.BaseWorker
	gw      *Gateway
	pattern string
	events  chan core.ChangeEvent
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	// closeEvents makes the worker close events when it exits. Workers
	// restarted by a supervisor share the channel and leave it open.
	closeEvents bool

	mu      sync.Mutex
	pending map[string]*pendingChange
	closed  bool
}

func newWatchWorker(gw *Gateway, pattern string, events chan core.ChangeEvent) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		gw:         gw,
		pattern:    pattern,
		events:     events,
		pending:    make(map[string]*pendingChange),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}
	if w.pattern != "" && !doublestar.ValidatePattern(w.pattern) {
		return fmt.Errorf("invalid watch pattern %q", w.pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.gw.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.gw.Path, err)
	}

	w.watcher = watcher
	w.gw.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.gw.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.gw.setWatcherActive(false)
	defer w.watcher.Close()
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("fsnotify error", "error", wErr)
			if w.gw.config.ErrorHandler != nil {
				w.gw.config.ErrorHandler(wErr)
			}
		}
	}
}

func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	key, ok := keyOf(filepath.Base(event.Name))
	if !ok {
		return
	}
	if w.pattern != "" {
		if match, _ := doublestar.Match(w.pattern, key); !match {
			return
		}
	}

	var typ core.EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = core.EventCreate
	case event.Has(fsnotify.Write):
		typ = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return
	}
	w.gw.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	p, ok := w.pending[key]
	if !ok {
		p = &pendingChange{typ: typ}
		p.debouncer = core.NewDebouncer(core.SystemClock{}, eventQuietPeriod, func() { w.emit(ctx, key) })
		w.pending[key] = p
	} else {
		p.typ = mergeEventType(p.typ, typ)
	}
	p.debouncer.Trigger()
}

// mergeEventType folds a burst of events on one key into a single change.
func mergeEventType(prev, next core.EventType) core.EventType {
	switch {
	case next == core.EventDelete:
		return core.EventDelete
	case prev == core.EventDelete:
		return core.EventModify
	case prev == core.EventCreate:
		return core.EventCreate
	default:
		return next
	}
}

func (w *watchWorker) emit(ctx context.Context, key string) {
	w.mu.Lock()
	p, ok := w.pending[key]
	if ok {
		delete(w.pending, key)
	}
	closed := w.closed
	w.mu.Unlock()
	if !ok || closed {
		return
	}

	if p.typ != core.EventDelete && w.gw.isOwnWrite(key) {
		return
	}

	defer func() {
		// The events channel may be closed while stopping.
		_ = recover()
	}()
	select {
	case w.events <- core.ChangeEvent{Type: p.typ, Key: key, Timestamp: time.Now().Unix()}:
	case <-ctx.Done():
	}
}

func (w *watchWorker) shutdown() {
	w.mu.Lock()
	w.closed = true
	for key, p := range w.pending {
		p.debouncer.Stop()
		delete(w.pending, key)
	}
	w.mu.Unlock()
	if w.closeEvents {
		close(w.events)
	}
}

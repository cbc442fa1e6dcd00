package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// GatewayState exposes internal state for observability.
type GatewayState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	ReadOnly      bool       `json:"read_only"`
	Quota         int64      `json:"quota,omitempty"`
	Writes        int        `json:"writes"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GatewayState{
		Path:          g.Path,
		SystemDir:     g.config.SystemDir,
		ReadOnly:      g.config.ReadOnly,
		Quota:         g.config.Quota,
		Writes:        g.writes,
		LastWrite:     g.lastWrite,
		WatcherActive: g.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)

func (g *Gateway) setWatcherActive(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watcherActive = active
}

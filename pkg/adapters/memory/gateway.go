// Package memory implements core.Gateway in memory.
//
// It plays the role of the browser's local storage for tests and ephemeral
// sessions: values live as long as the Gateway, an optional quota bounds the
// stored bytes, and a failure can be injected to exercise error paths.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/wingnotes/pkg/core"
)

// ErrQuotaExceeded is returned by Set when the value does not fit the quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Gateway is a map-backed core.Gateway.
type Gateway struct {
	mu     sync.Mutex
	data   map[string]string
	quota  int
	fail   error
	writes int
	log    []string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithQuota limits the total size of stored values, in bytes. Zero means
// unlimited.
func WithQuota(bytes int) Option {
	return func(g *Gateway) { g.quota = bytes }
}

// WithValue seeds the gateway with a stored value.
func WithValue(key, value string) Option {
	return func(g *Gateway) { g.data[key] = value }
}

// New creates an empty Gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{data: make(map[string]string)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrKeyNotFound, key)
	}
	return v, nil
}

func (g *Gateway) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fail != nil {
		return g.fail
	}
	if g.quota > 0 {
		used := len(value)
		for k, v := range g.data {
			if k != key {
				used += len(v)
			}
		}
		if used > g.quota {
			return fmt.Errorf("%w: %d > %d bytes", ErrQuotaExceeded, used, g.quota)
		}
	}
	g.data[key] = value
	g.writes++
	g.log = append(g.log, value)
	return nil
}

// FailWith makes every following Set return err. A nil err clears it.
func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

// Writes returns the number of successful Set calls.
func (g *Gateway) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// History returns every value written, oldest first.
func (g *Gateway) History() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.log))
	copy(out, g.log)
	return out
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "memory"
}

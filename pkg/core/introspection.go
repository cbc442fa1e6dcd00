package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Notes        int        `json:"notes"`
	Blocks       int        `json:"blocks"`
	CurrentID    string     `json:"current_id,omitempty"`
	StorageKey   string     `json:"storage_key"`
	Debounce     string     `json:"debounce"`
	SaveState    string     `json:"save_state"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	PendingWrite bool       `json:"pending_write"`
	Subscribers  int        `json:"subscribers"`
	GatewayType  string     `json:"gateway_type"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := 0
	for _, n := range s.notes {
		blocks += len(n.Blocks)
	}

	gatewayType := "gateway"
	if comp, ok := s.gateway.(introspection.Component); ok {
		gatewayType = comp.ComponentType()
	}

	st := StoreState{
		Notes:        len(s.notes),
		Blocks:       blocks,
		CurrentID:    s.current,
		StorageKey:   s.opts.key,
		Debounce:     s.opts.debounce.String(),
		SaveState:    string(s.status.State),
		PendingWrite: s.saver.Pending(),
		Subscribers:  len(s.subs),
		GatewayType:  gatewayType,
	}
	if !s.status.LastSaved.IsZero() {
		t := s.status.LastSaved
		st.LastSaved = &t
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

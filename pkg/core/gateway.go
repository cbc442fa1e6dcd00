package core

import "context"

// Gateway defines the contract of the key-value store holding snapshots.
// Adhering to this interface keeps the store independent of the underlying
// storage (memory, filesystem, browser storage bridges, ...).
type Gateway interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// Implementations may fail for capacity or I/O reasons.
	Set(ctx context.Context, key, value string) error
}

// EventType represents the kind of change observed on a gateway key.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// ChangeEvent reports that a key changed outside of this process.
type ChangeEvent struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e ChangeEvent) String() string {
	return string(e.Type) + " " + e.Key
}

// Watchable is implemented by gateways able to report external changes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan ChangeEvent, error)
}

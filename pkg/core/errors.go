package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoteNotFound is returned by store operations given an unknown note ID.
	ErrNoteNotFound = errors.New("note not found")
	// ErrBlockNotFound is returned by block list operations given an unknown block ID.
	ErrBlockNotFound = errors.New("block not found")
	// ErrKeyNotFound is returned by a Gateway when the key holds no value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidField is returned by EditField for fields other than FieldLeft/FieldRight.
	ErrInvalidField = errors.New("invalid block field")
)

// ReadError reports a snapshot that could not be read or decoded.
// The store treats it as "no prior data".
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read snapshot %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed snapshot write. Callers see it in the save
// status and as the result of Flush.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

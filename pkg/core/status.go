package core

import (
	"fmt"
	"time"
)

// SaveState is the coarse state of the autosave indicator.
type SaveState string

const (
	StateSaved  SaveState = "saved"
	StateSaving SaveState = "saving"
	StateError  SaveState = "error"
)

// SaveStatus is the save-status signal consumed by front-ends.
type SaveStatus struct {
	State SaveState
	// LastSaved is the time of the last successful write, zero if none.
	LastSaved time.Time
	// Err is set when State is StateError. It is always a *WriteError.
	Err error
}

func (s SaveStatus) String() string {
	switch s.State {
	case StateSaving:
		return "saving"
	case StateError:
		if s.Err != nil {
			return fmt.Sprintf("error: %v", s.Err)
		}
		return "error"
	default:
		if s.LastSaved.IsZero() {
			return "saved"
		}
		return "saved " + s.LastSaved.Format("15:04:05")
	}
}

package core

import "time"

// Timer is a pending delayed action.
type Timer interface {
	// Stop cancels the action. It reports false if the action already ran
	// or was already stopped.
	Stop() bool
}

// Clock is the time source of the store.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the Clock backed by package time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

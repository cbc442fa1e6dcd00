// Package clocktest adapts a clockwork fake clock to core.Clock for tests.
package clocktest

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/wingnotes/pkg/core"
)

// Clock is a core.Clock whose time only moves on Advance.
// Advance returns once every timer it made due has finished its callback.
type Clock struct {
	fake fakeClock

	mu     sync.Mutex
	timers map[*timer]struct{}
}

// fakeClock is the part of clockwork's fake clock used here.
type fakeClock interface {
	Now() time.Time
	Advance(d time.Duration)
	AfterFunc(d time.Duration, f func()) clockwork.Timer
}

type timer struct {
	clock    *Clock
	inner    clockwork.Timer
	deadline time.Time
	done     chan struct{}
}

// New returns a Clock starting at start.
func New(start time.Time) *Clock {
	return &Clock{
		fake:   clockwork.NewFakeClockAt(start),
		timers: make(map[*timer]struct{}),
	}
}

func (c *Clock) Now() time.Time {
	return c.fake.Now()
}

func (c *Clock) AfterFunc(d time.Duration, f func()) core.Timer {
	t := &timer{clock: c, deadline: c.fake.Now().Add(d), done: make(chan struct{})}
	c.mu.Lock()
	c.timers[t] = struct{}{}
	c.mu.Unlock()
	t.inner = c.fake.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	return t
}

// Pending returns the number of armed timers.
func (c *Clock) Pending() int {
	now := c.fake.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for t := range c.timers {
		if t.deadline.After(now) {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d and waits for the callbacks of the
// timers that became due.
func (c *Clock) Advance(d time.Duration) {
	c.fake.Advance(d)
	now := c.fake.Now()

	c.mu.Lock()
	var due []*timer
	for t := range c.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
			delete(c.timers, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		<-t.done
	}
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	delete(t.clock.timers, t)
	t.clock.mu.Unlock()
	return t.inner.Stop()
}

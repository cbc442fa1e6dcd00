package core

import (
	"sync"
	"time"
)

// Debouncer runs fn once a contiguous quiet period of delay has elapsed
// since the last Trigger. At most one run is pending and at most one is in
// progress at any time.
type Debouncer struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	fn      func()
	timer   Timer
	gen     uint64
	stopped bool
	// active is 1 while fn runs; idle is signaled when it drops to 0.
	active int
	// queued counts runs that are due but wait for the active one.
	queued int
	idle   *sync.Cond
}

// NewDebouncer creates a Debouncer. A nil clock means SystemClock.
func NewDebouncer(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = SystemClock{}
	}
	d := &Debouncer{clock: clock, delay: delay, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger cancels the pending run, if any, and schedules a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a run is scheduled and has not started.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil || d.queued > 0
}

// Flush runs the pending action immediately on the calling goroutine, after
// any run already started by the timer, so runs never overlap. With nothing
// pending it waits for the runs in progress. It reports whether a run
// happened or finished during the call.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
		d.gen++
	}
	if !pending {
		busy := d.active > 0 || d.queued > 0
		for d.active > 0 || d.queued > 0 {
			d.idle.Wait()
		}
		d.mu.Unlock()
		return busy
	}
	d.queued++
	d.waitIdleLocked()
	d.queued--
	d.active++
	d.mu.Unlock()

	d.run()
	return true
}

// Stop cancels the pending run without executing it and rejects further
// triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A newer Trigger (or Flush/Stop) superseded this timer after it fired
	// but before it got the lock.
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.queued++
	d.waitIdleLocked()
	d.queued--
	d.active++
	d.mu.Unlock()

	d.run()
}

// waitIdleLocked blocks until no run is in progress. d.mu must be held.
func (d *Debouncer) waitIdleLocked() {
	for d.active > 0 {
		d.idle.Wait()
	}
}

func (d *Debouncer) run() {
	defer func() {
		d.mu.Lock()
		d.active--
		d.idle.Broadcast()
		d.mu.Unlock()
	}()
	d.fn()
}

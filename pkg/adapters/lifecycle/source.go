package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"
)

// relay forwards a typed channel as lifecycle events.
type relay[E lifecycle.Event] struct {
	in  <-chan E
	out chan lifecycle.Event
}

// NewSource turns a typed event channel, such as the save statuses of
// core.Store.Watch or the changes of a Watchable gateway, into a
// lifecycle.Source. Events stops once in is closed or the context given to
// Start ends.
func NewSource[E lifecycle.Event](in <-chan E) lifecycle.Source {
	return &relay[E]{in: in, out: make(chan lifecycle.Event)}
}

func (r *relay[E]) Events() <-chan lifecycle.Event {
	return r.out
}

func (r *relay[E]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(r.out)
		for {
			var e E
			var ok bool
			select {
			case <-ctx.Done():
				return nil
			case e, ok = <-r.in:
			}
			if !ok || !r.send(ctx, e) {
				return nil
			}
		}
	})
	return nil
}

// send reports false when ctx ended before e was taken.
func (r *relay[E]) send(ctx context.Context, e E) bool {
	select {
	case r.out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

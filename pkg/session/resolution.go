package session

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Resolution.AwaitWithTimeout.
var ErrTimeout = errors.New("session.resolution_timeout")

// Resolution is the pending outcome of a profile resolution.
type Resolution struct {
	done chan struct{}
	snap Snapshot
}

func newResolution() *Resolution {
	return &Resolution{done: make(chan struct{})}
}

func settledResolution(s Snapshot) *Resolution {
	r := newResolution()
	r.complete(s)
	return r
}

func (r *Resolution) complete(s Snapshot) {
	r.snap = s
	close(r.done)
}

// Done is closed once the resolution has settled.
func (r *Resolution) Done() <-chan struct{} { return r.done }

// Await blocks until the resolution settles or ctx ends.
func (r *Resolution) Await(ctx context.Context) (Snapshot, error) {
	select {
	case <-r.done:
		return r.snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// AwaitWithTimeout blocks for at most timeout.
func (r *Resolution) AwaitWithTimeout(timeout time.Duration) (Snapshot, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.done:
		return r.snap, nil
	case <-t.C:
		return Snapshot{}, ErrTimeout
	}
}

// IsComplete reports whether the resolution has settled, without blocking.
func (r *Resolution) IsComplete() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

package runtime

import "sync"

// dispatcher serializes every mutation of a shadow tree. A unit submitted
// while another unit is running (a re-entrant change raised from a callback,
// or a poller or timer goroutine) is queued and run by the draining caller as
// soon as the current unit completes.
type dispatcher struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
}

// Do runs fn now, or queues it when a drain is already in progress.
func (d *dispatcher) Do(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()
	d.drain()
}

// drain runs queued units until the queue is empty. When a unit panics, the
// units queued behind it are handed to a new draining goroutine before the
// panic propagates, so no unit (and no Wait on it) is left stranded.
func (d *dispatcher) drain() {
	completed := false
	defer func() {
		if completed {
			return
		}
		d.mu.Lock()
		handoff := len(d.queue) > 0
		if !handoff {
			d.draining = false
		}
		d.mu.Unlock()
		if handoff {
			go d.drain()
		}
	}()

	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			completed = true
			return
		}
		next := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()
		next()
	}
}

// Wait runs fn through the queue and returns once it has completed.
// It must not be called from inside a unit: that would wait on itself.
func (d *dispatcher) Wait(fn func()) {
	done := make(chan struct{})
	d.Do(func() {
		defer close(done)
		fn()
	})
	<-done
}

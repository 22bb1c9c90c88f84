package runtime

import (
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/tree"
)

// pendingEntry holds the last known parent and the reference count.
type pendingEntry struct {
	parent *tree.Node
	refs   int
}

// pendingRemovals remembers the parent of a node between the two phases of
// its removal, because the post-phase arrives with the parent link cleared.
// Entries are reference counted; the whole registry is purged after a quiet
// period with no recorded removal.
type pendingRemovals struct {
	mu      sync.Mutex
	entries map[*tree.Node]*pendingEntry
	quiet   time.Duration
	timer   *time.Timer

	// schedule runs the sweep on the engine's dispatch queue.
	schedule func(func())
	// onSize reports the registry size after each change.
	onSize func(int)
}

func newPendingRemovals(quiet time.Duration, schedule func(func()), onSize func(int)) *pendingRemovals {
	return &pendingRemovals{
		entries:  make(map[*tree.Node]*pendingEntry),
		quiet:    quiet,
		schedule: schedule,
		onSize:   onSize,
	}
}

// record stores the parent of n and increments its reference count.
// Every record restarts the idle sweep.
func (r *pendingRemovals) record(n, parent *tree.Node) {
	r.mu.Lock()
	entry, exists := r.entries[n]
	if !exists {
		entry = &pendingEntry{}
		r.entries[n] = entry
	}
	entry.parent = parent
	entry.refs++
	size := len(r.entries)
	r.restart()
	r.mu.Unlock()
	r.report(size)
}

// resolve returns the recorded parent of n and decrements its reference
// count, deleting the entry when it reaches zero.
func (r *pendingRemovals) resolve(n *tree.Node) (*tree.Node, bool) {
	r.mu.Lock()
	entry, exists := r.entries[n]
	if !exists {
		r.mu.Unlock()
		return nil, false
	}
	parent := entry.parent
	entry.refs--
	if entry.refs <= 0 {
		delete(r.entries, n)
	}
	size := len(r.entries)
	r.mu.Unlock()
	r.report(size)
	return parent, true
}

// purge drops every entry.
func (r *pendingRemovals) purge() {
	r.mu.Lock()
	clear(r.entries)
	r.mu.Unlock()
	r.report(0)
}

func (r *pendingRemovals) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// stop cancels a scheduled sweep.
func (r *pendingRemovals) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// restart must be called with r.mu held.
func (r *pendingRemovals) restart() {
	if r.timer != nil {
		r.timer.Reset(r.quiet)
		return
	}
	r.timer = time.AfterFunc(r.quiet, func() {
		r.schedule(r.purge)
	})
}

func (r *pendingRemovals) report(size int) {
	if r.onSize != nil {
		r.onSize(size)
	}
}

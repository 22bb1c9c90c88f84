package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingRemovals_RefCounting(t *testing.T) {
	var sizes []int
	r := newPendingRemovals(time.Hour, func(fn func()) { fn() }, func(n int) { sizes = append(sizes, n) })
	defer r.stop()

	parent, child := tree.New("model"), tree.New("member")
	r.record(child, parent)
	r.record(child, parent)
	assert.Equal(t, 1, r.len())

	got, ok := r.resolve(child)
	require.True(t, ok)
	assert.Same(t, parent, got)
	assert.Equal(t, 1, r.len(), "one reference left")

	_, ok = r.resolve(child)
	assert.True(t, ok)
	_, ok = r.resolve(child)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 1, 1, 0}, sizes)
}

func TestPendingRemovals_IdleSweep(t *testing.T) {
	var mu sync.Mutex
	swept := 0
	r := newPendingRemovals(10*time.Millisecond, func(fn func()) {
		fn()
		mu.Lock()
		swept++
		mu.Unlock()
	}, nil)
	defer r.stop()

	r.record(tree.New("model"), tree.New("model"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return swept == 1
	}, time.Second, time.Millisecond)
	assert.Zero(t, r.len())
}

func TestDispatcher_Reentrancy(t *testing.T) {
	var d dispatcher
	var order []string

	d.Do(func() {
		order = append(order, "outer:start")
		d.Do(func() {
			order = append(order, "inner")
		})
		order = append(order, "outer:end")
	})

	assert.Equal(t, []string{"outer:start", "outer:end", "inner"}, order)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	var d dispatcher
	assert.Panics(t, func() {
		d.Do(func() { panic("boom") })
	})

	ran := false
	d.Do(func() { ran = true })
	assert.True(t, ran)
}

func TestDispatcher_PanicHandsOffQueuedUnits(t *testing.T) {
	var d dispatcher
	done := make(chan struct{})

	assert.Panics(t, func() {
		d.Do(func() {
			d.Do(func() { close(done) })
			panic("boom")
		})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unit queued behind a panicking unit never ran")
	}

	waited := make(chan struct{})
	go func() {
		d.Wait(func() {})
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("dispatcher left draining after hand-off")
	}
}

func TestEngine_MissedRemovalPhase(t *testing.T) {
	var anomalies []error
	e, err := NewEngine(domain.Callbacks{OnPropertyChanged: func(any, domain.PropertyChangedEvent) {}},
		WithHooks(domain.Hooks{OnAnomaly: func(_ context.Context, ev *domain.AnomalyEvent) {
			anomalies = append(anomalies, ev.Err)
		}}))
	require.NoError(t, err)
	defer e.Close()

	orphan := tree.New(domain.ElementModel)
	e.onTreeEvent(tree.Event{Subject: orphan, Kind: tree.Remove})

	require.Len(t, anomalies, 1)
	assert.ErrorIs(t, anomalies[0], domain.ErrMissedRemovalPhase)
}

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/arbor/pkg/tree"
)

// DefaultSweepQuiet is the idle period after which the pending-removal
// registry is purged.
const DefaultSweepQuiet = time.Minute

// Engine discovers an object graph into a shadow tree and keeps the tree in
// sync with the graph. All tree mutations run on the engine's dispatch queue.
type Engine struct {
	callbacks    domain.Callbacks
	hooks        domain.Hooks
	logger       *slog.Logger
	ctx          context.Context
	pollInterval time.Duration
	sweepQuiet   time.Duration

	queue   dispatcher
	pending *pendingRemovals
	poller  *Poller

	origin      *tree.Node
	stopObserve func()
	closed      atomic.Bool
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(hooks domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithPollInterval sets the deferred-value probing period.
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithSweepQuiet sets the idle period of the pending-removal sweep.
func WithSweepQuiet(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.sweepQuiet = d
		}
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// NewEngine validates the consumer callbacks and creates an unattached engine.
func NewEngine(callbacks domain.Callbacks, opts ...EngineOption) (*Engine, error) {
	if err := callbacks.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		callbacks:    callbacks,
		logger:       logging.NewNop(),
		ctx:          context.Background(),
		pollInterval: DefaultPollInterval,
		sweepQuiet:   DefaultSweepQuiet,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.pending = newPendingRemovals(e.sweepQuiet, e.queue.Do, func(n int) {
		if e.hooks.OnPending != nil {
			e.hooks.OnPending(e.ctx, n)
		}
	})
	e.poller = NewPoller(e.pollInterval,
		WithPollerLogger(e.logger),
		WithPollerSizeReporter(func(n int) {
			if e.hooks.OnWatching != nil {
				e.hooks.OnWatching(e.ctx, n)
			}
		}),
	)
	return e, nil
}

// Attach discovers root into a new origin node and starts observing the
// resulting tree. An engine attaches exactly one root.
func (e *Engine) Attach(root any) (*tree.Node, error) {
	if probe.IsAbsent(root) {
		return nil, domain.ErrNilRoot
	}
	if e.closed.Load() {
		return nil, domain.ErrEngineClosed
	}

	var err error
	attached := false
	e.queue.Wait(func() {
		if e.origin != nil {
			attached = true
			return
		}
		origin := tree.New(domain.ElementModel)
		origin.SetBoundAttr(domain.AttrRootConfig, e.callbacks, "[RootConfig]")
		e.origin = origin
		if err = e.discover(root, origin); err != nil {
			return
		}
		e.stopObserve = origin.Observe(e.onTreeEvent)
	})
	if attached {
		return nil, fmt.Errorf("engine already attached to %s", shadow.Path(e.origin))
	}
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("attach %s: %w", probe.TypeName(reflect.TypeOf(root)), err)
	}

	e.logger.Debug("Engine attached", "origin", shadow.Path(e.origin))
	return e.origin, nil
}

// Root returns the origin node, or nil before Attach.
func (e *Engine) Root() *tree.Node {
	return e.origin
}

// Discover re-runs discovery of instance on node. Existing subscriptions for
// the same instance are kept.
func (e *Engine) Discover(instance any, node *tree.Node) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}
	var err error
	e.queue.Wait(func() {
		err = e.discover(instance, node)
	})
	return err
}

// Refresh rebuilds node for value without touching its siblings or ancestors.
func (e *Engine) Refresh(node *tree.Node, value any) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}
	var err error
	e.queue.Wait(func() {
		err = e.refresh(node, value)
	})
	return err
}

// Inspect runs fn with the origin node once every queued change has been
// applied. It must not be called from inside a callback.
func (e *Engine) Inspect(fn func(origin *tree.Node)) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}
	e.queue.Wait(func() {
		fn(e.origin)
	})
	return nil
}

// Apply runs fn on the dispatch queue. Changes raised by fn are handled after
// it returns and never interleave with another unit, so a single writer can
// mutate the observed graph while other goroutines inspect the tree. It must
// not be called from inside a callback.
func (e *Engine) Apply(fn func()) error {
	if e.closed.Load() {
		return domain.ErrEngineClosed
	}
	e.queue.Wait(fn)
	return nil
}

// PendingRemovals returns the size of the pending-removal registry.
func (e *Engine) PendingRemovals() int {
	return e.pending.len()
}

// Watching returns the number of live deferred-value poll loops.
func (e *Engine) Watching() int {
	return e.poller.Active()
}

// Settle waits until every watched deferred value has materialized and its
// refresh has been applied, or ctx is done.
func (e *Engine) Settle(ctx context.Context) error {
	if err := e.poller.Idle(ctx); err != nil {
		return err
	}
	return e.Inspect(func(*tree.Node) {})
}

// Close revokes every subscription, stops the poller and the sweep timer.
// Notifications still queued are dropped. It must not be called from inside
// a callback.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.queue.Wait(func() {
		if e.stopObserve != nil {
			e.stopObserve()
			e.stopObserve = nil
		}
		if e.origin != nil {
			e.revokeSubtree(e.origin)
		}
	})
	e.poller.Close()
	e.pending.stop()
	e.logger.Debug("Engine closed")
}

func (e *Engine) anomaly(level slog.Level, n *tree.Node, err error) {
	e.logger.Log(e.ctx, level, "Shadow tree anomaly", "error", err, "node", shadow.Path(n))
	if e.hooks.OnAnomaly != nil {
		e.hooks.OnAnomaly(e.ctx, &domain.AnomalyEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAnomaly},
			Err:       err,
			Node:      n,
		})
	}
}

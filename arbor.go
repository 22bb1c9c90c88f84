package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/probe"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/aretw0/arbor/pkg/tree"
)

// Engine is the high-level entry point of the library. It owns the shadow
// tree of one root instance and the subscriptions that keep it in sync.
type Engine struct {
	runtime  *runtime.Engine
	instance any
	metrics  *observability.Metrics
	logger   *slog.Logger
}

type settings struct {
	callbacks    domain.Callbacks
	logger       *slog.Logger
	hooks        domain.Hooks
	metrics      *observability.Metrics
	pollInterval time.Duration
	sweepQuiet   time.Duration
	config       *config.Config
}

// Option defines a functional option for configuring the Engine.
type Option func(*settings)

// WithCollectionChanged registers the collection-changed callback.
func WithCollectionChanged(fn domain.CollectionChangedFunc) Option {
	return func(s *settings) {
		s.callbacks.OnCollectionChanged = fn
	}
}

// WithStructuralChange registers a callback receiving both phases of every
// shadow tree change.
func WithStructuralChange(fn domain.StructuralChangeFunc) Option {
	return func(s *settings) {
		s.callbacks.OnStructuralChange = fn
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *settings) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithPollInterval sets how often deferred values are probed.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) {
		s.pollInterval = d
	}
}

// WithSweepQuiet sets the idle period after which pending removals are purged.
func WithSweepQuiet(d time.Duration) Option {
	return func(s *settings) {
		s.sweepQuiet = d
	}
}

// WithConfig applies file or map based settings. Explicit options win over
// the configuration regardless of their order.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.config = cfg
	}
}

func (s *settings) resolve() error {
	cfg := s.config
	if cfg == nil {
		return nil
	}
	if s.pollInterval == 0 {
		s.pollInterval = cfg.PollInterval
	}
	if s.sweepQuiet == 0 {
		s.sweepQuiet = cfg.SweepQuiet
	}
	if s.logger == nil && cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		s.logger = logging.New(level)
	}
	if s.metrics == nil && cfg.Metrics.Enabled {
		s.metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}
	return nil
}

// Attach discovers root into a shadow tree and starts forwarding its changes
// to onPropertyChanged.
func Attach(root any, onPropertyChanged domain.PropertyChangedFunc, opts ...Option) (*Engine, error) {
	s := &settings{}
	s.callbacks.OnPropertyChanged = onPropertyChanged
	for _, opt := range opts {
		opt(s)
	}
	if err := s.resolve(); err != nil {
		return nil, err
	}
	if probe.IsAbsent(root) {
		return nil, domain.ErrNilRoot
	}

	logger := s.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With("origin", probe.TypeName(reflect.TypeOf(root)))

	rtOpts := []runtime.EngineOption{
		runtime.WithLogger(logger),
		runtime.WithHooks(s.metrics.Hooks()),
		runtime.WithHooks(s.hooks),
		runtime.WithPollInterval(s.pollInterval),
		runtime.WithSweepQuiet(s.sweepQuiet),
	}
	rt, err := runtime.NewEngine(s.callbacks, rtOpts...)
	if err != nil {
		return nil, err
	}
	if _, err := rt.Attach(root); err != nil {
		return nil, err
	}

	return &Engine{
		runtime:  rt,
		instance: root,
		metrics:  s.metrics,
		logger:   logger,
	}, nil
}

// Observe is the fluent form of Attach for callers that only keep the root
// and its shadow tree. The engine stays alive as long as root holds
// subscriptions; there is no way to close it, so prefer Attach for graphs
// that outlive their observer.
func Observe[T any](root T, onPropertyChanged domain.PropertyChangedFunc, opts ...Option) (T, *tree.Node, error) {
	e, err := Attach(root, onPropertyChanged, opts...)
	if err != nil {
		return root, nil, err
	}
	return root, e.Root(), nil
}

// Root returns the origin node of the shadow tree.
func (e *Engine) Root() *tree.Node {
	return e.runtime.Root()
}

// Instance returns the observed root.
func (e *Engine) Instance() any {
	return e.instance
}

// Metrics returns the collectors fed by this engine, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Inspect runs fn with the origin node once every queued change has been
// applied. It must not be called from inside a callback.
func (e *Engine) Inspect(fn func(origin *tree.Node)) error {
	return e.runtime.Inspect(fn)
}

// Apply runs fn, typically a mutation of the observed graph, on the engine's
// dispatch queue so that it cannot race with Inspect, Render or a deferred
// value refresh. It must not be called from inside a callback.
func (e *Engine) Apply(fn func()) error {
	return e.runtime.Apply(fn)
}

// Render returns the shadow tree in its canonical text form.
func (e *Engine) Render() (string, error) {
	var out string
	err := e.Inspect(func(origin *tree.Node) {
		out = shadow.Render(origin)
	})
	return out, err
}

// Snapshot returns a serializable copy of the shadow tree.
func (e *Engine) Snapshot() (*shadow.NodeSnapshot, error) {
	var snap *shadow.NodeSnapshot
	err := e.Inspect(func(origin *tree.Node) {
		snap = shadow.Snapshot(origin)
	})
	return snap, err
}

// Find returns a snapshot of the node at path, as produced by shadow.Path.
func (e *Engine) Find(path string) (*shadow.NodeSnapshot, bool, error) {
	var snap *shadow.NodeSnapshot
	err := e.Inspect(func(origin *tree.Node) {
		if n, ok := shadow.Find(origin, path); ok {
			snap = shadow.Snapshot(n)
		}
	})
	return snap, snap != nil, err
}

// Settle blocks until no deferred value is left waiting and every resulting
// refresh has been applied, or ctx is done. Deferred values that are never
// realized keep it waiting.
func (e *Engine) Settle(ctx context.Context) error {
	return e.runtime.Settle(ctx)
}

// Close releases every subscription held on the graph.
func (e *Engine) Close() {
	e.runtime.Close()
}

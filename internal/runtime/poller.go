package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/lifecycle"
)

// DefaultPollInterval is the period at which deferred values are probed.
const DefaultPollInterval = 500 * time.Millisecond

// Poller watches deferred values for materialization. There is at most one
// poll loop per key; every waiter registered on a key is notified once when
// the predicate first reports true, unless it was cancelled before.
type Poller struct {
	interval time.Duration
	logger   *slog.Logger
	onSize   func(int)

	mu       sync.Mutex
	proxies  map[any]*proxy
	inflight int
	nextID   int
	closed   bool
	wg       sync.WaitGroup
}

type proxy struct {
	materialized func() bool
	cancel       context.CancelFunc
	waiters      map[int]func()
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets the logger for poll loop events.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollerSizeReporter receives the number of live loops after each change.
func WithPollerSizeReporter(fn func(int)) PollerOption {
	return func(p *Poller) {
		p.onSize = fn
	}
}

// NewPoller creates a poller probing at interval (DefaultPollInterval when zero).
func NewPoller(interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		interval: interval,
		logger:   logging.NewNop(),
		proxies:  make(map[any]*proxy),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch registers notify to run once key materializes. It returns the current
// materialized state and a function cancelling this registration. A key
// that is already being polled reports its state without starting a second
// loop; a key that is already materialized starts nothing.
func (p *Poller) Watch(key any, materialized func() bool, notify func()) (bool, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	px, exists := p.proxies[key]
	if !exists {
		if materialized() {
			return true, func() {}
		}
		if p.closed {
			return false, func() {}
		}
		ctx, cancel := context.WithCancel(context.Background())
		px = &proxy{materialized: materialized, cancel: cancel, waiters: make(map[int]func())}
		p.proxies[key] = px
		p.wg.Add(1)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer p.wg.Done()
			return p.loop(ctx, key, px)
		}, lifecycle.WithErrorHandler(func(err error) {
			p.logger.Error("Poll loop failed", "error", err)
		}))
		p.report()
	}

	p.nextID++
	id := p.nextID
	px.waiters[id] = notify
	return px.materialized(), func() { p.release(key, px, id) }
}

// Cancel stops the loop of key without notifying its waiters.
func (p *Poller) Cancel(key any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if px, ok := p.proxies[key]; ok {
		delete(p.proxies, key)
		px.cancel()
		p.report()
	}
}

// Active returns the number of live poll loops.
func (p *Poller) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Idle blocks until no loop is live and every materialization notice has
// been delivered, or ctx is done.
func (p *Poller) Idle(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.mu.Lock()
		idle := len(p.proxies) == 0 && p.inflight == 0
		p.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close cancels every loop and waits for them to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	for key, px := range p.proxies {
		px.cancel()
		delete(p.proxies, key)
	}
	p.report()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) release(key any, px *proxy, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(px.waiters, id)
	if len(px.waiters) == 0 && p.proxies[key] == px {
		delete(p.proxies, key)
		px.cancel()
		p.report()
	}
}

func (p *Poller) loop(ctx context.Context, key any, px *proxy) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !px.materialized() {
				continue
			}
			waiters := p.finish(key, px)
			if waiters == nil {
				return nil
			}
			defer func() {
				p.mu.Lock()
				p.inflight--
				p.mu.Unlock()
			}()
			for _, notify := range waiters {
				notify()
			}
			return nil
		}
	}
}

// finish detaches px and returns its waiters, or nothing when px was
// cancelled concurrently.
func (p *Poller) finish(key any, px *proxy) []func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proxies[key] != px {
		return nil
	}
	delete(p.proxies, key)
	px.cancel()
	p.report()
	p.inflight++

	waiters := make([]func(), 0, len(px.waiters))
	for _, notify := range px.waiters {
		waiters = append(waiters, notify)
	}
	p.logger.Debug("Deferred value materialized", "waiters", len(waiters))
	return waiters
}

// report must be called with p.mu held.
func (p *Poller) report() {
	if p.onSize != nil {
		p.onSize(len(p.proxies))
	}
}

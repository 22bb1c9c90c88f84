package runtime_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observable"
	"github.com/stretchr/testify/require"
)

type Money struct {
	observable.PropertySource
	Amount int
}

func (m *Money) SetAmount(v int) {
	m.Amount = v
	m.Raise(m, "Amount")
}

type Line struct {
	observable.PropertySource
	SKU   string
	Price *Money
}

func (l *Line) SetPrice(m *Money) {
	l.Price = m
	l.Raise(l, "Price")
}

type Order struct {
	observable.PropertySource
	Lines  *observable.Collection[*Line]
	Note   any
	Secret string `arbor:"-"`
}

func (o *Order) SetNote(v any) {
	o.Note = v
	o.Raise(o, "Note")
}

func newOrder(n int) *Order {
	o := &Order{Lines: observable.NewCollection[*Line]()}
	for i := 0; i < n; i++ {
		o.Lines.Add(&Line{Price: &Money{}})
	}
	return o
}

// recorder collects everything the engine reports.
type recorder struct {
	mu            sync.Mutex
	properties    []domain.PropertyChangedEvent
	collections   []domain.CollectionChangedEvent
	structural    []domain.StructuralChangeEvent
	unsubscribed  []*domain.SubscriptionEvent
	subscribed    []*domain.SubscriptionEvent
	anomalies     []error
	propertyCount atomic.Int32
}

func (r *recorder) callbacks() domain.Callbacks {
	return domain.Callbacks{
		OnPropertyChanged: func(_ any, e domain.PropertyChangedEvent) {
			r.mu.Lock()
			r.properties = append(r.properties, e)
			r.mu.Unlock()
			r.propertyCount.Add(1)
		},
		OnCollectionChanged: func(_ any, e domain.CollectionChangedEvent) {
			r.mu.Lock()
			r.collections = append(r.collections, e)
			r.mu.Unlock()
		},
		OnStructuralChange: func(_ any, e domain.StructuralChangeEvent) {
			r.mu.Lock()
			r.structural = append(r.structural, e)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) hooks() domain.Hooks {
	return domain.Hooks{
		OnSubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			r.mu.Lock()
			r.subscribed = append(r.subscribed, e)
			r.mu.Unlock()
		},
		OnUnsubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			r.mu.Lock()
			r.unsubscribed = append(r.unsubscribed, e)
			r.mu.Unlock()
		},
		OnAnomaly: func(_ context.Context, e *domain.AnomalyEvent) {
			r.mu.Lock()
			r.anomalies = append(r.anomalies, e.Err)
			r.mu.Unlock()
		},
	}
}

// propertyUnsubscribes returns the instances whose property handler was revoked, in order.
func (r *recorder) propertyUnsubscribes() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.unsubscribed {
		if e.Kind == domain.PropertySubscription {
			out = append(out, e.Instance)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties = nil
	r.collections = nil
	r.structural = nil
	r.unsubscribed = nil
	r.subscribed = nil
	r.anomalies = nil
	r.propertyCount.Store(0)
}

func attach(t *testing.T, root any, rec *recorder, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	opts = append([]runtime.EngineOption{
		runtime.WithHooks(rec.hooks()),
		runtime.WithPollInterval(5 * time.Millisecond),
	}, opts...)
	engine, err := runtime.NewEngine(rec.callbacks(), opts...)
	require.NoError(t, err)
	_, err = engine.Attach(root)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

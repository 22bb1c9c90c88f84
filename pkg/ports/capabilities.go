package ports

import (
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
)

// Unsubscribe revokes a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// PropertyChangedHandler receives property notifications from one observed object.
type PropertyChangedHandler func(sender any, e domain.PropertyChangedArgs)

// CollectionChangedHandler receives collection notifications from one observed collection.
type CollectionChangedHandler func(sender any, e domain.CollectionChangedArgs)

// PropertyNotifier is implemented by objects that announce property changes.
type PropertyNotifier interface {
	SubscribePropertyChanged(h PropertyChangedHandler) Unsubscribe
}

// CollectionNotifier is implemented by collections that announce membership changes.
type CollectionNotifier interface {
	SubscribeCollectionChanged(h CollectionChangedHandler) Unsubscribe
}

// Collection is an ordered collection whose elements are mirrored as children.
type Collection interface {
	Len() int
	At(i int) any
}

// Deferred is a lazily computed slot. IsMaterialized must not force the value
// and must be safe to call from another goroutine.
type Deferred interface {
	IsMaterialized() bool
	Materialize() any
}

// PropertySpec is one entry of an explicit property table.
type PropertySpec struct {
	Name string
	// Type is the declared type. Nil means the runtime type of the value.
	Type reflect.Type
	// Get returns the current value. It is not called while WaitFor reports false.
	Get func() any
	// WaitFor names a sibling predicate (a func() bool method or a bool field)
	// that reports whether Get may be called without forcing a value into existence.
	WaitFor string
	// Exclude keeps the entry out of the shadow tree.
	Exclude bool
}

// PropertyLister is implemented by objects that declare their properties
// explicitly instead of relying on struct field reflection.
type PropertyLister interface {
	ShadowProperties() []PropertySpec
}

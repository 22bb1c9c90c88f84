package ports

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPropertyNotifierContract verifies that a PropertyNotifier implementation
// adheres to the interface contract. trigger must cause subject to raise a
// change for property.
func RunPropertyNotifierContract(t *testing.T, subject PropertyNotifier, property string, trigger func()) {
	t.Run("Subscribe receives changes", func(t *testing.T) {
		var got []domain.PropertyChangedArgs
		var senders []any
		unsubscribe := subject.SubscribePropertyChanged(func(sender any, e domain.PropertyChangedArgs) {
			senders = append(senders, sender)
			got = append(got, e)
		})
		defer unsubscribe()

		trigger()

		require.NotEmpty(t, got, "handler should be invoked")
		assert.Equal(t, property, got[len(got)-1].PropertyName)
		assert.Same(t, subject, senders[len(senders)-1], "sender should be the notifier itself")
	})

	t.Run("Unsubscribe stops delivery", func(t *testing.T) {
		calls := 0
		unsubscribe := subject.SubscribePropertyChanged(func(any, domain.PropertyChangedArgs) { calls++ })
		unsubscribe()
		trigger()
		assert.Zero(t, calls)
	})

	t.Run("Unsubscribe is idempotent", func(t *testing.T) {
		first, second := 0, 0
		unsubscribeFirst := subject.SubscribePropertyChanged(func(any, domain.PropertyChangedArgs) { first++ })
		unsubscribeSecond := subject.SubscribePropertyChanged(func(any, domain.PropertyChangedArgs) { second++ })
		defer unsubscribeSecond()

		unsubscribeFirst()
		unsubscribeFirst()
		trigger()

		assert.Zero(t, first)
		assert.NotZero(t, second, "revoking one handler twice must not revoke another")
	})
}

// RunCollectionNotifierContract verifies that a CollectionNotifier
// implementation adheres to the interface contract. mutate must cause subject
// to raise at least one collection change.
func RunCollectionNotifierContract(t *testing.T, subject CollectionNotifier, mutate func()) {
	t.Run("Subscribe receives changes", func(t *testing.T) {
		var got []domain.CollectionChangedArgs
		unsubscribe := subject.SubscribeCollectionChanged(func(sender any, e domain.CollectionChangedArgs) {
			assert.Same(t, subject, sender, "sender should be the collection itself")
			got = append(got, e)
		})
		defer unsubscribe()

		mutate()

		require.NotEmpty(t, got)
		for _, e := range got {
			switch e.Action {
			case domain.ActionAdd:
				assert.NotEmpty(t, e.NewItems, "add must carry new items")
			case domain.ActionRemove:
				assert.NotEmpty(t, e.OldItems, "remove must carry old items")
			case domain.ActionReplace:
				assert.NotEmpty(t, e.NewItems)
				assert.NotEmpty(t, e.OldItems)
			}
		}
	})

	t.Run("Unsubscribe stops delivery", func(t *testing.T) {
		calls := 0
		unsubscribe := subject.SubscribeCollectionChanged(func(any, domain.CollectionChangedArgs) { calls++ })
		unsubscribe()
		unsubscribe()
		mutate()
		assert.Zero(t, calls)
	})
}

package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "", domain.Status(0).String())
	assert.Equal(t, "NoObservableMembers", domain.NoObservableMembers.String())

	both := domain.PropertyChangeSource | domain.CollectionChangeSource
	assert.Equal(t, "PropertyChangeSource|CollectionChangeSource", both.String())
	assert.Equal(t, both, domain.ParseStatus(both.String()))

	assert.True(t, both.Has(domain.CollectionChangeSource))
	assert.False(t, both.Has(domain.WaitingForValue))
	assert.False(t, both.Has(0))
}

func TestCallbacks_Validate(t *testing.T) {
	onPC := func(any, domain.PropertyChangedEvent) {}
	onCC := func(any, domain.CollectionChangedEvent) {}

	assert.ErrorIs(t, domain.Callbacks{}.Validate(), domain.ErrNoCallbacks)
	assert.ErrorIs(t, domain.Callbacks{OnCollectionChanged: onCC}.Validate(), domain.ErrPropertyCallbackRequired)
	assert.NoError(t, domain.Callbacks{OnPropertyChanged: onPC}.Validate())
	assert.NoError(t, domain.Callbacks{OnPropertyChanged: onPC, OnCollectionChanged: onCC}.Validate())
}

func TestAttrRank(t *testing.T) {
	assert.Less(t, domain.AttrRank(domain.AttrName), domain.AttrRank(domain.AttrStatus))
	assert.Less(t, domain.AttrRank(domain.AttrStatus), domain.AttrRank(domain.AttrProperty))
	assert.Less(t, domain.AttrRank(domain.AttrRuntimeType), domain.AttrRank(domain.AttrOnPC))
	assert.Less(t, domain.AttrRank(domain.AttrRootConfig), domain.AttrRank("custom"))
}

func TestHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.Hooks{OnRefresh: func(context.Context, *domain.RefreshEvent) { calls = append(calls, "a") }}
	b := domain.Hooks{
		OnRefresh: func(context.Context, *domain.RefreshEvent) { calls = append(calls, "b") },
		OnPending: func(context.Context, int) { calls = append(calls, "pending") },
	}

	merged := a.Merge(b)
	merged.OnRefresh(context.Background(), &domain.RefreshEvent{})
	merged.OnPending(context.Background(), 1)

	assert.Equal(t, []string{"a", "b", "pending"}, calls)
	assert.Nil(t, merged.OnAnomaly)
}

func TestDocComments(t *testing.T) {
	testutils.AssertDocumented(t, ".")
}

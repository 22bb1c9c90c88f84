package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/arbor/pkg/shadow"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelay(t *testing.T, opts ...redis.Option) (*redis.Relay, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	relay := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { relay.Close() })
	return relay, mr
}

func receive(t *testing.T, ch <-chan notify.Notification) notify.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return notify.Notification{}
	}
}

func TestRelay_PublishSubscribe(t *testing.T) {
	relay, _ := newRelay(t, redis.WithChannel("shop:events"))
	assert.Equal(t, "shop:events", relay.Channel())

	ctx := context.Background()
	ch, cancel, err := relay.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	err = relay.Publish(ctx, notify.Notification{Kind: notify.KindProperty, Path: "(Origin)Order/Total", Property: "Total"})
	require.NoError(t, err)

	n := receive(t, ch)
	assert.Equal(t, notify.KindProperty, n.Kind)
	assert.Equal(t, "(Origin)Order/Total", n.Path)
	assert.Equal(t, "Total", n.Property)
}

func TestRelay_Forward(t *testing.T) {
	relay, _ := newRelay(t)
	hub := notify.NewHub()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ch, cancel, err := relay.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		relay.Forward(ctx, hub)
		close(done)
	}()
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(notify.Notification{Kind: notify.KindCollection, Action: "add", Path: "(Origin)Order/Lines"})
	n := receive(t, ch)
	assert.Equal(t, "add", n.Action)

	stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after cancellation")
	}
}

func TestRelay_Snapshot(t *testing.T) {
	relay, mr := newRelay(t, redis.WithPrefix("shop:"), redis.WithTTL(time.Minute))
	ctx := context.Background()

	_, ok, err := relay.LoadSnapshot(ctx, "order")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := &shadow.NodeSnapshot{Element: "model", Name: "(Origin)Order", Path: "(Origin)Order", Status: "PropertyChangeSource"}
	require.NoError(t, relay.SaveSnapshot(ctx, "order", snap))
	assert.True(t, mr.Exists("shop:snapshot:order"))

	got, ok, err := relay.LoadSnapshot(ctx, "order")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = relay.LoadSnapshot(ctx, "order")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocComments(t *testing.T) {
	testutils.AssertDocumented(t, ".")
}

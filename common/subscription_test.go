package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster[int]()
	one, err := b.NewSubscription()
	require.NoError(t, err)
	two, err := b.NewSubscription()
	require.NoError(t, err)
	assert.NotEqual(t, one.ID(), two.ID())
	assert.Equal(t, 2, b.Len())

	b.Publish(1)
	b.Publish(2)
	assert.Equal(t, 1, receive(t, one))
	assert.Equal(t, 2, receive(t, one))
	assert.Equal(t, 1, receive(t, two))
	assert.Equal(t, 2, receive(t, two))
}

func TestBehaviorReplaysCurrentValue(t *testing.T) {
	b := NewBehavior(false)
	assert.False(t, b.Value())

	early, err := b.NewSubscription()
	require.NoError(t, err)
	assert.False(t, receive(t, early))

	b.Publish(true)
	assert.True(t, b.Value())
	assert.True(t, receive(t, early))

	late, err := b.NewSubscription()
	require.NoError(t, err)
	assert.True(t, receive(t, late))
}

func TestSubscriptionClose(t *testing.T) {
	b := NewBroadcaster[string]()
	sub, err := b.NewSubscription()
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, b.Len())
	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, ErrClosed, sub.Close())
	assert.Equal(t, ErrClosed, sub.Write(`late`))

	// Publishing with no subscribers is a noop
	b.Publish(`nobody`)
}

func TestBroadcasterClose(t *testing.T) {
	b := NewBroadcaster[string]()
	sub, err := b.NewSubscription()
	require.NoError(t, err)

	b.Close()
	_, ok := <-sub.Events()
	assert.False(t, ok)
	_, err = b.NewSubscription()
	assert.Equal(t, ErrClosed, err)
}

func TestFilterPreservesOrder(t *testing.T) {
	b := NewBroadcaster[StateChange]()
	src, err := b.NewSubscription()
	require.NoError(t, err)

	filtered := Filter(src,
		func(ev StateChange) bool { return ev.ID == `x` },
		func(ev StateChange) *State { return ev.State },
	)

	events := []StateChange{
		{ID: `x`, State: &State{Val: 1.0}},
		{ID: `y`, State: &State{Val: 2.0}},
		{ID: `x`, State: nil},
		{ID: `xy`, State: &State{Val: 4.0}},
		{ID: `x`, State: &State{Val: 5.0}},
	}
	for _, ev := range events {
		b.Publish(ev)
	}

	assert.Equal(t, 1.0, receive(t, filtered).Val)
	assert.Nil(t, receive(t, filtered))
	assert.Equal(t, 5.0, receive(t, filtered).Val)

	select {
	case ev := <-filtered.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFilterClose(t *testing.T) {
	b := NewBroadcaster[int]()
	src, err := b.NewSubscription()
	require.NoError(t, err)
	filtered := Filter(src, func(int) bool { return true }, func(i int) int { return i })

	require.NoError(t, filtered.Close())
	assert.Equal(t, 0, b.Len())
	_, ok := <-src.Events()
	assert.False(t, ok)
}

func TestFilterClosesWithSource(t *testing.T) {
	b := NewBroadcaster[int]()
	src, err := b.NewSubscription()
	require.NoError(t, err)
	filtered := Filter(src, func(int) bool { return true }, func(i int) int { return i })

	b.Close()
	select {
	case _, ok := <-filtered.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("filtered subscription not closed")
	}
}

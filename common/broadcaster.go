package common

import "sync"

// Broadcaster fans events out to any number of subscriptions.  A broadcaster
// created with NewBehavior also remembers the last published value and
// replays it to every new subscription.
type Broadcaster[T any] struct {
	subscriptions map[string]*Subscription[T]
	replay        bool
	last          T
	closed        bool
	sync.RWMutex
}

// NewBroadcaster returns a broadcaster that only delivers events published
// after a subscription was created
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subscriptions: make(map[string]*Subscription[T])}
}

// NewBehavior returns a broadcaster holding a current value, starting with
// initial
func NewBehavior[T any](initial T) *Broadcaster[T] {
	b := NewBroadcaster[T]()
	b.replay = true
	b.last = initial
	return b
}

// NewSubscription returns a new *Subscription for receiving events from this
// broadcaster
func (b *Broadcaster[T]) NewSubscription() (*Subscription[T], error) {
	b.Lock()
	defer b.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := NewSubscription[T](b)
	if b.replay {
		// Fresh buffer, never blocks
		sub.events <- b.last
	}
	b.subscriptions[sub.ID()] = sub
	return sub, nil
}

// CloseSubscription is a callback for handling the closing of subscriptions.
func (b *Broadcaster[T]) CloseSubscription(id string) error {
	b.Lock()
	defer b.Unlock()
	if _, ok := b.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(b.subscriptions, id)
	return nil
}

// Value returns the last published value
func (b *Broadcaster[T]) Value() T {
	b.RLock()
	defer b.RUnlock()
	return b.last
}

// Publish pushes event to every subscription.  A subscriber that does not
// drain its channel within DefaultTimeout misses the event.
func (b *Broadcaster[T]) Publish(event T) {
	b.Lock()
	if b.closed {
		b.Unlock()
		return
	}
	b.last = event
	subs := make([]*Subscription[T], 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.Unlock()

	for _, sub := range subs {
		if err := sub.Write(event); err != nil && err != ErrClosed {
			Log.Warnf("Failed publishing to subscription %s: %v", sub.ID(), err)
		}
	}
}

// Len returns the number of open subscriptions
func (b *Broadcaster[T]) Len() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.subscriptions)
}

// Close closes every subscription; no further subscriptions can be created
func (b *Broadcaster[T]) Close() {
	b.Lock()
	b.closed = true
	subs := b.subscriptions
	b.subscriptions = make(map[string]*Subscription[T])
	b.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

package common

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

const subscriptionChanSize = 16

// SubscriptionTarget defines the interface between a subscription and its
// target object
type SubscriptionTarget interface {
	CloseSubscription(id string) error
}

// Subscription exposes an event channel for consumers, and attaches to a
// SubscriptionTarget, that will feed it with events
type Subscription[T any] struct {
	events   chan T
	quitChan chan struct{}
	quitOnce sync.Once
	id       uuid.UUID
	target   SubscriptionTarget
	mu       sync.RWMutex
}

// ID returns the unique ID for this subscription
func (s *Subscription[T]) ID() string {
	return s.id.String()
}

// Events returns a chan reader for reading events published to this
// subscription.  The channel is closed when the subscription is closed.
func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Write pushes an event onto the events channel
func (s *Subscription[T]) Write(event T) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	select {
	case <-s.quitChan:
		return ErrClosed
	default:
	}

	timeout := time.NewTimer(DefaultTimeout)
	defer timeout.Stop()
	select {
	case <-s.quitChan:
		return ErrClosed
	case s.events <- event:
		return nil
	case <-timeout.C:
		return ErrTimeout
	}
}

// Close cleans up resources and notifies the target that the subscription
// should no longer be used.  It is important to close subscriptions when you
// are done with them to avoid blocking operations.
func (s *Subscription[T]) Close() error {
	if !s.shutdown() {
		Log.Warnf(`subscription already closed`)
		return ErrClosed
	}
	if s.target == nil {
		return nil
	}
	return s.target.CloseSubscription(s.ID())
}

// shutdown closes the channels without notifying the target, and reports
// whether this call did the closing
func (s *Subscription[T]) shutdown() bool {
	closed := false
	s.quitOnce.Do(func() {
		close(s.quitChan)
		closed = true
	})
	if !closed {
		return false
	}
	// Writers hold the read lock while blocked, and are released by quitChan
	s.mu.Lock()
	close(s.events)
	s.mu.Unlock()
	return true
}

// NewSubscription returns a *Subscription attached to the specified target
func NewSubscription[T any](target SubscriptionTarget) *Subscription[T] {
	return &Subscription[T]{
		events:   make(chan T, subscriptionChanSize),
		quitChan: make(chan struct{}),
		id:       uuid.NewV4(),
		target:   target,
	}
}

// Filter returns a subscription receiving the events of src accepted by keep,
// converted by project.  Relative order is preserved.  Closing the returned
// subscription closes src, and closing src closes the returned subscription.
func Filter[T, U any](src *Subscription[T], keep func(T) bool, project func(T) U) *Subscription[U] {
	dst := NewSubscription[U](sourceCloser[T]{src: src})
	go func() {
		for event := range src.Events() {
			if !keep(event) {
				continue
			}
			switch err := dst.Write(project(event)); err {
			case nil:
			case ErrClosed:
				return
			default:
				Log.Warnf("Dropped filtered event on subscription %s: %v", dst.ID(), err)
			}
		}
		dst.shutdown()
	}()
	return dst
}

type sourceCloser[T any] struct {
	src *Subscription[T]
}

func (c sourceCloser[T]) CloseSubscription(string) error {
	if !c.src.shutdown() {
		return nil
	}
	if c.src.target == nil {
		return nil
	}
	return c.src.target.CloseSubscription(c.src.ID())
}

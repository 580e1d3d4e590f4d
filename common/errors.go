package common

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout is the default duration after which operations time out
	DefaultTimeout = 2 * time.Second
	// DefaultBootstrapTimeout is how long a Client waits for the transport
	// readiness signal before giving up
	DefaultBootstrapTimeout = 3000 * time.Millisecond
	// DefaultReconnectInterval is the delay between reconnect attempts of a
	// transport that lost its connection
	DefaultReconnectInterval = 5 * time.Second
	// DefaultHistoryAdapter is the history instance used when neither the
	// call nor the configuration name one
	DefaultHistoryAdapter = `history.0`
)

var (
	// ErrNotFound not found
	ErrNotFound = errors.New(`not found`)
	// ErrClosed connection closed
	ErrClosed = errors.New(`connection closed`)
	// ErrTimeout timed out
	ErrTimeout = errors.New(`timed out`)
	// ErrNotReady is returned for calls issued before the transport reported
	// ready
	ErrNotReady = errors.New(`connection not ready`)
	// ErrNotConnected is returned by a transport asked to send while it has
	// no live connection
	ErrNotConnected = errors.New(`not connected`)
)

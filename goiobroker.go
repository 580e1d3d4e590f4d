// Copyright 2015 Peter Fern
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file

// Package goiobroker provides a simple Go interface to the socket API of an
// ioBroker automation server.
//
// A Client tracks the connection state, republishes object and state changes
// as subscriptions, and forwards requests to the server.  The wire protocol
// lives behind common.Transport; the protocol package provides the Socket.IO
// transport spoken by the web and socketio adapters.
//
// Also included in cmd/iobroker is a small CLI utility that allows reading and
// writing states and objects of an ioBroker installation.
package goiobroker

import (
	"github.com/pdf/goiobroker/common"
)

const (
	// VERSION of this library
	VERSION = `0.1.0`
)

// Option customises a Client created by NewClient
type Option func(*Client)

// WithNameGenerator replaces the generator used for the client name when the
// configuration does not set one
func WithNameGenerator(gen common.NameGenerator) Option {
	return func(c *Client) {
		c.nameGenerator = gen
	}
}

// NewClient returns a pointer to a new Client and any error found in cfg,
// using the transport t.  The transport is bootstrapped in the background:
// with cfg.AutoConnect the client opens it, then waits up to
// cfg.BootstrapTimeout for the transport to become ready.  A failed bootstrap
// is logged and leaves the client disconnected.
func NewClient(cfg common.Config, t common.Transport, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := newClient(cfg.WithDefaults(), t)
	for _, opt := range opts {
		opt(c)
	}
	c.connectOptions = common.BuildConnectOptions(c.config, c.nameGenerator)
	t.SetClient(c)
	go c.bootstrap()
	return c, nil
}

// SetLogger allows assigning a custom levelled logger that conforms to the
// common.Logger interface.  To capture logs generated during client creation,
// this should be called before creating a Client. Defaults to
// common.StubLogger, which does no logging at all.
func SetLogger(logger common.Logger) {
	common.SetLogger(logger)
}

package common

import "context"

// ConnectOptions describes the session a transport should open
type ConnectOptions struct {
	// Name identifies the client to the server
	Name string
	// URL is scheme://host:port/?query of the server, where the query carries
	// the credentials and the Engine.IO parameters
	URL string
}

// Transport defines the interface between the Client and a connection to an
// ioBroker server
type Transport interface {
	// SetClient sets the client on the transport for bi-directional
	// communication.  Called once, before Open.
	SetClient(client Client)
	// Open starts the session described by opts.  It returns once the session
	// has been started; progress is reported to the client.
	Open(ctx context.Context, opts ConnectOptions) error
	// Ready is closed once the transport is able to talk to the server
	Ready() <-chan struct{}
	// Close closes the transport, no further communication is possible
	Close() error

	// SubscribeObject registers handler for changes of objects matching
	// pattern
	SubscribeObject(ctx context.Context, pattern string, handler ObjectHandler) error
	// SubscribeState registers handler for changes of states matching pattern
	SubscribeState(ctx context.Context, pattern string, handler StateHandler) error

	GetObject(ctx context.Context, id string) (*Object, error)
	GetObjects(ctx context.Context) (map[string]*Object, error)
	GetState(ctx context.Context, id string) (*State, error)
	// GetStates returns the states matching any of patterns, or all states
	// when none are given
	GetStates(ctx context.Context, patterns ...string) (map[string]*State, error)
	SetState(ctx context.Context, id string, val StateValue, ack bool) error
	// GetEnums returns the enums below enum.<name>, or all enums for an empty
	// name
	GetEnums(ctx context.Context, name string) (map[string]*Object, error)
	GetGroups(ctx context.Context) ([]*Object, error)
	GetSystemConfig(ctx context.Context) (*SystemConfig, error)
	GetCompactSystemConfig(ctx context.Context) (*SystemConfig, error)
	GetHistory(ctx context.Context, id string, opts GetHistoryOptions) (*GetHistoryResult, error)
	// SendTo sends command with data to an adapter instance, decoding the
	// reply into result unless result is nil
	SendTo(ctx context.Context, instance, command string, data interface{}, result interface{}) error
	// Log writes text to the ioBroker log
	Log(ctx context.Context, text string, level LogLevel) error
}

package common

// Client defines the interface required by transports to report the
// connection lifecycle and pushed changes
type Client interface {
	// OnConnectionChange is called whenever the transport connects or
	// disconnects
	OnConnectionChange(connected bool)
	// OnProgress is called for every lifecycle stage the transport reaches
	OnProgress(progress Progress)
	// OnReady is called when the connection is ready to serve requests, with
	// the objects loaded during connection setup
	OnReady(objects map[string]*Object)
	// OnObjectChange is called for every object change the server pushes
	OnObjectChange(id string, obj *Object)
}

// ObjectHandler receives the changes of subscribed objects
type ObjectHandler func(id string, obj *Object)

// StateHandler receives the changes of subscribed states
type StateHandler func(id string, state *State)

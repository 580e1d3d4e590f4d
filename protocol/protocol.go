// Package protocol implements transports to the ioBroker socket API.
//
// This package is not designed to used directly by end users, other than to
// construct a transport when creating a new Client from the goiobroker
// package.
//
// The currently implemented transports are:
//
//	SocketIO, for the web and socketio adapters (Socket.IO v2 over websocket)
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pdf/goiobroker/common"
)

var _ common.Transport = (*SocketIO)(nil)

var log = common.Tagged(`socketio`)

// RemoteError is an error reported by the server in reply to a request
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func remoteError(command string, raw json.RawMessage) *RemoteError {
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		msg = string(raw)
	}
	return &RemoteError{Command: command, Message: msg}
}

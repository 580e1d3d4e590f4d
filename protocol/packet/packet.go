// Package packet implements the Engine.IO v3 and Socket.IO v2 framing used by
// the ioBroker socket adapters.
//
// This package is not designed to be accessed by end users, all interaction
// should occur via the Client in the goiobroker package.
package packet

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Type is an Engine.IO packet type
type Type byte

const (
	Open    Type = '0'
	Close   Type = '1'
	Ping    Type = '2'
	Pong    Type = '3'
	Message Type = '4'
	Upgrade Type = '5'
	Noop    Type = '6'
)

// Kind is a Socket.IO packet type, carried in an Engine.IO Message
type Kind byte

const (
	Connect     Kind = '0'
	Disconnect  Kind = '1'
	Event       Kind = '2'
	Ack         Kind = '3'
	Error       Kind = '4'
	BinaryEvent Kind = '5'
	BinaryAck   Kind = '6'
)

var (
	// ErrEmpty is returned when decoding an empty frame
	ErrEmpty = errors.New(`empty packet`)
	// ErrUnknownType is returned for packet types outside the protocol
	ErrUnknownType = errors.New(`unknown packet type`)
	// ErrBinary is returned for binary Socket.IO packets, which the ioBroker
	// socket API does not use
	ErrBinary = errors.New(`binary packets are not supported`)
)

// Handshake is the payload of the Engine.IO Open packet
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
}

// Frame is an Engine.IO packet
type Frame struct {
	Type Type
	Data []byte
}

// DecodeFrame splits a websocket text message into its Engine.IO type and
// payload
func DecodeFrame(msg []byte) (Frame, error) {
	if len(msg) == 0 {
		return Frame{}, ErrEmpty
	}
	t := Type(msg[0])
	if t < Open || t > Noop {
		return Frame{}, ErrUnknownType
	}
	return Frame{Type: t, Data: msg[1:]}, nil
}

// Encode returns the websocket text message for f
func (f Frame) Encode() []byte {
	out := make([]byte, 0, len(f.Data)+1)
	out = append(out, byte(f.Type))
	return append(out, f.Data...)
}

// Packet is a Socket.IO packet
type Packet struct {
	Kind      Kind
	Namespace string
	// ID is the acknowledgement id, valid when HasID is set
	ID    int64
	HasID bool
	Data  json.RawMessage
}

// Decode parses the payload of an Engine.IO Message frame
func Decode(payload []byte) (*Packet, error) {
	if len(payload) == 0 {
		return nil, ErrEmpty
	}
	pkt := &Packet{Kind: Kind(payload[0])}
	switch pkt.Kind {
	case Connect, Disconnect, Event, Ack, Error:
	case BinaryEvent, BinaryAck:
		return nil, ErrBinary
	default:
		return nil, ErrUnknownType
	}
	rest := payload[1:]

	if len(rest) > 0 && rest[0] == '/' {
		end := bytes.IndexByte(rest, ',')
		if end < 0 {
			pkt.Namespace = string(rest)
			return pkt, nil
		}
		pkt.Namespace = string(rest[:end])
		rest = rest[end+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.ParseInt(string(rest[:digits]), 10, 64)
		if err != nil {
			return nil, err
		}
		pkt.ID = id
		pkt.HasID = true
		rest = rest[digits:]
	}

	if len(rest) > 0 {
		if !json.Valid(rest) {
			return nil, errors.New(`invalid packet data`)
		}
		pkt.Data = json.RawMessage(rest)
	}
	return pkt, nil
}

// Encode returns the payload of an Engine.IO Message frame carrying pkt
func (p *Packet) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.Kind))
	if p.Namespace != `` && p.Namespace != `/` {
		buf.WriteString(p.Namespace)
		buf.WriteByte(',')
	}
	if p.HasID {
		buf.WriteString(strconv.FormatInt(p.ID, 10))
	}
	buf.Write(p.Data)
	return buf.Bytes()
}

// Frame wraps pkt in an Engine.IO Message frame
func (p *Packet) Frame() Frame {
	return Frame{Type: Message, Data: p.Encode()}
}

// NewEvent returns an Event packet emitting name with args
func NewEvent(name string, args ...interface{}) (*Packet, error) {
	data, err := json.Marshal(append([]interface{}{name}, args...))
	if err != nil {
		return nil, err
	}
	return &Packet{Kind: Event, Data: data}, nil
}

// NewAck returns an Ack packet answering id with args
func NewAck(id int64, args ...interface{}) (*Packet, error) {
	if args == nil {
		args = []interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return &Packet{Kind: Ack, ID: id, HasID: true, Data: data}, nil
}

// Args returns the elements of an Event or Ack data array
func (p *Packet) Args() ([]json.RawMessage, error) {
	if len(p.Data) == 0 {
		return nil, nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(p.Data, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// Event returns the event name and arguments of an Event packet
func (p *Packet) Event() (string, []json.RawMessage, error) {
	args, err := p.Args()
	if err != nil {
		return ``, nil, err
	}
	if len(args) == 0 {
		return ``, nil, errors.New(`event without name`)
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return ``, nil, err
	}
	return name, args[1:], nil
}

// IsNull reports whether raw is absent or the JSON null literal
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte(`null`))
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

// ServerEventKind enumerates the events emitted by a [Server].
type ServerEventKind uint8

const (
	// ServerInit is emitted once configuration has been stored.
	ServerInit ServerEventKind = iota

	// ServerConnect is emitted once per inbound exchange after its body has been read.
	ServerConnect

	// ServerReceive carries the full request body of an exchange.
	ServerReceive

	// ServerRespond carries the [Result] written back for an exchange.
	ServerRespond
)

// String implements the [fmt.Stringer] interface.
func (k ServerEventKind) String() string {
	switch k {
	case ServerInit:
		return "init"
	case ServerConnect:
		return "connect"
	case ServerReceive:
		return "receive"
	case ServerRespond:
		return "respond"
	default:
		return "unknown"
	}
}

// ServerEvent is the payload of every [ServerEventKind].
// Fields not relevant to the kind are left zero.
type ServerEvent struct {
	Handle *Handle
	Body   []byte
	Result Result
}

// ClientEventKind enumerates the events emitted by a [Client].
type ClientEventKind uint8

const (
	ClientInit ClientEventKind = iota
	ClientSend
	ClientConnect
	ClientReceive
	ClientDisconnect
	ClientHandshake
)

// String implements the [fmt.Stringer] interface.
func (k ClientEventKind) String() string {
	switch k {
	case ClientInit:
		return "init"
	case ClientSend:
		return "send"
	case ClientConnect:
		return "connect"
	case ClientReceive:
		return "receive"
	case ClientDisconnect:
		return "disconnect"
	case ClientHandshake:
		return "handshake"
	default:
		return "unknown"
	}
}

// SendPayload describes an outbound call before it is issued.
type SendPayload struct {
	Options RequestOptions
	Body    []byte
}

// ClientEvent is the payload of every [ClientEventKind].
type ClientEvent struct {
	Handle *Handle

	// Send is only set for ClientSend.
	Send *SendPayload

	// Chunk is only set for ClientReceive.
	Chunk []byte
}

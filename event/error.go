// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import "fmt"

// Tag identifies the phase an error channel event originated from.
type Tag uint8

const (
	TagUnknown Tag = iota

	// TagListen marks listener failures after a successful bind.
	TagListen

	// TagRequestHandler marks failures while processing an inbound exchange.
	TagRequestHandler

	// TagRequestError marks transport failures of a request stream, either
	// an inbound request body or an outbound request that never got a response.
	TagRequestError

	// TagResponseError marks failures while streaming an outbound call's response.
	TagResponseError

	// TagEventHandler marks a panic raised by a registered event handler.
	TagEventHandler
)

// String implements the [fmt.Stringer] interface.
func (t Tag) String() string {
	switch t {
	case TagListen:
		return "listen"
	case TagRequestHandler:
		return "requestHandler"
	case TagRequestError:
		return "requestError"
	case TagResponseError:
		return "responseError"
	case TagEventHandler:
		return "eventHandler"
	default:
		return "unknown"
	}
}

// Error is the payload published on the error channel.
type Error struct {
	Tag Tag

	// Handle is the transport handle involved, if any.
	Handle fmt.Stringer

	Cause error
}

// Error implements the [builtin.error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Tag, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	return e.Cause
}

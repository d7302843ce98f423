// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package conduit

import "context"

// ServerBinding is the capability every server side transport exposes to
// the generic lifecycle: configure, start accepting, stop accepting.
type ServerBinding[C any] interface {
	Init(context.Context, C) error
	Listen(ctx context.Context, port int, address string) error
	Shutdown(context.Context) error
}

// ClientBinding is the capability every client side transport exposes to
// the generic lifecycle. Send issues one call; SendRequest is the same
// operation under the name used by request oriented transports.
type ClientBinding[C, Req, Resp any] interface {
	Init(context.Context, C) error
	Handshake(context.Context) error
	Send(ctx context.Context, req Req, body []byte) (Resp, error)
	SendRequest(ctx context.Context, req Req, body []byte) (Resp, error)
	Disconnect(context.Context) error
	Shutdown(context.Context) error
}

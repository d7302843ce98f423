// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/z5labs/conduit/event"

	"github.com/google/uuid"
)

// Role of the binding which owns a Handle.
type Role uint8

const (
	RoleServer Role = iota
	RoleClient
)

// String implements the [fmt.Stringer] interface.
func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// Handle is the transport level connection of a single exchange or call.
// It lives exactly as long as that exchange or call. A nil *Handle is the
// null handle, used before a connection exists.
type Handle struct {
	ID         uuid.UUID
	Role       Role
	LocalAddr  net.Addr
	RemoteAddr net.Addr
	TLS        bool

	conn net.Conn

	endOnce     sync.Once
	endErr      error
	end         func() error
	destroyOnce sync.Once
	destroy     func()
}

// String implements the [fmt.Stringer] interface.
func (h *Handle) String() string {
	if h == nil {
		return "none"
	}
	return fmt.Sprintf("%s/%s", h.Role, h.ID)
}

// Conn returns the underlying connection, if it is known.
func (h *Handle) Conn() net.Conn {
	if h == nil {
		return nil
	}
	return h.conn
}

// End gracefully finishes the handle. For a client call it closes the
// response body. Only the first call has an effect.
func (h *Handle) End() error {
	if h == nil || h.end == nil {
		return nil
	}
	h.endOnce.Do(func() {
		h.endErr = h.end()
	})
	return h.endErr
}

// Destroy forcibly tears down the handle's connection.
// Only the first call has an effect.
func (h *Handle) Destroy() {
	if h == nil || h.destroy == nil {
		return
	}
	h.destroyOnce.Do(h.destroy)
}

// HandleFromError returns the handle attached to an error channel event.
func HandleFromError(err error) *Handle {
	var eerr *event.Error
	if !errors.As(err, &eerr) {
		return nil
	}
	h, _ := eerr.Handle.(*Handle)
	return h
}

type connContextKey struct{}

func withConn(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, connContextKey{}, c)
}

func newServerHandle(r *http.Request) *Handle {
	h := &Handle{
		ID:   uuid.New(),
		Role: RoleServer,
		TLS:  r.TLS != nil,
	}
	c, ok := r.Context().Value(connContextKey{}).(net.Conn)
	if !ok {
		return h
	}
	h.conn = c
	h.LocalAddr = c.LocalAddr()
	h.RemoteAddr = c.RemoteAddr()
	h.destroy = func() {
		c.Close()
	}
	return h
}

func newClientHandle(resp *http.Response, conn net.Conn, cancel context.CancelFunc) *Handle {
	h := &Handle{
		ID:   uuid.New(),
		Role: RoleClient,
		TLS:  resp.TLS != nil,
		conn: conn,
		end:  resp.Body.Close,
	}
	if conn != nil {
		h.LocalAddr = conn.LocalAddr()
		h.RemoteAddr = conn.RemoteAddr()
	}
	h.destroy = func() {
		cancel()
		if conn != nil {
			conn.Close()
		}
	}
	return h
}

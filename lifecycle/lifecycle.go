// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle provides the init, listen and shutdown sequencing shared
// by every transport binding.
//
// A binding embeds a [Controller] and calls the matching Controller method
// before doing any transport specific work:
//
//	func (s *Server) Listen(ctx context.Context, port int, addr string) error {
//	    err := s.Controller.Listen(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Hook represents functionality that needs to be performed
// when a [Controller] transitions between states.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that's the logical concatenation
// of the provided [Hook]s. They're applied sequentially.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// State of a [Controller].
type State uint8

const (
	StateIdle State = iota
	StateInitialized
	StateListening
	StateShutdown
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StateListening:
		return "listening"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// TransitionError is returned when a transition is requested
// from a state which does not allow it.
type TransitionError struct {
	From State
	To   State
}

// Error implements the [builtin.error] interface.
func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition from %s to %s", e.From, e.To)
}

// HookError wraps the failure of a hook run during a transition.
type HookError struct {
	State State
	Cause error
}

// Error implements the [builtin.error] interface.
func (e HookError) Error() string {
	return fmt.Sprintf("%s hook failed: %s", e.State, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e HookError) Unwrap() error {
	return e.Cause
}

// Controller is the finite sequence idle → initialized → listening → shutdown.
// Shutdown is allowed from every state and is idempotent. The zero value is
// ready to use and safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	state    State
	previous State

	onInit     multiHook
	onListen   multiHook
	onShutdown multiHook
}

// OnInit registers a hook run by [Controller.Init].
func (c *Controller) OnInit(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInit = append(c.onInit, hook)
}

// OnListen registers a hook run by [Controller.Listen].
func (c *Controller) OnListen(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onListen = append(c.onListen, hook)
}

// OnShutdown registers a hook run by the first [Controller.Shutdown].
func (c *Controller) OnShutdown(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShutdown = append(c.onShutdown, hook)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Init moves the controller from idle to initialized.
func (c *Controller) Init(ctx context.Context) error {
	return c.transition(ctx, StateIdle, StateInitialized, func() multiHook { return c.onInit })
}

// Listen moves the controller from initialized to listening.
func (c *Controller) Listen(ctx context.Context) error {
	return c.transition(ctx, StateInitialized, StateListening, func() multiHook { return c.onListen })
}

// Shutdown moves the controller to shutdown. Calling it again is a no-op.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateShutdown {
		c.mu.Unlock()
		return nil
	}
	c.previous = c.state
	c.state = StateShutdown
	hooks := c.onShutdown
	c.mu.Unlock()

	err := hooks.Run(ctx)
	if err != nil {
		return HookError{State: StateShutdown, Cause: err}
	}
	return nil
}

// Rollback reverts the most recent transition into to. It is used by a binding
// whose transport work failed right after the controller transitioned, so the
// transition can be retried. Rollback does nothing if the controller has
// since moved on.
func (c *Controller) Rollback(to State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != to {
		return
	}
	c.state = c.previous
}

func (c *Controller) transition(ctx context.Context, from, to State, hooks func() multiHook) error {
	c.mu.Lock()
	if c.state != from {
		err := TransitionError{From: c.state, To: to}
		c.mu.Unlock()
		return err
	}
	hs := hooks()
	c.mu.Unlock()

	err := hs.Run(ctx)
	if err != nil {
		return HookError{State: to, Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return TransitionError{From: c.state, To: to}
	}
	c.previous = from
	c.state = to
	return nil
}

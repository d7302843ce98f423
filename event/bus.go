// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/conduit/internal/try"
	"github.com/z5labs/conduit/pkg/noop"
	"github.com/z5labs/conduit/pkg/slogfield"
)

// Kind is satisfied by the closed enums of event kinds defined per role.
type Kind interface {
	comparable
	fmt.Stringer
}

// Handler receives the payload of a single event.
type Handler[E any] func(context.Context, E)

// ErrorHandler receives events published on the error channel.
type ErrorHandler func(context.Context, *Error)

// Bus maps event kinds to ordered lists of handlers.
// It is safe for concurrent use.
type Bus[K Kind, E any] struct {
	log *slog.Logger

	mu       sync.RWMutex
	handlers map[K][]Handler[E]
	onError  []ErrorHandler
}

// NewBus returns an empty Bus. A nil logger discards everything.
func NewBus[K Kind, E any](log *slog.Logger) *Bus[K, E] {
	if log == nil {
		log = slog.New(noop.LogHandler{})
	}
	return &Bus[K, E]{
		log:      log,
		handlers: make(map[K][]Handler[E]),
	}
}

// On appends h to the handlers of kind.
func (b *Bus[K, E]) On(kind K, h Handler[E]) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// OnError appends h to the error channel handlers.
func (b *Bus[K, E]) OnError(h ErrorHandler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = append(b.onError, h)
}

// Call invokes every handler registered for kind, in registration order.
// Call never panics.
func (b *Bus[K, E]) Call(ctx context.Context, kind K, e E) {
	b.mu.RLock()
	hs := b.handlers[kind]
	b.mu.RUnlock()

	for _, h := range hs {
		err := try.Do(func() {
			h(ctx, e)
		})
		if err == nil {
			continue
		}
		b.Fail(ctx, &Error{
			Tag:   TagEventHandler,
			Cause: fmt.Errorf("%s handler: %w", kind, err),
		})
	}
}

// Fail publishes err on the error channel. With no error handlers
// registered the error is logged instead.
func (b *Bus[K, E]) Fail(ctx context.Context, err *Error) {
	b.mu.RLock()
	hs := b.onError
	b.mu.RUnlock()

	if len(hs) == 0 {
		b.log.ErrorContext(
			ctx,
			"unhandled transport error",
			slogfield.Tag(err.Tag),
			slogfield.Handle(err.Handle),
			slogfield.Error(err.Cause),
		)
		return
	}

	for _, h := range hs {
		herr := try.Do(func() {
			h(ctx, err)
		})
		if herr == nil {
			continue
		}
		b.log.ErrorContext(
			ctx,
			"error handler panicked",
			slogfield.Tag(err.Tag),
			slogfield.Error(herr),
		)
	}
}

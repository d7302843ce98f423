// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package event

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/z5labs/conduit/internal/try"

	"github.com/stretchr/testify/assert"
)

type kind uint8

const (
	kindConnect kind = iota
	kindReceive
)

func (k kind) String() string {
	switch k {
	case kindConnect:
		return "connect"
	case kindReceive:
		return "receive"
	default:
		return "unknown"
	}
}

func TestBus_Call(t *testing.T) {
	t.Run("will call handlers", func(t *testing.T) {
		t.Run("in registration order", func(t *testing.T) {
			bus := NewBus[kind, string](nil)

			var calls []string
			bus.On(kindConnect, func(ctx context.Context, s string) {
				calls = append(calls, "first:"+s)
			})
			bus.On(kindConnect, func(ctx context.Context, s string) {
				calls = append(calls, "second:"+s)
			})
			bus.On(kindReceive, func(ctx context.Context, s string) {
				calls = append(calls, "receive:"+s)
			})

			bus.Call(context.Background(), kindConnect, "a")
			if !assert.Equal(t, []string{"first:a", "second:a"}, calls) {
				return
			}
		})

		t.Run("even if an earlier handler panics", func(t *testing.T) {
			bus := NewBus[kind, string](nil)

			var errs []*Error
			bus.OnError(func(ctx context.Context, err *Error) {
				errs = append(errs, err)
			})

			called := false
			bus.On(kindConnect, func(ctx context.Context, s string) {
				panic("handler failed")
			})
			bus.On(kindConnect, func(ctx context.Context, s string) {
				called = true
			})

			assert.NotPanics(t, func() {
				bus.Call(context.Background(), kindConnect, "a")
			})
			if !assert.True(t, called) {
				return
			}
			if !assert.Len(t, errs, 1) {
				return
			}
			if !assert.Equal(t, TagEventHandler, errs[0].Tag) {
				return
			}

			var perr try.PanicError
			if !assert.ErrorAs(t, errs[0], &perr) {
				return
			}
			if !assert.Equal(t, "handler failed", perr.Value) {
				return
			}
		})
	})

	t.Run("will do nothing", func(t *testing.T) {
		t.Run("if no handlers are registered for the kind", func(t *testing.T) {
			bus := NewBus[kind, string](nil)
			bus.On(kindReceive, nil)

			assert.NotPanics(t, func() {
				bus.Call(context.Background(), kindReceive, "a")
			})
		})
	})
}

func TestBus_Fail(t *testing.T) {
	t.Run("will log the error", func(t *testing.T) {
		t.Run("if no error handlers are registered", func(t *testing.T) {
			var buf bytes.Buffer
			bus := NewBus[kind, string](slog.New(slog.NewJSONHandler(&buf, nil)))

			bus.Fail(context.Background(), &Error{
				Tag:   TagRequestError,
				Cause: errors.New("connection refused"),
			})

			if !assert.Contains(t, buf.String(), `"tag":"requestError"`) {
				return
			}
			if !assert.Contains(t, buf.String(), `"handle":"none"`) {
				return
			}
		})

		t.Run("if an error handler panics", func(t *testing.T) {
			var buf bytes.Buffer
			bus := NewBus[kind, string](slog.New(slog.NewJSONHandler(&buf, nil)))

			second := false
			bus.OnError(func(ctx context.Context, err *Error) {
				panic("error handler failed")
			})
			bus.OnError(func(ctx context.Context, err *Error) {
				second = true
			})

			assert.NotPanics(t, func() {
				bus.Fail(context.Background(), &Error{
					Tag:   TagListen,
					Cause: errors.New("accept failed"),
				})
			})
			if !assert.True(t, second) {
				return
			}
			if !assert.Contains(t, buf.String(), "error handler panicked") {
				return
			}
		})
	})
}

func TestError(t *testing.T) {
	t.Run("will unwrap to its cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := &Error{Tag: TagResponseError, Cause: cause}

		if !assert.ErrorIs(t, err, cause) {
			return
		}
		if !assert.Equal(t, "responseError: boom", err.Error()) {
			return
		}
	})
}

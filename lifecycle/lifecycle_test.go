// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController(t *testing.T) {
	t.Run("will transition", func(t *testing.T) {
		t.Run("through init listen and shutdown in order", func(t *testing.T) {
			var c Controller
			var calls []string
			c.OnInit(HookFunc(func(ctx context.Context) error {
				calls = append(calls, "init")
				return nil
			}))
			c.OnListen(HookFunc(func(ctx context.Context) error {
				calls = append(calls, "listen")
				return nil
			}))
			c.OnShutdown(HookFunc(func(ctx context.Context) error {
				calls = append(calls, "shutdown")
				return nil
			}))

			ctx := context.Background()
			if !assert.Nil(t, c.Init(ctx)) {
				return
			}
			if !assert.Equal(t, StateInitialized, c.State()) {
				return
			}
			if !assert.Nil(t, c.Listen(ctx)) {
				return
			}
			if !assert.Equal(t, StateListening, c.State()) {
				return
			}
			if !assert.Nil(t, c.Shutdown(ctx)) {
				return
			}
			if !assert.Nil(t, c.Shutdown(ctx)) {
				return
			}
			if !assert.Equal(t, StateShutdown, c.State()) {
				return
			}
			if !assert.Equal(t, []string{"init", "listen", "shutdown"}, calls) {
				return
			}
		})

		t.Run("to shutdown from idle", func(t *testing.T) {
			var c Controller
			if !assert.Nil(t, c.Shutdown(context.Background())) {
				return
			}
			if !assert.Equal(t, StateShutdown, c.State()) {
				return
			}
		})
	})

	t.Run("will return a TransitionError", func(t *testing.T) {
		testCases := []struct {
			Name  string
			Setup func(*Controller)
			Do    func(*Controller) error
			From  State
			To    State
		}{
			{
				Name: "if listen is called before init",
				Do: func(c *Controller) error {
					return c.Listen(context.Background())
				},
				From: StateIdle,
				To:   StateListening,
			},
			{
				Name: "if init is called twice",
				Setup: func(c *Controller) {
					c.Init(context.Background())
				},
				Do: func(c *Controller) error {
					return c.Init(context.Background())
				},
				From: StateInitialized,
				To:   StateInitialized,
			},
			{
				Name: "if listen is called after shutdown",
				Setup: func(c *Controller) {
					c.Init(context.Background())
					c.Shutdown(context.Background())
				},
				Do: func(c *Controller) error {
					return c.Listen(context.Background())
				},
				From: StateShutdown,
				To:   StateListening,
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				var c Controller
				if testCase.Setup != nil {
					testCase.Setup(&c)
				}

				err := testCase.Do(&c)

				var terr TransitionError
				if !assert.ErrorAs(t, err, &terr) {
					return
				}
				if !assert.Equal(t, testCase.From, terr.From) {
					return
				}
				if !assert.Equal(t, testCase.To, terr.To) {
					return
				}
			})
		}
	})

	t.Run("will not transition", func(t *testing.T) {
		t.Run("if a hook fails", func(t *testing.T) {
			hookErr := errors.New("hook failed")

			var c Controller
			c.OnInit(HookFunc(func(ctx context.Context) error {
				return hookErr
			}))

			err := c.Init(context.Background())

			var herr HookError
			if !assert.ErrorAs(t, err, &herr) {
				return
			}
			if !assert.ErrorIs(t, err, hookErr) {
				return
			}
			if !assert.Equal(t, StateIdle, c.State()) {
				return
			}
		})
	})
}

func TestController_Rollback(t *testing.T) {
	t.Run("will allow the transition to be retried", func(t *testing.T) {
		t.Run("if the controller has not moved on", func(t *testing.T) {
			var c Controller
			ctx := context.Background()
			c.Init(ctx)
			c.Listen(ctx)

			c.Rollback(StateListening)
			if !assert.Equal(t, StateInitialized, c.State()) {
				return
			}
			if !assert.Nil(t, c.Listen(ctx)) {
				return
			}
		})
	})

	t.Run("will do nothing", func(t *testing.T) {
		t.Run("if the controller is no longer in the given state", func(t *testing.T) {
			var c Controller
			ctx := context.Background()
			c.Init(ctx)
			c.Listen(ctx)
			c.Shutdown(ctx)

			c.Rollback(StateListening)
			if !assert.Equal(t, StateShutdown, c.State()) {
				return
			}
		})
	})
}

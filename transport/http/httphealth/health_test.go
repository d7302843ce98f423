// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httphealth

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/z5labs/conduit/pkg/health"
	conduithttp "github.com/z5labs/conduit/transport/http"

	"github.com/stretchr/testify/assert"
)

func process(t *testing.T, m health.Metric) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/health", nil)

	res, err := NewProcessor(m).ProcessMessage(
		context.Background(),
		nil,
		nil,
		conduithttp.Exchange{Request: req, Response: w},
	)
	assert.Nil(t, err)
	assert.False(t, res.IsCompleted())
	return w
}

func TestNewProcessor(t *testing.T) {
	t.Run("will respond with 200", func(t *testing.T) {
		t.Run("if the metric is healthy", func(t *testing.T) {
			var r health.Readiness
			r.Ready()

			w := process(t, &r)
			assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		})
	})

	t.Run("will respond with 503", func(t *testing.T) {
		t.Run("if the metric is not healthy", func(t *testing.T) {
			var r health.Readiness

			w := process(t, &r)
			assert.Equal(t, http.StatusServiceUnavailable, w.Result().StatusCode)
		})

		t.Run("if any combined metric is not healthy", func(t *testing.T) {
			var ready, notReady health.Readiness
			ready.Ready()

			w := process(t, health.And(&ready, &notReady))
			assert.Equal(t, http.StatusServiceUnavailable, w.Result().StatusCode)
		})
	})
}

func TestNewProcessor_server(t *testing.T) {
	t.Run("will report the readiness of another server", func(t *testing.T) {
		ctx := context.Background()

		var readiness health.Readiness
		app := conduithttp.NewServer(
			conduithttp.ProcessorFunc(func(ctx context.Context, h *conduithttp.Handle, body []byte, ex conduithttp.Exchange) (conduithttp.Result, error) {
				return conduithttp.Completed(body), nil
			}),
			conduithttp.Readiness(&readiness),
		)
		probe := conduithttp.NewServer(NewProcessor(app.Readiness()))
		if !assert.Nil(t, probe.Init(ctx, conduithttp.Config{})) {
			return
		}
		if !assert.Nil(t, probe.Listen(ctx, 0, "127.0.0.1")) {
			return
		}
		defer probe.Close()

		c := conduithttp.NewClient(conduithttp.RequestOptions{Host: "127.0.0.1"})
		addr := probe.Addr().String()
		_, portStr, _ := net.SplitHostPort(addr)
		port, _ := strconv.Atoi(portStr)

		resp, err := c.Send(ctx, conduithttp.RequestOptions{Port: port}, nil)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
			return
		}

		if !assert.Nil(t, app.Init(ctx, conduithttp.Config{})) {
			return
		}
		if !assert.Nil(t, app.Listen(ctx, 0, "127.0.0.1")) {
			return
		}
		defer app.Close()

		resp, err = c.Send(ctx, conduithttp.RequestOptions{Port: port}, nil)
		if !assert.Nil(t, err) {
			return
		}
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

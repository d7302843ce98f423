// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httphealth reports a health metric through the HTTP binding.
package httphealth

import (
	"context"
	"net/http"

	"github.com/z5labs/conduit/pkg/health"
	conduithttp "github.com/z5labs/conduit/transport/http"
)

// NewProcessor answers every exchange with 200 if m is healthy, else 503.
// The response is written directly, so the exchange emits no respond event.
func NewProcessor(m health.Metric) conduithttp.Processor {
	return conduithttp.ProcessorFunc(func(ctx context.Context, h *conduithttp.Handle, body []byte, ex conduithttp.Exchange) (conduithttp.Result, error) {
		if m.Healthy(ctx) {
			ex.Response.WriteHeader(http.StatusOK)
			return conduithttp.Deferred(), nil
		}
		ex.Response.WriteHeader(http.StatusServiceUnavailable)
		return conduithttp.Deferred(), nil
	})
}

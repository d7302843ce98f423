// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health provides health metrics for transport bindings.
package health

import (
	"context"
	"sync/atomic"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// Readiness reports whether a binding is able to accept exchanges.
// The zero value is not ready.
type Readiness struct {
	ready atomic.Bool
}

// Ready marks the binding as ready.
func (r *Readiness) Ready() {
	r.ready.Store(true)
}

// NotReady marks the binding as no longer ready.
func (r *Readiness) NotReady() {
	r.ready.Store(false)
}

// Healthy implements the Metric interface.
func (r *Readiness) Healthy(ctx context.Context) bool {
	return r.ready.Load()
}

// AndMetric represents multiple Metrics all and'd together.
type AndMetric struct {
	metrics []Metric
}

// And returns a Metric where all the underlying Metrics healthy
// states are joined together via the logical and (&&) operator.
func And(metrics ...Metric) AndMetric {
	return AndMetric{
		metrics: metrics,
	}
}

// Healthy implements the Metric interface.
func (m AndMetric) Healthy(ctx context.Context) bool {
	for _, metric := range m.metrics {
		if !metric.Healthy(ctx) {
			return false
		}
	}
	return true
}

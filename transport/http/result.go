// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"context"
	"net/http"
)

// Result is what a [Processor] hands back for an exchange.
// The zero value is equivalent to [Deferred].
type Result struct {
	body      []byte
	completed bool
}

// Completed returns a Result whose body the server writes as the response.
func Completed(body []byte) Result {
	return Result{body: body, completed: true}
}

// Text is shorthand for Completed([]byte(s)).
func Text(s string) Result {
	return Completed([]byte(s))
}

// Deferred returns a Result signalling that the processor took over the
// response itself, through [Exchange.Response]. The server emits no
// [ServerRespond] event for it, since it never sees what was written.
func Deferred() Result {
	return Result{}
}

// IsCompleted reports whether r was built with [Completed].
func (r Result) IsCompleted() bool {
	return r.completed
}

// Body returns the response body of a completed Result.
func (r Result) Body() []byte {
	return r.body
}

// Exchange exposes the raw HTTP request and response of an inbound exchange.
type Exchange struct {
	Request  *http.Request
	Response http.ResponseWriter
}

// Processor is the application's message processing callback.
type Processor interface {
	ProcessMessage(ctx context.Context, h *Handle, body []byte, ex Exchange) (Result, error)
}

// ProcessorFunc is a func implementation of [Processor].
type ProcessorFunc func(ctx context.Context, h *Handle, body []byte, ex Exchange) (Result, error)

// ProcessMessage implements the [Processor] interface.
func (f ProcessorFunc) ProcessMessage(ctx context.Context, h *Handle, body []byte, ex Exchange) (Result, error) {
	return f(ctx, h, body, ex)
}

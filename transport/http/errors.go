// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"errors"
	"fmt"
	"time"
)

// ErrNilProcessor is returned by [Server.Listen] when the server was built without a [Processor].
var ErrNilProcessor = errors.New("http: server has no processor")

// ConfigError wraps failures to load the configured TLS material.
type ConfigError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid server config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigError) Unwrap() error {
	return e.Cause
}

// BindError wraps failures to bind the listening socket.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindError) Unwrap() error {
	return e.Cause
}

// ProcessTimeoutError is reported when a processor exceeds the configured process timeout.
type ProcessTimeoutError struct {
	Timeout time.Duration
}

// Error implements the [builtin.error] interface.
func (e ProcessTimeoutError) Error() string {
	return fmt.Sprintf("processor did not return within %s", e.Timeout)
}

// UnsupportedSchemeError is reported for outbound calls whose scheme is neither http nor https.
type UnsupportedSchemeError struct {
	Scheme string
}

// Error implements the [builtin.error] interface.
func (e UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported scheme: %q", e.Scheme)
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http binds HTTP and HTTPS to the event driven lifecycle.
//
// HTTP has no persistent connection to manage, so each inbound request
// is an independent exchange. A [Server] turns every exchange into the
// events connect, receive and respond around a call to its [Processor].
// A [Client] turns every outbound call into send, connect, one receive
// per body chunk and disconnect, and resolves with the buffered [Response].
//
// Failures are both returned to the caller waiting on them and published
// on the binding's error channel, tagged with the phase they came from.
package http

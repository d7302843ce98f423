// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package event provides the typed dispatch table shared by transport bindings.
//
// Each binding role defines a closed enum of event kinds and a payload type,
// and owns a [Bus] keyed by that enum. Handlers registered for a kind are
// called synchronously, in registration order, by [Bus.Call]. A handler
// which panics never unwinds into the binding: the panic is recovered and
// reported on the error channel tagged [TagEventHandler].
//
// The error channel is the asynchronous broadcast path used for
// observability. Failures surfaced to a waiting caller are also published
// there with a [Tag] naming the phase they came from.
package event

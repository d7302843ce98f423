// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package conduit defines the contract between a generic lifecycle
// controller and the transport bindings it hosts.
//
// A binding translates its wire protocol into a fixed sequence of named
// events so that applications can observe every transport the same way,
// whether it holds persistent sockets or, like HTTP, opens one exchange
// per request. Bindings live under transport/; the event dispatch table
// lives in package event and the init, listen and shutdown sequencing in
// package lifecycle.
package conduit

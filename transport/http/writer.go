// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"io"
	"net/http"
	"slices"
	"sync"
)

// responseWriter records whether anything has reached the client yet and,
// once expired, refuses writes from a processor the exchange gave up on.
// Processors only ever see h. It is copied into the underlying writer's
// header map, under mu, when the response is first sent.
type responseWriter struct {
	w http.ResponseWriter

	mu      sync.Mutex
	h       http.Header
	sent    bool
	expired bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		w: w,
		h: make(http.Header),
	}
}

// Header returns a throwaway map once the writer has expired.
func (rw *responseWriter) Header() http.Header {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.expired {
		return make(http.Header)
	}
	return rw.h
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.expired || rw.sent {
		return
	}
	rw.send()
	rw.w.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !rw.sent {
		rw.send()
	}
	return rw.w.Write(b)
}

func (rw *responseWriter) Flush() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	f, ok := rw.w.(http.Flusher)
	if rw.expired || !ok {
		return
	}
	if !rw.sent {
		rw.send()
	}
	f.Flush()
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.w
}

func (rw *responseWriter) expire() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.expired = true
}

// send must be called with mu held.
func (rw *responseWriter) send() {
	rw.sent = true
	dst := rw.w.Header()
	for k, vv := range rw.h {
		dst[k] = slices.Clone(vv)
	}
}

// fail responds with code unless something was already sent. Headers set
// by the processor are dropped.
func (rw *responseWriter) fail(code int) bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.sent {
		return false
	}
	rw.sent = true
	rw.expired = true

	h := rw.w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	rw.w.WriteHeader(code)
	io.WriteString(rw.w, http.StatusText(code))
	return true
}

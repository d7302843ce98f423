// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides typed [slog.Attr] constructors with the
// attribute keys shared by every conduit transport.
package slogfield

import (
	"fmt"
	"log/slog"
	"time"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Handle returns an slog.Attr identifying a transport handle.
// A nil handle is logged as "none".
func Handle(h fmt.Stringer) slog.Attr {
	if h == nil {
		return slog.String("handle", "none")
	}
	return slog.String("handle", h.String())
}

// Event returns an slog.Attr for a lifecycle event kind.
func Event(kind fmt.Stringer) slog.Attr {
	return slog.String("event", kind.String())
}

// Tag returns an slog.Attr for the phase tag of an error channel event.
func Tag(tag fmt.Stringer) slog.Attr {
	return slog.String("tag", tag.String())
}

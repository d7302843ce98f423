// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpvalidate rejects exchanges before they reach a processor.
package httpvalidate

import (
	"context"
	"mime"
	"net/http"

	conduithttp "github.com/z5labs/conduit/transport/http"
)

// Validator inspects an exchange. A Validator rejecting the exchange
// writes the response itself and returns false.
type Validator interface {
	Validate(w http.ResponseWriter, r *http.Request, body []byte) bool
}

// ValidatorFunc implements Validator for funcs.
type ValidatorFunc func(http.ResponseWriter, *http.Request, []byte) bool

// Validate implements the Validator interface.
func (f ValidatorFunc) Validate(w http.ResponseWriter, r *http.Request, body []byte) bool {
	return f(w, r, body)
}

// Processor only hands exchanges accepted by every validator to p.
// Rejected exchanges end with a deferred result.
func Processor(p conduithttp.Processor, validators ...Validator) conduithttp.Processor {
	return conduithttp.ProcessorFunc(func(ctx context.Context, h *conduithttp.Handle, body []byte, ex conduithttp.Exchange) (conduithttp.Result, error) {
		for _, v := range validators {
			if !v.Validate(ex.Response, ex.Request, body) {
				return conduithttp.Deferred(), nil
			}
		}
		return p.ProcessMessage(ctx, h, body, ex)
	})
}

// ForMethods accepts requests using one of methods.
func ForMethods(methods ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request, body []byte) bool {
		for _, method := range methods {
			if method == r.Method {
				return true
			}
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	})
}

// MinimumParams accepts requests carrying at least the named query parameters.
func MinimumParams(names ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request, body []byte) bool {
		params := r.URL.Query()
		for _, name := range names {
			if !params.Has(name) {
				w.WriteHeader(http.StatusBadRequest)
				return false
			}
		}
		return true
	})
}

// MinProto accepts requests whose protocol is at least major.minor.
func MinProto(major, minor int) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request, body []byte) bool {
		if r.ProtoAtLeast(major, minor) {
			return true
		}
		w.WriteHeader(http.StatusHTTPVersionNotSupported)
		return false
	})
}

// MaxBodySize accepts request bodies of at most n bytes.
func MaxBodySize(n int) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request, body []byte) bool {
		if len(body) <= n {
			return true
		}
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return false
	})
}

// ContentTypes accepts empty bodies and bodies whose media type is one of types.
func ContentTypes(types ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request, body []byte) bool {
		if len(body) == 0 {
			return true
		}
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err == nil {
			for _, t := range types {
				if t == mediaType {
					return true
				}
			}
		}
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return false
	})
}

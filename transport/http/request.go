// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// RequestOptions describes an outbound call.
type RequestOptions struct {
	Method string
	Scheme string
	Host   string
	Port   int

	// Path may carry a query string.
	Path   string
	Header http.Header
}

var defaultRequestOptions = RequestOptions{
	Method: http.MethodGet,
	Scheme: "http",
	Host:   "localhost",
	Path:   "/",
}

// Merge layers options from lowest to highest precedence. Non-zero fields
// of a later layer win. Header keys are canonicalised and a later layer
// replaces every value of a key it sets.
func Merge(layers ...RequestOptions) RequestOptions {
	var out RequestOptions
	for _, l := range layers {
		if l.Method != "" {
			out.Method = strings.ToUpper(l.Method)
		}
		if l.Scheme != "" {
			out.Scheme = strings.ToLower(l.Scheme)
		}
		if l.Host != "" {
			out.Host = l.Host
		}
		if l.Port != 0 {
			out.Port = l.Port
		}
		if l.Path != "" {
			out.Path = l.Path
		}
		for k, vs := range l.Header {
			if out.Header == nil {
				out.Header = make(http.Header, len(l.Header))
			}
			out.Header[textproto.CanonicalMIMEHeaderKey(k)] = slices.Clone(vs)
		}
	}
	return out
}

// URL builds the request target.
func (o RequestOptions) URL() (*url.URL, error) {
	scheme := strings.ToLower(o.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, UnsupportedSchemeError{Scheme: o.Scheme}
	}

	path := o.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.ParseRequestURI(path)
	if err != nil {
		return nil, err
	}

	u.Scheme = scheme
	u.Host = o.Host
	if o.Port > 0 {
		u.Host = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	}
	return u, nil
}

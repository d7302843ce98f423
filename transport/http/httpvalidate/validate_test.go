// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpvalidate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	conduithttp "github.com/z5labs/conduit/transport/http"

	"github.com/stretchr/testify/assert"
)

var echo = conduithttp.ProcessorFunc(func(ctx context.Context, h *conduithttp.Handle, body []byte, ex conduithttp.Exchange) (conduithttp.Result, error) {
	return conduithttp.Completed(body), nil
})

func TestProcessor(t *testing.T) {
	testCases := []struct {
		Name       string
		Validators []Validator
		Request    func() *http.Request
		Body       string
		Status     int
	}{
		{
			Name:       "method not allowed",
			Validators: []Validator{ForMethods(http.MethodPost)},
			Request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/", nil)
			},
			Status: http.StatusMethodNotAllowed,
		},
		{
			Name:       "missing query param",
			Validators: []Validator{MinimumParams("id", "name")},
			Request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?id=1", nil)
			},
			Status: http.StatusBadRequest,
		},
		{
			Name:       "protocol too old",
			Validators: []Validator{MinProto(1, 1)},
			Request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Proto, r.ProtoMajor, r.ProtoMinor = "HTTP/1.0", 1, 0
				return r
			},
			Status: http.StatusHTTPVersionNotSupported,
		},
		{
			Name:       "body too large",
			Validators: []Validator{MaxBodySize(4)},
			Request: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", nil)
			},
			Body:   "too large",
			Status: http.StatusRequestEntityTooLarge,
		},
		{
			Name:       "unsupported content type",
			Validators: []Validator{ContentTypes("application/json")},
			Request: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", nil)
				r.Header.Set("Content-Type", "text/plain")
				return r
			},
			Body:   "hello",
			Status: http.StatusUnsupportedMediaType,
		},
	}

	for _, testCase := range testCases {
		t.Run("will reject the exchange if "+testCase.Name, func(t *testing.T) {
			w := httptest.NewRecorder()
			p := Processor(echo, testCase.Validators...)

			res, err := p.ProcessMessage(
				context.Background(),
				nil,
				[]byte(testCase.Body),
				conduithttp.Exchange{Request: testCase.Request(), Response: w},
			)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.False(t, res.IsCompleted()) {
				return
			}
			assert.Equal(t, testCase.Status, w.Result().StatusCode)
		})
	}

	t.Run("will call the processor if every validator accepts", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/?id=1", strings.NewReader(`{"a":1}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		p := Processor(
			echo,
			ForMethods(http.MethodPost, http.MethodPut),
			MinimumParams("id"),
			MinProto(1, 1),
			MaxBodySize(64),
			ContentTypes("application/json"),
		)
		res, err := p.ProcessMessage(
			context.Background(),
			nil,
			[]byte(`{"a":1}`),
			conduithttp.Exchange{Request: r, Response: httptest.NewRecorder()},
		)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.True(t, res.IsCompleted()) {
			return
		}
		assert.JSONEq(t, `{"a":1}`, string(res.Body()))
	})
}

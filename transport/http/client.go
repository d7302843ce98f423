// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/z5labs/conduit"
	"github.com/z5labs/conduit/event"
	"github.com/z5labs/conduit/lifecycle"
	"github.com/z5labs/conduit/pkg/noop"
	"github.com/z5labs/conduit/pkg/otelslog"
	"github.com/z5labs/conduit/pkg/slogfield"

	"github.com/google/uuid"
)

var _ conduit.ClientBinding[ClientConfig, RequestOptions, *Response] = (*Client)(nil)

type clientOptions struct {
	name       string
	logHandler slog.Handler
	timeout    time.Duration
	rt         http.RoundTripper
	tlsConfig  *tls.Config
	chunkSize  int

	co *circuitOptions
	ro *retryOptions
}

// ClientOption configures a [Client].
type ClientOption func(*clientOptions)

// Name labels the client's logs and circuit breaker.
func Name(s string) ClientOption {
	return func(co *clientOptions) {
		co.name = s
	}
}

// ClientLogHandler sets the sink of the client's structured logs.
func ClientLogHandler(h slog.Handler) ClientOption {
	return func(co *clientOptions) {
		co.logHandler = h
	}
}

// Timeout bounds every call end to end, including reading the response body.
func Timeout(d time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.timeout = d
	}
}

// RoundTripper replaces the base transport.
func RoundTripper(rt http.RoundTripper) ClientOption {
	return func(co *clientOptions) {
		co.rt = rt
	}
}

// ClientTLSConfig sets the TLS configuration used for https calls.
// It is ignored when a custom [RoundTripper] is given.
func ClientTLSConfig(cfg *tls.Config) ClientOption {
	return func(co *clientOptions) {
		co.tlsConfig = cfg
	}
}

// ChunkSize sets the size of the buffer response bodies are read with.
func ChunkSize(n int) ClientOption {
	return func(co *clientOptions) {
		if n > 0 {
			co.chunkSize = n
		}
	}
}

// RetryRequests retries failed calls with exponential backoff.
func RetryRequests(opts ...RetryOption) ClientOption {
	return func(co *clientOptions) {
		ro := &retryOptions{
			maxRetries: 3,
			waitMin:    100 * time.Millisecond,
			waitMax:    2 * time.Second,
		}
		for _, opt := range opts {
			opt(ro)
		}
		co.ro = ro
	}
}

// CircuitBreaker guards calls with a circuit breaker.
func CircuitBreaker(opts ...CircuitOption) ClientOption {
	return func(co *clientOptions) {
		cb := new(circuitOptions)
		for _, opt := range opts {
			opt(cb)
		}
		co.co = cb
	}
}

// Response is the fully buffered result of an outbound call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is the client side HTTP binding. Each call opens its own
// exchange, so concurrent calls never share a handle.
type Client struct {
	lifecycle.Controller

	log       *slog.Logger
	bus       *event.Bus[ClientEventKind, ClientEvent]
	hc        *http.Client
	defaults  RequestOptions
	chunkSize int

	mu      sync.Mutex
	binding RequestOptions
	held    map[uuid.UUID]*Handle
}

// NewClient returns a Client whose calls start from defaults.
func NewClient(defaults RequestOptions, opts ...ClientOption) *Client {
	co := &clientOptions{
		logHandler: noop.LogHandler{},
		chunkSize:  32 * 1024,
	}
	for _, opt := range opts {
		opt(co)
	}
	if co.rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = co.tlsConfig
		co.rt = t
	}

	log := otelslog.New(co.logHandler)
	if co.name != "" {
		log = log.With(slogfield.String("http_client", co.name))
	}

	return &Client{
		log:       log,
		bus:       event.NewBus[ClientEventKind, ClientEvent](log),
		hc:        newHTTPClient(co, log),
		defaults:  defaults,
		chunkSize: co.chunkSize,
		held:      make(map[uuid.UUID]*Handle),
	}
}

// On registers h for every event of the given kind.
func (c *Client) On(kind ClientEventKind, h event.Handler[ClientEvent]) {
	c.bus.On(kind, h)
}

// OnError registers h on the error channel.
func (c *Client) OnError(h event.ErrorHandler) {
	c.bus.OnError(h)
}

// Init stores cfg as the binding defaults of every call.
func (c *Client) Init(ctx context.Context, cfg ClientConfig) error {
	err := c.Controller.Init(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.binding = cfg.requestOptions()
	c.mu.Unlock()

	c.bus.Call(ctx, ClientInit, ClientEvent{})
	return nil
}

// Handshake has nothing to negotiate over HTTP. It only emits the
// handshake event, once per in flight call or once with no handle.
func (c *Client) Handshake(ctx context.Context) error {
	hs := c.heldHandles(false)
	if len(hs) == 0 {
		c.bus.Call(ctx, ClientHandshake, ClientEvent{})
		return nil
	}
	for _, h := range hs {
		c.bus.Call(ctx, ClientHandshake, ClientEvent{Handle: h})
	}
	return nil
}

// Send issues a single call and resolves once its response has been fully read.
func (c *Client) Send(ctx context.Context, opts RequestOptions, body []byte) (*Response, error) {
	c.mu.Lock()
	binding := c.binding
	c.mu.Unlock()

	ro := Merge(defaultRequestOptions, c.defaults, binding, opts)
	u, err := ro.URL()
	if err != nil {
		c.fail(ctx, event.TagRequestError, nil, err)
		return nil, err
	}

	c.bus.Call(ctx, ClientSend, ClientEvent{
		Send: &SendPayload{
			Options: ro,
			Body:    body,
		},
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		connMu sync.Mutex
		conn   net.Conn
	)
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			connMu.Lock()
			defer connMu.Unlock()
			conn = info.Conn
		},
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), ro.Method, u.String(), r)
	if err != nil {
		c.fail(ctx, event.TagRequestError, nil, err)
		return nil, err
	}
	if ro.Header != nil {
		req.Header = ro.Header.Clone()
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.fail(ctx, event.TagRequestError, nil, err)
		return nil, err
	}

	connMu.Lock()
	h := newClientHandle(resp, conn, cancel)
	connMu.Unlock()

	c.hold(h)
	defer c.release(h)
	defer h.End()

	c.bus.Call(ctx, ClientConnect, ClientEvent{Handle: h})

	acc := newAccumulator(resp)
	err = c.stream(ctx, h, resp.Body, acc)
	if err != nil {
		c.fail(ctx, event.TagResponseError, h, err)
		return nil, err
	}

	c.bus.Call(ctx, ClientDisconnect, ClientEvent{Handle: h})
	return acc.freeze(), nil
}

// SendRequest is an alias of [Client.Send].
func (c *Client) SendRequest(ctx context.Context, opts RequestOptions, body []byte) (*Response, error) {
	return c.Send(ctx, opts, body)
}

// Disconnect ends and destroys every in flight call. It emits the
// disconnect event once per call torn down, or once with no handle.
func (c *Client) Disconnect(ctx context.Context) error {
	hs := c.heldHandles(true)
	if len(hs) == 0 {
		c.bus.Call(ctx, ClientDisconnect, ClientEvent{})
		return nil
	}

	for _, h := range hs {
		err := h.End()
		if err != nil {
			c.log.DebugContext(ctx, "failed to end handle", slogfield.Handle(h), slogfield.Error(err))
		}
		h.Destroy()
		c.bus.Call(ctx, ClientDisconnect, ClientEvent{Handle: h})
	}
	return nil
}

// Shutdown stops the binding and tears down every in flight call.
func (c *Client) Shutdown(ctx context.Context) error {
	err := c.Controller.Shutdown(ctx)
	if err != nil {
		return err
	}
	return c.Disconnect(ctx)
}

func (c *Client) stream(ctx context.Context, h *Handle, body io.Reader, acc *accumulator) error {
	buf := make([]byte, c.chunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := bytes.Clone(buf[:n])
			acc.write(chunk)
			c.bus.Call(ctx, ClientReceive, ClientEvent{Handle: h, Chunk: chunk})
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Client) fail(ctx context.Context, tag event.Tag, h *Handle, err error) {
	e := &event.Error{Tag: tag, Cause: err}
	if h != nil {
		e.Handle = h
	}
	c.bus.Fail(ctx, e)
}

func (c *Client) hold(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held[h.ID] = h
}

func (c *Client) release(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, h.ID)
}

func (c *Client) heldHandles(release bool) []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	hs := make([]*Handle, 0, len(c.held))
	for id, h := range c.held {
		hs = append(hs, h)
		if release {
			delete(c.held, id)
		}
	}
	return hs
}

type accumulator struct {
	statusCode int
	header     http.Header
	body       bytes.Buffer
}

func newAccumulator(resp *http.Response) *accumulator {
	return &accumulator{
		statusCode: resp.StatusCode,
		header:     resp.Header,
	}
}

func (a *accumulator) write(b []byte) {
	a.body.Write(b)
}

func (a *accumulator) freeze() *Response {
	return &Response{
		StatusCode: a.statusCode,
		Header:     a.header,
		Body:       a.body.Bytes(),
	}
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/z5labs/conduit"
	"github.com/z5labs/conduit/event"
	"github.com/z5labs/conduit/internal/try"
	"github.com/z5labs/conduit/lifecycle"
	"github.com/z5labs/conduit/pkg/health"
	"github.com/z5labs/conduit/pkg/noop"
	"github.com/z5labs/conduit/pkg/otelslog"
	"github.com/z5labs/conduit/pkg/slogfield"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ conduit.ServerBinding[Config] = (*Server)(nil)

type serverOptions struct {
	logHandler        slog.Handler
	processTimeout    time.Duration
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	maxHeaderBytes    int
	tlsConfig         *tls.Config
	readiness         *health.Readiness
	listen            func(network, addr string) (net.Listener, error)
}

// ServerOption configures a [Server].
type ServerOption func(*serverOptions)

// LogHandler sets the sink of the server's structured logs.
func LogHandler(h slog.Handler) ServerOption {
	return func(so *serverOptions) {
		so.logHandler = h
	}
}

// ProcessTimeout bounds every processor call. [Config.ProcessTimeout]
// takes precedence when set.
func ProcessTimeout(d time.Duration) ServerOption {
	return func(so *serverOptions) {
		so.processTimeout = d
	}
}

// ReadHeaderTimeout bounds reading request headers. Defaults to 10s.
func ReadHeaderTimeout(d time.Duration) ServerOption {
	return func(so *serverOptions) {
		so.readHeaderTimeout = d
	}
}

// ReadTimeout bounds reading an entire request, body included.
func ReadTimeout(d time.Duration) ServerOption {
	return func(so *serverOptions) {
		so.readTimeout = d
	}
}

// WriteTimeout bounds writing a response.
func WriteTimeout(d time.Duration) ServerOption {
	return func(so *serverOptions) {
		so.writeTimeout = d
	}
}

// IdleTimeout bounds how long a keep-alive connection waits for its next request.
func IdleTimeout(d time.Duration) ServerOption {
	return func(so *serverOptions) {
		so.idleTimeout = d
	}
}

// MaxHeaderBytes caps the size of request headers.
func MaxHeaderBytes(n int) ServerOption {
	return func(so *serverOptions) {
		so.maxHeaderBytes = n
	}
}

// TLSConfig serves HTTPS with cfg instead of loading [Config.SSL].
func TLSConfig(cfg *tls.Config) ServerOption {
	return func(so *serverOptions) {
		so.tlsConfig = cfg
	}
}

// Readiness is marked ready once bound and not ready once shut down.
func Readiness(r *health.Readiness) ServerOption {
	return func(so *serverOptions) {
		so.readiness = r
	}
}

// Server is the server side HTTP binding. Every inbound request is an
// independent exchange emitting connect, receive and respond.
type Server struct {
	lifecycle.Controller

	log       *slog.Logger
	bus       *event.Bus[ServerEventKind, ServerEvent]
	processor Processor
	opts      serverOptions

	mu        sync.Mutex
	cfg       Config
	srv       *http.Server
	ln        net.Listener
	serveDone chan struct{}
}

// NewServer returns a Server which hands every request body to p.
func NewServer(p Processor, opts ...ServerOption) *Server {
	so := serverOptions{
		logHandler:        noop.LogHandler{},
		readHeaderTimeout: 10 * time.Second,
		readiness:         new(health.Readiness),
		listen:            net.Listen,
	}
	for _, opt := range opts {
		opt(&so)
	}

	log := otelslog.New(so.logHandler)
	return &Server{
		log:       log,
		bus:       event.NewBus[ServerEventKind, ServerEvent](log),
		processor: p,
		opts:      so,
	}
}

// On registers h for every event of the given kind.
func (s *Server) On(kind ServerEventKind, h event.Handler[ServerEvent]) {
	s.bus.On(kind, h)
}

// OnError registers h on the error channel.
func (s *Server) OnError(h event.ErrorHandler) {
	s.bus.OnError(h)
}

// Readiness reports whether the server is currently accepting exchanges.
func (s *Server) Readiness() health.Metric {
	return s.opts.readiness
}

// Init stores cfg for the following [Server.Listen].
func (s *Server) Init(ctx context.Context, cfg Config) error {
	err := s.Controller.Init(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.bus.Call(ctx, ServerInit, ServerEvent{})
	return nil
}

// Listen binds address:port and starts serving in the background. It
// returns once the socket is bound. An empty address binds every interface
// and port 0 picks a free port, see [Server.Addr].
func (s *Server) Listen(ctx context.Context, port int, address string) (err error) {
	err = s.Controller.Listen(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			s.Controller.Rollback(lifecycle.StateListening)
		}
	}()

	if s.processor == nil {
		return ErrNilProcessor
	}

	tlsConfig, err := s.tlsConfig()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(address, strconv.Itoa(port))
	ln, err := s.opts.listen("tcp", addr)
	if err != nil {
		return BindError{Addr: addr, Cause: err}
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	srv := &http.Server{
		Handler:           otelhttp.NewHandler(http.HandlerFunc(s.serveExchange), "exchange"),
		ReadHeaderTimeout: s.opts.readHeaderTimeout,
		ReadTimeout:       s.opts.readTimeout,
		WriteTimeout:      s.opts.writeTimeout,
		IdleTimeout:       s.opts.idleTimeout,
		MaxHeaderBytes:    s.opts.maxHeaderBytes,
		ConnContext:       withConn,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	done := make(chan struct{})

	s.mu.Lock()
	s.srv = srv
	s.ln = ln
	s.serveDone = done
	s.mu.Unlock()

	go s.serve(srv, ln, done)

	s.opts.readiness.Ready()
	s.log.InfoContext(
		ctx,
		"listening",
		slogfield.String("addr", ln.Addr().String()),
		slogfield.Bool("tls", tlsConfig != nil),
	)
	return nil
}

// Addr returns the bound address, or nil before [Server.Listen].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting new exchanges and returns once the serve loop
// has exited. In flight exchanges are not waited on.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Controller.Shutdown(ctx)
	if err != nil {
		return err
	}
	s.opts.readiness.NotReady()

	s.mu.Lock()
	srv, done := s.srv, s.serveDone
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	// With an already cancelled context Shutdown only closes the listener
	// and idle connections.
	closed, cancel := context.WithCancel(context.Background())
	cancel()
	err = srv.Shutdown(closed)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.log.InfoContext(ctx, "stopped listening")
		return nil
	}
}

// Close immediately closes the listener and every connection.
func (s *Server) Close() error {
	s.opts.readiness.NotReady()

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (s *Server) tlsConfig() (*tls.Config, error) {
	if s.opts.tlsConfig != nil {
		return s.opts.tlsConfig, nil
	}

	s.mu.Lock()
	ssl := s.cfg.SSL
	s.mu.Unlock()
	if ssl == nil {
		return nil, nil
	}
	return ssl.TLSConfig()
}

func (s *Server) processTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.ProcessTimeout > 0 {
		return s.cfg.ProcessTimeout
	}
	return s.opts.processTimeout
}

func (s *Server) serve(srv *http.Server, ln net.Listener, done chan<- struct{}) {
	defer close(done)

	err := srv.Serve(ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}
	s.opts.readiness.NotReady()
	s.bus.Fail(context.Background(), &event.Error{
		Tag:   event.TagListen,
		Cause: err,
	})
}

func (s *Server) serveExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := newServerHandle(r)
	rw := newResponseWriter(w)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(ctx, event.TagRequestError, h, err)
		panic(http.ErrAbortHandler)
	}

	err = s.exchange(ctx, h, body, r, rw)
	if err == nil {
		return
	}
	if errors.Is(err, http.ErrAbortHandler) {
		panic(http.ErrAbortHandler)
	}

	sent := rw.fail(http.StatusInternalServerError)
	s.log.ErrorContext(
		ctx,
		"failed to process exchange",
		slogfield.Handle(h),
		slogfield.Bool("internal_server_error_sent", sent),
		slogfield.Error(err),
	)
	s.fail(ctx, event.TagRequestHandler, h, err)
}

func (s *Server) exchange(ctx context.Context, h *Handle, body []byte, r *http.Request, rw *responseWriter) (err error) {
	defer try.Recover(&err)

	s.bus.Call(ctx, ServerConnect, ServerEvent{Handle: h})
	s.bus.Call(ctx, ServerReceive, ServerEvent{Handle: h, Body: body})

	res, err := s.process(ctx, h, body, r, rw)
	if err != nil {
		return err
	}
	if !res.IsCompleted() {
		return nil
	}

	s.bus.Call(ctx, ServerRespond, ServerEvent{Handle: h, Result: res})
	_, err = rw.Write(res.Body())
	return err
}

type processed struct {
	res Result
	err error
}

func (s *Server) process(ctx context.Context, h *Handle, body []byte, r *http.Request, rw *responseWriter) (Result, error) {
	ex := Exchange{Request: r, Response: rw}
	timeout := s.processTimeout()
	if timeout <= 0 {
		return s.processor.ProcessMessage(ctx, h, body, ex)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := make(chan processed, 1)
	go func() {
		var p processed
		defer func() {
			out <- p
		}()
		defer try.Recover(&p.err)

		p.res, p.err = s.processor.ProcessMessage(ctx, h, body, ex)
	}()

	select {
	case p := <-out:
		return p.res, p.err
	case <-ctx.Done():
		rw.expire()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, ProcessTimeoutError{Timeout: timeout}
		}
		return Result{}, ctx.Err()
	}
}

func (s *Server) fail(ctx context.Context, tag event.Tag, h *Handle, err error) {
	s.bus.Fail(ctx, &event.Error{
		Tag:    tag,
		Handle: h,
		Cause:  err,
	})
}

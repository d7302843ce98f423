// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package runtime hosts a server binding for the lifetime of a process.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/conduit"
	"github.com/z5labs/conduit/event"
	"github.com/z5labs/conduit/internal/fixedpool"
	"github.com/z5labs/conduit/pkg/noop"
	"github.com/z5labs/conduit/pkg/slogfield"
)

// ErrorNotifier is implemented by bindings which publish asynchronous
// failures on an error channel.
type ErrorNotifier interface {
	OnError(event.ErrorHandler)
}

type options struct {
	logHandler      slog.Handler
	shutdownTimeout time.Duration
}

// Option configures a [Runtime].
type Option func(*options)

// LogHandler sets the sink of the runtime's structured logs.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// ShutdownTimeout bounds how long the binding may take to shut down.
func ShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

// Runtime initializes, listens and eventually shuts down a single binding.
type Runtime[C any] struct {
	binding         conduit.ServerBinding[C]
	cfg             C
	port            int
	address         string
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Runtime which will bind b to address:port.
func New[C any](b conduit.ServerBinding[C], cfg C, port int, address string, opts ...Option) *Runtime[C] {
	o := &options{
		logHandler:      noop.LogHandler{},
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Runtime[C]{
		binding:         b,
		cfg:             cfg,
		port:            port,
		address:         address,
		log:             slog.New(o.logHandler),
		shutdownTimeout: o.shutdownTimeout,
	}
}

// Run blocks until ctx is cancelled or the binding reports a listener
// failure. The binding is shut down in both cases.
func (rt *Runtime[C]) Run(ctx context.Context) error {
	fatal := make(chan error, 1)
	if n, ok := rt.binding.(ErrorNotifier); ok {
		n.OnError(func(ctx context.Context, err *event.Error) {
			rt.log.ErrorContext(
				ctx,
				"binding reported an error",
				slogfield.Tag(err.Tag),
				slogfield.Handle(err.Handle),
				slogfield.Error(err.Cause),
			)
			if err.Tag != event.TagListen {
				return
			}
			select {
			case fatal <- err:
			default:
			}
		})
	}

	err := rt.binding.Init(ctx, rt.cfg)
	if err != nil {
		rt.log.ErrorContext(ctx, "failed to initialize binding", slogfield.Error(err))
		return err
	}

	err = rt.binding.Listen(ctx, rt.port, rt.address)
	if err != nil {
		rt.log.ErrorContext(ctx, "failed to listen", slogfield.Error(err))
		return err
	}

	return fixedpool.Wait(
		ctx,
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			case err := <-fatal:
				return err
			}
		},
		func(ctx context.Context) error {
			<-ctx.Done()

			sctx, cancel := context.WithTimeout(context.Background(), rt.shutdownTimeout)
			defer cancel()

			rt.log.InfoContext(sctx, "shutting down binding")
			return rt.binding.Shutdown(sctx)
		},
	)
}

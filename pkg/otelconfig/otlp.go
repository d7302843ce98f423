// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrMissingTarget is returned when an OTLP exporter has no collector target.
var ErrMissingTarget = errors.New("otelconfig: otlp exporter requires a target")

// OTLP exports spans to a collector over gRPC.
type OTLP struct {
	Config

	// DialTimeout bounds the initial connection to the collector. Defaults to a second.
	DialTimeout time.Duration
}

// Init implements the [Initializer] interface.
func (o OTLP) Init(ctx context.Context) (Provider, error) {
	if o.Target == "" {
		return Provider{}, ErrMissingTarget
	}
	timeout := o.DialTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		o.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return Provider{}, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return Provider{}, err
	}

	p, err := newProvider(ctx, o.Config, exporter)
	if err != nil {
		conn.Close()
		return Provider{}, err
	}
	tpShutdown := p.shutdown
	p.shutdown = func(ctx context.Context) error {
		return errors.Join(tpShutdown(ctx), conn.Close())
	}
	return p, nil
}

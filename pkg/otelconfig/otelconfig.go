// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig builds OpenTelemetry tracer providers from config.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Config selects and configures a trace exporter.
type Config struct {
	// Exporter is one of "none", "stdout" or "otlp". Empty means "none".
	Exporter    string  `config:"exporter"`
	ServiceName string  `config:"serviceName"`
	SampleRatio float64 `config:"sampleRatio"`

	// Target is the gRPC target of the OTLP collector.
	Target string `config:"target"`
}

// Provider is an initialized tracer provider.
type Provider struct {
	trace.TracerProvider

	shutdown func(context.Context) error
}

// Shutdown flushes and stops the provider.
func (p Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// Initializer creates a [Provider].
type Initializer interface {
	Init(context.Context) (Provider, error)
}

// UnknownExporterError is returned by [FromConfig] for unrecognised exporters.
type UnknownExporterError struct {
	Exporter string
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown trace exporter: %q", e.Exporter)
}

// FromConfig returns the Initializer selected by cfg.Exporter.
func FromConfig(cfg Config) (Initializer, error) {
	switch cfg.Exporter {
	case "", "none":
		return Noop, nil
	case "stdout":
		return Stdout{Config: cfg, Out: os.Stdout}, nil
	case "otlp":
		return OTLP{Config: cfg}, nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// Noop keeps whatever provider is globally registered.
var Noop = noopInitializer{}

type noopInitializer struct{}

func (noopInitializer) Init(ctx context.Context) (Provider, error) {
	return Provider{TracerProvider: otel.GetTracerProvider()}, nil
}

// Stdout writes spans as JSON to Out.
type Stdout struct {
	Config

	Out io.Writer
}

// Init implements the [Initializer] interface.
func (s Stdout) Init(ctx context.Context) (Provider, error) {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
	)
	if err != nil {
		return Provider{}, err
	}
	return newProvider(ctx, s.Config, exporter)
}

func newProvider(ctx context.Context, cfg Config, exporter sdktrace.SpanExporter) (Provider, error) {
	res, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return Provider{}, err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	return Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	"net/http"

	"github.com/z5labs/conduit/pkg/health"
	"github.com/z5labs/conduit/pkg/otelconfig"
	"github.com/z5labs/conduit/runtime"
	conduithttp "github.com/z5labs/conduit/transport/http"
	"github.com/z5labs/conduit/transport/http/httphealth"
	"github.com/z5labs/conduit/transport/http/httpvalidate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveConfig struct {
	Port       int                `config:"port"`
	HealthPort int                `config:"healthPort"`
	Address    string             `config:"address"`
	HTTP       conduithttp.Config `config:"http"`
	OTel       otelconfig.Config  `config:"otel"`
	MaxBody    int                `config:"maxBody"`
}

var serveFlagKeys = map[string]string{
	"port":            "port",
	"health-port":     "healthPort",
	"max-body":        "maxBody",
	"address":         "address",
	"ssl-key":         "http.ssl.key",
	"ssl-cert":        "http.ssl.cert",
	"process-timeout": "http.processTimeout",
	"otel-exporter":   "otel.exporter",
	"otel-target":     "otel.target",
}

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Echo every request body back, answering ping with pong",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := serveConfig{
				Port:    8080,
				MaxBody: 1 << 20,
				OTel:    otelconfig.Config{ServiceName: "echo"},
			}
			err := loadConfig(cmd, c, serveFlagKeys, &cfg)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "port to listen on, 0 picks a free one")
	flags.Int("health-port", 0, "serve readiness on this port when non zero")
	flags.Int("max-body", 1<<20, "largest accepted request body in bytes")
	flags.String("address", "", "address to bind, empty binds every interface")
	flags.String("ssl-key", "", "PEM key file, enables https together with --ssl-cert")
	flags.String("ssl-cert", "", "PEM certificate file")
	flags.Duration("process-timeout", 0, "fail exchanges whose processing exceeds this duration")
	addOTelFlags(cmd)
	return cmd
}

func echoProcessor(ctx context.Context, h *conduithttp.Handle, body []byte, ex conduithttp.Exchange) (conduithttp.Result, error) {
	if bytes.Equal(body, []byte("ping")) {
		return conduithttp.Text("pong"), nil
	}
	return conduithttp.Completed(body), nil
}

func (c *cli) serve(ctx context.Context, cfg serveConfig) error {
	shutdownTracing, err := c.initTracing(ctx, cfg.OTel)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	var readiness health.Readiness
	srv := conduithttp.NewServer(
		httpvalidate.Processor(
			conduithttp.ProcessorFunc(echoProcessor),
			httpvalidate.ForMethods(http.MethodGet, http.MethodPost, http.MethodPut),
			httpvalidate.MaxBodySize(cfg.MaxBody),
		),
		conduithttp.LogHandler(c.logHandler),
		conduithttp.Readiness(&readiness),
	)
	srv.On(conduithttp.ServerReceive, func(ctx context.Context, e conduithttp.ServerEvent) {
		c.log.Info(
			"received",
			zap.Stringer("handle", e.Handle),
			zap.Stringer("remote_addr", e.Handle.RemoteAddr),
			zap.Int("bytes", len(e.Body)),
		)
	})
	srv.On(conduithttp.ServerRespond, func(ctx context.Context, e conduithttp.ServerEvent) {
		c.log.Debug(
			"responded",
			zap.Stringer("handle", e.Handle),
			zap.Int("bytes", len(e.Result.Body())),
		)
	})

	c.log.Info(
		"starting echo server",
		zap.Int("port", cfg.Port),
		zap.String("address", cfg.Address),
		zap.Bool("tls", cfg.HTTP.SSL != nil),
	)
	var rt runtime.Runner = runtime.New[conduithttp.Config](
		srv,
		cfg.HTTP,
		cfg.Port,
		cfg.Address,
		runtime.LogHandler(c.logHandler),
	)
	if cfg.HealthPort == 0 {
		return rt.Run(ctx)
	}

	probe := conduithttp.NewServer(
		httphealth.NewProcessor(&readiness),
		conduithttp.LogHandler(c.logHandler),
	)
	c.log.Info("serving readiness", zap.Int("port", cfg.HealthPort))
	return runtime.Multi(
		rt,
		runtime.New[conduithttp.Config](
			probe,
			conduithttp.Config{},
			cfg.HealthPort,
			cfg.Address,
			runtime.LogHandler(c.logHandler),
		),
	).Run(ctx)
}

// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/z5labs/conduit/event"
	"github.com/z5labs/conduit/pkg/otelconfig"
	conduithttp "github.com/z5labs/conduit/transport/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type sendConfig struct {
	Client conduithttp.ClientConfig `config:"client"`
	OTel   otelconfig.Config        `config:"otel"`

	Method   string        `config:"method"`
	Path     string        `config:"path"`
	Data     string        `config:"data"`
	Count    int           `config:"count"`
	Timeout  time.Duration `config:"timeout"`
	Retries  int           `config:"retries"`
	Insecure bool          `config:"insecure"`
}

var sendFlagKeys = map[string]string{
	"scheme":        "client.scheme",
	"host":          "client.host",
	"port":          "client.port",
	"header":        "client.header",
	"method":        "method",
	"path":          "path",
	"data":          "data",
	"count":         "count",
	"timeout":       "timeout",
	"retries":       "retries",
	"insecure":      "insecure",
	"otel-exporter": "otel.exporter",
	"otel-target":   "otel.target",
}

func newSendCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one or more concurrent requests and print the responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := sendConfig{
				Client: conduithttp.ClientConfig{
					Scheme: "http",
					Host:   "localhost",
					Port:   8080,
				},
				Method:  http.MethodPost,
				Path:    "/",
				Count:   1,
				Timeout: 10 * time.Second,
				OTel:    otelconfig.Config{ServiceName: "echo-send"},
			}
			err := loadConfig(cmd, c, sendFlagKeys, &cfg)
			if err != nil {
				return err
			}
			return c.send(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("scheme", "http", "http or https")
	flags.String("host", "localhost", "host to call")
	flags.Int("port", 8080, "port to call")
	flags.StringToString("header", nil, "request headers as key=value")
	flags.String("method", "POST", "request method")
	flags.String("path", "/", "request path, may include a query")
	flags.String("data", "", "request body")
	flags.Int("count", 1, "number of concurrent requests")
	flags.Duration("timeout", 10*time.Second, "per request timeout")
	flags.Int("retries", 0, "retries per request")
	flags.Bool("insecure", false, "skip tls certificate verification")
	addOTelFlags(cmd)
	return cmd
}

func (c *cli) send(ctx context.Context, out io.Writer, cfg sendConfig) error {
	shutdownTracing, err := c.initTracing(ctx, cfg.OTel)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	opts := []conduithttp.ClientOption{
		conduithttp.Name("echo"),
		conduithttp.ClientLogHandler(c.logHandler),
		conduithttp.Timeout(cfg.Timeout),
	}
	if cfg.Retries > 0 {
		opts = append(opts, conduithttp.RetryRequests(conduithttp.MaxRetries(cfg.Retries)))
	}
	if cfg.Insecure {
		opts = append(opts, conduithttp.ClientTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	client := conduithttp.NewClient(conduithttp.RequestOptions{Method: cfg.Method}, opts...)
	client.On(conduithttp.ClientConnect, func(ctx context.Context, e conduithttp.ClientEvent) {
		c.log.Debug("connected", zap.Stringer("handle", e.Handle), zap.Bool("tls", e.Handle.TLS))
	})
	client.On(conduithttp.ClientDisconnect, func(ctx context.Context, e conduithttp.ClientEvent) {
		c.log.Debug("disconnected", zap.Stringer("handle", e.Handle))
	})
	client.OnError(func(ctx context.Context, err *event.Error) {
		c.log.Error("call failed", zap.Stringer("tag", err.Tag), zap.Stringer("handle", conduithttp.HandleFromError(err)), zap.Error(err.Cause))
	})

	err = client.Init(ctx, cfg.Client)
	if err != nil {
		return err
	}
	defer client.Shutdown(context.Background())

	var body []byte
	if cfg.Data != "" {
		body = []byte(cfg.Data)
	}
	count := max(cfg.Count, 1)

	var mu sync.Mutex
	eg, egctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		eg.Go(func() error {
			resp, err := client.Send(egctx, conduithttp.RequestOptions{Path: cfg.Path}, body)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintf(out, "%d %s\n", resp.StatusCode, resp.Body)
			return err
		})
	}
	return eg.Wait()
}

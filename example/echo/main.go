// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command echo serves and calls the conduit HTTP binding.
//
//	echo serve --port 8080
//	echo send --port 8080 --method POST --data ping --count 2
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/z5labs/conduit/pkg/otelconfig"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

type cli struct {
	v *viper.Viper

	configFile string
	log        *zap.Logger
	logHandler slog.Handler
}

func newRootCmd() *cobra.Command {
	c := &cli{
		v:   viper.New(),
		log: zap.NewNop(),
	}

	cmd := &cobra.Command{
		Use:           "echo",
		Short:         "Serve and call the conduit HTTP binding",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := c.v.BindPFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return c.initLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.log.Sync()
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&c.configFile, "config", "", "yaml config file")
	pflags.String("log-level", "info", "minimum log level: debug, info, warn or error")
	pflags.Bool("log-dev", false, "human readable logs")

	cmd.AddCommand(
		newServeCmd(c),
		newSendCmd(c),
	)
	return cmd
}

func (c *cli) initLogging() error {
	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(c.v.GetString("log-level")))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if c.v.GetBool("log-dev") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err := zcfg.Build()
	if err != nil {
		return err
	}
	c.log = log

	var slvl slog.Level
	switch lvl {
	case zapcore.DebugLevel:
		slvl = slog.LevelDebug
	case zapcore.InfoLevel:
		slvl = slog.LevelInfo
	case zapcore.WarnLevel:
		slvl = slog.LevelWarn
	default:
		slvl = slog.LevelError
	}
	c.logHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slvl})
	return nil
}

// initTracing installs the configured tracer provider globally and returns
// a func which flushes it.
func (c *cli) initTracing(ctx context.Context, cfg otelconfig.Config) (func(context.Context), error) {
	initializer, err := otelconfig.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := initializer.Init(ctx)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(p.TracerProvider)

	return func(ctx context.Context) {
		err := p.Shutdown(ctx)
		if err != nil {
			c.log.Warn("failed to shut down tracer provider", zap.Error(err))
		}
	}, nil
}

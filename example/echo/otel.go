// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import "github.com/spf13/cobra"

func addOTelFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("otel-exporter", "none", "trace exporter: none, stdout or otlp")
	flags.String("otel-target", "", "gRPC target of the OTLP collector")
}

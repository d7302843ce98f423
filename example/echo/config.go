// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"
	"strings"

	"github.com/z5labs/conduit/config"
	"github.com/z5labs/conduit/config/key"
	"github.com/z5labs/conduit/internal/try"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ECHO_"

// flagSource applies every flag set on the command line to the config key
// it is mapped to. Dots in a key nest it.
type flagSource struct {
	cmd  *cobra.Command
	v    *viper.Viper
	keys map[string]string
}

func (src flagSource) Apply(store config.Store) error {
	for flag, path := range src.keys {
		if !src.cmd.Flags().Changed(flag) {
			continue
		}

		var chain key.Chain
		for _, name := range strings.Split(path, ".") {
			chain = append(chain, key.Name(name))
		}
		err := store.Set(chain, src.v.Get(flag))
		if err != nil {
			return err
		}
	}
	return nil
}

// loadConfig layers the config file, ECHO_ prefixed environment variables
// and explicitly set flags, in that order, and decodes the result into v.
func loadConfig(cmd *cobra.Command, c *cli, flagKeys map[string]string, v any) (err error) {
	var srcs []config.Source
	if c.configFile != "" {
		f, ferr := os.Open(c.configFile)
		if ferr != nil {
			return ferr
		}
		defer try.Close(&err, f)

		srcs = append(srcs, config.FromYaml(f))
	}
	srcs = append(
		srcs,
		config.FromEnv(envPrefix),
		flagSource{cmd: cmd, v: c.v, keys: flagKeys},
	)

	m, err := config.Read(srcs...)
	if err != nil {
		return err
	}
	return m.Unmarshal(v)
}

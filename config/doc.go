// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads binding configuration from one or more sources and
// decodes it into typed structs.
//
// Sources are applied in order, later sources overriding earlier ones:
//
//	m, err := config.Read(
//	    config.Map{"processTimeout": "30s"},
//	    config.FromYaml(f),
//	    config.FromEnv("CONDUIT_"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	var cfg http.Config
//	err = m.Unmarshal(&cfg)
//
// Struct fields are matched using the "config" tag. Values given as strings,
// as they are when read from the environment, are coerced to the field type,
// including [time.Duration] and any [encoding.TextUnmarshaler].
package config

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package config loads yane settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/nickwells/filecheck.mod/filecheck"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/pflag"
)

// tracer traces with key 'yane.config'.
func tracer() tracing.Trace {
	return tracing.Select("yane.config")
}

// EnvPrefix prefixes environment variables, e.g. YANE_MARKER.
const EnvPrefix = "YANE_"

// DefaultFile is read when present and no file is named explicitly.
const DefaultFile = "yane.yaml"

// Config holds the settings of a yane invocation.
type Config struct {
	Marker      string `koanf:"marker"`
	OutputVar   string `koanf:"output_var"`
	PassThrough bool   `koanf:"pass_through"`
	DryRun      bool   `koanf:"dry_run"`
	Journal     string `koanf:"journal"`
	LogLevel    string `koanf:"log_level"`
	Mkdir       bool   `koanf:"mkdir"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"marker":       "//%",
		"output_var":   "outfile",
		"pass_through": false,
		"dry_run":      false,
		"journal":      "",
		"log_level":    "error",
		"mkdir":        false,
	}
}

// Load merges all configuration sources. path names a YAML file; when empty,
// DefaultFile is used if it exists. flags may be nil. Flag names use dashes
// where keys use underscores.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, err
	}

	if path == "" && exists(DefaultFile) {
		path = DefaultFile
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		tracer().Infof("loaded configuration from %s", path)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, err
	}

	if flags != nil {
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			key = strings.ReplaceAll(key, "-", "_")
			if _, known := Defaults()[key]; !known {
				return "", nil
			}
			return key, value
		})
		if err := k.Load(p, nil); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, err
	}
	if c.Marker == "" {
		return nil, fmt.Errorf("marker must not be empty")
	}
	return &c, nil
}

func exists(path string) bool {
	return filecheck.Provisos{Existence: filecheck.MustExist}.StatusCheck(path) == nil
}

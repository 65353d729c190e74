// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

// FileFlag names the flag carrying the configuration file path
const FileFlag = "config"

// FilePath returns the configuration file named in args, falling back to the
// environment. Every other argument is ignored.
func FilePath(args []string, prefix string) string {
	fs := pflag.NewFlagSet(FileFlag, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.ParseErrorsWhitelist.UnknownFlags = true

	path := fs.String(FileFlag, "", "")
	_ = fs.Parse(args)

	if *path != "" {
		return *path
	}

	return os.Getenv(EnvKey(prefix, FileFlag))
}

// LoadFile reads a YAML or JSON configuration file into a map suitable for
// Options.Decode. Keys are the mapstructure tags of Options.
func LoadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

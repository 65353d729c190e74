// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/veraison/humancode/auth"
	"github.com/veraison/humancode/common"
	"github.com/veraison/humancode/config"
	"github.com/veraison/humancode/humancode"
	"github.com/veraison/humancode/server"
	"k8s.io/klog/v2"
)

// loadOptions layers the configuration: defaults, then the config file, then
// the environment, then args.
func loadOptions(fs *pflag.FlagSet, args []string) (*config.Options, error) {
	opts := config.NewOptions()

	if path := config.FilePath(args, config.EnvPrefix); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}

		if err := opts.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	// flag defaults are taken from opts, so they carry the file values
	opts.AddFlags(fs)

	if err := config.LoadEnv(fs, config.EnvPrefix); err != nil {
		return nil, err
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return opts, nil
}

// newServer wires the options into a ready to serve Server
func newServer(ctx context.Context, opts *config.Options) (*server.Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	signer, err := auth.NewHMACSigner(opts.AppKey)
	if err != nil {
		return nil, err
	}

	tr, err := auth.NewTransport(opts.CACerts)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	client := common.NewClientWithTransport(tr, opts.Timeout)
	client.Debug = opts.Debug

	svc, err := humancode.NewService(opts.BaseURL, opts.AppID, signer)
	if err != nil {
		return nil, err
	}

	if err := svc.SetClient(client); err != nil {
		return nil, err
	}

	return server.New(svc, opts.CallbackURL, opts.VerificationHumanID,
		server.WithLogger(klog.FromContext(ctx)),
		server.WithAllowedOrigins(opts.AllowedOrigins...),
	), nil
}

func run(ctx context.Context, opts *config.Options) error {
	s, err := newServer(ctx, opts)
	if err != nil {
		return err
	}

	return s.Serve(ctx, opts.Listen)
}

// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

// Command humancode-proxy serves the human verification flow over HTTP,
// signing every call to the remote service with the application key so that
// the key never reaches the browser.
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/veraison/humancode/config"
	"k8s.io/klog/v2"
)

func main() {
	fs := pflag.NewFlagSet("humancode-proxy", pflag.ExitOnError)

	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	fs.AddGoFlagSet(klogFlags)

	// ExitOnError: parse failures and --help terminate the process
	opts, err := loadOptions(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	klog.EnableContextualLogging(true)
	defer klog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := klog.Background().WithName("humancode-proxy")
	config.Print(log.V(1), fs)

	if err := run(klog.NewContext(ctx, log), opts); err != nil {
		log.Error(err, "exiting")
		klog.FlushAndExit(klog.ExitFlushTimeout, 1)
	}
}

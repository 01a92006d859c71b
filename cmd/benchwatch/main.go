// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Benchwatch compares Go benchmark results with stored baselines and
// reports regressions.
//
// Usage:
//
//	benchwatch check [flags] [file...]
//	benchwatch baseline list
//	benchwatch baseline show key
//	benchwatch baseline delete key...
//
// "check" reads the output of "go test -bench" from the named files,
// or from standard input, and treats every benchmark line as one
// sample of the region named by the benchmark. Each region is compared
// with its baseline. With -save, the results become the new
// baselines. check exits with status 1 if any region regressed.
//
// Configuration is read from benchwatch.yaml (see -config) and
// BENCHWATCH_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/internal/config"
	"github.com/benchwatch/benchwatch/internal/logging"
)

// errRegressed makes check exit with status 1 without an error message.
var errRegressed = errors.New("regressions found")

// app is the state shared by all commands.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	log     *logrus.Logger
	store   baseline.Store
	closers []func() error
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, cleanup, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { cleanup(); return nil })
	a.cfg, a.log = cfg, log
	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded config")
	}

	store, closeStore, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	a.store = store
	a.closers = append(a.closers, closeStore)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}

func newRootCmd() (*cobra.Command, *app) {
	a := new(app)
	root := &cobra.Command{
		Use:           "benchwatch",
		Short:         "Detect performance regressions in Go benchmark results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "read configuration from `file` instead of benchwatch.yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log `level`")
	root.AddCommand(newCheckCmd(a), newBaselineCmd(a))
	return root, a
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRootCmd()
	defer a.close()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRegressed):
		return 1
	}
	fmt.Fprintf(stderr, "benchwatch: %v\n", err)
	return 2
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

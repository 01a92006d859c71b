// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/benchwatch/benchwatch/benchfmt"
	"github.com/benchwatch/benchwatch/benchmetrics"
	"github.com/benchwatch/benchwatch/benchmetrics/influx"
	"github.com/benchwatch/benchwatch/benchrun"
	"github.com/benchwatch/benchwatch/internal/config"
	"github.com/benchwatch/benchwatch/regress"
	"github.com/benchwatch/benchwatch/report"
)

type checkFlags struct {
	save   bool
	format string
	sort   string
	runID  string
	labels []string
}

func newCheckCmd(a *app) *cobra.Command {
	f := new(checkFlags)
	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Compare benchmark results with their baselines",
		Long: `Check reads "go test -bench" output from the named files, or standard
input, compares every benchmark with its baseline, and prints a report.
It exits with status 1 if any benchmark regressed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd, args, f)
		},
	}
	cmd.Flags().BoolVar(&f.save, "save", false, "save the results as the new baselines")
	cmd.Flags().StringVar(&f.format, "format", string(report.Text), "report `format`: text, html, or benchfmt")
	cmd.Flags().StringVar(&f.sort, "sort", "name", "sort regions by `order`: [-]name, [-]delta, or [-]verdict")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run `id` (default random)")
	cmd.Flags().StringArrayVar(&f.labels, "label", nil, "attach `key=value` to the run (repeatable)")
	return cmd
}

func (a *app) check(cmd *cobra.Command, paths []string, f *checkFlags) error {
	ctx := cmd.Context()
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	order, err := report.ParseOrder(f.sort)
	if err != nil {
		return err
	}
	var runOpts []benchrun.RunOption
	for _, l := range f.labels {
		k, v, ok := strings.Cut(l, "=")
		if !ok || k == "" {
			return fmt.Errorf("bad label %q: want key=value", l)
		}
		runOpts = append(runOpts, benchrun.WithLabel(k, v))
	}
	if f.runID != "" {
		runOpts = append(runOpts, benchrun.WithRunID(f.runID))
	}

	reg, err := benchrun.New(benchrun.WithLogger(a.log), benchrun.WithRecorder(a.cfg.Recorder))
	if err != nil {
		return err
	}
	if err := reg.BeginRun(runOpts...); err != nil {
		return err
	}
	n, warnings, err := benchfmt.Feed(&benchfmt.Files{Paths: paths, AllowStdin: true}, reg)
	for _, w := range warnings {
		a.log.Warn(w)
	}
	if err != nil {
		return err
	}
	res, err := reg.EndRun()
	var unbalanced *benchrun.UnbalancedRegionError
	if err != nil && !errors.As(err, &unbalanced) {
		return err
	}
	if n == 0 {
		return errors.New("no benchmark results")
	}
	a.log.WithFields(logrus.Fields{"run": res.RunID, "samples": n, "regions": len(res.Stats)}).Info("read benchmark results")

	opts, err := a.cfg.Detector.Options()
	if err != nil {
		return err
	}
	d, err := regress.New(opts, regress.WithLogger(a.log), regress.WithConcurrency(a.cfg.Detector.Concurrency))
	if err != nil {
		return err
	}
	// A store failure still yields verdicts for the other regions,
	// so the report is written before the failure is returned.
	rep, storeErr := d.Check(ctx, a.store, res)
	if rep == nil {
		return storeErr
	}
	if err := report.Write(cmd.OutOrStdout(), format, rep, order); err != nil {
		return err
	}

	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := writeMetrics(path, reg, rep); err != nil {
			a.log.WithError(err).Warn("writing metrics failed")
		}
	}
	if in := a.cfg.Metrics.Influx; in.URL != "" {
		if err := exportInflux(ctx, in, rep); err != nil {
			a.log.WithError(err).Warn("influx export failed")
		}
	}
	if f.save {
		if err := d.Promote(ctx, a.store, res); err != nil {
			return err
		}
	}
	if storeErr != nil {
		return storeErr
	}
	if len(rep.Regressed()) > 0 {
		return errRegressed
	}
	return nil
}

func exportInflux(ctx context.Context, c *config.Influx, rep *regress.Report) error {
	e, err := influx.New(influx.Config{
		URL:         c.URL,
		Token:       c.Token,
		Org:         c.Org,
		Bucket:      c.Bucket,
		Measurement: c.Measurement,
	})
	if err != nil {
		return err
	}
	defer e.Close()
	return e.Export(ctx, rep, time.Now())
}

// writeMetrics writes the recorder counters of reg and the verdicts of
// rep to path in the Prometheus text format.
func writeMetrics(path string, reg *benchrun.Registry, rep *regress.Report) error {
	c := benchmetrics.New(reg)
	c.Observe(rep)
	pr := prometheus.NewRegistry()
	if err := pr.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, pr)
}

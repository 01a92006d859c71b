// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchunit"
)

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect and manage stored baselines",
	}
	var asJSON bool
	show := &cobra.Command{
		Use:   "show key",
		Short: "Print the baseline of a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.store.Load(cmd.Context(), args[0])
			if errors.Is(err, baseline.ErrNotFound) {
				return fmt.Errorf("no baseline for %q", args[0])
			} else if err != nil {
				return err
			}
			if asJSON {
				data, err := baseline.Marshal(b)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
				return err
			}
			return printBaseline(cmd.OutOrStdout(), b)
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the regions that have a baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, ok := a.store.(baseline.Lister)
			if !ok {
				return fmt.Errorf("%s store cannot list baselines", a.cfg.Store.Driver)
			}
			keys, err := l.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}, show, &cobra.Command{
		Use:   "delete key...",
		Short: "Delete the baselines of regions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := a.store.(baseline.Deleter)
			if !ok {
				return fmt.Errorf("%s store cannot delete baselines", a.cfg.Store.Driver)
			}
			var errs []error
			for _, key := range args {
				if err := d.Delete(cmd.Context(), key); err != nil {
					errs = append(errs, err)
					continue
				}
				a.log.WithField("region", key).Info("deleted baseline")
			}
			return errors.Join(errs...)
		},
	})
	return cmd
}

func printBaseline(out io.Writer, b *baseline.Baseline) error {
	w := bufio.NewWriter(out)
	st := b.Stats
	fmt.Fprintf(w, "region:  %s\n", b.Key)
	fmt.Fprintf(w, "saved:   %s\n", b.SavedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "samples: %d\n", b.SampleCount)
	if st.Count == 0 {
		return w.Flush()
	}
	fmt.Fprintf(w, "mean:    %s ± %s\n", benchunit.Duration(st.Mean), benchunit.Duration(st.StdDev()))
	fmt.Fprintf(w, "range:   %s .. %s\n", benchunit.Duration(st.Min), benchunit.Duration(st.Max))
	for _, p := range st.Percentiles {
		fmt.Fprintf(w, "p%-6g  %s\n", p.Rank, benchunit.Duration(p.Value))
	}
	if st.Evicted > 0 {
		fmt.Fprintf(w, "evicted: %d\n", st.Evicted)
	}
	return w.Flush()
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package influx writes the results of a run to InfluxDB, one point
// per region, so the history of each region can be charted.
package influx

import (
	"context"
	"fmt"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/benchwatch/benchwatch/regress"
)

// DefaultMeasurement is the measurement name used when
// Config.Measurement is empty.
const DefaultMeasurement = "benchwatch"

// Config identifies an InfluxDB 2 bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	Measurement string
}

// An Exporter writes reports to InfluxDB.
type Exporter struct {
	client      influxdb2.Client
	w           api.WriteAPIBlocking
	measurement string
}

// New returns an Exporter writing to the bucket described by c.
func New(c Config) (*Exporter, error) {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return nil, fmt.Errorf("influx: url, org and bucket are required")
	}
	client := influxdb2.NewClient(c.URL, c.Token)
	e := &Exporter{
		client:      client,
		w:           client.WriteAPIBlocking(c.Org, c.Bucket),
		measurement: c.Measurement,
	}
	if e.measurement == "" {
		e.measurement = DefaultMeasurement
	}
	return e, nil
}

// Close releases the client's resources.
func (e *Exporter) Close() {
	e.client.Close()
}

// Export writes one point per region of rep, stamped with at.
func (e *Exporter) Export(ctx context.Context, rep *regress.Report, at time.Time) error {
	points := e.Points(rep, at)
	if len(points) == 0 {
		return nil
	}
	if err := e.w.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx: writing %d points: %w", len(points), err)
	}
	return nil
}

// Points returns the points Export would write. Each point is tagged
// with the region, run, verdict class, and the run's labels. Regions
// without samples are skipped.
func (e *Exporter) Points(rep *regress.Report, at time.Time) []*write.Point {
	var points []*write.Point
	for _, key := range rep.Keys() {
		st := rep.Stats[key]
		if st == nil || st.Count == 0 {
			continue
		}
		v := rep.Verdicts[key]
		tags := map[string]string{
			"region": key,
			"class":  v.Class.String(),
		}
		if rep.RunID != "" {
			tags["run"] = rep.RunID
		}
		for k, val := range rep.Labels {
			if _, ok := tags[k]; !ok && val != "" {
				tags[k] = val
			}
		}

		fields := map[string]any{
			"count": st.Count,
			"mean":  st.Mean,
			"min":   st.Min,
			"max":   st.Max,
		}
		if st.Count > 1 {
			fields["stddev"] = st.StdDev()
		}
		for _, p := range st.Percentiles {
			fields[fmt.Sprintf("p%g", p.Rank)] = p.Value
		}
		if st.Evicted > 0 {
			fields["evicted"] = int64(st.Evicted)
		}
		// Line protocol cannot carry NaN.
		addFinite(fields, "baseline_mean", v.BaselineMean, v.BaselineCount > 0)
		addFinite(fields, "effect_size", v.EffectSize, true)
		addFinite(fields, "p_value", v.P, true)

		points = append(points, influxdb2.NewPoint(e.measurement, tags, fields, at))
	}
	return points
}

func addFinite(fields map[string]any, name string, x float64, ok bool) {
	if ok && !math.IsNaN(x) && !math.IsInf(x, 0) {
		fields[name] = x
	}
}

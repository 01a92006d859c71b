// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchmetrics exports recorder counters and regression
// verdicts as Prometheus metrics.
//
// Recorder counters restart at zero with every run, which Prometheus
// treats as a counter reset.
package benchmetrics

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benchwatch/benchwatch/benchrec"
	"github.com/benchwatch/benchwatch/regress"
)

const namespace = "benchwatch"

// A CounterSource reports per-region recorder counters.
// *benchrun.Registry implements CounterSource.
type CounterSource interface {
	Counters() map[string]benchrec.Counters
}

// A Collector is a prometheus.Collector for one Registry and the
// verdicts of its runs.
type Collector struct {
	src CounterSource

	recorded *prometheus.Desc
	rejected *prometheus.Desc
	evicted  *prometheus.Desc
	verdict  *prometheus.Desc
	effect   *prometheus.Desc

	mu       sync.Mutex
	verdicts map[string]regress.Verdict
}

var _ prometheus.Collector = (*Collector)(nil)

// New returns a Collector reading counters from src, which may be nil.
func New(src CounterSource) *Collector {
	region := []string{"region"}
	return &Collector{
		src: src,
		recorded: prometheus.NewDesc(namespace+"_samples_recorded_total",
			"Samples accepted by the recorder in the current run.", region, nil),
		rejected: prometheus.NewDesc(namespace+"_samples_rejected_total",
			"Samples rejected as invalid in the current run.", region, nil),
		evicted: prometheus.NewDesc(namespace+"_samples_evicted_total",
			"Accepted samples dropped by a full recorder buffer in the current run.", region, nil),
		verdict: prometheus.NewDesc(namespace+"_verdict",
			"1 for the class of the region's latest verdict, 0 for the other classes.", []string{"region", "class"}, nil),
		effect: prometheus.NewDesc(namespace+"_effect_size",
			"Relative change of the region's mean in its latest verdict.", region, nil),
		verdicts: make(map[string]regress.Verdict),
	}
}

// Observe records the verdicts of rep, replacing earlier verdicts for
// the same regions.
func (c *Collector) Observe(rep *regress.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, v := range rep.Verdicts {
		c.verdicts[key] = v
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recorded
	ch <- c.rejected
	ch <- c.evicted
	ch <- c.verdict
	ch <- c.effect
}

var classes = []regress.Class{regress.InsufficientData, regress.Stable, regress.Improved, regress.Regressed}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.src != nil {
		for key, n := range c.src.Counters() {
			ch <- prometheus.MustNewConstMetric(c.recorded, prometheus.CounterValue, float64(n.Recorded), key)
			ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(n.Rejected), key)
			ch <- prometheus.MustNewConstMetric(c.evicted, prometheus.CounterValue, float64(n.Evicted), key)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, v := range c.verdicts {
		for _, cls := range classes {
			val := 0.0
			if v.Class == cls {
				val = 1
			}
			ch <- prometheus.MustNewConstMetric(c.verdict, prometheus.GaugeValue, val, key, cls.String())
		}
		if !math.IsNaN(v.EffectSize) {
			ch <- prometheus.MustNewConstMetric(c.effect, prometheus.GaugeValue, v.EffectSize, key)
		}
	}
}

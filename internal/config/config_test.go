// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/benchmath"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benchwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.File)
	assert.Equal(t, 0.05, cfg.Detector.SignificanceLevel)
	assert.Equal(t, 0.05, cfg.Detector.MinEffectSize)
	assert.Equal(t, 5, cfg.Detector.MinSampleCount)
	assert.Equal(t, "welch-log", cfg.Detector.Test)
	assert.Equal(t, 8, cfg.Detector.Concurrency)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, ".benchwatch", cfg.Store.Dir)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Store.Redis.Addrs)
	assert.Equal(t, "info", cfg.Log.Level)

	opts, err := cfg.Detector.Options()
	require.NoError(t, err)
	assert.Equal(t, benchmath.WelchLogTest, opts.Test)
}

func TestFile(t *testing.T) {
	path := writeConfig(t, `
detector:
  significance_level: 0.01
  min_effect_size: 0.1
  min_sample_count: 10
  test: utest
  require_significant_improvement: true
recorder:
  capacity: 4096
store:
  driver: redis
  redis:
    addrs: [redis-1:6379, redis-2:6379]
    db: 2
log:
  level: debug
  format: json
metrics:
  textfile: /var/lib/node_exporter/benchwatch.prom
  influx:
    url: http://influx:8086
    org: perf
    bucket: bench
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)

	opts, err := cfg.Detector.Options()
	require.NoError(t, err)
	assert.Equal(t, 0.01, opts.SignificanceLevel)
	assert.Equal(t, 0.1, opts.MinEffectSize)
	assert.Equal(t, 10, opts.MinSampleCount)
	assert.Equal(t, benchmath.UTest, opts.Test)
	assert.True(t, opts.RequireSignificantImprovement)

	assert.Equal(t, 4096, cfg.Recorder.Capacity)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, []string{"redis-1:6379", "redis-2:6379"}, cfg.Store.Redis.Addrs)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, "benchwatch:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/lib/node_exporter/benchwatch.prom", cfg.Metrics.Textfile)
	assert.Equal(t, &Influx{URL: "http://influx:8086", Org: "perf", Bucket: "bench", Measurement: "benchwatch"}, cfg.Metrics.Influx)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite3\n  dsn: a.db\n")
	t.Setenv("BENCHWATCH_STORE_DSN", "b.db")
	t.Setenv("BENCHWATCH_DETECTOR_MIN_EFFECT_SIZE", "0.2")
	t.Setenv("BENCHWATCH_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, "b.db", cfg.Store.DSN)
	assert.Equal(t, 0.2, cfg.Detector.MinEffectSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"alpha":        "detector:\n  significance_level: 2\n",
		"test":         "detector:\n  test: chi-squared\n",
		"driver":       "store:\n  driver: floppy\n",
		"mysql dsn":    "store:\n  driver: mysql\n",
		"gcs bucket":   "store:\n  driver: gcs\n",
		"s3 bucket":    "store:\n  driver: s3\n",
		"neg capacity": "recorder:\n  capacity: -1\n",
		"influx org":   "metrics:\n  influx:\n    url: http://influx:8086\n",
	} {
		_, err := Load(writeConfig(t, data))
		assert.Error(t, err, name)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

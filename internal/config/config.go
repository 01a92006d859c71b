// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the benchwatch command configuration from a
// YAML file and BENCHWATCH_* environment variables.
//
// Environment variables override the file. Nested keys are joined with
// underscores, so store.redis.addr is BENCHWATCH_STORE_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/benchwatch/benchwatch/benchmath"
	"github.com/benchwatch/benchwatch/benchrec"
	"github.com/benchwatch/benchwatch/internal/logging"
	"github.com/benchwatch/benchwatch/regress"
)

// Config is the command configuration.
type Config struct {
	Detector *Detector
	Recorder benchrec.Options
	Store    *Store
	Log      logging.Config
	Metrics  *Metrics

	// File is the configuration file that was read, or "".
	File string
}

// Detector configures regression detection.
type Detector struct {
	SignificanceLevel             float64
	MinEffectSize                 float64
	MinSampleCount                int
	Test                          string
	RequireSignificantImprovement bool
	Concurrency                   int
}

// Options returns the regress.Options described by d.
func (d *Detector) Options() (regress.Options, error) {
	test, err := benchmath.TestByName(d.Test)
	if err != nil {
		return regress.Options{}, err
	}
	opts := regress.Options{
		SignificanceLevel:             d.SignificanceLevel,
		MinEffectSize:                 d.MinEffectSize,
		MinSampleCount:                d.MinSampleCount,
		Test:                          test,
		RequireSignificantImprovement: d.RequireSignificantImprovement,
	}
	return opts, opts.Validate()
}

// Store selects and configures the baseline store.
type Store struct {
	// Driver is one of Drivers.
	Driver string
	// Dir is the directory of the "file" store.
	Dir string
	// DSN is the data source name of the "sqlite3", "mysql" and
	// "postgres" stores.
	DSN   string
	Redis *Redis
	GCS   *GCS
	S3    *S3
}

// Drivers lists the supported store drivers.
var Drivers = []string{"memory", "file", "sqlite3", "mysql", "postgres", "redis", "gcs", "s3"}

// Redis configures the "redis" store.
type Redis struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	Prefix   string
}

// GCS configures the "gcs" store.
type GCS struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	Endpoint        string
}

// S3 configures the "s3" store.
type S3 struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// Metrics configures metrics export.
type Metrics struct {
	// Textfile, if set, is where the command writes its metrics
	// in the text exposition format after each run.
	Textfile string

	// Influx, if Influx.URL is set, receives one point per region
	// after each run.
	Influx *Influx
}

// Influx configures export to an InfluxDB 2 bucket.
type Influx struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

func setDefaults(v *viper.Viper) {
	def := regress.DefaultOptions()
	v.SetDefault("detector.significance_level", def.SignificanceLevel)
	v.SetDefault("detector.min_effect_size", def.MinEffectSize)
	v.SetDefault("detector.min_sample_count", def.MinSampleCount)
	v.SetDefault("detector.test", def.Test.Name())
	v.SetDefault("detector.require_significant_improvement", false)
	v.SetDefault("detector.concurrency", 8)
	v.SetDefault("recorder.capacity", 0)
	v.SetDefault("recorder.shards", 0)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", ".benchwatch")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.redis.addrs", []string{"localhost:6379"})
	v.SetDefault("store.redis.username", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "benchwatch:")
	v.SetDefault("store.gcs.bucket", "")
	v.SetDefault("store.gcs.prefix", "")
	v.SetDefault("store.gcs.credentials_file", "")
	v.SetDefault("store.gcs.endpoint", "")
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.prefix", "")
	v.SetDefault("store.s3.region", "")
	v.SetDefault("store.s3.access_key_id", "")
	v.SetDefault("store.s3.secret_access_key", "")
	v.SetDefault("store.s3.endpoint", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.influx.url", "")
	v.SetDefault("metrics.influx.token", "")
	v.SetDefault("metrics.influx.org", "")
	v.SetDefault("metrics.influx.bucket", "")
	v.SetDefault("metrics.influx.measurement", "benchwatch")
}

// Load reads the configuration. If path is empty, Load looks for an
// optional benchwatch.yaml in the current directory and in
// $HOME/.config/benchwatch; otherwise the file at path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BENCHWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("benchwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/benchwatch")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Detector: getDetectorConfig(v),
		Recorder: benchrec.Options{
			Capacity: v.GetInt("recorder.capacity"),
			Shards:   v.GetInt("recorder.shards"),
		},
		Store: getStoreConfig(v),
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Metrics: getMetricsConfig(v),
		File:    v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getDetectorConfig(v *viper.Viper) *Detector {
	return &Detector{
		SignificanceLevel:             v.GetFloat64("detector.significance_level"),
		MinEffectSize:                 v.GetFloat64("detector.min_effect_size"),
		MinSampleCount:                v.GetInt("detector.min_sample_count"),
		Test:                          v.GetString("detector.test"),
		RequireSignificantImprovement: v.GetBool("detector.require_significant_improvement"),
		Concurrency:                   v.GetInt("detector.concurrency"),
	}
}

func getMetricsConfig(v *viper.Viper) *Metrics {
	return &Metrics{
		Textfile: v.GetString("metrics.textfile"),
		Influx: &Influx{
			URL:         v.GetString("metrics.influx.url"),
			Token:       v.GetString("metrics.influx.token"),
			Org:         v.GetString("metrics.influx.org"),
			Bucket:      v.GetString("metrics.influx.bucket"),
			Measurement: v.GetString("metrics.influx.measurement"),
		},
	}
}

func getStoreConfig(v *viper.Viper) *Store {
	return &Store{
		Driver: v.GetString("store.driver"),
		Dir:    v.GetString("store.dir"),
		DSN:    v.GetString("store.dsn"),
		Redis: &Redis{
			Addrs:    v.GetStringSlice("store.redis.addrs"),
			Username: v.GetString("store.redis.username"),
			Password: v.GetString("store.redis.password"),
			DB:       v.GetInt("store.redis.db"),
			Prefix:   v.GetString("store.redis.prefix"),
		},
		GCS: &GCS{
			Bucket:          v.GetString("store.gcs.bucket"),
			Prefix:          v.GetString("store.gcs.prefix"),
			CredentialsFile: v.GetString("store.gcs.credentials_file"),
			Endpoint:        v.GetString("store.gcs.endpoint"),
		},
		S3: &S3{
			Bucket:          v.GetString("store.s3.bucket"),
			Prefix:          v.GetString("store.s3.prefix"),
			Region:          v.GetString("store.s3.region"),
			AccessKeyID:     v.GetString("store.s3.access_key_id"),
			SecretAccessKey: v.GetString("store.s3.secret_access_key"),
			Endpoint:        v.GetString("store.s3.endpoint"),
		},
	}
}

// Validate reports all configuration errors at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Detector.Options(); err != nil {
		errs = append(errs, fmt.Errorf("detector: %w", err))
	}
	if c.Recorder.Capacity < 0 || c.Recorder.Shards < 0 {
		errs = append(errs, errors.New("recorder: capacity and shards must be non-negative"))
	}
	switch c.Store.Driver {
	case "memory":
	case "file":
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store: file driver needs dir"))
		}
	case "sqlite3", "mysql", "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store: %s driver needs dsn", c.Store.Driver))
		}
	case "redis":
		if len(c.Store.Redis.Addrs) == 0 {
			errs = append(errs, errors.New("store: redis driver needs addrs"))
		}
	case "gcs":
		if c.Store.GCS.Bucket == "" {
			errs = append(errs, errors.New("store: gcs driver needs bucket"))
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			errs = append(errs, errors.New("store: s3 driver needs bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown driver %q (want one of %s)", c.Store.Driver, strings.Join(Drivers, ", ")))
	}
	if in := c.Metrics.Influx; in.URL != "" && (in.Org == "" || in.Bucket == "") {
		errs = append(errs, errors.New("metrics: influx needs org and bucket"))
	}
	return errors.Join(errs...)
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging builds the logrus loggers used across benchwatch.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config configures a logger.
type Config struct {
	Level  string // logrus level name; default "info"
	Format string // "text" or "json"
	Output string // "stderr", "stdout", or a file path
}

// Discard returns a logger that drops everything. Library packages
// use it when the caller doesn't provide one.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// New returns a logger configured by c and a function that releases
// its output.
func New(c Config) (*logrus.Logger, func(), error) {
	l := logrus.New()
	level := logrus.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(c.Level); err != nil {
			return nil, nil, err
		}
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	cleanup := func() {}
	switch c.Output {
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "stdout":
		l.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		l.SetOutput(f)
		cleanup = func() { f.Close() }
	}
	return l, cleanup, nil
}

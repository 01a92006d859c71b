// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filestore implements baseline.Store on a directory of JSON
// files, one per region key.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

const ext = ".json"

// Store is a baseline.Store that keeps each baseline in
// dir/<escaped key>.json. Writes are atomic.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// New returns a Store in dir, creating dir if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+ext)
}

func (s *Store) Load(_ context.Context, key string) (*baseline.Baseline, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path(key))
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	return baseline.Unmarshal(data, key)
}

func (s *Store) Save(_ context.Context, key string, stats *benchmath.Stats, sampleCount int) error {
	b, err := baseline.New(key, stats, sampleCount)
	if err != nil {
		return err
	}
	data, err := baseline.Marshal(b)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), s.path(key)); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}

func (s *Store) List(context.Context) ([]string, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ext)
		if e.IsDir() || !ok {
			continue
		}
		key, err := url.PathUnescape(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	}
	return err
}

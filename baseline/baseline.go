// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package baseline defines how baseline statistics are loaded and
// saved.
//
// A Store maps region keys to the statistics of a previous run. This
// package provides the interface, the record encoding shared by the
// stores, and an in-memory Store. The subpackages implement Store on
// top of files, SQL databases, Redis, and Google Cloud Storage.
package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benchwatch/benchwatch/benchmath"
)

var (
	// ErrNotFound is returned by Load when there is no baseline
	// for a key.
	ErrNotFound = errors.New("baseline not found")

	// ErrInvalid is returned when a stored baseline cannot be
	// decoded or fails validation.
	ErrInvalid = errors.New("invalid baseline")
)

// A Baseline is a stored summary of one region.
type Baseline struct {
	Key string `json:"key"`

	// SampleCount is the number of samples Stats was computed
	// from.
	SampleCount int `json:"sample_count"`

	Stats *benchmath.Stats `json:"stats"`

	SavedAt time.Time `json:"saved_at"`
}

// A Store loads and saves baselines. Implementations must be safe for
// concurrent use.
type Store interface {
	// Load returns the baseline for key. If there is none, it
	// returns an error wrapping ErrNotFound.
	Load(ctx context.Context, key string) (*Baseline, error)

	// Save replaces the baseline for key.
	Save(ctx context.Context, key string, stats *benchmath.Stats, sampleCount int) error
}

// A Lister is a Store that can enumerate its keys.
type Lister interface {
	// List returns all keys with a baseline, in sorted order.
	List(ctx context.Context) ([]string, error)
}

// A Deleter is a Store that can remove baselines. Deleting a missing
// key returns an error wrapping ErrNotFound.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Now returns the time recorded in saved baselines. Tests may replace it.
var Now = func() time.Time { return time.Now().UTC() }

// New returns a Baseline for the arguments of Store.Save, stamped with
// the current time.
func New(key string, stats *benchmath.Stats, sampleCount int) (*Baseline, error) {
	b := &Baseline{Key: key, SampleCount: sampleCount, Stats: stats, SavedAt: Now()}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the invariants of b.
func (b *Baseline) Validate() error {
	switch {
	case b.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalid)
	case b.Stats == nil:
		return fmt.Errorf("%w: %s: no statistics", ErrInvalid, b.Key)
	case b.SampleCount < 0 || b.Stats.Count < 0:
		return fmt.Errorf("%w: %s: negative sample count", ErrInvalid, b.Key)
	case b.Stats.Variance < 0:
		return fmt.Errorf("%w: %s: negative variance", ErrInvalid, b.Key)
	case b.Stats.Count > 0 && !(b.Stats.Min <= b.Stats.Mean && b.Stats.Mean <= b.Stats.Max):
		return fmt.Errorf("%w: %s: mean outside [min, max]", ErrInvalid, b.Key)
	}
	if !sort.SliceIsSorted(b.Stats.Percentiles, func(i, j int) bool {
		return b.Stats.Percentiles[i].Rank < b.Stats.Percentiles[j].Rank
	}) {
		return fmt.Errorf("%w: %s: percentiles out of order", ErrInvalid, b.Key)
	}
	return nil
}

// Marshal encodes b as JSON.
func Marshal(b *Baseline) ([]byte, error) {
	return json.Marshal(b)
}

// Unmarshal decodes a baseline encoded by Marshal. If key is not
// empty, the decoded baseline must be for key.
func Unmarshal(data []byte, key string) (*Baseline, error) {
	b := new(Baseline)
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	if key != "" && b.Key != key {
		return nil, fmt.Errorf("%w: stored key %q, want %q", ErrInvalid, b.Key, key)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// MemStore is a Store that keeps encoded baselines in memory. The
// zero value is an empty store.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Load(_ context.Context, key string) (*Baseline, error) {
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return Unmarshal(data, key)
}

func (m *MemStore) Save(_ context.Context, key string, stats *benchmath.Stats, sampleCount int) error {
	b, err := New(key, stats, sampleCount)
	if err != nil {
		return err
	}
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = data
	return nil
}

func (m *MemStore) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(m.data, key)
	return nil
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package redisstore implements baseline.Store on Redis.
//
// Each baseline is a JSON string at <prefix>b:<key>. The set
// <prefix>keys indexes the stored keys for List.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

// DefaultPrefix is the key prefix used when none is given.
const DefaultPrefix = "benchwatch:"

// Store is a baseline.Store backed by Redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New returns a Store that uses rdb. All keys it touches start with
// prefix, or DefaultPrefix if prefix is empty.
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(key string) string { return s.prefix + "b:" + key }
func (s *Store) index() string         { return s.prefix + "keys" }

func (s *Store) Load(ctx context.Context, key string) (*baseline.Baseline, error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return baseline.Unmarshal(data, key)
}

func (s *Store) Save(ctx context.Context, key string, stats *benchmath.Stats, sampleCount int) error {
	b, err := baseline.New(key, stats, sampleCount)
	if err != nil {
		return err
	}
	data, err := baseline.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), data, 0)
		pipe.SAdd(ctx, s.index(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(key))
		pipe.SRem(ctx, s.index(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	}
	return nil
}

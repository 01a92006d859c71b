// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/baseline/basetest"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestStore(t *testing.T) {
	_, rdb := newTestRedis(t)
	basetest.Run(t, New(rdb, ""))
}

func TestLayout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "ci:")
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "parse", basetest.Stats(t, 1, 2, 3), 3))

	assert.True(t, mr.Exists("ci:b:parse"))
	ok, err := mr.SIsMember("ci:keys", "parse")
	require.NoError(t, err)
	assert.True(t, ok)

	// Corrupt values are reported, not treated as missing.
	require.NoError(t, mr.Set("ci:b:parse", "garbage"))
	_, err = s.Load(ctx, "parse")
	assert.ErrorIs(t, err, baseline.ErrInvalid)
}

func TestUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "")
	mr.Close()
	_, err := s.Load(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, baseline.ErrNotFound)
}

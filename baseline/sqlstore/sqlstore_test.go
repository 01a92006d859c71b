// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/baseline/basetest"
	"github.com/benchwatch/benchwatch/baseline/sqlstore"
	_ "github.com/benchwatch/benchwatch/baseline/sqlstore/sqlite3"
)

func newStore(t *testing.T) *sqlstore.Store {
	s, err := sqlstore.Open("sqlite3", ":memory:")
	require.NoError(t, err, "open database")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	basetest.Run(t, newStore(t))
}

// TestDeleteCascades verifies that the sqlite3 hook turns on foreign
// keys, so deleting a baseline deletes its percentiles.
func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "a", basetest.Stats(t, 1, 2, 3), 3))
	require.NoError(t, s.Save(ctx, "b", basetest.Stats(t, 1, 2, 3), 3))
	n, err := s.CountPercentiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	// Replacing a baseline replaces its percentiles.
	require.NoError(t, s.Save(ctx, "a", basetest.Stats(t, 4, 5, 6), 3))
	n, err = s.CountPercentiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	require.NoError(t, s.Delete(ctx, "a"))
	n, err = s.CountPercentiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package postgres_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/baseline/basetest"
	"github.com/benchwatch/benchwatch/baseline/sqlstore"
	"github.com/benchwatch/benchwatch/baseline/sqlstore/postgres"
)

// TestStore runs against the database named by BENCHWATCH_TEST_POSTGRES,
// for example "postgres://bench@localhost/benchwatch_test".
func TestStore(t *testing.T) {
	dsn := os.Getenv("BENCHWATCH_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("BENCHWATCH_TEST_POSTGRES not set")
	}
	s, err := sqlstore.Open(postgres.DriverName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	basetest.Run(t, s)
}

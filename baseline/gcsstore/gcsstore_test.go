// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gcsstore

import (
	"context"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchwatch/benchwatch/baseline/basetest"
)

var bucket = flag.String("bucket", "", "run the store tests against this Cloud Storage bucket")

func TestObjectNames(t *testing.T) {
	s := New(nil, "baselines/")
	name := s.object("pkg/Decode size=1KB")
	assert.Equal(t, "baselines/pkg/Decode size=1KB.json", name)

	key, ok := s.keyOf(name)
	assert.True(t, ok)
	assert.Equal(t, "pkg/Decode size=1KB", key)

	_, ok = s.keyOf("other/x.json")
	assert.False(t, ok)
	_, ok = s.keyOf("baselines/x.txt")
	assert.False(t, ok)
}

func TestOpenNoBucket(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	if *bucket == "" {
		t.Skip("no -bucket given")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("benchwatch-test-%d/", time.Now().UnixNano())
	s, err := Open(ctx, Config{Bucket: *bucket, Prefix: prefix})
	require.NoError(t, err)
	defer s.Close()
	basetest.Run(t, s)
}

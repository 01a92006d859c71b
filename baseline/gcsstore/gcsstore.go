// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcsstore implements baseline.Store on Google Cloud Storage.
//
// Each baseline is a JSON object named <prefix><key>.json.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

const ext = ".json"

// Store is a baseline.Store backed by a Cloud Storage bucket.
type Store struct {
	client *storage.Client // owned, if opened by Open
	bucket *storage.BucketHandle
	prefix string
}

// New returns a Store that keeps baselines in bucket under prefix.
func New(bucket *storage.BucketHandle, prefix string) *Store {
	return &Store{bucket: bucket, prefix: prefix}
}

// Config selects the bucket and credentials for Open.
type Config struct {
	Bucket string
	Prefix string

	// CredentialsFile is a service account key file. If empty,
	// and TokenSource is nil, Application Default Credentials are
	// used.
	CredentialsFile string

	// TokenSource supplies OAuth2 tokens, for example from a
	// workload identity exchange.
	TokenSource oauth2.TokenSource

	// Endpoint overrides the service endpoint, for emulators.
	Endpoint string
}

// Open creates a Cloud Storage client for c and returns a Store on
// c.Bucket. Close releases the client.
func Open(ctx context.Context, c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("gcsstore: no bucket")
	}
	var opts []option.ClientOption
	switch {
	case c.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(c.TokenSource))
	case c.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	s := New(client.Bucket(c.Bucket), c.Prefix)
	s.client = client
	return s, nil
}

// Close closes the client created by Open. It does nothing for a
// Store created by New.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) object(key string) string {
	return s.prefix + key + ext
}

// keyOf returns the region key of the object named name.
func (s *Store) keyOf(name string) (string, bool) {
	name, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(name, ext)
}

func (s *Store) Load(ctx context.Context, key string) (*baseline.Baseline, error) {
	r, err := s.bucket.Object(s.object(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
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
	w := s.bucket.Object(s.object(key)).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		if key, ok := s.keyOf(attrs.Name); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(s.object(key)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	}
	return err
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package s3store implements baseline.Store on Amazon S3 or an
// S3-compatible service.
//
// Each baseline is a JSON object named <prefix><key>.json.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

const ext = ".json"

// Store is a baseline.Store backed by an S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New returns a Store that keeps baselines in bucket under prefix.
func New(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Config selects the bucket and credentials for Open.
type Config struct {
	Bucket string
	Prefix string
	Region string

	// AccessKeyID and SecretAccessKey are static credentials. If
	// they are empty, the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint is the URL of an S3-compatible service. Setting it
	// selects path-style addressing.
	Endpoint string
}

// Open loads the AWS configuration for c and returns a Store on
// c.Bucket.
func Open(ctx context.Context, c Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3store: no bucket")
	}
	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, c.Bucket, c.Prefix), nil
}

func (s *Store) object(key string) string {
	return s.prefix + key + ext
}

func (s *Store) keyOf(name string) (string, bool) {
	name, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(name, ext)
}

// isNotFound reports whether err is a 404 response. GET fails with
// NoSuchKey but HEAD has no error body.
func isNotFound(err error) bool {
	var re interface{ HTTPStatusCode() int }
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

func (s *Store) Load(ctx context.Context, key string) (*baseline.Baseline, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.object(key)),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
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
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.object(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		for _, obj := range page.Contents {
			if key, ok := s.keyOf(aws.ToString(obj.Key)); ok {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements baseline.Deleter. S3 deletes are idempotent, so
// the object is checked for first.
func (s *Store) Delete(ctx context.Context, key string) error {
	in := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.object(key)),
	}
	if _, err := s.client.HeadObject(ctx, in); isNotFound(err) {
		return fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: in.Bucket,
		Key:    in.Key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

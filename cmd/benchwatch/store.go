// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/baseline/filestore"
	"github.com/benchwatch/benchwatch/baseline/gcsstore"
	"github.com/benchwatch/benchwatch/baseline/redisstore"
	"github.com/benchwatch/benchwatch/baseline/s3store"
	"github.com/benchwatch/benchwatch/baseline/sqlstore"
	"github.com/benchwatch/benchwatch/baseline/sqlstore/postgres"
	_ "github.com/benchwatch/benchwatch/baseline/sqlstore/sqlite3"
	"github.com/benchwatch/benchwatch/internal/config"
)

func noClose() error { return nil }

// openStore opens the baseline store selected by c and returns it with
// a function that releases it.
func openStore(ctx context.Context, c *config.Store) (baseline.Store, func() error, error) {
	switch c.Driver {
	case "memory":
		return baseline.NewMemStore(), noClose, nil
	case "file":
		s, err := filestore.New(c.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil
	case "sqlite3", "mysql":
		s, err := sqlstore.Open(c.Driver, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := sqlstore.Open(postgres.DriverName, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    c.Redis.Addrs,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		return redisstore.New(rdb, c.Redis.Prefix), rdb.Close, nil
	case "gcs":
		s, err := gcsstore.Open(ctx, gcsstore.Config{
			Bucket:          c.GCS.Bucket,
			Prefix:          c.GCS.Prefix,
			CredentialsFile: c.GCS.CredentialsFile,
			Endpoint:        c.GCS.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "s3":
		s, err := s3store.Open(ctx, s3store.Config{
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			Region:          c.S3.Region,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
}

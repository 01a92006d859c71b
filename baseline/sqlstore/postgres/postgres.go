// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package postgres provides the PostgreSQL driver for sqlstore.Open.
// The driver is pgx, registered as DriverName.
package postgres

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DriverName is the driver name to pass to sqlstore.Open.
const DriverName = "pgx"

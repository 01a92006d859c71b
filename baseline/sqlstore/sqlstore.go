// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlstore implements baseline.Store on a SQL database.
package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/benchwatch/benchwatch/baseline"
	"github.com/benchwatch/benchwatch/benchmath"
)

// Store is a baseline.Store backed by a SQL database. It's safe for
// concurrent use by multiple goroutines.
type Store struct {
	sql *sql.DB // underlying database connection
	pg  bool    // PostgreSQL placeholders
	// prepared statements
	upsertBaseline   *sql.Stmt
	deletePercentile *sql.Stmt
	insertPercentile *sql.Stmt
}

// Open creates a Store backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql, sqlite3 and pgx
// (PostgreSQL, see package postgres) are explicitly supported; other
// database engines will receive MySQL query syntax which may or may
// not be compatible. MySQL data source names must set parseTime=true.
func Open(driverName, dataSourceName string) (*Store, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	s := &Store{sql: db, pg: driverName == "pgx"}
	if err := s.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(driverName); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
{{- $double := "DOUBLE"}}{{if .pgx}}{{$double = "DOUBLE PRECISION"}}{{end -}}
CREATE TABLE IF NOT EXISTS Baselines (
	RegionKey VARCHAR(255) PRIMARY KEY,
	SampleCount BIGINT,
	Count BIGINT,
	Mean {{$double}},
	Variance {{$double}},
	Min {{$double}},
	Max {{$double}},
	SavedAt {{if .sqlite3}}TIMESTAMP{{else if .pgx}}TIMESTAMPTZ{{else}}DATETIME(6){{end}},
	Extra {{if .pgx}}BYTEA{{else}}BLOB{{end}}
);
CREATE TABLE IF NOT EXISTS Percentiles (
	RegionKey VARCHAR(255),
	PctRank {{$double}},
	Value {{$double}},
	PRIMARY KEY (RegionKey, PctRank),
	FOREIGN KEY (RegionKey) REFERENCES Baselines(RegionKey) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// s.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (s *Store) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := s.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls s.sql.Prepare on reusable SQL statements.
func (s *Store) prepareStatements(driverName string) error {
	var err error
	q := `INSERT INTO Baselines(RegionKey, SampleCount, Count, Mean, Variance, Min, Max, SavedAt, Extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE SampleCount=VALUES(SampleCount), Count=VALUES(Count), Mean=VALUES(Mean),
		Variance=VALUES(Variance), Min=VALUES(Min), Max=VALUES(Max), SavedAt=VALUES(SavedAt), Extra=VALUES(Extra)`
	if driverName == "sqlite3" || driverName == "pgx" {
		q = `INSERT INTO Baselines(RegionKey, SampleCount, Count, Mean, Variance, Min, Max, SavedAt, Extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(RegionKey) DO UPDATE SET SampleCount=excluded.SampleCount, Count=excluded.Count,
		Mean=excluded.Mean, Variance=excluded.Variance, Min=excluded.Min, Max=excluded.Max,
		SavedAt=excluded.SavedAt, Extra=excluded.Extra`
	}
	if s.upsertBaseline, err = s.sql.Prepare(s.bind(q)); err != nil {
		return err
	}
	if s.deletePercentile, err = s.sql.Prepare(s.bind("DELETE FROM Percentiles WHERE RegionKey = ?")); err != nil {
		return err
	}
	if s.insertPercentile, err = s.sql.Prepare(s.bind("INSERT INTO Percentiles(RegionKey, PctRank, Value) VALUES (?, ?, ?)")); err != nil {
		return err
	}
	return nil
}

// bind rewrites the ? placeholders of q in the style of the driver.
func (s *Store) bind(q string) string {
	if !s.pg {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		fmt.Fprintf(&b, "$%d", n)
	}
	return b.String()
}

// extra holds the statistics that don't have their own columns.
type extra struct {
	HasLog      bool              `json:"has_log,omitempty"`
	LogMean     float64           `json:"log_mean,omitempty"`
	LogVariance float64           `json:"log_variance,omitempty"`
	Sketch      *benchmath.Sketch `json:"sketch,omitempty"`
	Evicted     uint64            `json:"evicted,omitempty"`
}

// Save implements baseline.Store. The baseline and its percentiles
// are replaced in a single transaction.
func (s *Store) Save(ctx context.Context, key string, stats *benchmath.Stats, sampleCount int) (err error) {
	b, err := baseline.New(key, stats, sampleCount)
	if err != nil {
		return err
	}
	ex, err := json.Marshal(extra{stats.HasLog, stats.LogMean, stats.LogVariance, stats.Sketch, stats.Evicted})
	if err != nil {
		return err
	}

	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.StmtContext(ctx, s.upsertBaseline).ExecContext(ctx,
		key, sampleCount, stats.Count, stats.Mean, stats.Variance, stats.Min, stats.Max, b.SavedAt, ex); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if _, err = tx.StmtContext(ctx, s.deletePercentile).ExecContext(ctx, key); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	insert := tx.StmtContext(ctx, s.insertPercentile)
	for _, p := range stats.Percentiles {
		if _, err = insert.ExecContext(ctx, key, p.Rank, p.Value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Load implements baseline.Store.
func (s *Store) Load(ctx context.Context, key string) (*baseline.Baseline, error) {
	b := &baseline.Baseline{Key: key, Stats: new(benchmath.Stats)}
	st := b.Stats
	var ex []byte
	err := s.sql.QueryRowContext(ctx,
		s.bind("SELECT SampleCount, Count, Mean, Variance, Min, Max, SavedAt, Extra FROM Baselines WHERE RegionKey = ?"), key).
		Scan(&b.SampleCount, &st.Count, &st.Mean, &st.Variance, &st.Min, &st.Max, &b.SavedAt, &ex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	var e extra
	if len(ex) > 0 {
		if err := json.Unmarshal(ex, &e); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", baseline.ErrInvalid, key, err)
		}
	}
	st.HasLog, st.LogMean, st.LogVariance, st.Sketch, st.Evicted = e.HasLog, e.LogMean, e.LogVariance, e.Sketch, e.Evicted

	rows, err := s.sql.QueryContext(ctx, s.bind("SELECT PctRank, Value FROM Percentiles WHERE RegionKey = ? ORDER BY PctRank"), key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p benchmath.Percentile
		if err := rows.Scan(&p.Rank, &p.Value); err != nil {
			return nil, err
		}
		st.Percentiles = append(st.Percentiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	b.SavedAt = b.SavedAt.UTC()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// List implements baseline.Lister.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT RegionKey FROM Baselines ORDER BY RegionKey")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete implements baseline.Deleter. Percentiles are removed by the
// foreign key cascade.
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.sql.ExecContext(ctx, s.bind("DELETE FROM Baselines WHERE RegionKey = ?"), key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%s: %w", key, baseline.ErrNotFound)
	}
	return nil
}

// CountPercentiles returns the number of stored percentile rows.
func (s *Store) CountPercentiles(ctx context.Context) (int, error) {
	var n int
	err := s.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Percentiles").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.upsertBaseline, s.deletePercentile, s.insertPercentile} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return s.sql.Close()
}

// Package sqlitestore provides the SQLite-backed Store implementation.
// It uses a cgo-free driver and keeps timestamps as fixed-width UTC text
// so that string comparison in SQL matches chronological order.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rookery/internal/database"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 with fixed nine-digit nanoseconds in UTC.
// Fixed width is load-bearing: feed pagination compares sort keys as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements database.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ database.Store = (*Store)(nil)

// Options configures the SQLite store.
type Options struct {
	// Path to the database file. Parent directories are created if needed.
	Path string
}

// Open creates or opens the database at the given path, applies the schema,
// and returns the store. The connection is instrumented so every round trip
// to the store shows up as a span.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "rookery.db"
	}

	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", opts.Path)
	db, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent requests.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// placeholders returns "?, ?, ..., ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func stringArgs(vals []string) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}

// Package cache persists records in a single SQLite file. Every operation
// opens its own connection and runs in its own transaction.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"

	"rssreader/internal/record"
)

const table = "ITEMS"

// ErrUnknownField is returned when a filter names a column the cache does not have.
var ErrUnknownField = errors.New("unknown field")

// Filter is a conjunction of column = value predicates.
type Filter map[string]string

// Store is a handle on the cache file. It holds no open connection.
type Store struct {
	path string
}

// New returns a Store backed by the SQLite file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// dsn builds a file: URI for path. The path is made absolute and escaped so
// spaces, '?' and '#' in directory names survive.
func dsn(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "_pragma=busy_timeout(5000)"}
	return u.String(), nil
}

func open(path string) (*sql.DB, error) {
	name, err := dsn(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", name)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// withTx opens a connection, runs fn inside a transaction and commits. The
// transaction is rolled back when fn fails and the connection is always closed.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := open(s.path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpsertOne stores rec unless a row with the same guid already exists.
func (s *Store) UpsertOne(ctx context.Context, rec record.Record) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertIgnoreInto(table).Cols(record.Columns...).Values(lo.ToAnySlice(rec.Values())...)
	query, args := ib.Build()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", rec.GUID, err)
		}
		return nil
	})
}

// UpsertMany stores every record, replacing rows that share a guid.
func (s *Store) UpsertMany(ctx context.Context, recs []record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.ReplaceInto(table).Cols(record.Columns...).Values(lo.ToAnySlice(rec.Values())...)
			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("replace %s: %w", rec.GUID, err)
			}
		}
		return nil
	})
}

// Query returns the rows matching every predicate of f, ordered by source
// then filter date. A positive limit caps the result. Each row only holds
// its non-empty columns.
func (s *Store) Query(ctx context.Context, f Filter, limit int) ([]map[string]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(record.Columns...).From(table)

	keys := lo.Keys(f)
	slices.Sort(keys)
	for _, k := range keys {
		if !record.IsColumn(k) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
		sb.Where(sb.Equal(k, f[k]))
	}
	sb.OrderBy("source", "filter_date").Asc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	var out []map[string]string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			values := make([]sql.NullString, len(record.Columns))
			dest := lo.Map(values, func(_ sql.NullString, i int) any { return &values[i] })
			if err := rows.Scan(dest...); err != nil {
				return fmt.Errorf("scan item: %w", err)
			}
			row := make(map[string]string, len(record.Columns))
			for i, col := range record.Columns {
				if values[i].Valid && values[i].String != "" {
					row[col] = values[i].String
				}
			}
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the row with guid. A missing row is not an error.
func (s *Store) Delete(ctx context.Context, guid string) error {
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom(table).Where(del.Equal("guid", guid))
	query, args := del.Build()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s: %w", guid, err)
		}
		return nil
	})
}

// Count returns the number of cached rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From(table)
	query, args := sb.Build()

	var n int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return n, err
}

// Package sqlitedump converts SQLite-backed static resources into decoded
// value trees.
package sqlitedump

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/danmuck/fsdctl/internal/fsd"
	logs "github.com/danmuck/fsdctl/internal/logging"
)

// Magic is the header every SQLite 3 database file starts with.
var Magic = []byte("SQLite format 3\x00")

var ErrNotSQLite = errors.New("sqlitedump: not a sqlite database")

func IsSQLite(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Dump reads every table of the database at path. The result maps table name
// to a list of records keyed by column name, tables and rows in storage order.
func Dump(ctx context.Context, path string) (*fsd.Map, error) {
	head := make([]byte, len(Magic))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedump open failed (%s): %w", path, err)
	}
	_, err = io.ReadFull(f, head)
	f.Close()
	if err != nil || !IsSQLite(head) {
		return nil, fmt.Errorf("%w: %s", ErrNotSQLite, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedump open failed (%s): %w", path, err)
	}
	defer db.Close()

	tables, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}
	out := fsd.NewMap(len(tables))
	for _, table := range tables {
		rows, err := dumpTable(ctx, db, table)
		if err != nil {
			return nil, err
		}
		logs.Debugf("sqlitedump.Dump table=%s rows=%d", table, len(rows))
		out.Set(table, rows)
	}
	return out, nil
}

// DumpBytes dumps an in-memory database image through a temporary file.
func DumpBytes(ctx context.Context, blob []byte) (*fsd.Map, error) {
	if !IsSQLite(blob) {
		return nil, ErrNotSQLite
	}
	f, err := os.CreateTemp("", "fsdctl-*.sqlite")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	defer os.Remove(name)
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return Dump(ctx, name)
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, fmt.Errorf("sqlitedump list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func dumpTable(ctx context.Context, db *sql.DB, table string) (fsd.List, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("sqlitedump table %s: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := fsd.List{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlitedump table %s: %w", table, err)
		}
		rec := fsd.NewRecord(len(cols))
		for i, col := range cols {
			rec.Set(col, cellValue(vals[i]))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitedump table %s: %w", table, err)
	}
	return out, nil
}

// cellValue maps driver values onto decoded value types. Text stored as BLOB
// is returned as a string.
func cellValue(v any) fsd.Value {
	switch x := v.(type) {
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return append([]byte(nil), x...)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

package sqlitedump

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

func writeBlueprintDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blueprints.static")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE cache (key INTEGER PRIMARY KEY, value TEXT)`,
		`INSERT INTO cache (key, value) VALUES (681, '{"blueprintTypeID":681}')`,
		`INSERT INTO cache (key, value) VALUES (682, '{"blueprintTypeID":682}')`,
		`CREATE TABLE "odd ""name""" (ratio REAL, data BLOB)`,
		`INSERT INTO "odd ""name""" (ratio, data) VALUES (0.5, x'00ff')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	return path
}

func TestDumpTablesInOrder(t *testing.T) {
	testlog.Start(t)
	path := writeBlueprintDB(t)
	out, err := Dump(context.Background(), path)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if diff := cmp.Diff([]fsd.Value{"cache", `odd "name"`}, out.Keys()); diff != "" {
		t.Fatalf("tables (-want +got):\n%s", diff)
	}
	v, _ := out.Get("cache")
	rows := v.(fsd.List)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0].(*fsd.Record)
	if diff := cmp.Diff([]string{"key", "value"}, first.Fields()); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	key, _ := first.Get("key")
	value, _ := first.Get("value")
	if key != int64(681) || value != `{"blueprintTypeID":681}` {
		t.Fatalf("unexpected row: key=%v value=%v", key, value)
	}

	v, _ = out.Get(`odd "name"`)
	odd := v.(fsd.List)[0].(*fsd.Record)
	data, _ := odd.Get("data")
	if diff := cmp.Diff([]byte{0x00, 0xff}, data); diff != "" {
		t.Fatalf("blob (-want +got):\n%s", diff)
	}
}

func TestDumpBytes(t *testing.T) {
	testlog.Start(t)
	blob, err := os.ReadFile(writeBlueprintDB(t))
	if err != nil {
		t.Fatalf("read db: %v", err)
	}
	if !IsSQLite(blob) {
		t.Fatalf("IsSQLite rejected a database image")
	}
	out, err := DumpBytes(context.Background(), blob)
	if err != nil {
		t.Fatalf("dump bytes: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 tables, got %d", out.Len())
	}
	if _, err := DumpBytes(context.Background(), []byte("not a db")); !errors.Is(err, ErrNotSQLite) {
		t.Fatalf("expected ErrNotSQLite, got %v", err)
	}
}

func TestDumpRejectsOtherFiles(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "types.fsdbinary")
	if err := os.WriteFile(path, []byte{4, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Dump(context.Background(), path); !errors.Is(err, ErrNotSQLite) {
		t.Fatalf("expected ErrNotSQLite, got %v", err)
	}
	if _, err := Dump(context.Background(), filepath.Join(t.TempDir(), "missing.static")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

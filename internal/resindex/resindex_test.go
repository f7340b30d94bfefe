package resindex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

const sampleIndex = `
res:/staticdata/types.fsdbinary,ab/abcdef_types,abcdef,0,6
res:/staticdata/blueprints.static,cd/cd0123_bp,cd0123,0,3
res:/staticdata/short
res:/staticdata/Groups.fsdbinary,ef/ef99_groups,ef99,2,3
res:/staticdata/types.fsdbinary,ab/abcdef_types2,abcdef,0,4
`

func TestParseSkipsBlankAndShortLines(t *testing.T) {
	testlog.Start(t)
	idx, err := Parse(strings.NewReader(sampleIndex))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", idx.Len())
	}
	e, err := idx.Lookup("res:/staticdata/types.fsdbinary")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if e.HashPath != "ab/abcdef_types2" || e.Size != 4 || e.Line != 6 {
		t.Fatalf("later line should win: %+v", e)
	}
	if _, err := idx.Lookup("res:/missing"); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed, got %v", err)
	}
}

func TestParseBadNumber(t *testing.T) {
	testlog.Start(t)
	_, err := Parse(strings.NewReader("a,b,c,0,1\nres:/x,h,f,zero,1\n"))
	if !errors.Is(err, ErrBadLine) {
		t.Fatalf("expected ErrBadLine, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error should name the line: %v", err)
	}
}

func TestFindIsCaseInsensitiveAndSorted(t *testing.T) {
	testlog.Start(t)
	idx, err := Parse(strings.NewReader(sampleIndex))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := idx.Find("FSDBINARY")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ResourcePath != "res:/staticdata/Groups.fsdbinary" {
		t.Fatalf("matches not sorted: %v", got)
	}
}

func TestStoreRead(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	write := func(rel string, data string) {
		t.Helper()
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("ab/abcdef_types", "whole!")
	write("ef/ef99_groups", "xxabcxx")

	store := Store{Root: root}

	whole, err := store.Read(Entry{ResourcePath: "t", HashPath: "ab/abcdef_types", Offset: 100, Size: 3})
	if err != nil || string(whole) != "whole!" {
		t.Fatalf("offset past end should read whole file: %q %v", whole, err)
	}
	slice, err := store.Read(Entry{ResourcePath: "g", HashPath: "ef/ef99_groups", Offset: 2, Size: 3})
	if err != nil || string(slice) != "abc" {
		t.Fatalf("slice read: %q %v", slice, err)
	}
	if _, err := store.Read(Entry{ResourcePath: "g", HashPath: "ef/ef99_groups", Offset: 5, Size: 9}); !errors.Is(err, ErrShortBlob) {
		t.Fatalf("expected ErrShortBlob, got %v", err)
	}
	if _, err := store.Read(Entry{ResourcePath: "m", HashPath: "zz/none"}); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}

	// hash-prefix fallback layout
	write("cd/cd0123_bp", "bp!")
	got, err := store.Read(Entry{ResourcePath: "b", HashPath: "other/cd0123_bp", FileHash: "cd0123", Offset: 0, Size: 3})
	if err != nil || string(got) != "bp!" {
		t.Fatalf("fallback layout: %q %v", got, err)
	}
}

func TestStoreReadOversizedSizeColumn(t *testing.T) {
	testlog.Start(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ab"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "ab", "blob"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx, err := Parse(strings.NewReader("res:/x,ab/blob,abcd,0,9000000000000000000\nres:/y,ab/blob,abcd,1,5\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	store := Store{Root: root}
	for _, res := range []string{"res:/x", "res:/y"} {
		e, err := idx.Lookup(res)
		if err != nil {
			t.Fatalf("lookup %s: %v", res, err)
		}
		if _, err := store.Read(e); !errors.Is(err, ErrShortBlob) {
			t.Fatalf("%s: expected ErrShortBlob, got %v", res, err)
		}
	}
}

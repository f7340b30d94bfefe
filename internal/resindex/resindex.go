// Package resindex resolves logical resource paths to content-addressed blobs.
//
// Ownership boundary:
// - resfileindex.txt parsing
// - ResFiles blob lookup and slicing
package resindex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	logs "github.com/danmuck/fsdctl/internal/logging"
)

var (
	ErrNotIndexed   = errors.New("resindex: resource not in index")
	ErrBadLine      = errors.New("resindex: malformed index line")
	ErrBlobNotFound = errors.New("resindex: blob not found")
	ErrShortBlob    = errors.New("resindex: blob shorter than indexed size")
)

// Entry is one resfileindex.txt line.
type Entry struct {
	ResourcePath string
	HashPath     string
	FileHash     string
	Offset       int64
	Size         int64
	Line         int
}

// Index maps resource paths to entries. Later lines replace earlier ones.
type Index struct {
	entries map[string]Entry
}

func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resindex open failed (%s): %w", path, err)
	}
	defer f.Close()
	idx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logs.Debugf("resindex.Load path=%s entries=%d", path, idx.Len())
	return idx, nil
}

// Parse reads "resource_path,hash_path,file_hash,offset,size" lines. Blank
// lines and lines with fewer than five fields are skipped.
func Parse(r io.Reader) (*Index, error) {
	idx := &Index{entries: make(map[string]Entry)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) < 5 {
			logs.Debugf("resindex.Parse skip line=%d fields=%d", line, len(parts))
			continue
		}
		off, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil || off < 0 {
			return nil, fmt.Errorf("%w: line %d: offset %q", ErrBadLine, line, parts[3])
		}
		size, err := strconv.ParseInt(strings.TrimSpace(parts[4]), 10, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: line %d: size %q", ErrBadLine, line, parts[4])
		}
		idx.entries[parts[0]] = Entry{
			ResourcePath: parts[0],
			HashPath:     parts[1],
			FileHash:     parts[2],
			Offset:       off,
			Size:         size,
			Line:         line,
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("resindex: read line %d: %w", line+1, err)
	}
	return idx, nil
}

func (i *Index) Len() int { return len(i.entries) }

func (i *Index) Lookup(resPath string) (Entry, error) {
	e, ok := i.entries[resPath]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotIndexed, resPath)
	}
	return e, nil
}

// Find returns entries whose resource path contains term, ignoring case,
// sorted by resource path.
func (i *Index) Find(term string) []Entry {
	needle := strings.ToLower(term)
	var out []Entry
	for path, e := range i.entries {
		if strings.Contains(strings.ToLower(path), needle) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ResourcePath < out[b].ResourcePath })
	return out
}

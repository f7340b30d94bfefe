package resindex

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// Store reads blobs from a ResFiles directory.
type Store struct {
	Root string
}

// Candidates lists the locations tried for e, in order.
func (s Store) Candidates(e Entry) []string {
	out := []string{filepath.Join(s.Root, filepath.FromSlash(e.HashPath))}
	if len(e.FileHash) >= 2 {
		out = append(out, filepath.Join(s.Root, e.FileHash[:2], path.Base(e.HashPath)))
	}
	return out
}

// Path returns the first existing blob file for e.
func (s Store) Path(e Entry) (string, error) {
	for _, p := range s.Candidates(e) {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s under %s)", ErrBlobNotFound, e.ResourcePath, e.HashPath, s.Root)
}

// Read returns the bytes of e. When the indexed offset lies inside the blob
// file, Size bytes are read from it; otherwise the whole file is the resource.
func (s Store) Read(e Entry) ([]byte, error) {
	p, err := s.Path(e)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("resindex open failed (%s): %w", p, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if e.Offset >= st.Size() {
		return io.ReadAll(f)
	}
	if avail := st.Size() - e.Offset; e.Size > avail {
		return nil, fmt.Errorf("%w: %s has %d of %d bytes at offset %d", ErrShortBlob, p, avail, e.Size, e.Offset)
	}
	buf := make([]byte, e.Size)
	n, err := f.ReadAt(buf, e.Offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("resindex read failed (%s): %w", p, err)
	}
	if int64(n) < e.Size {
		return nil, fmt.Errorf("%w: %s has %d of %d bytes at offset %d", ErrShortBlob, p, n, e.Size, e.Offset)
	}
	return buf, nil
}

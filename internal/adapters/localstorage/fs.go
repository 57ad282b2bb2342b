package localstorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RecordFile is the append-only line-delimited output of the fetch
// pipeline. Opening it truncates any previous contents; every AppendLine
// writes one intact newline-terminated line, serialized across concurrent
// workers.
type RecordFile struct {
	mu sync.Mutex
	f  *os.File
}

// OpenRecordFile opens path in truncate-then-append mode, creating parent
// directories as needed.
func OpenRecordFile(path string) (*RecordFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file %s: %w", path, err)
	}
	return &RecordFile{f: f}, nil
}

// AppendLine writes data followed by a newline as a single write.
func (r *RecordFile) AppendLine(data []byte) error {
	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.f.Write(line); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (r *RecordFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}

// MediaStore implements ports.MediaStore on the local filesystem, laying
// assets out as <root>/<shipID>/<filename>.
type MediaStore struct {
	Root string
}

// NewMediaStore creates a store rooted at the given directory.
func NewMediaStore(root string) *MediaStore {
	return &MediaStore{Root: root}
}

// Exists reports whether a completed asset is present. Partial downloads
// live at a .part path, so a regular file at the final path is complete.
func (s *MediaStore) Exists(relPath string) bool {
	info, err := os.Stat(s.Path(relPath))
	return err == nil && info.Mode().IsRegular()
}

// Save streams the reader to <root>/<relPath>. The data is written to a
// temporary .part file and renamed into place once the copy completed, so
// the final path never holds a truncated asset.
func (s *MediaStore) Save(relPath string, reader io.Reader) (int64, error) {
	dest := s.Path(relPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create media file %s: %w", tmp, err)
	}

	n, err := io.Copy(file, reader)
	if err != nil {
		file.Close()
		os.Remove(tmp)
		return n, fmt.Errorf("failed to write media file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to close media file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return n, fmt.Errorf("failed to finalize media file: %w", err)
	}
	return n, nil
}

// Path returns the absolute destination for a relative asset path.
func (s *MediaStore) Path(relPath string) string {
	return filepath.Join(s.Root, relPath)
}

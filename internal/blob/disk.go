// Package blob stores uploaded binary objects and hands back URLs the API
// can serve. The only implementation writes to a local uploads directory.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves objects and returns the public URL path they are served from.
type Store interface {
	Store(filename string, r io.Reader) (string, error)
}

// DiskStore writes objects under dir; the router serves that directory at
// the /uploads/ prefix.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures dir exists and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (d *DiskStore) Dir() string {
	return d.dir
}

// Store writes the object under a random name (original extension kept) and
// returns its URL path.
func (d *DiskStore) Store(filename string, r io.Reader) (string, error) {
	name := uuid.New().String() + sanitizeExt(filename)
	path := filepath.Join(d.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return "/uploads/" + name, nil
}

// sanitizeExt keeps a short, dot-prefixed extension and drops anything that
// could smuggle path separators into the stored name.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

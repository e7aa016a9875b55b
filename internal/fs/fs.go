// Package fs provides the read-only filesystems resources are traversed on:
// the local disk or a git ref.
package fs

import (
	"path"
	"time"
)

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// DirEntry represents a single directory entry. For a symbolic link IsDir
// describes the link target.
type DirEntry struct {
	Name    string
	IsDir   bool
	Symlink bool
}

// FileSystem abstracts the read operations a resource needs, so the same
// traversal works over the local filesystem or a git object database.
//
// Errors for missing paths must satisfy errors.Is(err, fs.ErrNotExist).
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}

// Join appends name to dir. An empty or "." dir yields name unchanged.
func Join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}

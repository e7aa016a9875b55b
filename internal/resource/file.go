package resource

import (
	"errors"
	iofs "io/fs"

	mfs "github.com/CageChen/assethub/internal/fs"
)

// FileResource is a single file on a FileSystem.
type FileResource struct {
	fsys mfs.FileSystem
	path string
}

// NewFile creates a resource for the file at path. It does not touch the filesystem.
func NewFile(fsys mfs.FileSystem, path string) *FileResource {
	return &FileResource{fsys: fsys, path: path}
}

// Path returns the file's path on its FileSystem.
func (f *FileResource) Path() string {
	return f.path
}

// Stat returns the file's current metadata.
func (f *FileResource) Stat() (mfs.FileInfo, error) {
	info, err := f.fsys.Stat(f.path)
	if err != nil {
		kind := KindIO
		if errors.Is(err, iofs.ErrNotExist) {
			kind = KindNotFound
		}
		return mfs.FileInfo{}, &Error{Kind: kind, Op: "stat", Path: f.path, Err: err}
	}
	return info, nil
}

// IsFresh reports whether the file exists and was last modified at or before
// timestamp. A file that no longer exists is stale.
func (f *FileResource) IsFresh(timestamp int64) (bool, error) {
	info, err := f.fsys.Stat(f.path)
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Kind: KindIO, Op: "stat", Path: f.path, Err: err}
	}
	return info.ModTime.Unix() <= timestamp, nil
}

// Content returns the file's bytes as a string.
func (f *FileResource) Content() (string, error) {
	data, err := f.fsys.ReadFile(f.path)
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "read", Path: f.path, Err: err}
	}
	return string(data), nil
}

var _ PathResource = (*FileResource)(nil)

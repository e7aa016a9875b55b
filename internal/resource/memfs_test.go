package resource

import (
	"errors"
	iofs "io/fs"
	"path"
	"sort"
	"strings"
	"time"

	mfs "github.com/CageChen/assethub/internal/fs"
)

// memFS is an in-memory FileSystem. Directories are implied by file paths.
// Paths listed in failRead or failList return errBroken.
type memFS struct {
	files    map[string]string
	modTimes map[string]time.Time
	failRead map[string]bool
	failList map[string]bool
}

var errBroken = errors.New("device not ready")

func newMemFS(files map[string]string) *memFS {
	return &memFS{
		files:    files,
		modTimes: map[string]time.Time{},
		failRead: map[string]bool{},
		failList: map[string]bool{},
	}
}

func (m *memFS) isDir(p string) bool {
	if p == "" || p == "." {
		return true
	}
	for name := range m.files {
		if strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}

func (m *memFS) ReadFile(p string) ([]byte, error) {
	if m.failRead[p] {
		return nil, &iofs.PathError{Op: "read", Path: p, Err: errBroken}
	}
	content, ok := m.files[p]
	if !ok {
		return nil, &iofs.PathError{Op: "read", Path: p, Err: iofs.ErrNotExist}
	}
	return []byte(content), nil
}

func (m *memFS) Stat(p string) (mfs.FileInfo, error) {
	if content, ok := m.files[p]; ok {
		return mfs.FileInfo{Name: path.Base(p), Size: int64(len(content)), ModTime: m.modTimes[p]}, nil
	}
	if m.isDir(p) {
		return mfs.FileInfo{Name: path.Base(p), IsDir: true}, nil
	}
	return mfs.FileInfo{}, &iofs.PathError{Op: "stat", Path: p, Err: iofs.ErrNotExist}
}

func (m *memFS) ReadDir(p string) ([]mfs.DirEntry, error) {
	if m.failList[p] {
		return nil, &iofs.PathError{Op: "readdir", Path: p, Err: errBroken}
	}
	if !m.isDir(p) {
		return nil, &iofs.PathError{Op: "readdir", Path: p, Err: iofs.ErrNotExist}
	}
	prefix := ""
	if p != "" && p != "." {
		prefix = p + "/"
	}
	seen := map[string]bool{}
	var entries []mfs.DirEntry
	for name := range m.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		child, _, nested := strings.Cut(rest, "/")
		if seen[child] {
			continue
		}
		seen[child] = true
		entries = append(entries, mfs.DirEntry{Name: child, IsDir: nested})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

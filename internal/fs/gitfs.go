package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// GitFS implements FileSystem by reading from a git ref (branch, tag, or commit).
// Paths are slash-separated and relative to the repository root. ModTime of an
// entry is the commit time of the last commit on the ref that touched it.
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS that reads files from the given ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

// Ref returns the ref this filesystem reads from.
func (g *GitFS) Ref() string {
	return g.ref
}

func (g *GitFS) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"--literal-pathspecs", "-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// hasRef reports whether the ref resolves to a commit. An unknown ref is not
// an error; a missing git binary or a path outside any repository is.
func (g *GitFS) hasRef() (bool, error) {
	_, err := g.git("rev-parse", "--verify", "--quiet", g.ref+"^{commit}")
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

// failed classifies a failed git command: an unknown ref means the path does
// not exist, anything else is returned as is.
func (g *GitFS) failed(op, path string, err error) error {
	ok, refErr := g.hasRef()
	switch {
	case refErr != nil:
		err = refErr
	case !ok:
		return notExist(op, path)
	}
	return &iofs.PathError{Op: op, Path: path, Err: err}
}

func notExist(op, path string) error {
	return &iofs.PathError{Op: op, Path: path, Err: iofs.ErrNotExist}
}

// records splits NUL terminated ls-tree -z output into "<meta>\t<name>" pairs.
func records(out []byte) [][2]string {
	var recs [][2]string
	for _, rec := range strings.Split(string(out), "\x00") {
		tab := strings.IndexByte(rec, '\t')
		if tab < 0 {
			continue
		}
		recs = append(recs, [2]string{rec[:tab], rec[tab+1:]})
	}
	return recs
}

func clean(path string) string {
	path = strings.Trim(path, "/")
	if path == "." {
		return ""
	}
	return path
}

// ReadFile reads the contents of the file at the given path from the git ref.
func (g *GitFS) ReadFile(path string) ([]byte, error) {
	objPath := clean(path)
	if objPath == "" {
		return nil, &iofs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	info, err := g.Stat(objPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, &iofs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	out, err := g.git("show", g.ref+":"+objPath)
	if err != nil {
		return nil, &iofs.PathError{Op: "read", Path: path, Err: err}
	}
	return out, nil
}

// Stat returns metadata for the file or directory at the given path in the git ref.
func (g *GitFS) Stat(path string) (FileInfo, error) {
	objPath := clean(path)

	if objPath == "" {
		ok, err := g.hasRef()
		if err != nil {
			return FileInfo{}, &iofs.PathError{Op: "stat", Path: path, Err: err}
		}
		if !ok {
			return FileInfo{}, notExist("stat", path)
		}
		return FileInfo{
			Name:    g.ref,
			IsDir:   true,
			ModTime: g.modTime(""),
		}, nil
	}

	// "<mode> <type> <hash> <size>\t<name>\x00", size is "-" for trees
	out, err := g.git("ls-tree", "-l", "-z", g.ref, "--", objPath)
	if err != nil {
		return FileInfo{}, g.failed("stat", path, err)
	}
	recs := records(out)
	if len(recs) == 0 {
		return FileInfo{}, notExist("stat", path)
	}
	fields := strings.Fields(recs[0][0])
	if len(fields) < 4 || recs[0][1] != objPath {
		return FileInfo{}, notExist("stat", path)
	}

	info := FileInfo{
		Name:    baseName(objPath),
		IsDir:   fields[1] == "tree",
		ModTime: g.modTime(objPath),
	}
	if !info.IsDir {
		info.Size, _ = strconv.ParseInt(fields[3], 10, 64)
	}
	return info, nil
}

// ReadDir lists the immediate children of the directory at the given path in the git ref.
func (g *GitFS) ReadDir(path string) ([]DirEntry, error) {
	objPath := clean(path)

	args := []string{"ls-tree", "-z", g.ref}
	if objPath != "" {
		args = append(args, "--", objPath+"/")
	}
	out, err := g.git(args...)
	if err != nil {
		return nil, g.failed("readdir", path, err)
	}

	entries := []DirEntry{}
	for _, rec := range records(out) {
		fields := strings.Fields(rec[0])
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, DirEntry{
			Name:  baseName(rec[1]),
			IsDir: fields[1] == "tree",
		})
	}
	if len(entries) == 0 && objPath != "" {
		info, err := g.Stat(objPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			return nil, &iofs.PathError{Op: "readdir", Path: path, Err: errors.New("not a directory")}
		}
	}
	return entries, nil
}

func (g *GitFS) modTime(path string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := g.git(args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

var _ FileSystem = (*GitFS)(nil)

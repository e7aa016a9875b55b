package resource

import (
	"errors"
	iofs "io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"

	mfs "github.com/CageChen/assethub/internal/fs"
)

// DirectoryResource is every file below a root directory whose basename
// matches an optional pattern. Hidden directories (name starting with ".")
// are never descended into; hidden files are subject to the pattern like any
// other file.
//
// A DirectoryResource holds no state between calls. Each operation walks the
// filesystem again, in the same order.
type DirectoryResource struct {
	fsys    mfs.FileSystem
	root    string
	pattern string
	engine  Engine
	newFile func(path string) Resource
	logger  *slog.Logger
}

// Option configures a DirectoryResource.
type Option func(*DirectoryResource)

// WithPattern restricts the resource to files whose basename matches pattern.
// An empty pattern matches every file. The pattern is compiled lazily, so an
// invalid pattern is reported by the first operation rather than here.
func WithPattern(pattern string) Option {
	return func(d *DirectoryResource) { d.pattern = pattern }
}

// WithEngine sets the engine used to compile the pattern. Defaults to RE2.
func WithEngine(engine Engine) Option {
	return func(d *DirectoryResource) {
		if engine != nil {
			d.engine = engine
		}
	}
}

// WithFileFactory sets how matched files are wrapped. Defaults to a
// FileResource on the directory's FileSystem.
func WithFileFactory(newFile func(path string) Resource) Option {
	return func(d *DirectoryResource) {
		if newFile != nil {
			d.newFile = newFile
		}
	}
}

// WithLogger sets the logger traversal decisions are reported to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DirectoryResource) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirectory creates a resource for the tree rooted at root on fsys.
// It does not touch the filesystem and cannot fail.
func NewDirectory(fsys mfs.FileSystem, root string, opts ...Option) *DirectoryResource {
	d := &DirectoryResource{
		fsys:   fsys,
		root:   root,
		engine: RE2,
		logger: slog.New(slog.DiscardHandler),
	}
	d.newFile = func(path string) Resource { return NewFile(fsys, path) }
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the root directory path.
func (d *DirectoryResource) Root() string {
	return d.root
}

// Pattern returns the file name pattern, empty if every file matches.
func (d *DirectoryResource) Pattern() string {
	return d.pattern
}

// IsFresh reports whether every matched file is fresh as of timestamp. It is
// true when no file matches and stops at the first stale file.
func (d *DirectoryResource) IsFresh(timestamp int64) (bool, error) {
	for r, err := range d.Walk() {
		if err != nil {
			return false, err
		}
		fresh, err := r.IsFresh(timestamp)
		if err != nil {
			return false, err
		}
		if !fresh {
			d.logger.Debug("stale file", "root", d.root, "file", describe(r), "since", timestamp)
			return false, nil
		}
	}
	return true, nil
}

// Content returns the contents of every matched file in walk order, joined
// by a single newline.
func (d *DirectoryResource) Content() (string, error) {
	var parts []string
	for r, err := range d.Walk() {
		if err != nil {
			return "", err
		}
		content, err := r.Content()
		if err != nil {
			return "", err
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n"), nil
}

// Files returns every matched file in walk order.
func (d *DirectoryResource) Files() ([]Resource, error) {
	var files []Resource
	for r, err := range d.Walk() {
		if err != nil {
			return nil, err
		}
		files = append(files, r)
	}
	return files, nil
}

type frame struct {
	dir     string
	entries []mfs.DirEntry
	next    int
}

// Walk returns the matched files as a lazy sequence. Every call starts a new
// depth-first walk from the root; a directory's children come before its
// later siblings, and siblings come in the order the FileSystem lists them.
// Symbolic links to directories are neither followed nor yielded.
//
// Yielded paths are the root joined with the path below it, so they are
// absolute only when the root is. Source.Open always passes an absolute root
// for local sources.
//
// A failure is yielded once as a non-nil error and ends the sequence.
func (d *DirectoryResource) Walk() iter.Seq2[Resource, error] {
	return func(yield func(Resource, error) bool) {
		entries, err := d.readRoot()
		if err != nil {
			yield(nil, err)
			return
		}
		match, err := d.matcher()
		if err != nil {
			yield(nil, err)
			return
		}

		stack := []frame{{dir: d.root, entries: entries}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.entries) {
				stack = stack[:len(stack)-1]
				continue
			}
			entry := top.entries[top.next]
			top.next++
			path := mfs.Join(top.dir, entry.Name)

			if entry.IsDir {
				if isHidden(entry.Name) {
					d.logger.Debug("skipping hidden directory", "path", path)
					continue
				}
				if entry.Symlink {
					d.logger.Debug("skipping symlinked directory", "path", path)
					continue
				}
				children, err := d.fsys.ReadDir(path)
				if err != nil {
					yield(nil, &Error{Kind: KindIO, Op: "readdir", Path: path, Err: err})
					return
				}
				stack = append(stack, frame{dir: path, entries: children})
				continue
			}

			ok, err := match(entry.Name)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(d.newFile(path), nil) {
				return
			}
		}
	}
}

// Includes reports whether the walk would reach path: a file it would yield
// when isDir is false, or a directory it would descend into when isDir is
// true. path is interpreted like the root, on the same FileSystem.
func (d *DirectoryResource) Includes(path string, isDir bool) (bool, error) {
	rel, err := filepath.Rel(filepath.FromSlash(d.root), filepath.FromSlash(path))
	if err != nil {
		return false, nil
	}
	if rel == "." {
		return isDir, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}

	parts := strings.Split(rel, string(filepath.Separator))
	dirs := parts
	if !isDir {
		dirs = parts[:len(parts)-1]
	}
	for _, name := range dirs {
		if isHidden(name) {
			return false, nil
		}
	}
	if isDir {
		return true, nil
	}

	match, err := d.matcher()
	if err != nil {
		return false, err
	}
	return match(parts[len(parts)-1])
}

func (d *DirectoryResource) readRoot() ([]mfs.DirEntry, error) {
	info, err := d.fsys.Stat(d.root)
	if err != nil {
		return nil, d.rootError("stat", err)
	}
	if !info.IsDir {
		return nil, &Error{Kind: KindNotFound, Op: "stat", Path: d.root, Err: errors.New("not a directory")}
	}
	entries, err := d.fsys.ReadDir(d.root)
	if err != nil {
		return nil, d.rootError("readdir", err)
	}
	return entries, nil
}

func (d *DirectoryResource) rootError(op string, err error) error {
	kind := KindIO
	if errors.Is(err, iofs.ErrNotExist) {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Op: op, Path: d.root, Err: err}
}

func (d *DirectoryResource) matcher() (MatchFunc, error) {
	if d.pattern == "" {
		return func(string) (bool, error) { return true, nil }, nil
	}
	match, err := d.engine(d.pattern)
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = &Error{Kind: KindInvalidArgument, Op: "compile", Path: d.pattern, Err: err}
		}
		return nil, err
	}
	return match, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func describe(r Resource) string {
	if p, ok := r.(PathResource); ok {
		return p.Path()
	}
	return "<resource>"
}

var _ Resource = (*DirectoryResource)(nil)

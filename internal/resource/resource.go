// Package resource models things an asset pipeline derives artifacts from:
// single files and whole directory trees. Every resource answers the same two
// questions, whether anything changed since a timestamp and what its content
// is, so callers can treat a tree of stylesheets exactly like one stylesheet.
package resource

// Resource is something an artifact can be built from.
type Resource interface {
	// IsFresh reports whether the resource is unchanged as of timestamp
	// (unix seconds).
	IsFresh(timestamp int64) (bool, error)

	// Content returns the resource's content.
	Content() (string, error)
}

// PathResource is a Resource backed by a single path on a filesystem.
type PathResource interface {
	Resource
	Path() string
}

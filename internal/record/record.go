// Package record collects the files a setup run produces and writes them to
// disk.
//
// A Record holds rendered contents keyed by relative path. Generation code
// fills it from synced configuration values only; nothing in this package
// looks at unresolved slots. A Writer then materializes the record, honoring
// overwrite and skip rules, or prints diffs in dry-run mode.
package record

import "slices"

// File is one generated file.
type File struct {
	// Path is slash separated and relative to the project root.
	Path      string
	Content   []byte
	Namespace string
}

// Record is an ordered set of files. Adding a path twice replaces the
// earlier content in place.
type Record struct {
	files []File
	index map[string]int
}

// New returns an empty record.
func New() *Record {
	return &Record{index: make(map[string]int)}
}

// Add registers a file produced by the namespace ns.
func (r *Record) Add(ns, path string, content []byte) {
	f := File{Path: path, Content: content, Namespace: ns}
	if i, ok := r.index[path]; ok {
		r.files[i] = f
		return
	}
	r.index[path] = len(r.files)
	r.files = append(r.files, f)
}

// Get returns the file registered at path.
func (r *Record) Get(path string) (File, bool) {
	i, ok := r.index[path]
	if !ok {
		return File{}, false
	}
	return r.files[i], true
}

// Files returns the files in registration order.
func (r *Record) Files() []File {
	return slices.Clone(r.files)
}

// Paths returns the registered paths in registration order.
func (r *Record) Paths() []string {
	out := make([]string, len(r.files))
	for i, f := range r.files {
		out[i] = f.Path
	}
	return out
}

// Len returns the number of files.
func (r *Record) Len() int { return len(r.files) }

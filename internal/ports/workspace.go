package ports

import "io"

// Workspace provides the file system operations used on working directories.
// Concurrent page writes target disjoint files, so implementations need no
// locking beyond what the file system provides.
type Workspace interface {
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error

	// WriteFile writes data to path, replacing any existing content.
	WriteFile(path string, data []byte) error

	// ListFiles returns the names of regular files directly inside dir,
	// sorted lexicographically. Subdirectories are not descended into.
	ListFiles(dir string) ([]string, error)

	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)

	// RemoveAll deletes dir and everything below it.
	RemoveAll(dir string) error
}

package fs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
)

// LocalWorkspace implements ports.Workspace on the local file system.
type LocalWorkspace struct {
	dirMode  os.FileMode
	fileMode os.FileMode
}

// NewLocalWorkspace creates a workspace with 0o755 directories and 0o644 files.
func NewLocalWorkspace() *LocalWorkspace {
	return &LocalWorkspace{dirMode: 0o755, fileMode: 0o644}
}

// MkdirAll creates dir and any missing parents.
func (w *LocalWorkspace) MkdirAll(dir string) error {
	return os.MkdirAll(dir, w.dirMode)
}

// WriteFile writes data to path, truncating any existing file.
// The data is written to a temp file first and renamed into place so a
// crashed write never leaves a truncated page behind.
func (w *LocalWorkspace) WriteFile(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, w.fileMode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ListFiles returns regular files directly inside dir, sorted by name.
// In-flight ".part" files are skipped.
func (w *LocalWorkspace) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if filepath.Ext(e.Name()) == ".part" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open opens path for reading.
func (w *LocalWorkspace) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// RemoveAll deletes dir recursively.
func (w *LocalWorkspace) RemoveAll(dir string) error {
	return os.RemoveAll(dir)
}

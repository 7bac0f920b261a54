package app

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// archiveEntryMode is the permission recorded for every archive entry.
const archiveEntryMode fs.FileMode = 0o644

// Archiver packages a working directory into a stored zip archive.
type Archiver struct {
	workspace ports.Workspace
	store     ports.ArchiveStore
	logger    ports.Logger
}

// NewArchiver creates a new archiver.
func NewArchiver(workspace ports.Workspace, store ports.ArchiveStore, logger ports.Logger) *Archiver {
	return &Archiver{
		workspace: workspace,
		store:     store,
		logger:    logger,
	}
}

// Archive writes every regular file directly inside dir into the archive
// called name, then removes dir. On failure the archive is discarded, dir
// is left as it was and the returned error wraps domain.ErrPackaging.
func (a *Archiver) Archive(ctx context.Context, dir, name string) error {
	files, err := a.workspace.ListFiles(dir)
	if err != nil {
		return fmt.Errorf("%w: list %s: %w", domain.ErrPackaging, dir, err)
	}

	w, err := a.store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrPackaging, name, err)
	}

	if err := a.writeZip(w, dir, files); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			a.logger.Warn("failed to discard archive", ports.String("archive", name), ports.Err(abortErr))
		}
		return fmt.Errorf("%w: write %s: %w", domain.ErrPackaging, name, err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %w", domain.ErrPackaging, name, err)
	}

	if err := a.workspace.RemoveAll(dir); err != nil {
		a.logger.Warn("failed to remove working directory",
			ports.String("dir", dir),
			ports.Err(fmt.Errorf("%w: %w", domain.ErrResource, err)),
		)
	}

	a.logger.Debug("archive written", ports.String("archive", name), ports.Int("entries", len(files)))
	return nil
}

func (a *Archiver) writeZip(w io.Writer, dir string, files []string) error {
	zw := zip.NewWriter(w)
	modified := time.Now()

	for _, name := range files {
		hdr := &zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: modified,
		}
		hdr.SetMode(archiveEntryMode)

		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if err := a.copyFile(entry, filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	return zw.Close()
}

func (a *Archiver) copyFile(dst io.Writer, path string) error {
	src, err := a.workspace.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}

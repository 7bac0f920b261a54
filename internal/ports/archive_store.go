package ports

import (
	"context"
	"io"
)

// ArchiveStore is where finished chapter archives are written.
type ArchiveStore interface {
	// Create starts a new archive with the given name.
	// Nothing is visible under name until the writer is committed.
	Create(ctx context.Context, name string) (ArchiveWriter, error)

	// Exists reports whether an archive with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// ArchiveWriter receives the bytes of one archive.
type ArchiveWriter interface {
	io.Writer

	// Commit finalizes the archive and makes it visible.
	Commit() error

	// Abort discards everything written so far.
	Abort() error
}

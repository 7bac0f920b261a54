// Package blob stores chapter archives in a gocloud.dev blob bucket.
//
// Plain directory paths are opened with fileblob; anything with a URL scheme
// (file://, mem://, s3://, ...) goes through blob.OpenBucket, so any driver
// linked into the binary works as an output location.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/bft-labs/mangaship/internal/ports"
)

// ArchiveContentType is the media type of comic book zip archives.
const ArchiveContentType = "application/vnd.comicbook+zip"

// ArchiveStore implements ports.ArchiveStore on a blob bucket.
type ArchiveStore struct {
	bucket *blob.Bucket
	owned  bool
}

// NewArchiveStore wraps an existing bucket. The caller keeps ownership.
func NewArchiveStore(bucket *blob.Bucket) *ArchiveStore {
	return &ArchiveStore{bucket: bucket}
}

// OpenArchiveStore opens the output location. A location without a URL
// scheme is treated as a local directory and created if missing.
func OpenArchiveStore(ctx context.Context, location string) (*ArchiveStore, error) {
	if location == "" {
		location = "."
	}

	var (
		bucket *blob.Bucket
		err    error
	)
	if u, perr := url.Parse(location); perr == nil && len(u.Scheme) > 1 {
		bucket, err = blob.OpenBucket(ctx, location)
	} else {
		var dir string
		dir, err = filepath.Abs(location)
		if err == nil {
			bucket, err = fileblob.OpenBucket(dir, &fileblob.Options{
				CreateDir: true,
				NoTempDir: true,
				Metadata:  fileblob.MetadataDontWrite,
			})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open archive store %q: %w", location, err)
	}
	return &ArchiveStore{bucket: bucket, owned: true}, nil
}

// Create starts writing the archive called name.
func (s *ArchiveStore) Create(ctx context.Context, name string) (ports.ArchiveWriter, error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := s.bucket.NewWriter(wctx, name, &blob.WriterOptions{
		ContentType: ArchiveContentType,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return &archiveWriter{w: w, cancel: cancel}, nil
}

// Exists reports whether the archive called name exists.
func (s *ArchiveStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.bucket.Exists(ctx, name)
}

// Close releases the bucket if this store opened it.
func (s *ArchiveStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.bucket.Close()
}

// archiveWriter aborts by cancelling the writer's context before Close,
// which tells the driver to discard the object.
type archiveWriter struct {
	w      *blob.Writer
	cancel context.CancelFunc
	done   bool
}

func (a *archiveWriter) Write(p []byte) (int, error) {
	return a.w.Write(p)
}

func (a *archiveWriter) Commit() error {
	if a.done {
		return errors.New("archive writer already closed")
	}
	a.done = true
	defer a.cancel()
	return a.w.Close()
}

func (a *archiveWriter) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	a.cancel()
	// Close reports the cancellation; the object is not created.
	_ = a.w.Close()
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the download pipeline.
// Typed errors below unwrap to these so callers can check with errors.Is.
var (
	// ErrTransport is a network, DNS or timeout failure.
	ErrTransport = errors.New("mangaship: transport error")

	// ErrUpstreamRejected is a non-2xx response from the origin or a CDN node.
	ErrUpstreamRejected = errors.New("mangaship: upstream rejected")

	// ErrUpstream is returned when the origin API failed or returned an unusable body.
	ErrUpstream = errors.New("mangaship: upstream error")

	// ErrNotFound is returned when the origin does not know the chapter.
	ErrNotFound = errors.New("mangaship: chapter not found")

	// ErrTelemetry is returned when a delivery report could not be delivered.
	ErrTelemetry = errors.New("mangaship: telemetry report failed")

	// ErrPackaging is returned when an archive could not be produced.
	ErrPackaging = errors.New("mangaship: packaging error")

	// ErrResource is a working directory create or remove failure.
	ErrResource = errors.New("mangaship: resource error")

	// ErrInvalidRequest is returned for a chapter request that cannot be
	// downloaded safely, such as an id with no usable path characters or an
	// archive name already claimed by another request of the batch.
	ErrInvalidRequest = errors.New("mangaship: invalid chapter request")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("mangaship: invalid configuration")

	// ErrAlreadyRunning is returned when Start is called on a running client.
	ErrAlreadyRunning = errors.New("mangaship: already running")

	// ErrNotRunning is returned when Stop is called on a stopped client.
	ErrNotRunning = errors.New("mangaship: not running")

	// ErrShutdownTimeout is returned when background work did not stop in time.
	ErrShutdownTimeout = errors.New("mangaship: shutdown timeout")
)

// PageError describes a failed attempt for a single page.
type PageError struct {
	// Index is the page position within the chapter.
	Index int

	// Kind is one of the domain sentinels (ErrTransport, ErrUpstreamRejected, ...).
	Kind error

	// Status is the HTTP status code when a response was received.
	Status int

	// Exempt is true when the response came from the origin's own domain.
	Exempt bool

	// Err is the underlying cause, if any.
	Err error
}

func (e *PageError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("page %d: %v (status %d): %v", e.Index, e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("page %d: %v (status %d)", e.Index, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("page %d: %v: %v", e.Index, e.Kind, e.Err)
	default:
		return fmt.Sprintf("page %d: %v", e.Index, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *PageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Chapter download stages, used by ChapterError.
const (
	StageRequest = "request"
	StageSession = "session"
	StageWorkdir = "workdir"
	StagePages   = "pages"
	StageArchive = "archive"
)

// ChapterError is a failure that is fatal to one chapter.
type ChapterError struct {
	ChapterID string
	Stage     string
	Err       error
}

func (e *ChapterError) Error() string {
	return fmt.Sprintf("chapter %s: %s: %v", e.ChapterID, e.Stage, e.Err)
}

func (e *ChapterError) Unwrap() error { return e.Err }

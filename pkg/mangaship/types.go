package mangaship

import (
	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// ChapterRequest identifies a chapter and the display name of its archive.
type ChapterRequest = domain.ChapterRequest

// ChapterResult is the outcome of one chapter download.
type ChapterResult = domain.ChapterResult

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Errors reported in ChapterResult.Err and by the client. Use errors.Is.
var (
	ErrTransport        = domain.ErrTransport
	ErrUpstreamRejected = domain.ErrUpstreamRejected
	ErrUpstream         = domain.ErrUpstream
	ErrNotFound         = domain.ErrNotFound
	ErrTelemetry        = domain.ErrTelemetry
	ErrPackaging        = domain.ErrPackaging
	ErrResource         = domain.ErrResource
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrAlreadyRunning   = domain.ErrAlreadyRunning
	ErrNotRunning       = domain.ErrNotRunning
	ErrShutdownTimeout  = domain.ErrShutdownTimeout
)

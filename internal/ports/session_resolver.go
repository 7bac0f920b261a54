package ports

import (
	"context"

	"github.com/bft-labs/mangaship/internal/domain"
)

// SessionResolver obtains a fresh image-server session for a chapter.
// Implementations must not cache sessions and must not retry; retry policy
// belongs to the caller.
type SessionResolver interface {
	// Resolve returns the chapter's current session.
	// Returns domain.ErrNotFound for unknown chapters and domain.ErrUpstream
	// for transport or decoding failures.
	Resolve(ctx context.Context, chapterID string) (domain.Session, error)
}

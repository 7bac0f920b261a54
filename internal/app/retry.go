package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// DefaultMaxRetries is the retry budget of a page.
const DefaultMaxRetries = 5

// Fetcher performs a single page attempt. *FrameFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, fr FrameRequest) error
}

// RetryConfig configures a RetryCoordinator.
type RetryConfig struct {
	Quality        domain.Quality
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// RetryCoordinator drives one page through its state machine. Every retry
// resolves a fresh session for the chapter and fetches the page at the
// same index from it.
type RetryCoordinator struct {
	fetcher  Fetcher
	resolver ports.SessionResolver
	cfg      RetryConfig
	logger   ports.Logger
}

// NewRetryCoordinator creates a new retry coordinator.
func NewRetryCoordinator(fetcher Fetcher, resolver ports.SessionResolver, cfg RetryConfig, logger ports.Logger) *RetryCoordinator {
	return &RetryCoordinator{
		fetcher:  fetcher,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run fetches task into dir until it is delivered or permanently failed.
// It returns the number of session resolutions it performed and, for a
// permanently failed page, a *domain.PageError describing the last failure.
func (c *RetryCoordinator) Run(ctx context.Context, chapterID string, session domain.Session, task *domain.PageTask, dir string) (int, error) {
	bo := newBackoff(c.cfg.BackoffInitial, c.cfg.BackoffMax)
	resolutions := 0

	for {
		c.move(task, domain.PageAttempted)
		err := c.fetcher.Fetch(ctx, FrameRequest{
			URL:   session.FrameURL(c.cfg.Quality, task.SourceFilename),
			Path:  filepath.Join(dir, task.OutputName),
			Index: task.Index,
		})
		if err == nil {
			c.move(task, domain.PageDelivered)
			return resolutions, nil
		}

		if task.RetriesRemaining == 0 || !c.retryable(ctx, err) {
			c.move(task, domain.PagePermanentlyFailed)
			return resolutions, pageError(task.Index, err)
		}

		c.move(task, domain.PageRetrying)
		next, n, err := c.reresolve(ctx, chapterID, task, bo, err)
		resolutions += n
		if err != nil {
			c.move(task, domain.PagePermanentlyFailed)
			return resolutions, pageError(task.Index, err)
		}
		session = next
		c.move(task, domain.PagePending)
	}
}

// reresolve spends retries until a session covering the task's index is
// obtained. A failed resolution consumes a retry.
func (c *RetryCoordinator) reresolve(ctx context.Context, chapterID string, task *domain.PageTask, bo *backoff, cause error) (domain.Session, int, error) {
	resolutions := 0
	lastErr := cause

	for task.RetriesRemaining > 0 {
		task.RetriesRemaining--

		c.logger.Debug("retrying page",
			ports.String("chapter", chapterID),
			ports.Int("page", task.Index),
			ports.Int("retries_remaining", task.RetriesRemaining),
			ports.Err(lastErr),
		)

		if err := bo.Wait(ctx); err != nil {
			return domain.Session{}, resolutions, &domain.PageError{Index: task.Index, Kind: domain.ErrTransport, Err: err}
		}

		session, err := c.resolver.Resolve(ctx, chapterID)
		resolutions++
		if err != nil {
			c.logger.Warn("session re-resolution failed",
				ports.String("chapter", chapterID),
				ports.Int("page", task.Index),
				ports.Err(err),
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		files := session.Filenames(c.cfg.Quality)
		if task.Index >= len(files) {
			return domain.Session{}, resolutions, fmt.Errorf("%w: re-resolved session has %d pages", domain.ErrUpstream, len(files))
		}
		task.SourceFilename = files[task.Index]
		return session, resolutions, nil
	}

	return domain.Session{}, resolutions, lastErr
}

// retryable reports whether a failed attempt may be retried. Rejections
// served by the origin's own domain are final.
func (c *RetryCoordinator) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var pe *domain.PageError
	if errors.As(err, &pe) && pe.Exempt && errors.Is(pe.Kind, domain.ErrUpstreamRejected) {
		return false
	}
	return true
}

func (c *RetryCoordinator) move(task *domain.PageTask, to domain.PageState) {
	if err := task.Transition(to); err != nil {
		c.logger.Error("page state", ports.Err(err))
	}
}

func pageError(index int, err error) error {
	var pe *domain.PageError
	if errors.As(err, &pe) {
		return pe
	}
	return &domain.PageError{Index: index, Kind: domain.ErrUpstream, Err: err}
}

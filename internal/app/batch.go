package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// DefaultChapterConcurrency bounds in-flight chapters of one batch.
const DefaultChapterConcurrency = 100

// ChapterRunner downloads one chapter. *ChapterDownloader implements it.
type ChapterRunner interface {
	Download(ctx context.Context, req domain.ChapterRequest) domain.ChapterResult
}

// BatchDownloader downloads many chapters concurrently.
type BatchDownloader struct {
	chapters    ChapterRunner
	concurrency int
	logger      ports.Logger
}

// NewBatchDownloader creates a new batch downloader.
func NewBatchDownloader(chapters ChapterRunner, concurrency int, logger ports.Logger) *BatchDownloader {
	if concurrency <= 0 {
		concurrency = DefaultChapterConcurrency
	}
	return &BatchDownloader{
		chapters:    chapters,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Download runs every request and returns one result per request, in
// request order. A request is rejected without being downloaded when its
// chapter id repeats an earlier request or when its archive name, compared
// case-insensitively, is already claimed by one. The earlier request is
// unaffected either way.
func (b *BatchDownloader) Download(ctx context.Context, reqs []domain.ChapterRequest) []domain.ChapterResult {
	batchID := uuid.NewString()
	start := time.Now()
	results := make([]domain.ChapterResult, len(reqs))

	b.logger.Info("batch started",
		ports.String("batch", batchID),
		ports.Int("chapters", len(reqs)),
		ports.Int("concurrency", b.concurrency),
	)

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	ids := make(map[string]int, len(reqs))
	archives := make(map[string]string, len(reqs))
	for i, req := range reqs {
		if err := b.admit(req, i, ids, archives); err != nil {
			results[i] = domain.ChapterResult{
				Request: req,
				Err:     &domain.ChapterError{ChapterID: req.ChapterID, Stage: domain.StageRequest, Err: err},
			}
			b.logger.Warn("chapter request rejected",
				ports.String("batch", batchID),
				ports.String("chapter", req.ChapterID),
				ports.Err(err),
			)
			continue
		}

		g.Go(func() error {
			results[i] = b.chapters.Download(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	var archived, partial, skipped, failed int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Skipped:
			skipped++
		case res.Partial():
			partial++
			archived++
		default:
			archived++
		}
	}

	b.logger.Info("batch finished",
		ports.String("batch", batchID),
		ports.Int("archived", archived),
		ports.Int("partial", partial),
		ports.Int("skipped", skipped),
		ports.Int("failed", failed),
		ports.Duration("duration", time.Since(start)),
	)
	return results
}

// admit records req as request i of the batch, or explains why it must not run.
func (b *BatchDownloader) admit(req domain.ChapterRequest, i int, ids map[string]int, archives map[string]string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if first, dup := ids[req.ChapterID]; dup {
		return fmt.Errorf("%w: duplicate of request %d", domain.ErrInvalidRequest, first)
	}
	key := strings.ToLower(req.ArchiveBase())
	if owner, dup := archives[key]; dup {
		return fmt.Errorf("%w: archive name %q already used by chapter %s",
			domain.ErrInvalidRequest, req.ArchiveBase(), owner)
	}
	ids[req.ChapterID] = i
	archives[key] = req.ChapterID
	return nil
}

package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// Default chapter download configuration values.
const (
	DefaultPageConcurrency = 30
	DefaultArchiveExt      = ".cbz"
)

// ChapterConfig configures a ChapterDownloader.
type ChapterConfig struct {
	// WorkDir holds the per-chapter working directories.
	WorkDir string

	// Quality selects the page rendition.
	Quality domain.Quality

	// PageConcurrency bounds in-flight page downloads of one chapter.
	PageConcurrency int

	// MaxRetries is the retry budget of every page.
	MaxRetries int

	// ArchiveExt is appended to the archive base name.
	ArchiveExt string

	// SkipExisting skips chapters whose archive already exists.
	SkipExisting bool
}

// ChapterDownloader downloads all pages of one chapter and archives them.
type ChapterDownloader struct {
	cfg       ChapterConfig
	resolver  ports.SessionResolver
	retry     *RetryCoordinator
	archiver  *Archiver
	workspace ports.Workspace
	store     ports.ArchiveStore
	emitter   EventEmitter
	logger    ports.Logger
}

// NewChapterDownloader creates a new chapter downloader.
// A nil emitter discards events.
func NewChapterDownloader(
	cfg ChapterConfig,
	resolver ports.SessionResolver,
	retry *RetryCoordinator,
	archiver *Archiver,
	workspace ports.Workspace,
	store ports.ArchiveStore,
	emitter EventEmitter,
	logger ports.Logger,
) *ChapterDownloader {
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = DefaultPageConcurrency
	}
	if cfg.ArchiveExt == "" {
		cfg.ArchiveExt = DefaultArchiveExt
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &ChapterDownloader{
		cfg:       cfg,
		resolver:  resolver,
		retry:     retry,
		archiver:  archiver,
		workspace: workspace,
		store:     store,
		emitter:   emitter,
		logger:    logger,
	}
}

// WorkDirFor returns the working directory used for req.
func (d *ChapterDownloader) WorkDirFor(req domain.ChapterRequest) string {
	return filepath.Join(d.cfg.WorkDir, req.ArchiveBase()+"."+domain.SanitizeName(req.ChapterID))
}

// Download runs the whole pipeline for one chapter. Failures are reported in
// the result; they never affect other chapters.
func (d *ChapterDownloader) Download(ctx context.Context, req domain.ChapterRequest) domain.ChapterResult {
	start := time.Now()
	res := domain.ChapterResult{
		Request:     req,
		ArchiveName: req.ArchiveBase() + d.cfg.ArchiveExt,
	}
	defer func() {
		res.Duration = time.Since(start)
		d.emitter.OnChapterDone(res)
		d.logResult(res)
	}()

	if err := req.Validate(); err != nil {
		res.Err = &domain.ChapterError{ChapterID: req.ChapterID, Stage: domain.StageRequest, Err: err}
		return res
	}

	if d.cfg.SkipExisting {
		exists, err := d.store.Exists(ctx, res.ArchiveName)
		if err != nil {
			d.logger.Warn("failed to check for existing archive",
				ports.String("archive", res.ArchiveName),
				ports.Err(err),
			)
		}
		if exists {
			res.Skipped = true
			return res
		}
	}

	session, err := d.resolver.Resolve(ctx, req.ChapterID)
	res.Resolutions = 1
	if err != nil {
		res.Err = &domain.ChapterError{ChapterID: req.ChapterID, Stage: domain.StageSession, Err: err}
		return res
	}

	tasks := domain.NewPageTasks(session.Filenames(d.cfg.Quality), d.cfg.MaxRetries)
	res.Pages = len(tasks)
	d.emitter.OnChapterStart(req, len(tasks))

	dir := d.WorkDirFor(req)
	if err := d.resetWorkDir(dir); err != nil {
		res.Err = &domain.ChapterError{
			ChapterID: req.ChapterID,
			Stage:     domain.StageWorkdir,
			Err:       fmt.Errorf("%w: %w", domain.ErrResource, err),
		}
		return res
	}

	failed, resolutions := d.fetchPages(ctx, req, session, tasks, dir)
	res.Resolutions += resolutions
	res.FailedPages = failed
	res.Delivered = len(tasks) - len(failed)

	if err := ctx.Err(); err != nil {
		res.WorkDir = dir
		res.Err = &domain.ChapterError{ChapterID: req.ChapterID, Stage: domain.StagePages, Err: err}
		return res
	}

	if res.Delivered == 0 {
		if err := d.workspace.RemoveAll(dir); err != nil {
			d.logger.Warn("failed to remove working directory", ports.String("dir", dir), ports.Err(err))
		}
		res.Err = &domain.ChapterError{
			ChapterID: req.ChapterID,
			Stage:     domain.StagePages,
			Err:       fmt.Errorf("%w: no page of %d delivered", domain.ErrUpstreamRejected, len(tasks)),
		}
		return res
	}

	if err := d.archiver.Archive(ctx, dir, res.ArchiveName); err != nil {
		res.WorkDir = dir
		res.Err = &domain.ChapterError{ChapterID: req.ChapterID, Stage: domain.StageArchive, Err: err}
		return res
	}

	return res
}

// resetWorkDir empties dir, creating it if needed. A directory kept from an
// earlier failed run must not contribute files to the new archive.
func (d *ChapterDownloader) resetWorkDir(dir string) error {
	if err := d.workspace.RemoveAll(dir); err != nil {
		return err
	}
	return d.workspace.MkdirAll(dir)
}

// fetchPages runs every task to a terminal state with at most
// PageConcurrency in flight. It returns the failed page indices in
// ascending order and the number of re-resolutions performed.
func (d *ChapterDownloader) fetchPages(
	ctx context.Context,
	req domain.ChapterRequest,
	session domain.Session,
	tasks []*domain.PageTask,
	dir string,
) ([]int, int) {
	var (
		mu          sync.Mutex
		failed      []int
		resolutions int
	)

	var g errgroup.Group
	g.SetLimit(d.cfg.PageConcurrency)

	for _, task := range tasks {
		g.Go(func() error {
			n, err := d.retry.Run(ctx, req.ChapterID, session, task, dir)

			mu.Lock()
			resolutions += n
			if err != nil {
				failed = append(failed, task.Index)
			}
			mu.Unlock()

			if err != nil {
				d.logger.Warn("page permanently failed",
					ports.String("chapter", req.ChapterID),
					ports.Int("page", task.Index),
					ports.Err(err),
				)
				d.emitter.OnPageFailed(req, task.Index, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Ints(failed)
	return failed, resolutions
}

func (d *ChapterDownloader) logResult(res domain.ChapterResult) {
	fields := []ports.Field{
		ports.String("chapter", res.Request.ChapterID),
		ports.String("archive", res.ArchiveName),
		ports.Int("pages", res.Pages),
		ports.Int("delivered", res.Delivered),
		ports.Int("resolutions", res.Resolutions),
		ports.Duration("duration", res.Duration),
	}

	switch {
	case res.Skipped:
		d.logger.Info("archive exists, chapter skipped", fields...)
	case res.Err != nil:
		if res.WorkDir != "" {
			fields = append(fields, ports.String("work_dir", res.WorkDir))
		}
		d.logger.Error("chapter failed", append(fields, ports.Err(res.Err))...)
	case res.Partial():
		d.logger.Warn("chapter archived with missing pages", append(fields, ports.Ints("failed_pages", res.FailedPages))...)
	default:
		d.logger.Info("chapter archived", fields...)
	}
}

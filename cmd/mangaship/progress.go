package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/mangaship/pkg/mangaship"
)

// progressHandler logs chapter progress for the CLI.
type progressHandler struct {
	mangaship.BaseEventHandler
	log zerolog.Logger
}

func (h *progressHandler) OnChapterStart(e mangaship.ChapterStartEvent) {
	h.log.Info().
		Str("chapter", e.Request.ChapterID).
		Str("name", e.Request.ArchiveBase()).
		Int("pages", e.Pages).
		Msg("downloading")
}

func (h *progressHandler) OnPageFailed(e mangaship.PageFailedEvent) {
	h.log.Warn().
		Str("chapter", e.Request.ChapterID).
		Int("page", e.Page).
		Err(e.Error).
		Msg("page failed")
}

func (h *progressHandler) OnBatchDone(e mangaship.BatchDoneEvent) {
	summarize(h.log, e.Results, e.Duration)
}

// summarize logs one line per chapter and returns the number of chapters
// that were not archived.
func summarize(log zerolog.Logger, results []mangaship.ChapterResult, elapsed time.Duration) int {
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			ev := log.Error().Str("chapter", r.Request.ChapterID).Err(r.Err)
			if r.WorkDir != "" {
				ev = ev.Str("work_dir", r.WorkDir)
			}
			ev.Msg("chapter failed")
		case r.Skipped:
			log.Info().Str("chapter", r.Request.ChapterID).Str("archive", r.ArchiveName).Msg("already archived")
		case r.Partial():
			log.Warn().
				Str("chapter", r.Request.ChapterID).
				Str("archive", r.ArchiveName).
				Ints("missing_pages", r.FailedPages).
				Msg("archived with missing pages")
		default:
			log.Info().
				Str("chapter", r.Request.ChapterID).
				Str("archive", r.ArchiveName).
				Int("pages", r.Delivered).
				Dur("took", r.Duration).
				Msg("archived")
		}
	}
	log.Info().
		Int("chapters", len(results)).
		Int("failed", failed).
		Dur("elapsed", elapsed).
		Msg("done")
	return failed
}

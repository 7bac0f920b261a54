package app

import "github.com/bft-labs/mangaship/internal/domain"

// EventEmitter receives per-chapter progress. Calls come from download
// goroutines concurrently; implementations must be safe for concurrent use.
// OnChapterStart is only called once the page count is known, OnChapterDone
// is called for every chapter.
type EventEmitter interface {
	OnChapterStart(req domain.ChapterRequest, pages int)
	OnPageFailed(req domain.ChapterRequest, index int, err error)
	OnChapterDone(result domain.ChapterResult)
}

// nopEmitter discards all events.
type nopEmitter struct{}

func (nopEmitter) OnChapterStart(domain.ChapterRequest, int)      {}
func (nopEmitter) OnPageFailed(domain.ChapterRequest, int, error) {}
func (nopEmitter) OnChapterDone(domain.ChapterResult)             {}

package mangaship

import (
	"time"

	"github.com/bft-labs/mangaship/internal/app"
	"github.com/bft-labs/mangaship/internal/domain"
)

// State is the service state of a Client started with Start.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted when the client changes state.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ChapterStartEvent is emitted once a chapter's page count is known.
type ChapterStartEvent struct {
	Request ChapterRequest
	Pages   int
}

// PageFailedEvent is emitted when a page exhausted its retries.
type PageFailedEvent struct {
	Request ChapterRequest
	Page    int
	Error   error
}

// ChapterDoneEvent is emitted for every finished chapter, archived or not.
type ChapterDoneEvent struct {
	Result ChapterResult
}

// BatchDoneEvent is emitted when a batch submitted with Submit finished.
type BatchDoneEvent struct {
	Results  []ChapterResult
	Duration time.Duration
}

// EventHandler receives client events. Chapter and page events are called
// from download goroutines concurrently and must return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnChapterStart(event ChapterStartEvent)
	OnPageFailed(event PageFailedEvent)
	OnChapterDone(event ChapterDoneEvent)
	OnBatchDone(event BatchDoneEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnChapterStart(ChapterStartEvent) {}
func (BaseEventHandler) OnPageFailed(PageFailedEvent)     {}
func (BaseEventHandler) OnChapterDone(ChapterDoneEvent)   {}
func (BaseEventHandler) OnBatchDone(BatchDoneEvent)       {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnChapterStart(req domain.ChapterRequest, pages int) {
	if e.handler == nil {
		return
	}
	e.handler.OnChapterStart(ChapterStartEvent{Request: req, Pages: pages})
}

func (e *eventEmitterWrapper) OnPageFailed(req domain.ChapterRequest, index int, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnPageFailed(PageFailedEvent{Request: req, Page: index, Error: err})
}

func (e *eventEmitterWrapper) OnChapterDone(result domain.ChapterResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnChapterDone(ChapterDoneEvent{Result: result})
}

func (e *eventEmitterWrapper) onBatchDone(results []ChapterResult, d time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchDone(BatchDoneEvent{Results: results, Duration: d})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

package domain

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// DefaultFrameExt is used when a source filename has no extension.
const DefaultFrameExt = "jpg"

// FrameName returns the output filename for the page at index out of total.
// The number is zero-padded to the width of total-1.
func FrameName(sourceFilename string, index, total int) string {
	ext := strings.TrimPrefix(path.Ext(sourceFilename), ".")
	if ext == "" {
		ext = DefaultFrameExt
	}

	width := 1
	if total > 1 {
		width = len(strconv.Itoa(total - 1))
	}
	return fmt.Sprintf("%0*d.%s", width, index, ext)
}

// PageState is the retry state of a single page.
type PageState int

const (
	PagePending PageState = iota
	PageAttempted
	PageRetrying
	PageDelivered
	PagePermanentlyFailed
)

// String returns a human-readable representation of the state.
func (s PageState) String() string {
	switch s {
	case PagePending:
		return "Pending"
	case PageAttempted:
		return "Attempted"
	case PageRetrying:
		return "Retrying"
	case PageDelivered:
		return "Delivered"
	case PagePermanentlyFailed:
		return "PermanentlyFailed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s PageState) Terminal() bool {
	return s == PageDelivered || s == PagePermanentlyFailed
}

// PageTask is one page of a chapter download.
// Index and OutputName are fixed for the life of the download.
type PageTask struct {
	Index            int
	SourceFilename   string
	OutputName       string
	RetriesRemaining int
	State            PageState
}

// NewPageTasks builds the page tasks for a freshly resolved session.
func NewPageTasks(filenames []string, retries int) []*PageTask {
	tasks := make([]*PageTask, len(filenames))
	for i, name := range filenames {
		tasks[i] = &PageTask{
			Index:            i,
			SourceFilename:   name,
			OutputName:       FrameName(name, i, len(filenames)),
			RetriesRemaining: retries,
			State:            PagePending,
		}
	}
	return tasks
}

// Transition moves the task to a new state.
// Returns an error if the transition is not valid.
func (t *PageTask) Transition(to PageState) error {
	valid := false
	switch t.State {
	case PagePending:
		valid = to == PageAttempted || to == PagePermanentlyFailed
	case PageAttempted:
		valid = to == PageDelivered || to == PageRetrying || to == PagePermanentlyFailed
	case PageRetrying:
		valid = to == PagePending || to == PagePermanentlyFailed
	}
	if !valid {
		return fmt.Errorf("page %d: invalid transition %s -> %s", t.Index, t.State, to)
	}
	t.State = to
	return nil
}

// DeliveryReport is the delivery telemetry for one page attempt.
type DeliveryReport struct {
	URL        string `json:"url"`
	Success    bool   `json:"success"`
	Cached     bool   `json:"cached"`
	Bytes      uint64 `json:"bytes"`
	DurationMs uint64 `json:"duration"`
}

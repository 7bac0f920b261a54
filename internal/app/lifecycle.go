package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for background work.
const ShutdownTimeout = 30 * time.Second

// State is the service state of a client hosting background plugins.
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

// allowedTransitions lists the states reachable from each state.
var allowedTransitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// StateEmitter is notified after every state change.
type StateEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle guards the start and stop sequence of a client and tracks its
// background workers.
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  ports.Logger
	emitter StateEmitter
}

// NewLifecycle creates a lifecycle in StateStopped. A nil emitter is allowed.
func NewLifecycle(logger ports.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStopped,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next. Leaving Stopped or Crashed for anything but
// Starting returns domain.ErrNotRunning; other invalid moves return
// domain.ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if !canMove(prev, next) {
		l.mu.Unlock()
		if prev == StateStopped || prev == StateCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}
	l.state = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func canMove(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanStart reports whether Start may be called.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop may be called.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateRunning || s == StateStarting
}

// SetCancel stores the function that cancels background work.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
}

// Cancel cancels background work, if any was started.
func (l *Lifecycle) Cancel() {
	l.mu.RLock()
	cancel := l.cancel
	l.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Go runs fn as a tracked background worker.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// Wait waits for all workers started with Go. It returns
// domain.ErrShutdownTimeout if they are still running after timeout.
func (l *Lifecycle) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		l.logger.Warn("shutdown timeout, abandoning workers", ports.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}

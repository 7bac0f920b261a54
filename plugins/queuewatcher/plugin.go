// Package queuewatcher feeds a started mangaship client from a queue file.
// Every chapter request added to the file is submitted once; the file is
// re-read whenever it is written.
package queuewatcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/mangaship/pkg/log"
	"github.com/bft-labs/mangaship/pkg/mangaship"
)

// Config holds configuration options for the queue watcher plugin.
type Config struct {
	// Path is the queue file. One request per line in "id" or
	// "id=Display Name" form; blank lines and '#' comments are ignored.
	Path string

	// DebounceDelay is the delay to wait after a file change before reading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// RetryInterval is the delay between submit attempts while the client
	// refuses work.
	// Default: 5 seconds
	RetryInterval time.Duration
}

// DefaultConfig returns a Config watching ./queue.txt.
func DefaultConfig() Config {
	return Config{
		Path:          "queue.txt",
		DebounceDelay: 100 * time.Millisecond,
		RetryInterval: 5 * time.Second,
	}
}

// Plugin implements queue file watching.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration
	retryInterval time.Duration

	submitter mangaship.Submitter
	logger    mangaship.Logger
	seen      map[string]bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new queue watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		retryInterval: cfg.RetryInterval,
		seen:          make(map[string]bool),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "queuewatcher"
}

// Initialize starts watching the queue file.
func (p *Plugin) Initialize(ctx context.Context, cfg mangaship.PluginConfig) error {
	p.submitter = cfg.Submitter
	p.logger = cfg.Logger

	if p.path == "" || p.submitter == nil {
		p.logger.Warn("queue watcher disabled: no queue file or submitter configured")
		return nil
	}
	abs, err := filepath.Abs(p.path)
	if err != nil {
		return err
	}
	p.path = abs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("queue watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and waits for a submit in progress.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watchLoop reads the queue once, then again after every debounced change.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	p.drain(ctx)

	debounce := time.NewTimer(p.debounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(p.debounceDelay)

		case <-debounce.C:
			p.drain(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("queue watcher: watcher error", log.Err(err))
		}
	}
}

// drain submits requests not submitted before. Submission is retried until
// the client accepts it or ctx is done.
func (p *Plugin) drain(ctx context.Context) {
	reqs, err := p.pending()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("queue watcher: queue file does not exist yet")
		} else {
			p.logger.Error("queue watcher: read failed", log.Err(err))
		}
		return
	}
	if len(reqs) == 0 {
		return
	}

	for {
		err := p.submitter.Submit(ctx, reqs)
		if err == nil {
			break
		}
		p.logger.Warn("queue watcher: submit failed", log.Err(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryInterval):
		}
	}

	p.mu.Lock()
	for _, r := range reqs {
		p.seen[r.ChapterID] = true
	}
	p.mu.Unlock()
	p.logger.Info("queue watcher: submitted chapters", log.Int("count", len(reqs)))
}

// pending returns the queued requests that were not submitted yet,
// without duplicates.
func (p *Plugin) pending() ([]mangaship.ChapterRequest, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reqs, err := mangaship.ReadRequests(f)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var out []mangaship.ChapterRequest
	batch := make(map[string]bool)
	for _, r := range reqs {
		if p.seen[r.ChapterID] || batch[r.ChapterID] {
			continue
		}
		batch[r.ChapterID] = true
		out = append(out, r)
	}
	return out, nil
}

package mangaship

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	blobAdapter "github.com/bft-labs/mangaship/internal/adapters/blob"
	"github.com/bft-labs/mangaship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/mangaship/internal/adapters/http"
	logAdapter "github.com/bft-labs/mangaship/internal/adapters/log"
	"github.com/bft-labs/mangaship/internal/app"
	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// submitQueueSize is how many submitted batches may wait for the worker.
const submitQueueSize = 16

// Client downloads chapters and packages them into archives.
//
// DownloadChapters can be called at any time and from several goroutines.
// Start runs a background worker that processes batches handed to Submit
// and initializes plugins; Stop shuts both down.
type Client struct {
	config    Config
	opts      options
	batch     *app.BatchDownloader
	store     *blobAdapter.ArchiveStore
	lifecycle *app.Lifecycle
	emitter   *eventEmitterWrapper
	logger    ports.Logger
	plugins   []Plugin
	queue     chan []ChapterRequest

	mu     sync.Mutex
	runCtx context.Context
}

// New creates a client. The client is created in StateStopped; calling
// Start is only needed for Submit and plugins.
// Returns an error if configuration is invalid or the output cannot be opened.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	quality, _ := domain.ParseQuality(cfg.Quality)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}
	client := o.httpClient
	if client == nil {
		client = newHTTPClient(cfg)
	}

	var store *blobAdapter.ArchiveStore
	if o.bucket != nil {
		store = blobAdapter.NewArchiveStore(o.bucket)
	} else {
		var err error
		store, err = blobAdapter.OpenArchiveStore(context.Background(), cfg.Output)
		if err != nil {
			return nil, err
		}
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	workspace := fs.NewLocalWorkspace()

	resolver := httpAdapter.NewSessionResolver(client, httpAdapter.ResolverConfig{
		APIURL:    cfg.APIURL,
		UserAgent: cfg.UserAgent,
		Quality:   quality,
	}, logger)
	reporter := httpAdapter.NewReportSender(client, cfg.ReportURL, cfg.UserAgent)

	fetcher := app.NewFrameFetcher(client, reporter, workspace, app.FetcherConfig{
		OriginDomain: cfg.OriginDomain,
		UserAgent:    cfg.UserAgent,
		Limiter:      newLimiter(cfg.RequestsPerSecond),
	}, logger)
	retry := app.NewRetryCoordinator(fetcher, resolver, app.RetryConfig{
		Quality:        quality,
		BackoffInitial: cfg.RetryBackoff,
		BackoffMax:     cfg.RetryMaxBackoff,
	}, logger)
	archiver := app.NewArchiver(workspace, store, logger)
	chapters := app.NewChapterDownloader(app.ChapterConfig{
		WorkDir:         cfg.WorkDir,
		Quality:         quality,
		PageConcurrency: cfg.PageConcurrency,
		MaxRetries:      cfg.MaxRetries,
		SkipExisting:    cfg.SkipExisting,
	}, resolver, retry, archiver, workspace, store, emitter, logger)

	return &Client{
		config:    cfg,
		opts:      o,
		batch:     app.NewBatchDownloader(chapters, cfg.ChapterConcurrency, logger),
		store:     store,
		lifecycle: app.NewLifecycle(logger, emitter),
		emitter:   emitter,
		logger:    logger,
		plugins:   o.plugins,
		queue:     make(chan []ChapterRequest, submitQueueSize),
	}, nil
}

// newHTTPClient keeps enough idle connections per host for a full page pool.
func newHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.PageConcurrency * 2
	transport.MaxIdleConnsPerHost = cfg.PageConcurrency
	return &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps)))
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// DownloadChapters downloads every request and returns one result per
// request, in request order. Chapter failures are reported in the results;
// they never stop other chapters.
func (c *Client) DownloadChapters(ctx context.Context, reqs []ChapterRequest) []ChapterResult {
	return c.batch.Download(ctx, reqs)
}

// Start initializes plugins and starts the worker that processes batches
// handed to Submit. The provided context bounds the worker's lifetime.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.lifecycle.CanStart() {
		c.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.lifecycle.SetCancel(cancel)
	c.mu.Unlock()

	c.lifecycle.Go(func() { c.work(runCtx) })

	pluginCfg := PluginConfig{
		Submitter: c,
		Output:    c.config.Output,
		Logger:    c.logger,
	}
	for i, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			c.shutdownPlugins(c.plugins[:i])
			cancel()
			_ = c.lifecycle.Wait(app.ShutdownTimeout)
			c.mu.Lock()
			c.runCtx = nil
			c.mu.Unlock()
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	return c.lifecycle.TransitionTo(app.StateRunning, "started")
}

// Submit queues reqs for the background worker. It blocks while the queue
// is full and returns ErrNotRunning unless the client is running.
// Results are delivered through EventHandler.OnBatchDone.
func (c *Client) Submit(ctx context.Context, reqs []ChapterRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	c.mu.Lock()
	runCtx := c.runCtx
	running := c.lifecycle.State() == app.StateRunning || c.lifecycle.State() == app.StateStarting
	c.mu.Unlock()
	if !running || runCtx == nil {
		return domain.ErrNotRunning
	}

	select {
	case c.queue <- reqs:
		return nil
	case <-runCtx.Done():
		return domain.ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reqs := <-c.queue:
			start := time.Now()
			results := c.DownloadChapters(ctx, reqs)
			c.emitter.onBatchDone(results, time.Since(start))
		}
	}
}

// Stop shuts down plugins and the worker. A batch in progress is cancelled.
// Waits up to 30 seconds; returns ErrShutdownTimeout if forced.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.shutdownPlugins(c.plugins)
	c.lifecycle.Cancel()
	err := c.lifecycle.Wait(app.ShutdownTimeout)

	c.mu.Lock()
	c.runCtx = nil
	c.mu.Unlock()

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
		return err
	}
	return c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
}

// shutdownPlugins shuts plugins down in reverse order.
func (c *Client) shutdownPlugins(plugins []Plugin) {
	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		}
	}
}

// Status returns the current state.
// Safe to call concurrently from any goroutine.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Close releases the archive store if the client opened it. Call Stop first
// if the client was started.
func (c *Client) Close() error {
	return c.store.Close()
}

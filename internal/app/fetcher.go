package app

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// DefaultOriginDomain is the origin service's domain. Responses served from
// it or its subdomains are not reported as delivery telemetry.
const DefaultOriginDomain = "mangadex.org"

// FrameRequest is one page download.
type FrameRequest struct {
	// URL is the page URL on the session's image server.
	URL string

	// Path is where the page is written inside the working directory.
	Path string

	// Index is the page position, carried into errors.
	Index int
}

// FetcherConfig configures a FrameFetcher.
type FetcherConfig struct {
	// OriginDomain exempts matching hosts from telemetry. Empty reports everything.
	OriginDomain string

	// UserAgent is sent with every page request.
	UserAgent string

	// Limiter paces page requests across the whole batch. Nil means unlimited.
	Limiter *rate.Limiter
}

// FrameFetcher downloads single pages and reports their delivery.
type FrameFetcher struct {
	client    ports.HTTPClient
	reporter  ports.TelemetryReporter
	workspace ports.Workspace
	cfg       FetcherConfig
	logger    ports.Logger
}

// NewFrameFetcher creates a new frame fetcher.
func NewFrameFetcher(
	client ports.HTTPClient,
	reporter ports.TelemetryReporter,
	workspace ports.Workspace,
	cfg FetcherConfig,
	logger ports.Logger,
) *FrameFetcher {
	cfg.OriginDomain = strings.ToLower(strings.Trim(cfg.OriginDomain, "."))
	return &FrameFetcher{
		client:    client,
		reporter:  reporter,
		workspace: workspace,
		cfg:       cfg,
		logger:    logger,
	}
}

// Fetch performs one attempt for a page. A nil error means the page was
// written to fr.Path. Any other outcome is a *domain.PageError.
func (f *FrameFetcher) Fetch(ctx context.Context, fr FrameRequest) error {
	fail := func(kind error, err error) error {
		return &domain.PageError{Index: fr.Index, Kind: kind, Err: err}
	}

	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx); err != nil {
			return fail(domain.ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fr.URL, nil)
	if err != nil {
		return fail(domain.ErrTransport, err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return fail(domain.ErrTransport, err)
	}
	latency := time.Since(start)
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	exempt := f.isOrigin(req.URL)

	if !exempt {
		report := domain.DeliveryReport{
			URL:        fr.URL,
			Success:    ok && readErr == nil,
			Cached:     strings.HasPrefix(resp.Header.Get("X-Cache"), "HIT"),
			Bytes:      uint64(len(body)),
			DurationMs: uint64(latency.Milliseconds()),
		}
		if err := f.reporter.Report(ctx, report); err != nil {
			return fail(domain.ErrTelemetry, err)
		}
	}

	if readErr != nil {
		return fail(domain.ErrTransport, readErr)
	}
	if !ok {
		return &domain.PageError{
			Index:  fr.Index,
			Kind:   domain.ErrUpstreamRejected,
			Status: resp.StatusCode,
			Exempt: exempt,
		}
	}

	if err := f.workspace.WriteFile(fr.Path, body); err != nil {
		return fail(domain.ErrResource, err)
	}

	f.logger.Debug("page delivered",
		ports.Int("page", fr.Index),
		ports.Int("bytes", len(body)),
		ports.Duration("latency", latency),
	)
	return nil
}

func (f *FrameFetcher) isOrigin(u *url.URL) bool {
	if f.cfg.OriginDomain == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == f.cfg.OriginDomain || strings.HasSuffix(host, "."+f.cfg.OriginDomain)
}

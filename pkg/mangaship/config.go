package mangaship

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	httpAdapter "github.com/bft-labs/mangaship/internal/adapters/http"
	"github.com/bft-labs/mangaship/internal/app"
	"github.com/bft-labs/mangaship/internal/domain"
)

// Default endpoints of the origin service.
const (
	DefaultAPIURL       = "https://api.mangadex.org"
	DefaultReportURL    = httpAdapter.DefaultReportURL
	DefaultOriginDomain = app.DefaultOriginDomain
)

// Config configures a Client.
// Zero values are replaced by defaults in SetDefaults.
type Config struct {
	// APIURL is the origin API root used to resolve image-server sessions.
	APIURL string

	// ReportURL receives page delivery reports.
	ReportURL string

	// OriginDomain exempts responses from the origin's own hosts from reporting.
	OriginDomain string

	// UserAgent is sent with every request.
	UserAgent string

	// Output is where archives are written: a local directory or a bucket
	// URL such as s3://bucket/prefix. Ignored when WithArchiveBucket is used.
	Output string

	// WorkDir holds per-chapter working directories while pages download.
	// Defaults to Output for local outputs and a temp directory otherwise.
	WorkDir string

	// Quality is "data" or "data-saver".
	Quality string

	// ChapterConcurrency bounds chapters in flight. Default: 100
	ChapterConcurrency int

	// PageConcurrency bounds pages in flight per chapter. Default: 30
	PageConcurrency int

	// MaxRetries is the retry budget of every page. Zero disables retries;
	// DefaultConfig sets 5.
	MaxRetries int

	// RequestsPerSecond limits page requests across the client. Zero is unlimited.
	RequestsPerSecond float64

	// RetryBackoff and RetryMaxBackoff bound the jittered delay before a retry.
	RetryBackoff    time.Duration
	RetryMaxBackoff time.Duration

	// HTTPTimeout bounds every HTTP request. Default: 30s
	HTTPTimeout time.Duration

	// SkipExisting skips chapters whose archive already exists.
	SkipExisting bool
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	var c Config
	c.MaxRetries = app.DefaultMaxRetries
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values with defaults. MaxRetries is left alone
// because zero is meaningful.
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.ReportURL == "" {
		c.ReportURL = DefaultReportURL
	}
	if c.UserAgent == "" {
		c.UserAgent = "mangaship/" + Version
	}
	if c.Output == "" {
		c.Output = "."
	}
	if c.WorkDir == "" {
		if isURL(c.Output) {
			c.WorkDir = filepath.Join(os.TempDir(), "mangaship")
		} else {
			c.WorkDir = c.Output
		}
	}
	if c.Quality == "" {
		c.Quality = string(domain.QualityDataSaver)
	}
	if c.ChapterConcurrency == 0 {
		c.ChapterConcurrency = app.DefaultChapterConcurrency
	}
	if c.PageConcurrency == 0 {
		c.PageConcurrency = app.DefaultPageConcurrency
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = app.DefaultBackoffInitial
	}
	if c.RetryMaxBackoff == 0 {
		c.RetryMaxBackoff = app.DefaultBackoffMax
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
}

// Validate reports configuration errors. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("api url %q is not absolute", c.APIURL)
	}
	if _, err := domain.ParseQuality(c.Quality); err != nil {
		return invalid("%v", err)
	}
	if c.ChapterConcurrency < 0 || c.PageConcurrency < 0 {
		return invalid("concurrency must be positive")
	}
	if c.MaxRetries < 0 {
		return invalid("max retries must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return invalid("requests per second must not be negative")
	}
	if c.RetryBackoff < 0 || c.RetryMaxBackoff < 0 || c.HTTPTimeout < 0 {
		return invalid("durations must not be negative")
	}
	return nil
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && len(u.Scheme) > 1
}

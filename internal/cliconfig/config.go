package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/mangaship/internal/domain"
)

// Default endpoints of the origin service.
const (
	DefaultAPIURL       = "https://api.mangadex.org"
	DefaultReportURL    = "https://api.mangadex.network/report"
	DefaultOriginDomain = "mangadex.org"
)

// Config holds CLI configuration for mangaship.
type Config struct {
	APIURL       string
	ReportURL    string
	OriginDomain string
	UserAgent    string

	Output  string
	WorkDir string
	Quality string

	ChapterConcurrency int
	PageConcurrency    int
	MaxRetries         int
	RequestsPerSecond  float64

	RetryBackoff    time.Duration
	RetryMaxBackoff time.Duration
	HTTPTimeout     time.Duration

	SkipExisting bool
	Verbose      bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIURL:             DefaultAPIURL,
		ReportURL:          DefaultReportURL,
		OriginDomain:       DefaultOriginDomain,
		Output:             ".",
		WorkDir:            "", // Derived from Output during Validate
		Quality:            string(domain.QualityDataSaver),
		ChapterConcurrency: 100,
		PageConcurrency:    30,
		MaxRetries:         5,
		RetryBackoff:       500 * time.Millisecond,
		RetryMaxBackoff:    10 * time.Second,
		HTTPTimeout:        30 * time.Second,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api-url %q is not an absolute URL", c.APIURL)
	}

	if c.ReportURL == "" {
		c.ReportURL = DefaultReportURL
	}

	q, err := domain.ParseQuality(c.Quality)
	if err != nil {
		return err
	}
	c.Quality = string(q)

	if c.Output == "" {
		c.Output = "."
	}
	if c.WorkDir == "" {
		if IsURL(c.Output) {
			c.WorkDir = filepath.Join(os.TempDir(), "mangaship")
		} else {
			c.WorkDir = c.Output
		}
	}

	if c.ChapterConcurrency <= 0 {
		return fmt.Errorf("chapter concurrency must be positive")
	}
	if c.PageConcurrency <= 0 {
		return fmt.Errorf("page concurrency must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.RetryBackoff < 0 || c.RetryMaxBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative")
	}

	return nil
}

// IsURL reports whether an output location is a bucket URL rather than a
// local directory.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && len(u.Scheme) > 1
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setCount sets an int that may legitimately be zero.
func (s *configSetter) setCount(flag string, value *int, dst *int) {
	if value == nil || *value < 0 || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value. Zero is accepted only when
// allowZero is set.
func (s *configSetter) setIntFromString(flag, value string, allowZero bool, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 || (i == 0 && !allowZero) {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses an environment value; negative values are ignored.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f < 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations so both TOML and
// YAML files stay readable. Pointer fields distinguish "unset" from zero.
type FileConfig struct {
	APIURL             string  `toml:"api_url" yaml:"api_url"`
	ReportURL          string  `toml:"report_url" yaml:"report_url"`
	OriginDomain       string  `toml:"origin_domain" yaml:"origin_domain"`
	UserAgent          string  `toml:"user_agent" yaml:"user_agent"`
	Output             string  `toml:"output" yaml:"output"`
	WorkDir            string  `toml:"work_dir" yaml:"work_dir"`
	Quality            string  `toml:"quality" yaml:"quality"`
	ChapterConcurrency int     `toml:"chapter_concurrency" yaml:"chapter_concurrency"`
	PageConcurrency    int     `toml:"page_concurrency" yaml:"page_concurrency"`
	MaxRetries         *int    `toml:"max_retries" yaml:"max_retries"`
	RequestsPerSecond  float64 `toml:"requests_per_second" yaml:"requests_per_second"`
	RetryBackoff       string  `toml:"retry_backoff" yaml:"retry_backoff"`
	RetryMaxBackoff    string  `toml:"retry_max_backoff" yaml:"retry_max_backoff"`
	HTTPTimeout        string  `toml:"http_timeout" yaml:"http_timeout"`
	SkipExisting       *bool   `toml:"skip_existing" yaml:"skip_existing"`
	Verbose            *bool   `toml:"verbose" yaml:"verbose"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.mangaship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".mangaship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setString("report-url", fc.ReportURL, &cfg.ReportURL)
	s.setString("origin-domain", fc.OriginDomain, &cfg.OriginDomain)
	s.setString("user-agent", fc.UserAgent, &cfg.UserAgent)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("work-dir", fc.WorkDir, &cfg.WorkDir)
	s.setString("quality", fc.Quality, &cfg.Quality)

	s.setInt("chapters", fc.ChapterConcurrency, &cfg.ChapterConcurrency)
	s.setInt("pages", fc.PageConcurrency, &cfg.PageConcurrency)
	s.setCount("retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setFloat("rate", fc.RequestsPerSecond, &cfg.RequestsPerSecond)

	if err := s.setDuration("retry-backoff", fc.RetryBackoff, &cfg.RetryBackoff); err != nil {
		return err
	}
	if err := s.setDuration("retry-max-backoff", fc.RetryMaxBackoff, &cfg.RetryMaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("skip-existing", fc.SkipExisting, &cfg.SkipExisting)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

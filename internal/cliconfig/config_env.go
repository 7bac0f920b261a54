package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "MANGASHIP_"

// ApplyEnvConfig applies configuration from environment variables (MANGASHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("api-url", env("API_URL"), &cfg.APIURL)
	s.setString("report-url", env("REPORT_URL"), &cfg.ReportURL)
	s.setString("origin-domain", env("ORIGIN_DOMAIN"), &cfg.OriginDomain)
	s.setString("user-agent", env("USER_AGENT"), &cfg.UserAgent)
	s.setString("output", env("OUTPUT"), &cfg.Output)
	s.setString("work-dir", env("WORK_DIR"), &cfg.WorkDir)
	s.setString("quality", env("QUALITY"), &cfg.Quality)

	if err := s.setIntFromString("chapters", env("CHAPTER_CONCURRENCY"), false, &cfg.ChapterConcurrency); err != nil {
		return err
	}
	if err := s.setIntFromString("pages", env("PAGE_CONCURRENCY"), false, &cfg.PageConcurrency); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", env("MAX_RETRIES"), true, &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setFloatFromString("rate", env("REQUESTS_PER_SECOND"), &cfg.RequestsPerSecond); err != nil {
		return err
	}

	if err := s.setDuration("retry-backoff", env("RETRY_BACKOFF"), &cfg.RetryBackoff); err != nil {
		return err
	}
	if err := s.setDuration("retry-max-backoff", env("RETRY_MAX_BACKOFF"), &cfg.RetryMaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("skip-existing", env("SKIP_EXISTING"), &cfg.SkipExisting)
	s.setBoolFromString("verbose", env("VERBOSE"), &cfg.Verbose)

	return nil
}

package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
output = "/srv/manga"
quality = "data"
page_concurrency = 12
max_retries = 0
retry_backoff = "2s"
skip_existing = true
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
output: /srv/manga
quality: data
page_concurrency: 12
max_retries: 0
retry_backoff: 2s
skip_existing: true
`,
		},
		{
			name: "yml",
			file: "mangaship.yml",
			content: `
output: /srv/manga
quality: data
page_concurrency: 12
max_retries: 0
retry_backoff: 2s
skip_existing: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := LoadFileConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadFileConfig() error = %v", err)
			}
			if fc.Output != "/srv/manga" || fc.Quality != "data" || fc.PageConcurrency != 12 || fc.RetryBackoff != "2s" {
				t.Errorf("FileConfig = %+v", fc)
			}
			if fc.MaxRetries == nil || *fc.MaxRetries != 0 {
				t.Errorf("MaxRetries = %v, want explicit 0", fc.MaxRetries)
			}
			if fc.SkipExisting == nil || !*fc.SkipExisting {
				t.Errorf("SkipExisting = %v", fc.SkipExisting)
			}
			if fc.Verbose != nil {
				t.Errorf("Verbose = %v, want unset", *fc.Verbose)
			}
		})
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file: want error")
	}
	if _, err := LoadFileConfig(writeConfig(t, "bad.toml", "output = [")); err == nil {
		t.Error("bad toml: want error")
	}
	if _, err := LoadFileConfig(writeConfig(t, "bad.yaml", "output: [unterminated")); err == nil {
		t.Error("bad yaml: want error")
	}
}

func TestApplyFileConfig(t *testing.T) {
	zero := 0
	yes := true

	cfg := DefaultConfig()
	cfg.Output = "/flag/out"
	fc := FileConfig{
		Output:          "/file/out",
		Quality:         "data",
		PageConcurrency: 10,
		MaxRetries:      &zero,
		HTTPTimeout:     "45s",
		SkipExisting:    &yes,
	}

	if err := ApplyFileConfig(&cfg, fc, map[string]bool{"output": true}); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}

	if cfg.Output != "/flag/out" {
		t.Errorf("Output = %q, flag value must win", cfg.Output)
	}
	if cfg.Quality != "data" || cfg.PageConcurrency != 10 || cfg.MaxRetries != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.HTTPTimeout != 45*time.Second || !cfg.SkipExisting {
		t.Errorf("HTTPTimeout = %v SkipExisting = %v", cfg.HTTPTimeout, cfg.SkipExisting)
	}
	if cfg.ChapterConcurrency != 100 {
		t.Errorf("unset value changed: ChapterConcurrency = %d", cfg.ChapterConcurrency)
	}
}

func TestApplyFileConfig_InvalidDuration(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyFileConfig(&cfg, FileConfig{RetryMaxBackoff: "forever"}, map[string]bool{})
	if err == nil {
		t.Fatal("ApplyFileConfig() error = nil, want parse error")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/reader")
	if got, want := DefaultConfigPath(), "/home/reader/.mangaship/config.toml"; got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

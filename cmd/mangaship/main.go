package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/mangaship/internal/cliconfig"
	mglog "github.com/bft-labs/mangaship/pkg/log"
	"github.com/bft-labs/mangaship/pkg/mangaship"
	"github.com/bft-labs/mangaship/plugins/queuewatcher"
)

const helpDescription = `
Download MangaDex chapters into .cbz archives.

Highlights:
  - Fetches up to 30 pages per chapter and 100 chapters at a time.
  - Retries failed pages against a freshly resolved image server.
  - Reports every page delivery back to the image network.
  - Writes archives to a local directory or any gocloud bucket URL.
`

var exampleUsage = strings.TrimSpace(`
  mangaship download a0b1c2d3 "e4f5a6b7=Vol. 1 Ch. 2" -o ~/manga
  mangaship download --file queue.txt --quality data
  mangaship watch --queue ~/manga/queue.txt -o s3://library/manga
`)

// exitChapterFailed is returned when at least one chapter was not archived.
const exitChapterFailed = 2

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return mangaship.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "mangaship",
		Short:         "Download MangaDex chapters into .cbz archives",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// loadConfig applies file, environment and flags in increasing precedence.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		// MANGASHIP_* overrides the file but not explicit flags.
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		cliconfig.SetVerbose(cfg.Verbose)
		cliconfig.Logger().Debug().Interface("config", cfg).Msg("configuration")
		return nil
	}

	var queueFile string
	download := &cobra.Command{
		Use:   "download [chapter-id[=name]...]",
		Short: "Download chapters and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			reqs, err := collectRequests(args, queueFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				return errors.New("no chapters given: pass chapter ids or --file")
			}

			log := cliconfig.Logger()
			client, err := newClient(cfg, log, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			results := client.DownloadChapters(ctx, reqs)
			if failed := summarize(log, results, time.Since(start)); failed > 0 {
				return &exitError{code: exitChapterFailed, msg: fmt.Sprintf("%d of %d chapters failed", failed, len(results))}
			}
			return nil
		},
	}
	download.Flags().StringVarP(&queueFile, "file", "f", "", `read chapter requests from a file, one per line ("-" for stdin)`)

	watchCfg := queuewatcher.DefaultConfig()
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Download chapters as they are added to a queue file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			log := cliconfig.Logger()
			client, err := newClient(cfg, log, queuewatcher.WithQueueWatcher(watchCfg))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start mangaship: %w", err)
			}
			log.Info().Str("queue", watchCfg.Path).Msg("watching queue, press Ctrl-C to stop")

			<-ctx.Done()
			log.Info().Msg("received signal, stopping...")

			if err := client.Stop(); err != nil {
				return fmt.Errorf("stop mangaship: %w", err)
			}
			return nil
		},
	}
	watch.Flags().StringVar(&watchCfg.Path, "queue", watchCfg.Path, "queue file to watch")
	watch.Flags().DurationVar(&watchCfg.DebounceDelay, "debounce", watchCfg.DebounceDelay, "delay after a queue change before reading it")

	// Flags
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.mangaship/config.toml)")

	pf.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "origin API root")
	pf.StringVar(&cfg.ReportURL, "report-url", cfg.ReportURL, "delivery report endpoint")
	pf.StringVar(&cfg.OriginDomain, "origin-domain", cfg.OriginDomain, "hosts under this domain are not reported")
	for _, name := range []string{"api-url", "report-url", "origin-domain"} {
		if err := pf.MarkHidden(name); err != nil {
			cliconfig.Logger().Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}
	pf.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent header (default: mangaship/<version>)")

	pf.StringVarP(&cfg.Output, "output", "o", cfg.Output, "archive directory or bucket URL (s3://, gs://, file://)")
	pf.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "directory for in-progress pages (defaults to output, or a temp dir for bucket outputs)")
	pf.StringVarP(&cfg.Quality, "quality", "q", cfg.Quality, `page quality: "data" or "data-saver"`)

	pf.IntVar(&cfg.ChapterConcurrency, "chapters", cfg.ChapterConcurrency, "chapters downloaded concurrently")
	pf.IntVar(&cfg.PageConcurrency, "pages", cfg.PageConcurrency, "pages downloaded concurrently per chapter")
	pf.IntVar(&cfg.MaxRetries, "retries", cfg.MaxRetries, "retries per page, each against a fresh image server")
	pf.Float64Var(&cfg.RequestsPerSecond, "rate", cfg.RequestsPerSecond, "page requests per second across all chapters (0 = unlimited)")

	pf.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "initial delay before a retry")
	pf.DurationVar(&cfg.RetryMaxBackoff, "retry-max-backoff", cfg.RetryMaxBackoff, "maximum delay before a retry")
	pf.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")

	pf.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "skip chapters whose archive already exists")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "debug logging")

	root.AddCommand(download, watch)

	if err := root.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			cliconfig.Logger().Error().Msg(exit.msg)
			os.Exit(exit.code)
		}
		cliconfig.Logger().Error().Err(err).Msg("mangaship")
		os.Exit(1)
	}
}

func newClient(cfg cliconfig.Config, log zerolog.Logger, extra mangaship.Option) (*mangaship.Client, error) {
	libCfg := mangaship.Config{
		APIURL:             cfg.APIURL,
		ReportURL:          cfg.ReportURL,
		OriginDomain:       cfg.OriginDomain,
		UserAgent:          cfg.UserAgent,
		Output:             cfg.Output,
		WorkDir:            cfg.WorkDir,
		Quality:            cfg.Quality,
		ChapterConcurrency: cfg.ChapterConcurrency,
		PageConcurrency:    cfg.PageConcurrency,
		MaxRetries:         cfg.MaxRetries,
		RequestsPerSecond:  cfg.RequestsPerSecond,
		RetryBackoff:       cfg.RetryBackoff,
		RetryMaxBackoff:    cfg.RetryMaxBackoff,
		HTTPTimeout:        cfg.HTTPTimeout,
		SkipExisting:       cfg.SkipExisting,
	}

	opts := []mangaship.Option{
		mangaship.WithLogger(mglog.NewZerolog(log)),
		mangaship.WithEventHandler(&progressHandler{log: log}),
	}
	if extra != nil {
		opts = append(opts, extra)
	}

	client, err := mangaship.New(libCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mangaship: %w", err)
	}
	return client, nil
}

// collectRequests merges positional requests with the queue file, if any.
func collectRequests(args []string, file string, stdin io.Reader) ([]mangaship.ChapterRequest, error) {
	var reqs []mangaship.ChapterRequest
	for _, arg := range args {
		req, err := mangaship.ParseRequest(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	if file == "" {
		return reqs, nil
	}
	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	fromFile, err := mangaship.ReadRequests(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return append(reqs, fromFile...), nil
}

package queuewatcher

import "github.com/bft-labs/mangaship/pkg/mangaship"

// WithQueueWatcher returns a mangaship Option that feeds the client from a
// queue file while it runs.
//
// Usage:
//
//	client, err := mangaship.New(cfg,
//	    queuewatcher.WithQueueWatcher(queuewatcher.Config{
//	        Path:          "/srv/manga/queue.txt",
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithQueueWatcher(cfg Config) mangaship.Option {
	return mangaship.WithPlugin(New(cfg))
}

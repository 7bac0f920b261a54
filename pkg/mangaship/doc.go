// Package mangaship provides an embeddable chapter download pipeline for
// MangaDex-style image servers.
//
// A chapter is downloaded by resolving a short-lived image-server session,
// fetching every page with bounded concurrency, reporting each delivery to
// the origin's telemetry endpoint and packaging the pages into a .cbz
// archive. Failed pages are retried against a freshly resolved session.
//
// # Basic Usage
//
//	cfg := mangaship.DefaultConfig()
//	cfg.Output = "/path/to/library"
//
//	client, err := mangaship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	results := client.DownloadChapters(ctx, []mangaship.ChapterRequest{
//	    {ChapterID: "a0b1c2", DisplayName: "Vol. 1 Ch. 1"},
//	})
//	for _, r := range results {
//	    if r.Err != nil {
//	        log.Printf("%s: %v", r.Request.ChapterID, r.Err)
//	    }
//	}
//
// Each request gets its own [ChapterResult]. A chapter archived with
// missing pages has [ChapterResult.Partial] set and its missing page
// indices in FailedPages.
//
// # Configuration
//
// [DefaultConfig] returns a usable configuration. Output may be a local
// directory or a bucket URL understood by gocloud.dev/blob, for example
// s3://bucket/prefix. Pages are always staged on local disk in WorkDir.
//
// # Service Mode
//
// [Client.Start] runs a background worker that processes batches handed to
// [Client.Submit] and initializes plugins. Results of submitted batches are
// delivered through [EventHandler.OnBatchDone]:
//
//	client, err := mangaship.New(cfg,
//	    mangaship.WithEventHandler(handler),
//	    queuewatcher.WithQueueWatcher(queuewatcher.DefaultConfig()),
//	)
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
// # Lifecycle States
//
// A started client is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Client.Status] to
// query the current state.
//
// # Version
//
// Current version: 1.0.0
package mangaship

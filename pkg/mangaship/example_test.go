package mangaship_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/mangaship/pkg/mangaship"
)

// ExampleNew demonstrates downloading chapters into a local library.
func ExampleNew() {
	cfg := mangaship.DefaultConfig()
	cfg.Output = "/path/to/library"
	cfg.Quality = "data"

	client, err := mangaship.New(cfg)
	if err != nil {
		fmt.Printf("failed to create client: %v\n", err)
		return
	}
	defer client.Close()

	results := client.DownloadChapters(context.Background(), []mangaship.ChapterRequest{
		{ChapterID: "a0b1c2d3", DisplayName: "Vol. 1 Ch. 1"},
	})
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("%s failed: %v\n", r.Request.ChapterID, r.Err)
		case r.Partial():
			fmt.Printf("%s archived without pages %v\n", r.ArchiveName, r.FailedPages)
		default:
			fmt.Printf("%s archived\n", r.ArchiveName)
		}
	}
}

// Example_withEventHandler demonstrates how to receive progress events.
func Example_withEventHandler() {
	cfg := mangaship.DefaultConfig()
	cfg.Output = "/path/to/library"

	client, err := mangaship.New(cfg, mangaship.WithEventHandler(&progressHandler{}))
	if err != nil {
		fmt.Printf("failed to create client: %v\n", err)
		return
	}

	_ = client // Use client...
}

// progressHandler prints chapter progress.
type progressHandler struct {
	mangaship.BaseEventHandler // Embed for no-op defaults
}

func (h *progressHandler) OnChapterStart(event mangaship.ChapterStartEvent) {
	fmt.Printf("%s: %d pages\n", event.Request.ChapterID, event.Pages)
}

func (h *progressHandler) OnChapterDone(event mangaship.ChapterDoneEvent) {
	fmt.Printf("%s: %d/%d pages in %v\n",
		event.Result.Request.ChapterID, event.Result.Delivered, event.Result.Pages, event.Result.Duration)
}

// ExampleReadRequests demonstrates the queue file format.
func ExampleReadRequests() {
	queue := `# reading list
a0b1c2d3=Vol. 1 Ch. 1
e4f5a6b7
`
	reqs, err := mangaship.ReadRequests(strings.NewReader(queue))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, r := range reqs {
		fmt.Printf("%s %q\n", r.ChapterID, r.DisplayName)
	}
	// Output:
	// a0b1c2d3 "Vol. 1 Ch. 1"
	// e4f5a6b7 ""
}

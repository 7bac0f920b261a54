package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/mangaship/internal/domain"
)

// scriptedFetcher returns the queued errors in order, then nil.
type scriptedFetcher struct {
	mu       sync.Mutex
	errs     []error
	requests []FrameRequest
}

func (f *scriptedFetcher) Fetch(ctx context.Context, fr FrameRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, fr)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func rejected(index int) error {
	return &domain.PageError{Index: index, Kind: domain.ErrUpstreamRejected, Status: 503}
}

func sessionWith(base string, files ...string) domain.Session {
	return domain.Session{BaseURL: base, Hash: "h", Data: files, DataSaver: files}
}

func newTestRetry(f Fetcher, r *fakeResolver) *RetryCoordinator {
	return NewRetryCoordinator(f, r, RetryConfig{Quality: domain.QualityData}, &mockLogger{})
}

func TestRetryCoordinator_FirstAttempt(t *testing.T) {
	fetcher := &scriptedFetcher{}
	resolver := staticResolver(sessionWith("https://a", "x.png"))
	task := domain.NewPageTasks([]string{"x.png"}, 3)[0]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "x.png"), task, "/work")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 0 || resolver.Calls() != 0 {
		t.Errorf("resolutions = %d (resolver calls %d), want 0", n, resolver.Calls())
	}
	if task.State != domain.PageDelivered {
		t.Errorf("state = %v, want Delivered", task.State)
	}
	if got := fetcher.requests[0]; got.URL != "https://a/data/h/x.png" || got.Path != "/work/0.png" {
		t.Errorf("request = %+v", got)
	}
}

func TestRetryCoordinator_RecoversWithFreshSession(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(1), &domain.PageError{Index: 1, Kind: domain.ErrTransport}}}
	resolver := &fakeResolver{fn: func(call int) (domain.Session, error) {
		return sessionWith("https://node"+string(rune('0'+call)), "a.png", "b-new.jpg"), nil
	}}
	task := domain.NewPageTasks([]string{"a.png", "b.png"}, 5)[1]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://node0", "a.png", "b.png"), task, "/work")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 2 {
		t.Errorf("resolutions = %d, want 2", n)
	}
	if task.RetriesRemaining != 3 {
		t.Errorf("RetriesRemaining = %d, want 3", task.RetriesRemaining)
	}
	if task.OutputName != "1.png" {
		t.Errorf("OutputName changed to %q", task.OutputName)
	}

	wantURLs := []string{
		"https://node0/data/h/b.png",
		"https://node1/data/h/b-new.jpg",
		"https://node2/data/h/b-new.jpg",
	}
	if len(fetcher.requests) != len(wantURLs) {
		t.Fatalf("got %d attempts, want %d", len(fetcher.requests), len(wantURLs))
	}
	for i, want := range wantURLs {
		if fetcher.requests[i].URL != want {
			t.Errorf("attempt %d URL = %q, want %q", i, fetcher.requests[i].URL, want)
		}
		if fetcher.requests[i].Path != "/work/1.png" {
			t.Errorf("attempt %d Path = %q", i, fetcher.requests[i].Path)
		}
	}
}

func TestRetryCoordinator_ExhaustsRetries(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(0), rejected(0), rejected(0), rejected(0)}}
	resolver := staticResolver(sessionWith("https://a", "x.png"))
	task := domain.NewPageTasks([]string{"x.png"}, 3)[0]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "x.png"), task, "/work")
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Fatalf("Run() error = %v, want ErrUpstreamRejected", err)
	}
	if n != 3 || len(fetcher.requests) != 4 {
		t.Errorf("resolutions = %d attempts = %d, want 3 and 4", n, len(fetcher.requests))
	}
	if task.State != domain.PagePermanentlyFailed || task.RetriesRemaining != 0 {
		t.Errorf("task = %+v", task)
	}
}

func TestRetryCoordinator_FailedResolutionConsumesRetry(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(0)}}
	resolver := &fakeResolver{fn: func(call int) (domain.Session, error) {
		if call < 3 {
			return domain.Session{}, domain.ErrUpstream
		}
		return sessionWith("https://b", "y.png"), nil
	}}
	task := domain.NewPageTasks([]string{"x.png"}, 3)[0]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "x.png"), task, "/work")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 3 || task.RetriesRemaining != 0 {
		t.Errorf("resolutions = %d RetriesRemaining = %d, want 3 and 0", n, task.RetriesRemaining)
	}
}

func TestRetryCoordinator_ResolutionFailuresExhaustRetries(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(0)}}
	resolver := &fakeResolver{fn: func(int) (domain.Session, error) {
		return domain.Session{}, domain.ErrNotFound
	}}
	task := domain.NewPageTasks([]string{"x.png"}, 2)[0]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "x.png"), task, "/work")

	var pe *domain.PageError
	if !errors.As(err, &pe) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Run() error = %v, want PageError wrapping ErrNotFound", err)
	}
	if n != 2 || len(fetcher.requests) != 1 {
		t.Errorf("resolutions = %d attempts = %d, want 2 and 1", n, len(fetcher.requests))
	}
}

func TestRetryCoordinator_ShrunkSession(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(2)}}
	resolver := staticResolver(sessionWith("https://b", "only.png"))
	task := domain.NewPageTasks([]string{"a.png", "b.png", "c.png"}, 3)[2]

	_, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "a.png", "b.png", "c.png"), task, "/work")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("Run() error = %v, want ErrUpstream", err)
	}
	if task.State != domain.PagePermanentlyFailed {
		t.Errorf("state = %v, want PermanentlyFailed", task.State)
	}
}

func TestRetryCoordinator_OriginRejectionIsFinal(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{&domain.PageError{Kind: domain.ErrUpstreamRejected, Status: 403, Exempt: true}}}
	resolver := staticResolver(sessionWith("https://a", "x.png"))
	task := domain.NewPageTasks([]string{"x.png"}, 5)[0]

	n, err := newTestRetry(fetcher, resolver).Run(context.Background(), "ch", sessionWith("https://a", "x.png"), task, "/work")
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 0 || task.RetriesRemaining != 5 {
		t.Errorf("resolutions = %d RetriesRemaining = %d, want no retry", n, task.RetriesRemaining)
	}
}

func TestRetryCoordinator_CanceledDuringBackoff(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{rejected(0)}}
	resolver := staticResolver(sessionWith("https://a", "x.png"))
	task := domain.NewPageTasks([]string{"x.png"}, 5)[0]
	c := NewRetryCoordinator(fetcher, resolver, RetryConfig{
		Quality:        domain.QualityData,
		BackoffInitial: time.Hour,
		BackoffMax:     time.Hour,
	}, &mockLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Run(ctx, "ch", sessionWith("https://a", "x.png"), task, "/work")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Run() did not return promptly after cancellation")
	}
	if resolver.Calls() != 0 {
		t.Errorf("resolver called %d times after cancellation", resolver.Calls())
	}
}

func TestBackoff_GrowsToMax(t *testing.T) {
	b := newBackoff(time.Millisecond, 4*time.Millisecond)
	ctx := context.Background()

	for _, want := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond} {
		if err := b.Wait(ctx); err != nil {
			t.Fatal(err)
		}
		if b.Current() != want {
			t.Errorf("Current() = %v, want %v", b.Current(), want)
		}
	}

	b.Reset()
	if b.Current() != time.Millisecond {
		t.Errorf("Current() after Reset = %v", b.Current())
	}
}

func TestBackoff_ZeroDoesNotWait(t *testing.T) {
	b := newBackoff(0, 0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := b.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("zero backoff slept")
	}
}

package app

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeResolver returns the session built by fn for the n-th call (starting at 1).
type fakeResolver struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (domain.Session, error)
}

func (r *fakeResolver) Resolve(ctx context.Context, chapterID string) (domain.Session, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()
	return r.fn(call)
}

func (r *fakeResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// staticResolver always returns the same session.
func staticResolver(s domain.Session) *fakeResolver {
	return &fakeResolver{fn: func(int) (domain.Session, error) { return s, nil }}
}

// recordingReporter records every delivery report.
type recordingReporter struct {
	mu      sync.Mutex
	reports []domain.DeliveryReport
	err     error
}

func (r *recordingReporter) Report(ctx context.Context, report domain.DeliveryReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingReporter) Reports() []domain.DeliveryReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DeliveryReport(nil), r.reports...)
}

// memStore is an in-memory ports.ArchiveStore.
type memStore struct {
	mu         sync.Mutex
	archives   map[string][]byte
	failCreate map[string]bool
	failWrite  map[string]bool
	aborted    []string
}

func newMemStore() *memStore {
	return &memStore{
		archives:   make(map[string][]byte),
		failCreate: make(map[string]bool),
		failWrite:  make(map[string]bool),
	}
}

func (s *memStore) Create(ctx context.Context, name string) (ports.ArchiveWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate[name] {
		return nil, fmt.Errorf("create %s: disk full", name)
	}
	return &memWriter{store: s, name: name, failWrite: s.failWrite[name]}, nil
}

func (s *memStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.archives[name]
	return ok, nil
}

func (s *memStore) Archive(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.archives[name]
	return data, ok
}

type memWriter struct {
	store     *memStore
	name      string
	buf       bytes.Buffer
	failWrite bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.failWrite {
		return 0, errors.New("write: connection lost")
	}
	return w.buf.Write(p)
}

func (w *memWriter) Commit() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.archives[w.name] = w.buf.Bytes()
	return nil
}

func (w *memWriter) Abort() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.aborted = append(w.store.aborted, w.name)
	return nil
}

// readArchive returns the entries of a zip archive keyed by name.
func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("archive is not a valid zip: %v", err)
	}

	entries := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.Method != zip.Store {
			t.Errorf("entry %s: method = %d, want Store", f.Name, f.Method)
		}
		if perm := f.Mode().Perm(); perm != 0o644 {
			t.Errorf("entry %s: mode = %v, want 0644", f.Name, perm)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(content)
	}
	return entries
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

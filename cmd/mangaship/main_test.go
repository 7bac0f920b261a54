package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollectRequests(t *testing.T) {
	dir := t.TempDir()
	queue := filepath.Join(dir, "queue.txt")
	if err := os.WriteFile(queue, []byte("# later\nc3=Third\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reqs, err := collectRequests([]string{"a1", "b2=Vol. 1 Ch. 2"}, queue, nil)
	if err != nil {
		t.Fatalf("collectRequests() error = %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("len = %d, want 3", len(reqs))
	}
	if reqs[1].DisplayName != "Vol. 1 Ch. 2" || reqs[2].ChapterID != "c3" {
		t.Errorf("requests = %+v", reqs)
	}

	reqs, err = collectRequests(nil, "-", strings.NewReader("x\ny=Y\n"))
	if err != nil || len(reqs) != 2 {
		t.Errorf("stdin requests = %+v, %v", reqs, err)
	}

	if _, err := collectRequests([]string{"=nameless"}, "", nil); err == nil {
		t.Error("expected error for empty chapter id")
	}
	if _, err := collectRequests(nil, filepath.Join(dir, "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bft-labs/mangaship/internal/domain"
)

func TestReportSender_Report(t *testing.T) {
	var got map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewReportSender(server.Client(), server.URL, "ua")
	err := s.Report(context.Background(), domain.DeliveryReport{
		URL:        "https://node/data/h/a.png",
		Success:    true,
		Cached:     true,
		Bytes:      2048,
		DurationMs: 87,
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	want := map[string]any{
		"url":      "https://node/data/h/a.png",
		"success":  true,
		"cached":   true,
		"bytes":    float64(2048),
		"duration": float64(87),
	}
	if len(got) != len(want) {
		t.Fatalf("report = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("report[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestReportSender_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad report", http.StatusBadRequest)
	}))
	defer server.Close()

	s := NewReportSender(server.Client(), server.URL, "")
	if err := s.Report(context.Background(), domain.DeliveryReport{}); err == nil {
		t.Fatal("Report() error = nil, want error for 400")
	}
}

func TestNewReportSender_DefaultURL(t *testing.T) {
	s := NewReportSender(http.DefaultClient, "", "")
	if s.reportURL != DefaultReportURL {
		t.Errorf("reportURL = %q, want %q", s.reportURL, DefaultReportURL)
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

// DefaultReportURL is the origin's delivery report endpoint.
const DefaultReportURL = "https://api.mangadex.network/report"

// ReportSender implements ports.TelemetryReporter using HTTP.
type ReportSender struct {
	client    ports.HTTPClient
	reportURL string
	userAgent string
}

// NewReportSender creates a new HTTP report sender.
func NewReportSender(client ports.HTTPClient, reportURL, userAgent string) *ReportSender {
	if reportURL == "" {
		reportURL = DefaultReportURL
	}
	return &ReportSender{
		client:    client,
		reportURL: reportURL,
		userAgent: userAgent,
	}
}

// Report posts a delivery report as JSON.
func (s *ReportSender) Report(ctx context.Context, report domain.DeliveryReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.reportURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("report endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

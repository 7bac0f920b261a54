package domain

import (
	"fmt"
	"strings"
)

// Quality selects which rendition of the pages a session serves.
type Quality string

const (
	// QualityData serves the original images.
	QualityData Quality = "data"

	// QualityDataSaver serves recompressed, smaller images.
	QualityDataSaver Quality = "data-saver"
)

// ParseQuality validates a quality name.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityData, QualityDataSaver:
		return q, nil
	case "datasaver", "data_saver":
		return QualityDataSaver, nil
	default:
		return "", fmt.Errorf("unknown quality %q (want %q or %q)", s, QualityData, QualityDataSaver)
	}
}

// Session is a short-lived image-server session for one chapter.
// A new session must be resolved for every retry: the serving node and
// token may have changed.
type Session struct {
	// BaseURL is the image server assigned to this session.
	BaseURL string

	// Hash identifies the chapter's content on the image server.
	Hash string

	// Data lists the original page filenames in page order.
	Data []string

	// DataSaver lists the data-saver page filenames in page order.
	DataSaver []string
}

// Filenames returns the ordered page filenames for the given quality.
func (s Session) Filenames(q Quality) []string {
	if q == QualityData {
		return s.Data
	}
	return s.DataSaver
}

// FrameURL builds the URL of a page served by this session.
func (s Session) FrameURL(q Quality, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(s.BaseURL, "/"), q, s.Hash, filename)
}

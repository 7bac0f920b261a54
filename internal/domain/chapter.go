package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// maxArchiveBaseBytes keeps archive names well below common filename limits
// once the chapter id and extension are appended.
const maxArchiveBaseBytes = 180

// ChapterRequest identifies a chapter to download and the name of its archive.
type ChapterRequest struct {
	// ChapterID is the origin's chapter identifier.
	ChapterID string

	// DisplayName is the human readable name used for the archive.
	DisplayName string
}

// ParseChapterRequest parses "id" or "id=Display Name".
func ParseChapterRequest(s string) (ChapterRequest, error) {
	id, name, _ := strings.Cut(strings.TrimSpace(s), "=")
	id = strings.TrimSpace(id)
	if id == "" {
		return ChapterRequest{}, fmt.Errorf("parse chapter request %q: empty chapter id", s)
	}
	req := ChapterRequest{ChapterID: id, DisplayName: strings.TrimSpace(name)}
	if err := req.Validate(); err != nil {
		return ChapterRequest{}, fmt.Errorf("parse chapter request %q: %w", s, err)
	}
	return req, nil
}

// Validate rejects requests whose chapter id sanitizes to nothing. Such an
// id would make the working directory collapse onto its parent.
func (r ChapterRequest) Validate() error {
	if SanitizeName(r.ChapterID) == "" {
		return fmt.Errorf("%w: chapter id %q has no usable characters", ErrInvalidRequest, r.ChapterID)
	}
	return nil
}

// ArchiveBase returns DisplayName made safe for use as a single path component.
// Falls back to the chapter id when nothing usable remains.
func (r ChapterRequest) ArchiveBase() string {
	base := SanitizeName(r.DisplayName)
	if base == "" {
		base = SanitizeName(r.ChapterID)
	}
	return base
}

// SanitizeName replaces separators, reserved and control characters with '_'
// and trims leading and trailing spaces and dots.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == utf8.RuneError, unicode.IsControl(r):
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), " .")
	if len(out) > maxArchiveBaseBytes {
		cut := maxArchiveBaseBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimRight(out[:cut], " .")
	}
	return out
}

// ChapterResult is the outcome of a single chapter download.
type ChapterResult struct {
	Request ChapterRequest

	// ArchiveName is the archive key in the archive store.
	ArchiveName string

	// WorkDir is the chapter's working directory. It is left on disk
	// when archiving failed.
	WorkDir string

	// Pages is the page count learned from the first session resolution.
	Pages int

	// Delivered is the number of pages that reached the archive.
	Delivered int

	// FailedPages lists permanently failed page indices in ascending order.
	FailedPages []int

	// Resolutions counts session resolutions, including the initial one.
	Resolutions int

	// Skipped is true when the archive already existed and nothing was fetched.
	Skipped bool

	Duration time.Duration

	// Err is non-nil when the chapter was not archived.
	Err error
}

// Archived reports whether the chapter produced (or already had) an archive.
func (r ChapterResult) Archived() bool {
	return r.Err == nil
}

// Partial reports whether the chapter was archived with missing pages.
func (r ChapterResult) Partial() bool {
	return r.Err == nil && len(r.FailedPages) > 0
}

package mangaship

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bft-labs/mangaship/internal/domain"
)

// ParseRequest parses "id" or "id=Display Name".
func ParseRequest(s string) (ChapterRequest, error) {
	return domain.ParseChapterRequest(s)
}

// ReadRequests reads one request per line in ParseRequest syntax.
// Blank lines and lines starting with '#' are ignored.
func ReadRequests(r io.Reader) ([]ChapterRequest, error) {
	var reqs []ChapterRequest
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		req, err := domain.ParseChapterRequest(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return reqs, nil
}

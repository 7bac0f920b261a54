package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bft-labs/mangaship/internal/domain"
	"github.com/bft-labs/mangaship/internal/ports"
)

const atHomeEndpoint = "/at-home/server/"

// maxAPIBodyBytes bounds how much of an API response is decoded.
const maxAPIBodyBytes = 4 << 20

// ResolverConfig configures a SessionResolver.
type ResolverConfig struct {
	// APIURL is the origin API root, without trailing slash.
	APIURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Quality selects the page list that must be present in a session.
	Quality domain.Quality
}

// SessionResolver implements ports.SessionResolver against the origin's
// at-home endpoint.
type SessionResolver struct {
	client ports.HTTPClient
	cfg    ResolverConfig
	logger ports.Logger
}

// NewSessionResolver creates a new at-home session resolver.
func NewSessionResolver(client ports.HTTPClient, cfg ResolverConfig, logger ports.Logger) *SessionResolver {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Quality == "" {
		cfg.Quality = domain.QualityDataSaver
	}
	return &SessionResolver{client: client, cfg: cfg, logger: logger}
}

// atHomeResponse is the at-home server payload wrapped in the API envelope.
type atHomeResponse struct {
	Result  string         `json:"result"`
	BaseURL string         `json:"baseUrl"`
	Chapter *atHomeChapter `json:"chapter"`
	Errors  []apiError     `json:"errors"`
}

type atHomeChapter struct {
	Hash      string   `json:"hash"`
	Data      []string `json:"data"`
	DataSaver []string `json:"dataSaver"`
}

// apiError is one entry of the API's error list.
type apiError struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e apiError) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Title)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// Resolve fetches a fresh session for the chapter.
func (r *SessionResolver) Resolve(ctx context.Context, chapterID string) (domain.Session, error) {
	endpoint := r.cfg.APIURL + atHomeEndpoint + url.PathEscape(chapterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: resolve session for %s: %w", domain.ErrUpstream, chapterID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBodyBytes))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: read session for %s: %w", domain.ErrUpstream, chapterID, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrNotFound, chapterID)
	}

	var payload atHomeResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode/100 != 2 {
		return domain.Session{}, fmt.Errorf("%w: at-home returned %d for %s%s",
			domain.ErrUpstream, resp.StatusCode, chapterID, describeErrors(payload.Errors))
	}
	if decodeErr != nil {
		return domain.Session{}, fmt.Errorf("%w: decode session for %s: %w", domain.ErrUpstream, chapterID, decodeErr)
	}

	session, err := payload.session(r.cfg.Quality)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: session for %s: %w", domain.ErrUpstream, chapterID, err)
	}

	r.logger.Debug("resolved session",
		ports.String("chapter", chapterID),
		ports.String("base_url", session.BaseURL),
		ports.Int("pages", len(session.Filenames(r.cfg.Quality))),
	)
	return session, nil
}

// session validates the payload and converts it to a domain.Session.
// Missing required fields are errors.
func (p atHomeResponse) session(q domain.Quality) (domain.Session, error) {
	if p.Result != "ok" {
		return domain.Session{}, fmt.Errorf("result %q%s", p.Result, describeErrors(p.Errors))
	}
	if p.BaseURL == "" {
		return domain.Session{}, errors.New("missing baseUrl")
	}
	if _, err := url.ParseRequestURI(p.BaseURL); err != nil {
		return domain.Session{}, fmt.Errorf("invalid baseUrl: %w", err)
	}
	if p.Chapter == nil {
		return domain.Session{}, errors.New("missing chapter")
	}
	if p.Chapter.Hash == "" {
		return domain.Session{}, errors.New("missing chapter.hash")
	}

	s := domain.Session{
		BaseURL:   p.BaseURL,
		Hash:      p.Chapter.Hash,
		Data:      p.Chapter.Data,
		DataSaver: p.Chapter.DataSaver,
	}
	if len(s.Filenames(q)) == 0 {
		return domain.Session{}, fmt.Errorf("no %s pages", q)
	}
	return s, nil
}

func describeErrors(errs []apiError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

package ports

import "net/http"

// HTTPClient abstracts HTTP operations for dependency injection.
// The standard *http.Client satisfies this interface. A single client is
// shared by every page and chapter of a batch.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

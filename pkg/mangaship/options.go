package mangaship

import (
	"gocloud.dev/blob"
)

// Option configures optional behavior of a Client.
type Option func(*options)

// options holds the optional configuration for a Client.
type options struct {
	httpClient   HTTPClient
	logger       Logger
	eventHandler EventHandler
	bucket       *blob.Bucket
	plugins      []Plugin
}

// WithHTTPClient sets the HTTP client shared by every request of the client.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for client events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithArchiveBucket writes archives to bucket instead of opening
// Config.Output. The caller keeps ownership of the bucket.
func WithArchiveBucket(bucket *blob.Bucket) Option {
	return func(o *options) {
		o.bucket = bucket
	}
}

// WithPlugin registers a plugin to be initialized when the client starts.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

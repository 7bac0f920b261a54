package mangaship

import "context"

// Plugin extends a started Client with background behavior, such as
// feeding it chapter requests from an external source.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. ctx is cancelled when the client stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// Submitter accepts chapter requests for background download.
// *Client satisfies this interface.
type Submitter interface {
	Submit(ctx context.Context, reqs []ChapterRequest) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	// Submitter is the client hosting the plugin.
	Submitter Submitter

	// Output is the configured archive location.
	Output string

	Logger Logger
}

// BasePlugin provides no-op implementations of Plugin. Embed it and
// override the methods you need.
type BasePlugin struct{}

// Name returns "base".
func (BasePlugin) Name() string { return "base" }

// Initialize does nothing.
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }

// Shutdown does nothing.
func (BasePlugin) Shutdown(context.Context) error { return nil }

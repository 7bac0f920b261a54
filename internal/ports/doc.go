// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// download pipeline needs from external systems without specifying how those
// needs are fulfilled.
//
// # Port Interfaces
//
//   - [SessionResolver]: Resolves a chapter's image-server session
//   - [TelemetryReporter]: Delivers page delivery reports to the origin
//   - [Workspace]: Working directory operations on the local file system
//   - [ArchiveStore]: Creates chapter archives in their final location
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with the origin
// API client, the local file system, gocloud blob buckets and zerolog.
package ports

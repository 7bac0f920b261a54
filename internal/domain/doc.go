// Package domain contains the core domain entities and value objects for mangaship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [ChapterRequest]: A chapter to download and the name its archive gets
//   - [Session]: A short-lived image-server session for one chapter
//   - [PageTask]: One page of a chapter download and its retry state
//   - [DeliveryReport]: Delivery telemetry for a single page attempt
//   - [ChapterResult]: The outcome of one chapter download
//
// # Naming
//
// [FrameName] derives the output filename of a page. Names are zero-padded to
// the width of the highest index so that lexicographic order equals page order.
package domain

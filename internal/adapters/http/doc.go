// Package http contains the adapters that talk to the origin service:
// the at-home session resolver and the delivery report sender.
//
// Both adapters take a ports.HTTPClient so tests and embedders can supply
// their own transport. Neither adapter retries; retry policy lives in the
// application layer.
package http

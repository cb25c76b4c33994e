// Package extract turns one external link into raw calendar text ready for
// materialization. Two capability-equivalent strategies share the Extractor
// contract: a file-download extractor and a website extractor.
package extract

import "context"

// RawEvents is the output of one extraction.
type RawEvents struct {
	// Text holds calendar-formatted text. For a verbatim extraction it is
	// a complete calendar document; otherwise it is free-form text
	// containing zero or more event blocks.
	Text string

	// BaseName is the suggested document base name for materialization.
	BaseName string

	// Verbatim marks Text as an already-complete calendar document that
	// must be stored as-is, bypassing block parsing.
	Verbatim bool
}

// Extractor converts a single link into raw calendar event text.
type Extractor interface {
	// Name identifies the strategy in logs.
	Name() string

	// Extract fetches and converts one link. Implementations classify
	// their own failures; callers decide whether a failure is fatal for
	// the batch.
	Extract(ctx context.Context, link string) (RawEvents, error)
}

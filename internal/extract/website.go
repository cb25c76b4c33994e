package extract

import (
	"context"
	"fmt"

	"linkcal/internal/fetch"
	"linkcal/internal/htmltext"
	"linkcal/internal/llm"
	appLog "linkcal/internal/log"
)

// WebsiteBaseName is the document base name used for every website
// extraction; the materializer's collision policy keeps them distinct.
const WebsiteBaseName = "events.ics"

// WebsiteExtractor scrapes a website, reduces it to plain text and delegates
// to the text-understanding service to produce calendar-formatted text.
//
// A failure here is scoped to its single link: the pipeline logs it and
// moves on to the remaining links in the batch.
type WebsiteExtractor struct {
	fetcher    fetch.Fetcher
	summarizer llm.Summarizer
	maxChars   int
}

// NewWebsiteExtractor wires a WebsiteExtractor. maxChars bounds the text
// handed to the summarizer; non-positive means no truncation.
func NewWebsiteExtractor(f fetch.Fetcher, s llm.Summarizer, maxChars int) *WebsiteExtractor {
	return &WebsiteExtractor{fetcher: f, summarizer: s, maxChars: maxChars}
}

func (e *WebsiteExtractor) Name() string { return "website" }

// Extract fetches the page, strips structural markup, truncates, and asks
// the summarizer for calendar-formatted text.
//
// Error classification is preserved for the caller: fetch.ErrBlocked
// (401/403/404), fetch.ErrFailed (other network problems) and
// llm.ErrUnavailable all pass through wrapped.
func (e *WebsiteExtractor) Extract(ctx context.Context, link string) (RawEvents, error) {
	resp, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return RawEvents{}, fmt.Errorf("scraping %s: %w", fetch.RedactURL(link), err)
	}

	text := htmltext.Extract(resp.Body)
	appLog.Info("website scraped", "url", fetch.RedactURL(link), "chars", len(text))

	text = htmltext.Truncate(text, e.maxChars)

	calText, err := e.summarizer.SummarizeToCalendarText(ctx, text)
	if err != nil {
		return RawEvents{}, fmt.Errorf("extracting events from %s: %w", fetch.RedactURL(link), err)
	}

	return RawEvents{
		Text:     calText,
		BaseName: WebsiteBaseName,
	}, nil
}

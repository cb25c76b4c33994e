package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"linkcal/internal/fetch"
	appLog "linkcal/internal/log"
)

// DefaultFileName is substituted when neither the server nor the URL path
// yields a usable name for a downloaded calendar artifact.
const DefaultFileName = "canvas.ics"

// ErrDownloadFailed wraps any failure to retrieve the file link. Per the
// positional contract the file link is mandatory, so this error aborts the
// whole batch.
var ErrDownloadFailed = errors.New("file download failed")

// FileExtractor downloads a calendar file. The artifact is already in the
// target calendar format, so it is handed to the aggregator verbatim.
type FileExtractor struct {
	fetcher fetch.Fetcher
}

// NewFileExtractor creates a FileExtractor using the given fetcher.
func NewFileExtractor(f fetch.Fetcher) *FileExtractor {
	return &FileExtractor{fetcher: f}
}

func (e *FileExtractor) Name() string { return "file" }

// Extract downloads the link and returns its content as a verbatim calendar
// document along with a resolved base name.
func (e *FileExtractor) Extract(ctx context.Context, link string) (RawEvents, error) {
	resp, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		return RawEvents{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	name := resolveFileName(resp)
	appLog.Info("file link downloaded", "url", fetch.RedactURL(link), "name", name, "bytes", len(resp.Body))

	return RawEvents{
		Text:     string(resp.Body),
		BaseName: name,
		Verbatim: true,
	}, nil
}

// resolveFileName picks a document name for the downloaded artifact:
// Content-Disposition filename first, then the URL path basename (which
// must carry an extension), then DefaultFileName. A missing usable name is
// recovered via the default, never surfaced as an error.
func resolveFileName(resp *fetch.Response) string {
	if resp.Header != nil {
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			if _, params, err := mime.ParseMediaType(cd); err == nil {
				if fn := strings.TrimSpace(params["filename"]); fn != "" {
					return path.Base(fn)
				}
			}
		}
	}

	if u, err := url.Parse(resp.URL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
			return base
		}
	}

	return DefaultFileName
}

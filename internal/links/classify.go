// Package links splits an ordered link set into its file-download link and
// website links per the fixed positional contract: position 0 is always the
// file link, positions 1..5 are website links.
package links

import "errors"

// MaxWebsiteLinks bounds how many website links one batch may carry.
const MaxWebsiteLinks = 5

// ErrInsufficientLinks is returned when the link set is too short to satisfy
// the positional contract (one file link plus at least one website slot).
var ErrInsufficientLinks = errors.New("expected at least 2 links: 1 file link and 1 website link")

// Classify splits the given ordered link set into (fileLink, websiteLinks).
//
// Website links are the first up to MaxWebsiteLinks non-empty entries at
// positions 1..5, in their original order. Empty strings are valid "absent"
// placeholders and are filtered out here. URL syntax is not validated; that
// is the extractor's concern. Deterministic, no side effects.
func Classify(linkSet []string) (string, []string, error) {
	if len(linkSet) < 2 {
		return "", nil, ErrInsufficientLinks
	}

	fileLink := linkSet[0]

	end := len(linkSet)
	if end > MaxWebsiteLinks+1 {
		end = MaxWebsiteLinks + 1
	}

	websiteLinks := make([]string, 0, end-1)
	for _, l := range linkSet[1:end] {
		if l == "" {
			continue
		}
		websiteLinks = append(websiteLinks, l)
	}

	return fileLink, websiteLinks, nil
}

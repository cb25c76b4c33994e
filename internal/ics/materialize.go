// Package ics materializes raw calendar text into durable iCalendar
// documents and aggregates those documents back into normalized event
// records.
package ics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	appLog "linkcal/internal/log"
	"linkcal/internal/model"
)

// Fixed document envelope. The body is a newline-separated concatenation of
// VEVENT blocks between header and footer.
const (
	calendarHeader = "BEGIN:VCALENDAR\n" +
		"VERSION:2.0\n" +
		"PRODID:-//linkcal//Link Calendar Aggregator//EN\n" +
		"CALSCALE:GREGORIAN\n" +
		"METHOD:PUBLISH\n"
	calendarFooter = "END:VCALENDAR"
)

// eventBlockRe locates candidate event blocks in free-form text. Non-greedy
// and dot-matches-newline, so nested prose between blocks is ignored.
var eventBlockRe = regexp.MustCompile(`(?s)BEGIN:VEVENT.*?END:VEVENT`)

// trailingDigitsRe splits a name stem into prefix and trailing digit run,
// e.g. "events2" -> ("events", "2").
var trailingDigitsRe = regexp.MustCompile(`^(.+?)(\d+)$`)

// ExtractBlocks returns every BEGIN:VEVENT..END:VEVENT fragment found in
// raw, in document order. Zero matches is a valid outcome.
func ExtractBlocks(raw string) []model.RawEventBlock {
	matches := eventBlockRe.FindAllString(raw, -1)
	blocks := make([]model.RawEventBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, model.RawEventBlock(m))
	}
	return blocks
}

// Result describes the outcome of one materialization. An empty result
// (Name == "") means no event blocks were found; the raw text is retained
// for diagnostics. This is not an error.
type Result struct {
	Name       string
	EventCount int
	Raw        string
}

// Empty reports whether no document was written.
func (r Result) Empty() bool { return r.Name == "" }

// Materializer writes calendar documents into a single storage directory.
// Documents are never overwritten and never mutated after creation.
type Materializer struct {
	dir string
}

// NewMaterializer creates a Materializer rooted at dir, creating the
// directory if needed.
func NewMaterializer(dir string) (*Materializer, error) {
	if dir == "" {
		return nil, errors.New("materializer: storage dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("materializer: creating storage dir: %w", err)
	}
	return &Materializer{dir: dir}, nil
}

// Dir returns the storage directory documents are written into.
func (m *Materializer) Dir() string { return m.dir }

// Materialize parses event blocks out of rawText and, if any are found,
// writes a complete calendar document under a collision-free name derived
// from baseName. Zero blocks produce an empty Result and no file.
func (m *Materializer) Materialize(rawText, baseName string) (Result, error) {
	blocks := ExtractBlocks(rawText)
	if len(blocks) == 0 {
		appLog.Info("materialize: no event blocks found", "base_name", baseName, "raw_chars", len(rawText))
		return Result{Raw: rawText}, nil
	}

	var b strings.Builder
	b.WriteString(calendarHeader)
	for _, blk := range blocks {
		b.WriteString(string(blk))
		b.WriteString("\n")
	}
	b.WriteString(calendarFooter)

	name, err := m.writeNew([]byte(b.String()), baseName)
	if err != nil {
		return Result{}, err
	}

	appLog.Info("materialized calendar document", "name", name, "event_count", len(blocks))
	return Result{Name: name, EventCount: len(blocks)}, nil
}

// WriteVerbatim stores an already-complete calendar document (e.g. a
// downloaded .ics artifact) under a collision-free name derived from
// baseName, and returns the chosen name.
func (m *Materializer) WriteVerbatim(body []byte, baseName string) (string, error) {
	name, err := m.writeNew(body, baseName)
	if err != nil {
		return "", err
	}
	appLog.Info("stored calendar document", "name", name, "bytes", len(body))
	return name, nil
}

// writeNew resolves the collision-free name for baseName and writes body
// under it. O_EXCL guards against a race re-using a name that appeared
// between the listing and the write.
func (m *Materializer) writeNew(body []byte, baseName string) (string, error) {
	if baseName == "" {
		return "", errors.New("materializer: base name is empty")
	}

	for {
		name := nextAvailableName(m.dir, baseName)
		path := filepath.Join(m.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			// Raced with another writer; re-derive from the listing.
			baseName = name
			continue
		}
		if err != nil {
			return "", fmt.Errorf("materializer: creating %s: %w", name, err)
		}

		if _, err := f.Write(body); err != nil {
			f.Close()
			return "", fmt.Errorf("materializer: writing %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("materializer: closing %s: %w", name, err)
		}
		return name, nil
	}
}

// nextAvailableName implements the collision policy: if base exists in dir,
// parse any trailing digit run off the name stem; increment it if present,
// append "2" if absent; repeat until an unused name is found. The policy is
// deterministic and re-derivable from the directory listing alone.
func nextAvailableName(dir, base string) string {
	if !exists(filepath.Join(dir, base)) {
		return base
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	prefix := stem
	next := 2
	if m := trailingDigitsRe.FindStringSubmatch(stem); m != nil {
		prefix = m[1]
		if n, err := strconv.Atoi(m[2]); err == nil {
			next = n + 1
		}
	}

	for {
		candidate := prefix + strconv.Itoa(next) + ext
		if !exists(filepath.Join(dir, candidate)) {
			return candidate
		}
		next++
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package ics

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "linkcal/internal/log"
	"linkcal/internal/model"
)

// Aggregate flattens the manifest's calendar documents into a single ordered
// sequence of normalized event records.
//
// Ordering: documents in manifest order, events within a document in
// document order. Ids are assigned strictly by position in the flattened
// sequence, starting at 1; they are stable for one pool but re-derived on
// every run. A document that cannot be read or parsed is skipped with a
// logged warning and does not abort aggregation of the rest.
func Aggregate(dir string, manifest []string) []model.EventRecord {
	records := make([]model.EventRecord, 0)

	for _, name := range manifest {
		path := filepath.Join(dir, name)

		body, err := os.ReadFile(path)
		if err != nil {
			appLog.Error("aggregate: document unreadable, skipping", err, "name", name)
			continue
		}

		cal, err := ical.ParseCalendar(bytes.NewReader(body))
		if err != nil {
			appLog.Error("aggregate: document unparseable, skipping", err, "name", name)
			continue
		}

		for _, ve := range cal.Events() {
			rec := recordFromVEvent(ve)
			rec.ID = len(records) + 1
			records = append(records, rec)
		}

		appLog.Info("aggregated calendar document", "name", name, "total_events", len(records))
	}

	return records
}

// recordFromVEvent normalizes one VEVENT into an EventRecord, applying the
// documented defaults for absent fields. The id is assigned by the caller.
func recordFromVEvent(ve *ical.VEvent) model.EventRecord {
	rec := model.EventRecord{
		Title:    model.DefaultTitle,
		Date:     model.UnknownDate,
		Location: model.DefaultLocation,
		Raw:      ve.Serialize(),
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		rec.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		rec.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		rec.Description = p.Value
	}

	// DTSTART: timed first, then the all-day (date-only) form.
	if start, err := ve.GetStartAt(); err == nil {
		rec.Date = start.Format("2006-01-02")
		rec.StartTime = start.UTC().Format(time.RFC3339)
	} else if start, err := ve.GetAllDayStartAt(); err == nil {
		rec.Date = start.Format("2006-01-02")
	}

	if end, err := ve.GetEndAt(); err == nil {
		rec.EndTime = end.UTC().Format(time.RFC3339)
	}

	return rec
}

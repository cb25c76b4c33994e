package model

// UnknownDate is the marker stored on an EventRecord whose source did not
// carry a usable start timestamp.
const UnknownDate = "unknown"

// Default field values applied by the aggregator when a source event omits
// the corresponding property.
const (
	DefaultTitle    = "Untitled Event"
	DefaultLocation = "TBD"
)

// RawEventBlock is one source-specific textual fragment believed to describe
// a single event. It carries no invariants beyond non-emptiness; malformed
// blocks are discarded when the aggregator parses the materialized document.
type RawEventBlock string

// EventRecord is the normalized unit the selection engine operates on.
// Ids are assigned by position in the aggregated sequence (1-based) and are
// re-derived on every pipeline run; they never survive across runs.
type EventRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD, or UnknownDate
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	Description string `json:"description"`

	// Raw is the source text the record was derived from (the serialized
	// VEVENT component).
	Raw string `json:"raw"`
}

// Vote is a single swipe decision submitted for one event id.
type Vote string

const (
	VoteAccept Vote = "accept"
	VoteReject Vote = "reject"
)

// Valid reports whether v is one of the two recognized votes.
func (v Vote) Valid() bool {
	return v == VoteAccept || v == VoteReject
}

// Outcome is the per-event decision state tracked by the selection engine.
type Outcome string

const (
	OutcomeUndecided Outcome = "undecided"
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
)

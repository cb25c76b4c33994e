package store

import "time"

// Run records one pipeline execution: its pool generation id, the acting
// user, and the ordered manifest of calendar documents it produced.
type Run struct {
	ID        string // pool generation (UUID)
	UserID    string
	CreatedAt time.Time
	Manifest  []string // document names, discovery order
}

// AcceptedSnapshot is one full-replace persistence write of the accepted
// set: the complete accepted-titles list accumulated up to that vote.
type AcceptedSnapshot struct {
	ID        int64
	UserID    string
	RunID     string
	Titles    []string
	CreatedAt time.Time
}

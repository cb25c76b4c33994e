// Package selection implements the swipe state machine: per event id it
// tracks an undecided/accepted/rejected outcome, enforces one decision per
// id, and persists the accepted subset after every accepting vote.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	appLog "linkcal/internal/log"
	"linkcal/internal/model"
)

var (
	// ErrUnknownEvent is returned when a vote names an id outside the
	// current pool generation.
	ErrUnknownEvent = errors.New("unknown event id")

	// ErrInvalidVote is returned for votes other than accept/reject.
	ErrInvalidVote = errors.New("invalid vote")

	// ErrAlreadyDecided is returned when an id in a terminal state
	// receives the opposite vote. Terminal decisions cannot be reversed
	// within a pool generation.
	ErrAlreadyDecided = errors.New("event already decided")
)

// AcceptedWriter is the persistence boundary: each successful accept stores
// the full accepted-titles list accumulated so far in the session.
type AcceptedWriter interface {
	AppendAcceptedEvents(ctx context.Context, userID, runID string, titles []string) error
}

// Pool holds one generation of candidate events under review. Ids from a
// previous generation are invalid against a new pool.
type Pool struct {
	Generation string
	Events     []model.EventRecord

	byID map[int]model.EventRecord
}

// NewPool builds a pool for the given generation id and event sequence.
func NewPool(generation string, events []model.EventRecord) *Pool {
	byID := make(map[int]model.EventRecord, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	return &Pool{
		Generation: generation,
		Events:     events,
		byID:       byID,
	}
}

// Engine is the swipe state machine for one pool and one user session.
// All methods are safe for concurrent use; the mutex also serializes the
// persistence write so concurrent votes cannot race on the accepted set.
type Engine struct {
	mu sync.Mutex

	pool     *Pool
	writer   AcceptedWriter
	userID   string
	outcomes map[int]model.Outcome
	accepted []model.EventRecord
}

// NewEngine creates an Engine over pool, persisting accepted sets for
// userID through writer. A nil writer disables persistence (plan flows).
func NewEngine(pool *Pool, writer AcceptedWriter, userID string) *Engine {
	return &Engine{
		pool:     pool,
		writer:   writer,
		userID:   userID,
		outcomes: make(map[int]model.Outcome, len(pool.Events)),
	}
}

// Pool returns the pool under review.
func (e *Engine) Pool() *Pool { return e.pool }

// Record applies one vote to one event id.
//
// Transitions:
//   - undecided -> accepted|rejected (terminal)
//   - re-submitting the same terminal vote is a no-op; a duplicate accept
//     still triggers a persistence write whose content equals the previous
//     one (idempotent by content, not by write count)
//   - the opposite vote after a terminal decision fails with
//     ErrAlreadyDecided
//
// Every successful accept persists the full current accepted-titles list.
func (e *Engine) Record(ctx context.Context, id int, vote model.Vote) error {
	if !vote.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := e.pool.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d (generation %s)", ErrUnknownEvent, id, e.pool.Generation)
	}

	current := e.outcomes[id]
	if current == "" {
		current = model.OutcomeUndecided
	}

	switch current {
	case model.OutcomeUndecided:
		if vote == model.VoteAccept {
			e.outcomes[id] = model.OutcomeAccepted
			e.accepted = append(e.accepted, ev)
			appLog.Info("event accepted", "id", id, "title", ev.Title, "generation", e.pool.Generation)
			return e.persistAccepted(ctx)
		}
		e.outcomes[id] = model.OutcomeRejected
		appLog.Info("event rejected", "id", id, "title", ev.Title, "generation", e.pool.Generation)
		return nil

	case model.OutcomeAccepted:
		if vote == model.VoteReject {
			return fmt.Errorf("%w: %d is accepted", ErrAlreadyDecided, id)
		}
		// Repeated accept: no state change, but re-persist the identical
		// snapshot so the write is observably idempotent.
		return e.persistAccepted(ctx)

	default: // rejected
		if vote == model.VoteAccept {
			return fmt.Errorf("%w: %d is rejected", ErrAlreadyDecided, id)
		}
		return nil
	}
}

// persistAccepted writes the full accepted-titles snapshot. Caller holds
// the mutex.
func (e *Engine) persistAccepted(ctx context.Context) error {
	if e.writer == nil {
		return nil
	}
	titles := make([]string, 0, len(e.accepted))
	for _, ev := range e.accepted {
		titles = append(titles, ev.Title)
	}
	if err := e.writer.AppendAcceptedEvents(ctx, e.userID, e.pool.Generation, titles); err != nil {
		return fmt.Errorf("persisting accepted set: %w", err)
	}
	return nil
}

// Outcome returns the current decision state for id; unknown ids report
// undecided.
func (e *Engine) Outcome(id int) model.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if o, ok := e.outcomes[id]; ok {
		return o
	}
	return model.OutcomeUndecided
}

// Accepted returns a copy of the accepted records in acceptance order.
func (e *Engine) Accepted() []model.EventRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.EventRecord, len(e.accepted))
	copy(out, e.accepted)
	return out
}

// Undecided returns the pool events that have no terminal outcome yet, in
// pool order.
func (e *Engine) Undecided() []model.EventRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.EventRecord, 0)
	for _, ev := range e.pool.Events {
		if _, ok := e.outcomes[ev.ID]; !ok {
			out = append(out, ev)
		}
	}
	return out
}

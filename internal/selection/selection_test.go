package selection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkcal/internal/model"
)

// recordingWriter captures every accepted-set snapshot it is asked to write.
type recordingWriter struct {
	mu     sync.Mutex
	writes [][]string
	fail   error
}

func (w *recordingWriter) AppendAcceptedEvents(_ context.Context, _, _ string, titles []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	snapshot := make([]string, len(titles))
	copy(snapshot, titles)
	w.writes = append(w.writes, snapshot)
	return nil
}

func testPool() *Pool {
	return NewPool("gen-1", []model.EventRecord{
		{ID: 1, Title: "Team Standup"},
		{ID: 2, Title: "Spring Concert"},
		{ID: 3, Title: "Town Hall"},
	})
}

func TestRecord_AcceptPersistsFullSnapshot(t *testing.T) {
	w := &recordingWriter{}
	e := NewEngine(testPool(), w, "alice")
	ctx := context.Background()

	require.NoError(t, e.Record(ctx, 1, model.VoteAccept))
	require.NoError(t, e.Record(ctx, 3, model.VoteAccept))

	// Each accept writes the whole accumulated list, not a delta.
	require.Len(t, w.writes, 2)
	assert.Equal(t, []string{"Team Standup"}, w.writes[0])
	assert.Equal(t, []string{"Team Standup", "Town Hall"}, w.writes[1])
}

func TestRecord_AcceptIsIdempotent(t *testing.T) {
	w := &recordingWriter{}
	e := NewEngine(testPool(), w, "alice")
	ctx := context.Background()

	require.NoError(t, e.Record(ctx, 2, model.VoteAccept))
	require.NoError(t, e.Record(ctx, 2, model.VoteAccept))

	// Exactly one entry for id 2, and the second persistence write equals
	// the first in content.
	assert.Len(t, e.Accepted(), 1)
	require.Len(t, w.writes, 2)
	assert.Equal(t, w.writes[0], w.writes[1])
}

func TestRecord_RejectDoesNotPersist(t *testing.T) {
	w := &recordingWriter{}
	e := NewEngine(testPool(), w, "alice")

	require.NoError(t, e.Record(context.Background(), 1, model.VoteReject))
	assert.Empty(t, w.writes)
	assert.Equal(t, model.OutcomeRejected, e.Outcome(1))

	// Repeated reject is a quiet no-op.
	require.NoError(t, e.Record(context.Background(), 1, model.VoteReject))
}

func TestRecord_UnknownEvent(t *testing.T) {
	e := NewEngine(testPool(), &recordingWriter{}, "alice")

	err := e.Record(context.Background(), 99, model.VoteAccept)
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestRecord_InvalidVote(t *testing.T) {
	e := NewEngine(testPool(), &recordingWriter{}, "alice")

	err := e.Record(context.Background(), 1, model.Vote("maybe"))
	require.ErrorIs(t, err, ErrInvalidVote)
	assert.Equal(t, model.OutcomeUndecided, e.Outcome(1))
}

func TestRecord_OppositeVoteAfterTerminalFails(t *testing.T) {
	w := &recordingWriter{}
	e := NewEngine(testPool(), w, "alice")
	ctx := context.Background()

	require.NoError(t, e.Record(ctx, 1, model.VoteAccept))
	err := e.Record(ctx, 1, model.VoteReject)
	require.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, model.OutcomeAccepted, e.Outcome(1))

	require.NoError(t, e.Record(ctx, 2, model.VoteReject))
	err = e.Record(ctx, 2, model.VoteAccept)
	require.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, model.OutcomeRejected, e.Outcome(2))
}

func TestRecord_WriterFailureSurfaces(t *testing.T) {
	w := &recordingWriter{fail: errors.New("disk full")}
	e := NewEngine(testPool(), w, "alice")

	err := e.Record(context.Background(), 1, model.VoteAccept)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting accepted set")
}

func TestUndecided_ShrinksAsVotesLand(t *testing.T) {
	e := NewEngine(testPool(), &recordingWriter{}, "alice")
	ctx := context.Background()

	assert.Len(t, e.Undecided(), 3)

	require.NoError(t, e.Record(ctx, 2, model.VoteReject))
	undecided := e.Undecided()
	require.Len(t, undecided, 2)
	assert.Equal(t, 1, undecided[0].ID)
	assert.Equal(t, 3, undecided[1].ID)
}

func TestRecord_ConcurrentVotesDoNotRace(t *testing.T) {
	w := &recordingWriter{}
	events := make([]model.EventRecord, 50)
	for i := range events {
		events[i] = model.EventRecord{ID: i + 1, Title: "ev"}
	}
	e := NewEngine(NewPool("gen-c", events), w, "alice")

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = e.Record(context.Background(), id, model.VoteAccept)
		}(i)
	}
	wg.Wait()

	assert.Len(t, e.Accepted(), 50)
	// The final write holds the complete accepted set.
	require.NotEmpty(t, w.writes)
	assert.Len(t, w.writes[len(w.writes)-1], 50)
}

func TestNilWriterDisablesPersistence(t *testing.T) {
	e := NewEngine(testPool(), nil, "alice")
	require.NoError(t, e.Record(context.Background(), 1, model.VoteAccept))
	assert.Len(t, e.Accepted(), 1)
}

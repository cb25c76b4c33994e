package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "default"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "linkcal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:       uuid.NewString(),
		UserID:   testUser,
		Manifest: []string{"canvas.ics", "events.ics", "events2.ics"},
	}
	require.NoError(t, s.RecordRun(ctx, run))

	got, err := s.LatestRun(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Manifest, got.Manifest, "manifest keeps insertion order")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestLatestRun_ReturnsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Run{
		ID:        uuid.NewString(),
		UserID:    testUser,
		CreatedAt: time.Now().Add(-time.Hour),
		Manifest:  []string{"canvas.ics"},
	}
	second := &Run{
		ID:       uuid.NewString(),
		UserID:   testUser,
		Manifest: []string{"canvas.ics", "events.ics"},
	}
	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))

	got, err := s.LatestRun(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
}

func TestLatestRun_NoRuns(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LatestRun(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordRun_EmptyIDRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.RecordRun(context.Background(), &Run{UserID: testUser})
	assert.Error(t, err)
}

func TestAppendAcceptedEvents_SnapshotsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID := uuid.NewString()
	require.NoError(t, s.RecordRun(ctx, &Run{ID: runID, UserID: testUser}))

	require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, runID, []string{"Bake Sale"}))
	require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, runID, []string{"Bake Sale", "Fun Run"}))

	snaps, err := s.AcceptedSnapshots(ctx, testUser, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{"Bake Sale", "Fun Run"}, snaps[0].Titles)
	assert.Equal(t, []string{"Bake Sale"}, snaps[1].Titles)
	assert.Equal(t, runID, snaps[0].RunID)
}

func TestAppendAcceptedEvents_IdenticalSnapshotsBothKept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	titles := []string{"Bake Sale"}
	require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, "run-1", titles))
	require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, "run-1", titles))

	snaps, err := s.AcceptedSnapshots(ctx, testUser, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, snaps[0].Titles, snaps[1].Titles)
}

func TestAppendAcceptedEvents_NilTitles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, "run-1", nil))

	snaps, err := s.AcceptedSnapshots(ctx, testUser, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Empty(t, snaps[0].Titles)
}

func TestAcceptedSnapshots_NegativeLimitReturnsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// More snapshots than the default cap of 50.
	for i := 0; i < 55; i++ {
		require.NoError(t, s.AppendAcceptedEvents(ctx, testUser, "run-1", []string{"a"}))
	}

	snaps, err := s.AcceptedSnapshots(ctx, testUser, 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 50, "zero limit keeps the default cap")

	snaps, err = s.AcceptedSnapshots(ctx, testUser, -1)
	require.NoError(t, err)
	assert.Len(t, snaps, 55, "negative limit disables the cap")
}

func TestAcceptedSnapshots_LimitAndUserScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendAcceptedEvents(ctx, "alice", "run-1", []string{"a"}))
	}
	require.NoError(t, s.AppendAcceptedEvents(ctx, "bob", "run-2", []string{"b"}))

	snaps, err := s.AcceptedSnapshots(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	snaps, err = s.AcceptedSnapshots(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, []string{"b"}, snaps[0].Titles)
}

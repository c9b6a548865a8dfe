package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBeginFinish(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	run, err := store.Begin(ctx, "login", "vpn.example.com", "alice")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, OutcomeRunning, run.Outcome)
	assert.Zero(t, run.Duration())

	clock = clock.Add(12 * time.Second)
	require.NoError(t, store.Finish(ctx, run, OutcomeFailed, "credentials", "window missing"))
	assert.Equal(t, 12*time.Second, run.Duration())

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "login", got.Command)
	assert.Equal(t, "vpn.example.com", got.Domain)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, OutcomeFailed, got.Outcome)
	assert.Equal(t, "credentials", got.Step)
	assert.Equal(t, "window missing", got.Message)
	assert.Equal(t, 12*time.Second, got.Duration())
}

func TestRecent_NewestFirstAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		run, err := store.Begin(ctx, "login", "vpn.example.com", "alice")
		require.NoError(t, err)
		require.NoError(t, store.Finish(ctx, run, OutcomeSuccess, "", ""))
	}

	runs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.Equal(t, base.Add(4*time.Minute), runs[0].StartedAt)
}

func TestRecent_UnfinishedRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "disconnect", "vpn.example.com", "alice")
	require.NoError(t, err)

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].FinishedAt.IsZero())
	assert.Equal(t, OutcomeRunning, runs[0].Outcome)
}

func TestFinish_UnknownRun(t *testing.T) {
	store := openTestStore(t)

	err := store.Finish(context.Background(), &Run{ID: "missing"}, OutcomeSuccess, "", "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Begin(ctx, "login", "vpn.example.com", "alice")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

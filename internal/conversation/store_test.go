package conversation

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchline-ai/touchline/internal/agent"
	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveGetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	state := NewState("conv-1")
	state.Context.FavoriteTeam = "Arsenal"
	state.Append("user", "where are arsenal in the table?", agent.Triage)
	state.Append("assistant", "Arsenal sit second.", agent.PremierLeague)
	state.CurrentAgent = agent.PremierLeague

	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)

	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, agent.PremierLeague, got.CurrentAgent)
	assert.Equal(t, "Arsenal", got.Context.FavoriteTeam)
	require.Len(t, got.History, 2)
	assert.Equal(t, "user", got.History[0].Role)
	assert.Equal(t, agent.PremierLeague, got.History[1].Agent)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestGetMissingConversation(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSavePreservesCreatedAt(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	state := NewState("conv-2")
	state.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Save(ctx, state))

	state.Append("user", "hello", agent.Triage)
	require.NoError(t, store.Save(ctx, state))

	var created, updated int64
	err := store.db.QueryRow(
		`SELECT created_at, updated_at FROM conversations WHERE id = ?`, "conv-2",
	).Scan(&created, &updated)
	require.NoError(t, err)

	assert.Equal(t, state.CreatedAt.Unix(), created, "created_at survives the upsert")
	assert.Greater(t, updated, created)
}

func TestSaveRefreshesUpdatedAt(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	state := NewState("conv-3")
	before := state.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Save(ctx, state))

	assert.True(t, state.UpdatedAt.After(before))
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewState("conv-4")))
	require.NoError(t, store.Delete(ctx, "conv-4"))

	_, err := store.Get(ctx, "conv-4")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	err = store.Delete(ctx, "conv-4")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestReapRemovesOnlyStale(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewState("stale")))
	require.NoError(t, store.Save(ctx, NewState("fresh")))

	// Age the first conversation two days into the past.
	old := time.Now().UTC().Add(-48 * time.Hour).Unix()
	_, err := store.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, old, "stale")
	require.NoError(t, err)

	n, err := store.Reap(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "stale")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestLockSerializesSameConversation(t *testing.T) {
	store := testStore(t)

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}

	unlock := store.Lock("conv-5")
	record("first acquired")

	released := make(chan struct{})
	go func() {
		u := store.Lock("conv-5")
		record("second acquired")
		u()
		close(released)
	}()

	// The second acquirer must wait for the first release.
	time.Sleep(20 * time.Millisecond)
	record("first releasing")
	unlock()
	<-released

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first acquired", "first releasing", "second acquired"}, events)
}

func TestLockEntriesReleasedAfterUse(t *testing.T) {
	store := testStore(t)

	for i := 0; i < 100; i++ {
		unlock := store.Lock(fmt.Sprintf("conv-%d", i))
		unlock()
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks, "released ids must not accumulate lock entries")
}

func TestLockEntrySurvivesWhileContended(t *testing.T) {
	store := testStore(t)

	unlock := store.Lock("conv-busy")

	acquired := make(chan struct{})
	go func() {
		u := store.Lock("conv-busy")
		close(acquired)
		u()
	}()

	// Wait for the second acquirer to register as a waiter, then make
	// sure the entry is still present while it is queued.
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		l, ok := store.locks["conv-busy"]
		return ok && l.refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	<-acquired

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.locks) == 0
	}, time.Second, time.Millisecond)
}

func TestLockDistinctConversationsIndependent(t *testing.T) {
	store := testStore(t)

	unlockA := store.Lock("conv-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		u := store.Lock("conv-b")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different conversation id should not block")
	}
}

func TestNewStateDefaults(t *testing.T) {
	state := NewState("conv-6")

	assert.Equal(t, agent.Triage, state.CurrentAgent)
	assert.Empty(t, state.History)
	assert.NotEmpty(t, state.Context.UserID)
	assert.NotNil(t, state.Context.Preferences)
}

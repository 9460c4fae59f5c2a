package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

// fakeStore counts calls and fails on demand. It keeps just enough
// state for the manager's commit paths.
type fakeStore struct {
	games    map[string]*GameState
	archived map[string]*GameState
	appended map[string][]Event

	saveCalls int
	saveErr   error
	loadErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:    make(map[string]*GameState),
		archived: make(map[string]*GameState),
		appended: make(map[string][]Event),
	}
}

func (f *fakeStore) SaveGame(ctx context.Context, g *GameState) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.games[g.ID] = g.Clone()
	return nil
}

func (f *fakeStore) LoadGame(ctx context.Context, id string) (*GameState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	g, ok := f.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (f *fakeStore) DeleteGame(ctx context.Context, id string) error {
	delete(f.games, id)
	return nil
}

func (f *fakeStore) AppendEvents(ctx context.Context, id string, events []Event) error {
	f.appended[id] = append(f.appended[id], events...)
	return nil
}

func (f *fakeStore) ArchiveGame(ctx context.Context, g *GameState) error {
	f.archived[g.ID] = g.Clone()
	return nil
}

func managedGame(t *testing.T, m *Manager) *GameState {
	t.Helper()
	ctx := context.Background()
	g, err := m.Create(ctx, ruleset.Standard())
	require.NoError(t, err)
	_, _, err = m.Apply(ctx, g.ID, func(g *GameState) ([]Event, error) {
		return g.HandleJoin(alice)
	})
	require.NoError(t, err)
	_, _, err = m.Apply(ctx, g.ID, func(g *GameState) ([]Event, error) {
		return g.HandleJoin(bob)
	})
	require.NoError(t, err)
	return g
}

func TestManagerWriteFailureIsNotRetried(t *testing.T) {
	fs := newFakeStore()
	m := NewManager(fs)
	g := managedGame(t, m)
	ctx := context.Background()

	fs.saveCalls = 0
	fs.saveErr = errors.New("disk full")

	_, _, err := m.Apply(ctx, g.ID, func(g *GameState) ([]Event, error) {
		return g.HandleMove(alice, "e2e4")
	})

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CategoryTransient, gerr.Category)
	assert.Equal(t, 1, fs.saveCalls, "a failed write gets exactly one attempt")

	// The in-memory state stayed on the last committed version and
	// accepts the move once the store recovers.
	fs.saveErr = nil
	got, _, err := m.Apply(ctx, g.ID, func(g *GameState) ([]Event, error) {
		return g.HandleMove(alice, "e2e4")
	})
	require.NoError(t, err)
	assert.Len(t, got.MoveHistory, 1)
}

func TestManagerCreateWriteFailure(t *testing.T) {
	fs := newFakeStore()
	fs.saveErr = errors.New("disk full")
	m := NewManager(fs)

	_, err := m.Create(context.Background(), ruleset.Standard())
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CategoryTransient, gerr.Category)
	assert.Equal(t, 1, fs.saveCalls)
}

func TestManagerReadFailureRetriesOnce(t *testing.T) {
	fs := newFakeStore()
	m := NewManager(fs)
	g := managedGame(t, m)
	ctx := context.Background()

	// Drop the in-memory entry so the next Get goes through the store.
	m.mu.Lock()
	delete(m.games, g.ID)
	m.mu.Unlock()

	fs.loadErr = errors.New("transient read error")
	_, err := m.Get(ctx, g.ID)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CategoryTransient, gerr.Category)

	fs.loadErr = nil
	got, err := m.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
}

func TestManagerAbandon(t *testing.T) {
	fs := newFakeStore()
	m := NewManager(fs)
	g := managedGame(t, m)
	ctx := context.Background()

	require.NoError(t, m.Abandon(ctx, g.ID))

	rec, ok := fs.archived[g.ID]
	require.True(t, ok)
	assert.Equal(t, StatusAbandoned, rec.Status)
	assert.Equal(t, ReasonAbandonment, rec.Reason)

	_, stillLive := fs.games[g.ID]
	assert.False(t, stillLive, "live key purged")

	// The manager evicted its entry; further mutations see a missing game.
	_, _, err := m.Apply(ctx, g.ID, func(g *GameState) ([]Event, error) {
		return g.HandleResign(alice)
	})
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, CodeGameNotFound, gerr.Code)
}

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/op/go-logging"

	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

var log = logging.MustGetLogger("game")

// ErrNotFound is returned by Store implementations for missing games.
var ErrNotFound = errors.New("game not found")

// Store is the persistence surface the manager commits through.
type Store interface {
	SaveGame(ctx context.Context, g *GameState) error
	LoadGame(ctx context.Context, id string) (*GameState, error)
	DeleteGame(ctx context.Context, id string) error
	AppendEvents(ctx context.Context, id string, events []Event) error
	ArchiveGame(ctx context.Context, g *GameState) error
}

// Manager owns every live game: it serializes mutations per game,
// applies them copy-on-write, and commits to the store before the new
// state becomes visible.
type Manager struct {
	store Store

	mu    sync.Mutex
	games map[string]*managed
}

type managed struct {
	mu    sync.Mutex
	state *GameState
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, games: make(map[string]*managed)}
}

// Create starts a new game with the given rule configuration.
func (m *Manager) Create(ctx context.Context, cfg ruleset.Config) (*GameState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errInvalidAction("invalid ruleset: %v", err)
	}

	id, err := newGameID()
	if err != nil {
		return nil, errServer("id generation: %v", err)
	}
	g := New(id, cfg)
	if err := m.store.SaveGame(ctx, g); err != nil {
		return nil, ErrTransient(err)
	}

	m.mu.Lock()
	m.games[id] = &managed{state: g}
	m.mu.Unlock()

	log.Infof("game %s created (ruleset %s)", id, cfg.RulesetType)
	return g.Clone(), nil
}

// Get returns a read-only copy of a game's state.
func (m *Manager) Get(ctx context.Context, id string) (*GameState, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Apply runs a mutation against a draft copy of the game, commits it to
// the store, and only then swaps it in. Store failures leave the game
// untouched and surface as transient errors. The returned events are
// already recorded; dispatch them in order.
func (m *Manager) Apply(ctx context.Context, id string, fn func(*GameState) ([]Event, error)) (*GameState, []Event, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.state.Clone()
	events, err := fn(draft)
	if err != nil {
		// Poisoning is a state change that must survive the failed input.
		if draft.Poisoned && !e.state.Poisoned {
			log.Errorf("game %s poisoned: %v", id, err)
			e.state.Poisoned = true
			if serr := m.store.SaveGame(ctx, e.state); serr != nil {
				log.Errorf("game %s: persisting poison mark: %v", id, serr)
			}
		}
		return nil, nil, err
	}
	draft.UpdatedAt = time.Now().UTC()

	if draft.Status.Terminal() {
		if err := m.store.ArchiveGame(ctx, draft); err != nil {
			return nil, nil, ErrTransient(err)
		}
		if err := m.store.DeleteGame(ctx, id); err != nil {
			log.Warningf("game %s: purging live key: %v", id, err)
		}
	} else if err := m.store.SaveGame(ctx, draft); err != nil {
		// Writes are not retried; the caller sees a transient failure
		// and the in-memory state stays on the last committed version.
		return nil, nil, ErrTransient(err)
	}

	if len(events) > 0 {
		if err := m.store.AppendEvents(ctx, id, events); err != nil {
			log.Warningf("game %s: appending events: %v", id, err)
		}
	}

	e.state = draft
	if draft.Status.Terminal() {
		m.mu.Lock()
		delete(m.games, id)
		m.mu.Unlock()
		log.Infof("game %s finished: %s (%s)", id, draft.Result, draft.Reason)
	}
	return draft.Clone(), events, nil
}

// Abandon ends an idle game through the normal commit path: the game is
// archived, its live key purged, and the in-memory entry evicted like
// any other finished game.
func (m *Manager) Abandon(ctx context.Context, id string) error {
	_, _, err := m.Apply(ctx, id, func(g *GameState) ([]Event, error) {
		return g.Abandon(), nil
	})
	return err
}

// entry returns the managed entry for a game, loading it from the store
// if this process has not seen it yet.
func (m *Manager) entry(ctx context.Context, id string) (*managed, error) {
	m.mu.Lock()
	if e, ok := m.games[id]; ok {
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	g, err := m.store.LoadGame(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrGameNotFound(id)
	}
	if err != nil {
		// One retry for transient read failures.
		g, err = m.store.LoadGame(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrGameNotFound(id)
		}
		if err != nil {
			return nil, ErrTransient(err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.games[id]; ok {
		return e, nil
	}
	e := &managed{state: g}
	m.games[id] = e
	return e, nil
}

func newGameID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Package store persists games on BadgerDB: live games and event rings
// as TTL entries, finished games in a durable archive, plus generic TTL
// keys for sessions.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/op/go-logging"

	"github.com/cango91/gambit-chess-sub005/internal/game"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

var log = logging.MustGetLogger("store")

// Key prefixes. Live keys carry a TTL; archive keys do not.
const (
	prefixGame    = "game:"
	prefixEvents  = "events:"
	prefixArchive = "archive:game:"
)

const (
	// GameTTL is how long an untouched live game survives. Refreshed on
	// every access.
	GameTTL = 24 * time.Hour
	// EventsTTL bounds the reconnect replay window.
	EventsTTL = time.Hour
	// eventRingCap bounds the replay ring per game.
	eventRingCap = 512
)

// Store wraps BadgerDB for game persistence.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an ephemeral database. Used by tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame writes a live game under its 24 h TTL key.
func (s *Store) SaveGame(ctx context.Context, g *game.GameState) error {
	return s.PutJSON(ctx, prefixGame+g.ID, g, GameTTL)
}

// LoadGame reads a live game and refreshes its TTL.
func (s *Store) LoadGame(ctx context.Context, id string) (*game.GameState, error) {
	var g game.GameState
	if err := s.GetJSON(ctx, prefixGame+id, &g); err != nil {
		return nil, err
	}
	// Access keeps the game alive.
	if err := s.PutJSON(ctx, prefixGame+id, &g, GameTTL); err != nil {
		log.Warningf("game %s: refreshing TTL: %v", id, err)
	}
	return &g, nil
}

// DeleteGame removes a live game key.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	return s.Delete(ctx, prefixGame+id)
}

// ListGames returns every live game, most recently updated first.
func (s *Store) ListGames(ctx context.Context) ([]*game.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*game.GameState
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var g game.GameState
				if err := json.Unmarshal(val, &g); err != nil {
					return err
				}
				out = append(out, &g)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.After(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// AppendEvents appends to a game's replay ring, trimming it to the cap,
// and resets the ring's 1 h TTL.
func (s *Store) AppendEvents(ctx context.Context, id string, events []game.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(prefixEvents + id)
	return s.db.Update(func(txn *badger.Txn) error {
		var ring []game.Event
		item, err := txn.Get(key)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ring)
			})
		}
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}

		ring = append(ring, events...)
		if len(ring) > eventRingCap {
			ring = ring[len(ring)-eventRingCap:]
		}

		data, err := json.Marshal(ring)
		if err != nil {
			return err
		}
		entry := badger.NewEntry(key, data).WithTTL(EventsTTL)
		return txn.SetEntry(entry)
	})
}

// LoadEvents returns ring events with sequence numbers above afterSeq.
func (s *Store) LoadEvents(ctx context.Context, id string, afterSeq int64) ([]game.Event, error) {
	var ring []game.Event
	if err := s.GetJSON(ctx, prefixEvents+id, &ring); err != nil {
		if err == game.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var out []game.Event
	for _, ev := range ring {
		if ev.Sequence > afterSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}

// DeleteEvents drops a game's replay ring.
func (s *Store) DeleteEvents(ctx context.Context, id string) error {
	return s.Delete(ctx, prefixEvents+id)
}

// ArchiveRecord is the durable record of a finished game.
type ArchiveRecord struct {
	ID          string            `json:"id"`
	Result      string            `json:"result"`
	Reason      string            `json:"reason"`
	FinalFEN    string            `json:"finalFen"`
	RulesetType string            `json:"rulesetType"`
	Config      ruleset.Config    `json:"config"`
	MoveHistory []game.MoveRecord `json:"moveHistory"`
	WhiteID     string            `json:"whiteId"`
	BlackID     string            `json:"blackId"`
	CreatedAt   time.Time         `json:"createdAt"`
	FinishedAt  time.Time         `json:"finishedAt"`
}

// ArchiveGame writes the durable record for a terminal game.
func (s *Store) ArchiveGame(ctx context.Context, g *game.GameState) error {
	rec := ArchiveRecord{
		ID:          g.ID,
		Result:      g.Result,
		Reason:      g.Reason,
		FinalFEN:    g.Position.ToFEN(),
		RulesetType: g.Config.RulesetType,
		Config:      g.Config,
		MoveHistory: g.MoveHistory,
		CreatedAt:   g.CreatedAt,
		FinishedAt:  time.Now().UTC(),
	}
	if p := g.Players[0]; p != nil {
		rec.WhiteID = p.ID
	}
	if p := g.Players[1]; p != nil {
		rec.BlackID = p.ID
	}
	return s.PutJSON(ctx, prefixArchive+g.ID, &rec, 0)
}

// LoadArchive reads a finished game's record.
func (s *Store) LoadArchive(ctx context.Context, id string) (*ArchiveRecord, error) {
	var rec ArchiveRecord
	if err := s.GetJSON(ctx, prefixArchive+id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PutJSON writes a JSON value; ttl of zero means no expiry.
func (s *Store) PutJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// GetJSON reads a JSON value; missing keys return game.ErrNotFound.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err == badger.ErrKeyNotFound {
		return game.ErrNotFound
	}
	return err
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// keys returns every key under a prefix. Used by the sweeper.
func (s *Store) keys(prefix string) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, string(it.Item().Key()))
		}
		return nil
	})
	return out, err
}

func idFromKey(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}

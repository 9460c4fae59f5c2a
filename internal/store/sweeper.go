package store

import (
	"context"
	"time"

	"github.com/cango91/gambit-chess-sub005/internal/game"
)

const (
	// DefaultIdleCutoff is how long a live game may sit untouched before
	// the sweeper declares it abandoned.
	DefaultIdleCutoff = 2 * time.Hour
	// DefaultSweepInterval is the pause between sweeps.
	DefaultSweepInterval = 10 * time.Minute
)

// Sweeper archives idle games as abandoned and purges orphaned event
// rings. Live-key TTLs handle the common cleanup; the sweeper catches
// games that keep getting read without being played. Abandonment goes
// through the game manager so its in-memory entry is evicted too.
type Sweeper struct {
	store    *Store
	games    *game.Manager
	cutoff   time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper with the default cutoff and interval.
func NewSweeper(s *Store, games *game.Manager) *Sweeper {
	return &Sweeper{store: s, games: games, cutoff: DefaultIdleCutoff, interval: DefaultSweepInterval}
}

// Run sweeps periodically until the context is cancelled.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sw.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Exported for tests and for a final sweep at
// shutdown.
func (sw *Sweeper) Sweep(ctx context.Context) {
	games, err := sw.store.ListGames(ctx)
	if err != nil {
		log.Errorf("sweeper: listing games: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, g := range games {
		if g.Status.Terminal() || now.Sub(g.UpdatedAt) < sw.cutoff {
			continue
		}
		if err := sw.games.Abandon(ctx, g.ID); err != nil {
			log.Errorf("sweeper: abandoning %s: %v", g.ID, err)
			continue
		}
		log.Infof("sweeper: game %s abandoned after %s idle", g.ID, now.Sub(g.UpdatedAt).Truncate(time.Minute))
	}

	sw.purgeOrphanEvents(ctx)
}

// purgeOrphanEvents deletes event rings whose live game key is gone.
func (sw *Sweeper) purgeOrphanEvents(ctx context.Context) {
	keys, err := sw.store.keys(prefixEvents)
	if err != nil {
		log.Errorf("sweeper: listing event keys: %v", err)
		return
	}

	for _, key := range keys {
		id := idFromKey(key, prefixEvents)
		var probe struct{}
		err := sw.store.GetJSON(ctx, prefixGame+id, &probe)
		if err == game.ErrNotFound {
			if derr := sw.store.Delete(ctx, key); derr != nil {
				log.Warningf("sweeper: deleting orphan %s: %v", key, derr)
			}
		}
	}
}

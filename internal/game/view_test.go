package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

func TestViewBattlePointVisibility(t *testing.T) {
	t.Run("HiddenProfile", func(t *testing.T) {
		g := startedGame(t, ruleset.Standard())

		v := g.ViewFor(alice)
		assert.Equal(t, "white", v.YourColor)
		assert.Equal(t, 39, v.White.BattlePoints, "own pool is always visible")
		assert.Equal(t, HiddenValue, v.Black.BattlePoints, "opponent pool is hidden")

		v = g.ViewFor(bob)
		assert.Equal(t, HiddenValue, v.White.BattlePoints)
		assert.Equal(t, 39, v.Black.BattlePoints)

		v = g.ViewFor("stranger")
		assert.Empty(t, v.YourColor)
		assert.Equal(t, HiddenValue, v.White.BattlePoints, "spectators never see pools")
		assert.Equal(t, HiddenValue, v.Black.BattlePoints)
	})

	t.Run("OpenProfile", func(t *testing.T) {
		g := startedGame(t, ruleset.Beginner())

		v := g.ViewFor(alice)
		assert.Equal(t, 50, v.Black.BattlePoints, "beginner profile shows both pools")

		// Even open profiles keep pools from spectators.
		v = g.ViewFor("stranger")
		assert.Equal(t, HiddenValue, v.White.BattlePoints)
	})
}

func TestViewPendingDuel(t *testing.T) {
	g := startedGame(t, ruleset.Standard())
	mustMove(t, g, alice, "e2e4")
	mustMove(t, g, bob, "d7d5")
	mustMove(t, g, alice, "e4d5")
	_, err := g.HandleAllocate(alice, 2)
	require.NoError(t, err)

	v := g.ViewFor(alice)
	require.NotNil(t, v.PendingDuel)
	assert.True(t, v.PendingDuel.YouAllocated)
	assert.Equal(t, 2, v.PendingDuel.YourAllocation)
	assert.False(t, v.PendingDuel.OpponentAllocated)

	v = g.ViewFor(bob)
	require.NotNil(t, v.PendingDuel)
	assert.False(t, v.PendingDuel.YouAllocated)
	assert.Equal(t, HiddenValue, v.PendingDuel.YourAllocation)
	assert.True(t, v.PendingDuel.OpponentAllocated, "that something was committed is public")

	v = g.ViewFor("stranger")
	require.NotNil(t, v.PendingDuel)
	assert.Equal(t, HiddenValue, v.PendingDuel.YourAllocation)
	assert.False(t, v.PendingDuel.YouAllocated)
}

func TestViewRetreatOptions(t *testing.T) {
	g := startedGame(t, ruleset.Standard())
	mustMove(t, g, alice, "g1f3")
	mustMove(t, g, bob, "e7e5")
	mustMove(t, g, alice, "f3e5")
	_, err := g.HandleAllocate(alice, 0)
	require.NoError(t, err)
	_, err = g.HandleAllocate(bob, 1)
	require.NoError(t, err)
	require.Equal(t, StatusRetreatDecision, g.Status)

	assert.NotEmpty(t, g.ViewFor(alice).Retreat, "attacker sees the options")
	assert.Empty(t, g.ViewFor(bob).Retreat)
	assert.Empty(t, g.ViewFor("stranger").Retreat)
}

func TestViewHistoryRedaction(t *testing.T) {
	play := func(t *testing.T, cfg ruleset.Config) *GameState {
		g := startedGame(t, cfg)
		mustMove(t, g, alice, "e2e4")
		mustMove(t, g, bob, "d7d5")
		mustMove(t, g, alice, "e4d5")
		_, err := g.HandleAllocate(alice, 2)
		require.NoError(t, err)
		_, err = g.HandleAllocate(bob, 0)
		require.NoError(t, err)
		return g
	}

	t.Run("StandardShowsResolvedAmounts", func(t *testing.T) {
		g := play(t, ruleset.Standard())

		v := g.ViewFor(bob)
		rec := v.MoveHistory[len(v.MoveHistory)-1]
		require.NotNil(t, rec.Duel)
		assert.Equal(t, 2, rec.Duel.AttackerAllocation)
		assert.Equal(t, 0, rec.Duel.DefenderAllocation)

		// Spectators get the moves but not the numbers.
		v = g.ViewFor("stranger")
		rec = v.MoveHistory[len(v.MoveHistory)-1]
		require.NotNil(t, rec.Duel)
		assert.Equal(t, HiddenValue, rec.Duel.AttackerAllocation)
		assert.Equal(t, HiddenValue, rec.Regeneration)
	})

	t.Run("AdvancedHidesHistoryFromPlayers", func(t *testing.T) {
		g := play(t, ruleset.Advanced())

		v := g.ViewFor(bob)
		rec := v.MoveHistory[len(v.MoveHistory)-1]
		require.NotNil(t, rec.Duel)
		assert.Equal(t, HiddenValue, rec.Duel.AttackerAllocation)
		assert.Equal(t, HiddenValue, rec.Duel.DefenderAllocation)
	})

	t.Run("RedactionDoesNotMutateState", func(t *testing.T) {
		g := play(t, ruleset.Standard())
		_ = g.ViewFor("stranger")

		rec := g.MoveHistory[len(g.MoveHistory)-1]
		require.NotNil(t, rec.Duel)
		assert.Equal(t, 2, rec.Duel.AttackerAllocation, "views are copies")
	})
}

func TestViewLastReport(t *testing.T) {
	g := startedGame(t, ruleset.Standard())
	mustMove(t, g, alice, "e2e4")

	require.NotNil(t, g.ViewFor(alice).LastReport, "mover sees their regeneration breakdown")
	assert.Nil(t, g.ViewFor(bob).LastReport)
	assert.Nil(t, g.ViewFor("stranger").LastReport)
}

func TestFilterEvent(t *testing.T) {
	g := startedGame(t, ruleset.Standard())
	broadcast := Event{Type: EventMoveMade, GameID: g.ID}
	directed := Event{Type: EventBPUpdated, GameID: g.ID, Recipient: alice}

	_, ok := g.FilterEvent(broadcast, bob, false)
	assert.True(t, ok)
	_, ok = g.FilterEvent(broadcast, "stranger", false)
	assert.True(t, ok)

	_, ok = g.FilterEvent(directed, alice, false)
	assert.True(t, ok)
	_, ok = g.FilterEvent(directed, bob, false)
	assert.False(t, ok)
	_, ok = g.FilterEvent(directed, "stranger", false)
	assert.False(t, ok)
}

func TestFilterEventDuelResolvedRedaction(t *testing.T) {
	resolved := Event{
		Type:   EventDuelResolved,
		GameID: "test-game",
		Payload: DuelResolvedPayload{
			Move:               "e4d5",
			AttackerAllocation: 2,
			DefenderAllocation: 3,
		},
	}

	t.Run("PlayersSeeAmountsLive", func(t *testing.T) {
		g := startedGame(t, ruleset.Standard())
		fev, ok := g.FilterEvent(resolved, bob, false)
		require.True(t, ok)
		p := fev.Payload.(DuelResolvedPayload)
		assert.Equal(t, 2, p.AttackerAllocation)
		assert.Equal(t, 3, p.DefenderAllocation)
	})

	t.Run("SpectatorsNeverSeeAmounts", func(t *testing.T) {
		g := startedGame(t, ruleset.Standard())
		fev, ok := g.FilterEvent(resolved, "stranger", false)
		require.True(t, ok)
		p := fev.Payload.(DuelResolvedPayload)
		assert.Equal(t, HiddenValue, p.AttackerAllocation)
		assert.Equal(t, HiddenValue, p.DefenderAllocation)
	})

	t.Run("ReplayFollowsHistoryHiding", func(t *testing.T) {
		g := startedGame(t, ruleset.Advanced())
		fev, ok := g.FilterEvent(resolved, bob, true)
		require.True(t, ok)
		p := fev.Payload.(DuelResolvedPayload)
		assert.Equal(t, HiddenValue, p.AttackerAllocation)
		assert.Equal(t, HiddenValue, p.DefenderAllocation)

		// Standard keeps resolved amounts visible on replay.
		g = startedGame(t, ruleset.Standard())
		fev, ok = g.FilterEvent(resolved, bob, true)
		require.True(t, ok)
		p = fev.Payload.(DuelResolvedPayload)
		assert.Equal(t, 2, p.AttackerAllocation)
	})

	t.Run("RedactsStoredMapPayloads", func(t *testing.T) {
		// Replayed ring events come back from the store as generic maps.
		stored := resolved
		stored.Payload = map[string]any{
			"move":               "e4d5",
			"attackerAllocation": float64(2),
			"defenderAllocation": float64(3),
		}

		g := startedGame(t, ruleset.Standard())
		fev, ok := g.FilterEvent(stored, "stranger", true)
		require.True(t, ok)
		m := fev.Payload.(map[string]any)
		assert.Equal(t, HiddenValue, m["attackerAllocation"])
		assert.Equal(t, HiddenValue, m["defenderAllocation"])
		assert.Equal(t, "e4d5", m["move"])

		// The stored event itself is untouched.
		orig := stored.Payload.(map[string]any)
		assert.Equal(t, float64(2), orig["attackerAllocation"])
	})

	t.Run("RedactionDoesNotMutateSource", func(t *testing.T) {
		g := startedGame(t, ruleset.Standard())
		_, _ = g.FilterEvent(resolved, "stranger", false)
		p := resolved.Payload.(DuelResolvedPayload)
		assert.Equal(t, 2, p.AttackerAllocation)
	})
}

func TestViewUnseatedGame(t *testing.T) {
	g := New("g1", ruleset.Standard())
	_, err := g.HandleJoin(alice)
	require.NoError(t, err)

	v := g.ViewFor(alice)
	assert.Equal(t, StatusWaitingForPlayers, v.Status)
	assert.True(t, v.White.Seated)
	assert.False(t, v.Black.Seated)
	assert.Equal(t, board.Black, v.Black.Color)
	assert.Equal(t, HiddenValue, v.Black.BattlePoints)
}

package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
)

func pendingFor(t *testing.T, fen, uci string) *Pending {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err)
	m, err := board.ParseMove(uci, pos)
	require.NoError(t, err)
	d, err := NewPending(pos, m)
	require.NoError(t, err)
	return d
}

func TestNewPending(t *testing.T) {
	d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")

	assert.Equal(t, "e4d5", d.Move)
	assert.Equal(t, board.E4, d.From)
	assert.Equal(t, board.D5, d.To)
	assert.Equal(t, board.D5, d.CaptureSquare)
	assert.Equal(t, board.White, d.AttackerColor)
	assert.Equal(t, board.Black, d.DefenderColor())
	assert.Equal(t, board.Pawn, d.AttackerKind)
	assert.Equal(t, board.Pawn, d.DefenderKind)
	assert.False(t, d.Complete())
}

func TestNewPendingEnPassant(t *testing.T) {
	// White captures en passant on d6; the pawn being taken sits on d5.
	d := pendingFor(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "e5d6")

	assert.Equal(t, board.D6, d.To)
	assert.Equal(t, board.D5, d.CaptureSquare)
	assert.Equal(t, board.Pawn, d.DefenderKind)
}

func TestSubmitValidation(t *testing.T) {
	cfg := ruleset.Standard()

	t.Run("Negative", func(t *testing.T) {
		d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")
		_, err := d.Submit(&cfg, board.White, -1, 39)
		assert.ErrorIs(t, err, ErrNegativeAllocation)
	})

	t.Run("WriteOnce", func(t *testing.T) {
		d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")
		_, err := d.Submit(&cfg, board.White, 1, 39)
		require.NoError(t, err)
		_, err = d.Submit(&cfg, board.White, 2, 39)
		assert.ErrorIs(t, err, ErrAlreadyAllocated)
	})

	t.Run("EffectiveCostChecked", func(t *testing.T) {
		// Pawn capacity is 1: bidding 3 costs an effective 5. A pool of 4
		// cannot cover it even though the nominal bid fits.
		d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")
		_, err := d.Submit(&cfg, board.White, 3, 4)
		assert.ErrorIs(t, err, ErrInsufficientBP)

		_, err = d.Submit(&cfg, board.White, 3, 5)
		assert.NoError(t, err)
	})

	t.Run("ClampedToMaximum", func(t *testing.T) {
		d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")
		stored, err := d.Submit(&cfg, board.White, 25, 100)
		require.NoError(t, err)
		assert.Equal(t, cfg.MaxPieceBattlePoints, stored)
	})
}

func TestResolveOrderIndependence(t *testing.T) {
	cfg := ruleset.Standard()
	fen := "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1"

	first := pendingFor(t, fen, "e4d5")
	_, err := first.Submit(&cfg, board.White, 2, 39)
	require.NoError(t, err)
	_, err = first.Submit(&cfg, board.Black, 1, 39)
	require.NoError(t, err)

	second := pendingFor(t, fen, "e4d5")
	_, err = second.Submit(&cfg, board.Black, 1, 39)
	require.NoError(t, err)
	_, err = second.Submit(&cfg, board.White, 2, 39)
	require.NoError(t, err)

	a, err := first.Resolve(&cfg)
	require.NoError(t, err)
	b, err := second.Resolve(&cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, a.AttackerWon)
}

func TestResolveTies(t *testing.T) {
	fen := "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1"

	t.Run("DefenderWins", func(t *testing.T) {
		cfg := ruleset.Standard()
		d := pendingFor(t, fen, "e4d5")
		_, err := d.Submit(&cfg, board.White, 1, 39)
		require.NoError(t, err)
		_, err = d.Submit(&cfg, board.Black, 1, 39)
		require.NoError(t, err)

		out, err := d.Resolve(&cfg)
		require.NoError(t, err)
		assert.False(t, out.AttackerWon)
	})

	t.Run("AttackerTiesProfile", func(t *testing.T) {
		cfg := ruleset.AttackerTies()
		d := pendingFor(t, fen, "e4d5")
		_, err := d.Submit(&cfg, board.White, 1, 50)
		require.NoError(t, err)
		_, err = d.Submit(&cfg, board.Black, 1, 50)
		require.NoError(t, err)

		out, err := d.Resolve(&cfg)
		require.NoError(t, err)
		assert.True(t, out.AttackerWon)
	})
}

func TestResolveCapacityDoubling(t *testing.T) {
	cfg := ruleset.Standard()

	// Knight takes a pawn. The knight bids 4 for an effective 5
	// (capacity 3, extras doubled); the pawn bids 3 for the same
	// effective 5 (capacity 1). Defender wins the tie despite the
	// lower nominal bid.
	d := pendingFor(t, "4k3/8/8/3p4/8/4N3/8/4K3 w - - 0 1", "e3d5")
	_, err := d.Submit(&cfg, board.White, 4, 39)
	require.NoError(t, err)
	_, err = d.Submit(&cfg, board.Black, 3, 39)
	require.NoError(t, err)

	out, err := d.Resolve(&cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, out.AttackerEffective)
	assert.Equal(t, 5, out.DefenderEffective)
	assert.False(t, out.AttackerWon)
	assert.Equal(t, 4, out.AttackerCost, "nominal debit by default")
	assert.Equal(t, 3, out.DefenderCost)
}

func TestResolveIncomplete(t *testing.T) {
	cfg := ruleset.Standard()
	d := pendingFor(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5")
	_, err := d.Submit(&cfg, board.White, 1, 39)
	require.NoError(t, err)

	_, err = d.Resolve(&cfg)
	assert.ErrorIs(t, err, ErrIncomplete)
}

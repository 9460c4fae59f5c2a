// Package ruleset defines the Gambit Chess rule configuration: named
// profiles, per-tactic regeneration formulas, duel and retreat options,
// and information-hiding settings. Configs are immutable once attached
// to a game.
package ruleset

import (
	"fmt"

	"github.com/cango91/gambit-chess-sub005/internal/board"
)

// Tactic identifiers used as regeneration formula keys.
const (
	TacticCheck            = "check"
	TacticDoubleCheck      = "double_check"
	TacticDiscoveredAttack = "discovered_attack"
	TacticDiscoveredCheck  = "discovered_check"
	TacticPin              = "pin"
	TacticSkewer           = "skewer"
	TacticFork             = "fork"
	TacticDirectDefense    = "direct_defense"
)

// PieceTable assigns an integer to each piece kind.
type PieceTable struct {
	Pawn   int `toml:"pawn"`
	Knight int `toml:"knight"`
	Bishop int `toml:"bishop"`
	Rook   int `toml:"rook"`
	Queen  int `toml:"queen"`
	King   int `toml:"king"`
}

// Value returns the table entry for the given piece type.
func (t PieceTable) Value(pt board.PieceType) int {
	switch pt {
	case board.Pawn:
		return t.Pawn
	case board.Knight:
		return t.Knight
	case board.Bishop:
		return t.Bishop
	case board.Rook:
		return t.Rook
	case board.Queen:
		return t.Queen
	case board.King:
		return t.King
	}
	return 0
}

// TacticRule configures one regeneration pattern.
type TacticRule struct {
	Enabled     bool   `toml:"enabled"`
	Formula     string `toml:"formula"`
	Description string `toml:"description"`
}

// RegenerationConfig drives BP regeneration after each applied move.
type RegenerationConfig struct {
	BaseTurn int                   `toml:"base_turn"`
	Tactics  map[string]TacticRule `toml:"tactics"`
}

// RetreatCost configures tactical retreat pricing.
type RetreatCost struct {
	BaseReturn          float64 `toml:"base_return"`
	DistanceMultiplier  float64 `toml:"distance_multiplier"`
	KnightCustomEnabled bool    `toml:"knight_custom_enabled"`
	UseKnightLookup     bool    `toml:"use_knight_lookup"`
}

// RetreatConfig configures tactical retreats.
type RetreatConfig struct {
	Enabled          bool        `toml:"enabled"`
	LongRangeEnabled bool        `toml:"long_range_enabled"`
	KnightsEnabled   bool        `toml:"knights_enabled"`
	Cost             RetreatCost `toml:"cost"`
}

// DuelConfig configures sealed-bid duel resolution.
type DuelConfig struct {
	// DefenderWinsTies decides equal effective bids.
	DefenderWinsTies bool `toml:"defender_wins_ties"`
	// DoubleCostSpend debits the effective (doubled-above-capacity) cost
	// instead of the nominal allocation.
	DoubleCostSpend bool `toml:"double_cost_spend"`
}

// RetreatPayment configures BP transfer on retreats.
type RetreatPayment struct {
	Enabled                  bool `toml:"enabled"`
	OriginalSquareCost       int  `toml:"original_square_cost"`
	CostToDefenderEnabled    bool `toml:"cost_to_defender_enabled"`
	CostToDefenderPercentage int  `toml:"cost_to_defender_percentage"`
}

// PieceLossRules configures what happens to a losing attacker.
type PieceLossRules struct {
	AttackerCanLosePiece bool           `toml:"attacker_can_lose_piece"`
	RetreatPayment       RetreatPayment `toml:"retreat_payment"`
}

// InformationHiding configures what opponents and spectators may see.
type InformationHiding struct {
	HideBattlePoints      bool `toml:"hide_battle_points"`
	HideAllocationHistory bool `toml:"hide_allocation_history"`
}

// Config is the complete rule configuration for one game.
type Config struct {
	RulesetType          string     `toml:"ruleset_type"`
	InitialBattlePoints  int        `toml:"initial_battle_points"`
	MaxPieceBattlePoints int        `toml:"max_piece_battle_points"`
	// MaxPlayerBP caps a player's total BP; 0 means unbounded.
	MaxPlayerBP int `toml:"max_player_bp"`

	PieceValues       PieceTable         `toml:"piece_values"`
	PieceBPCapacities PieceTable         `toml:"piece_bp_capacities"`
	Regeneration      RegenerationConfig `toml:"regeneration"`
	TacticalRetreat   RetreatConfig      `toml:"tactical_retreat"`
	DuelResolution    DuelConfig         `toml:"duel_resolution"`
	PieceLossRules    PieceLossRules     `toml:"piece_loss_rules"`
	InformationHiding InformationHiding  `toml:"information_hiding"`
}

// Validate checks internal consistency of a configuration.
func (c *Config) Validate() error {
	if c.InitialBattlePoints < 0 {
		return fmt.Errorf("initial battle points must be non-negative")
	}
	if c.MaxPieceBattlePoints <= 0 {
		return fmt.Errorf("max piece battle points must be positive")
	}
	if c.MaxPlayerBP < 0 {
		return fmt.Errorf("max player bp must be non-negative")
	}
	if pct := c.PieceLossRules.RetreatPayment.CostToDefenderPercentage; pct < 0 || pct > 100 {
		return fmt.Errorf("cost to defender percentage must be within 0-100")
	}
	for name, rule := range c.Regeneration.Tactics {
		if !rule.Enabled {
			continue
		}
		if _, err := Compile(rule.Formula); err != nil {
			return fmt.Errorf("tactic %q formula: %w", name, err)
		}
	}
	return nil
}

// EffectiveAllocation computes the effective bid for a nominal allocation by
// a piece of the given kind. Allocations above the per-piece capacity count
// double against effectiveness; amounts above MaxPieceBattlePoints clamp.
func (c *Config) EffectiveAllocation(kind board.PieceType, amount int) int {
	if amount < 0 {
		return 0
	}
	if amount > c.MaxPieceBattlePoints {
		amount = c.MaxPieceBattlePoints
	}
	capacity := c.PieceBPCapacities.Value(kind)
	if amount <= capacity {
		return amount
	}
	return capacity + 2*(amount-capacity)
}

// AllocationCost returns the amount deducted from the allocating player's
// BP pool: the nominal amount by default, or the effective cost when
// DoubleCostSpend is set.
func (c *Config) AllocationCost(kind board.PieceType, amount int) int {
	if amount > c.MaxPieceBattlePoints {
		amount = c.MaxPieceBattlePoints
	}
	if c.DuelResolution.DoubleCostSpend {
		return c.EffectiveAllocation(kind, amount)
	}
	return amount
}

package ruleset

import "fmt"

// Profile names.
const (
	ProfileStandard     = "standard"
	ProfileBeginner     = "beginner"
	ProfileAdvanced     = "advanced"
	ProfileRisky        = "risky"
	ProfileAttackerTies = "attacker-ties"
)

// Standard returns the default competitive configuration. Initial BP equals
// the total classical material value of one side (8+2*3+2*3+2*5+9 = 39).
func Standard() Config {
	return Config{
		RulesetType:          ProfileStandard,
		InitialBattlePoints:  39,
		MaxPieceBattlePoints: 10,
		PieceValues:          PieceTable{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 0},
		PieceBPCapacities:    PieceTable{Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 1},
		Regeneration: RegenerationConfig{
			BaseTurn: 1,
			Tactics: map[string]TacticRule{
				TacticCheck: {
					Enabled:     true,
					Formula:     "1",
					Description: "flat award for giving check",
				},
				TacticDoubleCheck: {
					Enabled:     true,
					Formula:     "2",
					Description: "two pieces checking simultaneously",
				},
				TacticDiscoveredAttack: {
					Enabled:     true,
					Formula:     "attackedPieceValue / 2",
					Description: "moved piece unmasked a sliding attack",
				},
				TacticDiscoveredCheck: {
					Enabled:     true,
					Formula:     "2",
					Description: "moved piece unmasked a check",
				},
				TacticPin: {
					Enabled:     true,
					Formula:     "pinnedPieceValue + (isPinnedToKing ? 1 : 0)",
					Description: "enemy piece pinned to a more valuable piece",
				},
				TacticSkewer: {
					Enabled:     true,
					Formula:     "max(1, skeweredPieceValue - behindPieceValue)",
					Description: "more valuable piece forced to expose one behind",
				},
				TacticFork: {
					Enabled:     true,
					Formula:     "min(forkedPiecesValues)",
					Description: "one piece attacking two or more targets",
				},
				TacticDirectDefense: {
					Enabled:     false,
					Formula:     "1",
					Description: "newly defended friendly piece",
				},
			},
		},
		TacticalRetreat: RetreatConfig{
			Enabled:          true,
			LongRangeEnabled: true,
			KnightsEnabled:   true,
			Cost: RetreatCost{
				BaseReturn:          0,
				DistanceMultiplier:  1,
				KnightCustomEnabled: true,
				UseKnightLookup:     true,
			},
		},
		DuelResolution: DuelConfig{DefenderWinsTies: true},
		PieceLossRules: PieceLossRules{
			AttackerCanLosePiece: false,
			RetreatPayment:       RetreatPayment{},
		},
		InformationHiding: InformationHiding{
			HideBattlePoints:      true,
			HideAllocationHistory: false,
		},
	}
}

// Beginner relaxes information hiding, grants a larger starting pool, and
// rewards simple defensive play.
func Beginner() Config {
	c := Standard()
	c.RulesetType = ProfileBeginner
	c.InitialBattlePoints = 50
	c.InformationHiding.HideBattlePoints = false
	defense := c.Regeneration.Tactics[TacticDirectDefense]
	defense.Enabled = true
	c.Regeneration.Tactics[TacticDirectDefense] = defense
	return c
}

// Advanced hides allocation history and uses fractional retreat pricing.
func Advanced() Config {
	c := Standard()
	c.RulesetType = ProfileAdvanced
	c.InformationHiding.HideAllocationHistory = true
	c.TacticalRetreat.Cost.DistanceMultiplier = 1.5
	return c
}

// Risky charges for returning to the origin square and transfers half of
// every retreat cost to the defender.
func Risky() Config {
	c := Standard()
	c.RulesetType = ProfileRisky
	c.PieceLossRules.RetreatPayment = RetreatPayment{
		Enabled:                  true,
		OriginalSquareCost:       1,
		CostToDefenderEnabled:    true,
		CostToDefenderPercentage: 50,
	}
	return c
}

// AttackerTies is the experimental profile where equal bids favor the
// attacker.
func AttackerTies() Config {
	c := Standard()
	c.RulesetType = ProfileAttackerTies
	c.DuelResolution.DefenderWinsTies = false
	return c
}

// Profile returns the named built-in configuration.
func Profile(name string) (Config, error) {
	switch name {
	case "", ProfileStandard:
		return Standard(), nil
	case ProfileBeginner:
		return Beginner(), nil
	case ProfileAdvanced:
		return Advanced(), nil
	case ProfileRisky:
		return Risky(), nil
	case ProfileAttackerTies:
		return AttackerTies(), nil
	}
	return Config{}, fmt.Errorf("unknown ruleset profile %q", name)
}

// Names lists the built-in profile names.
func Names() []string {
	return []string{ProfileStandard, ProfileBeginner, ProfileAdvanced, ProfileRisky, ProfileAttackerTies}
}

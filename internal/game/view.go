package game

import (
	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/retreat"
	"github.com/cango91/gambit-chess-sub005/internal/tactics"
)

// HiddenValue replaces any number the viewer is not allowed to see.
const HiddenValue = -1

// PlayerView is one seat as a given viewer sees it.
type PlayerView struct {
	ID           string      `json:"id"`
	Color        board.Color `json:"color"`
	BattlePoints int         `json:"battlePoints"`
	Seated       bool        `json:"seated"`
}

// DuelView is a pending duel as a given viewer sees it. Only the
// viewer's own allocation amount is ever present.
type DuelView struct {
	Move              string          `json:"move"`
	AttackerColor     board.Color     `json:"attackerColor"`
	AttackerKind      board.PieceType `json:"attackerKind"`
	DefenderKind      board.PieceType `json:"defenderKind"`
	TargetSquare      board.Square    `json:"targetSquare"`
	YourAllocation    int             `json:"yourAllocation"`
	YouAllocated      bool            `json:"youAllocated"`
	OpponentAllocated bool            `json:"opponentAllocated"`
}

// View is a filtered snapshot of a game for one recipient. Every number
// the viewer may not see carries HiddenValue; filtering an already
// filtered view changes nothing.
type View struct {
	GameID      string           `json:"gameId"`
	Status      Status           `json:"status"`
	RulesetType string           `json:"rulesetType"`
	FEN         string           `json:"fen"`
	CurrentTurn board.Color      `json:"currentTurn"`
	White       PlayerView       `json:"white"`
	Black       PlayerView       `json:"black"`
	MoveHistory []MoveRecord     `json:"moveHistory"`
	PendingDuel *DuelView        `json:"pendingDuel,omitempty"`
	Retreat     []retreat.Option `json:"retreatOptions,omitempty"`
	LastReport  *tactics.Report  `json:"lastReport,omitempty"`
	DrawOfferBy *board.Color     `json:"drawOfferBy,omitempty"`
	Result      string           `json:"result,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	YourColor   string           `json:"yourColor,omitempty"`
	Seq         int64            `json:"seq"`
}

// ViewFor builds the snapshot the given viewer is entitled to. Unknown
// viewer ids get the spectator view.
func (g *GameState) ViewFor(viewerID string) View {
	viewer := g.PlayerByID(viewerID)
	isPlayer := viewer != nil

	v := View{
		GameID:      g.ID,
		Status:      g.Status,
		RulesetType: g.Config.RulesetType,
		FEN:         g.Position.ToFEN(),
		CurrentTurn: g.CurrentTurn,
		Result:      g.Result,
		Reason:      g.Reason,
		Seq:         g.Seq,
	}
	if isPlayer {
		v.YourColor = viewer.Color.String()
	}
	if g.DrawOfferBy != nil {
		c := *g.DrawOfferBy
		v.DrawOfferBy = &c
	}

	v.White = g.seatView(board.White, viewer)
	v.Black = g.seatView(board.Black, viewer)
	v.MoveHistory = g.historyView(isPlayer)

	if d := g.PendingDuel; d != nil {
		dv := &DuelView{
			Move:           d.Move,
			AttackerColor:  d.AttackerColor,
			AttackerKind:   d.AttackerKind,
			DefenderKind:   d.DefenderKind,
			TargetSquare:   d.To,
			YourAllocation: HiddenValue,
		}
		if isPlayer {
			if a := d.Allocations[viewer.Color]; a != nil {
				dv.YourAllocation = *a
				dv.YouAllocated = true
			}
			dv.OpponentAllocated = d.Allocated(viewer.Color.Other())
		}
		v.PendingDuel = dv
	}

	if isPlayer && g.Status == StatusRetreatDecision &&
		g.PendingDuel != nil && viewer.Color == g.PendingDuel.AttackerColor {
		v.Retreat = append([]retreat.Option(nil), g.RetreatOptions...)
	}

	if isPlayer && g.LastReport != nil && viewer.Color == g.LastReportFor {
		r := *g.LastReport
		r.Contributions = append([]tactics.Contribution(nil), g.LastReport.Contributions...)
		v.LastReport = &r
	}

	return v
}

// seatView filters one seat: your own BP is always visible, the
// opponent's follows the hiding config, spectators never see BP.
func (g *GameState) seatView(c board.Color, viewer *Player) PlayerView {
	p := g.Players[c]
	if p == nil {
		return PlayerView{Color: c, BattlePoints: HiddenValue}
	}
	pv := PlayerView{ID: p.ID, Color: c, BattlePoints: p.BattlePoints, Seated: true}

	own := viewer != nil && viewer.Color == c
	if !own {
		if viewer == nil || g.Config.InformationHiding.HideBattlePoints {
			pv.BattlePoints = HiddenValue
		}
	}
	return pv
}

// historyView copies the move history, stripping resolved allocation
// amounts from spectators and, when the profile hides allocation
// history, from players too.
func (g *GameState) historyView(isPlayer bool) []MoveRecord {
	hideAmounts := !isPlayer || g.Config.InformationHiding.HideAllocationHistory

	out := make([]MoveRecord, len(g.MoveHistory))
	for i, rec := range g.MoveHistory {
		if rec.Duel != nil {
			d := *rec.Duel
			if hideAmounts {
				d.AttackerAllocation = HiddenValue
				d.DefenderAllocation = HiddenValue
			}
			rec.Duel = &d
		}
		if rec.Retreat != nil {
			r := *rec.Retreat
			rec.Retreat = &r
		}
		if !isPlayer {
			rec.Regeneration = HiddenValue
		}
		out[i] = rec
	}
	return out
}

// FilterEvent decides whether an event reaches the given viewer and
// redacts what the viewer may not see. Directed events only reach their
// recipient. Resolved duel amounts are hidden from spectators, and on
// replay also from players when the profile hides allocation history —
// the same rule historyView applies to snapshots.
func (g *GameState) FilterEvent(ev Event, viewerID string, replay bool) (Event, bool) {
	if ev.Recipient != "" && ev.Recipient != viewerID {
		return Event{}, false
	}

	if ev.Type == EventDuelResolved {
		isPlayer := g.PlayerByID(viewerID) != nil
		if !isPlayer || (replay && g.Config.InformationHiding.HideAllocationHistory) {
			ev.Payload = redactDuelResolved(ev.Payload)
		}
	}
	return ev, true
}

// redactDuelResolved hides the allocation amounts in a DUEL_RESOLVED
// payload. Live events carry the typed payload; replayed events come
// back from the store as generic maps.
func redactDuelResolved(payload any) any {
	switch p := payload.(type) {
	case DuelResolvedPayload:
		p.AttackerAllocation = HiddenValue
		p.DefenderAllocation = HiddenValue
		return p
	case *DuelResolvedPayload:
		cp := *p
		cp.AttackerAllocation = HiddenValue
		cp.DefenderAllocation = HiddenValue
		return &cp
	case map[string]any:
		cp := make(map[string]any, len(p))
		for k, v := range p {
			cp[k] = v
		}
		cp["attackerAllocation"] = HiddenValue
		cp["defenderAllocation"] = HiddenValue
		return cp
	default:
		return payload
	}
}

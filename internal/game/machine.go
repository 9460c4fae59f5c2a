package game

import (
	"github.com/cango91/gambit-chess-sub005/internal/board"
	"github.com/cango91/gambit-chess-sub005/internal/duel"
	"github.com/cango91/gambit-chess-sub005/internal/retreat"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
	"github.com/cango91/gambit-chess-sub005/internal/tactics"
)

// HandleJoin seats a player. Joining a game you are already seated in is
// a no-op, so reconnects are harmless. When the second seat fills the
// game starts.
func (g *GameState) HandleJoin(playerID string) ([]Event, error) {
	if g.Poisoned {
		return nil, errServer("game %s is unavailable", g.ID)
	}
	if g.PlayerByID(playerID) != nil {
		return nil, nil
	}
	if g.Status != StatusWaitingForPlayers {
		return nil, errInvalidAction("game %s is not accepting players", g.ID)
	}

	color := board.White
	if g.Players[board.White] != nil {
		color = board.Black
	}
	g.Players[color] = &Player{
		ID:           playerID,
		Color:        color,
		BattlePoints: g.Config.InitialBattlePoints,
	}

	if g.Seated() {
		g.Status = StatusInProgress
		g.PositionHistory = append(g.PositionHistory, g.Position.RepetitionKey())
	}
	return nil, nil
}

// HandleMove validates and plays a move for the given player. Non-capture
// moves apply immediately; capture attempts freeze into a duel.
func (g *GameState) HandleMove(playerID, moveStr string) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusInProgress {
		return nil, errInvalidAction("moves are not accepted while %s", g.Status)
	}
	if player.Color != g.CurrentTurn {
		return nil, errWrongTurn("it is %s's turn", g.CurrentTurn)
	}

	m, perr := board.ParseMove(moveStr, g.Position)
	if perr != nil {
		return nil, errIllegalMove("%v", perr)
	}
	if !g.isLegal(m) {
		return nil, errIllegalMove("move %s is not legal", moveStr)
	}

	var events []Event

	if m.IsCapture(g.Position) {
		pending, derr := duel.NewPending(g.Position, m)
		if derr != nil {
			return nil, errIllegalMove("%v", derr)
		}
		g.PendingDuel = pending
		g.Status = StatusDuelInProgress
		g.emit(&events, EventDuelStarted, "", DuelStartedPayload{
			Move:          pending.Move,
			AttackerColor: pending.AttackerColor,
			AttackerKind:  pending.AttackerKind,
			DefenderKind:  pending.DefenderKind,
			TargetSquare:  pending.To,
		})
		return events, nil
	}

	if err := g.applyExecutedMove(&events, player.Color, m, nil); err != nil {
		return nil, err
	}
	return events, nil
}

// HandleAllocate commits one player's sealed duel allocation. When the
// second allocation arrives the duel resolves immediately.
func (g *GameState) HandleAllocate(playerID string, amount int) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusDuelInProgress || g.PendingDuel == nil {
		return nil, errNotInDuel("no duel in progress")
	}

	stored, serr := g.PendingDuel.Submit(&g.Config, player.Color, amount, player.BattlePoints)
	switch serr {
	case nil:
	case duel.ErrAlreadyAllocated:
		return nil, errAlreadyAllocated("allocation already submitted for %s", player.Color)
	case duel.ErrInsufficientBP:
		return nil, errInsufficientBP("allocation exceeds available battle points")
	case duel.ErrNegativeAllocation:
		return nil, errInvalidAction("allocation must be non-negative")
	default:
		return nil, errServer("%v", serr)
	}

	var events []Event
	g.emit(&events, EventAllocationSubmitted, player.ID, AllocationSubmittedPayload{
		Color:  player.Color,
		Amount: stored,
	})

	if g.PendingDuel.Complete() {
		if err := g.resolveDuel(&events); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// resolveDuel reveals both allocations, debits the pools, and either
// executes the capture or hands the attacker a retreat decision.
func (g *GameState) resolveDuel(events *[]Event) error {
	d := g.PendingDuel
	out, err := d.Resolve(&g.Config)
	if err != nil {
		return g.poison("duel resolution: %v", err)
	}

	attacker := g.Players[d.AttackerColor]
	defender := g.Players[d.DefenderColor()]
	attacker.BattlePoints -= out.AttackerCost
	defender.BattlePoints -= out.DefenderCost
	if attacker.BattlePoints < 0 || defender.BattlePoints < 0 {
		return g.poison("negative battle points after duel %s", d.Move)
	}

	record := &DuelRecord{
		AttackerAllocation: out.AttackerAllocation,
		DefenderAllocation: out.DefenderAllocation,
		AttackerWon:        out.AttackerWon,
	}
	g.emit(events, EventDuelResolved, "", DuelResolvedPayload{
		Move:               d.Move,
		AttackerColor:      d.AttackerColor,
		AttackerAllocation: out.AttackerAllocation,
		DefenderAllocation: out.DefenderAllocation,
		AttackerWon:        out.AttackerWon,
	})

	if out.AttackerWon {
		m := d.MoveCode
		mover := d.AttackerColor
		g.PendingDuel = nil
		g.Status = StatusInProgress
		return g.applyExecutedMove(events, mover, m, record)
	}

	if g.Config.PieceLossRules.AttackerCanLosePiece && d.AttackerKind != board.King {
		return g.forfeitAttacker(events, record)
	}

	g.PendingOutcome = record
	opts := retreat.Options(g.Position, &g.Config, d.AttackerKind, d.From, d.To)

	// A lone origin option at no cost is no decision at all.
	if len(opts) == 1 && opts[0].Square == d.From && opts[0].Cost == 0 {
		return g.completeRetreat(events, opts[0])
	}

	g.RetreatOptions = opts
	g.Status = StatusRetreatDecision
	g.emit(events, EventRetreatOptions, attacker.ID, RetreatOptionsPayload{
		Origin:  d.From,
		Options: opts,
	})
	return nil
}

// HandleRetreat resolves the attacker's retreat choice after a lost duel.
func (g *GameState) HandleRetreat(playerID, squareStr string) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusRetreatDecision || g.PendingDuel == nil {
		return nil, errInvalidAction("no tactical retreat pending")
	}
	if player.Color != g.PendingDuel.AttackerColor {
		return nil, errWrongTurn("only the attacker chooses the retreat")
	}

	sq, perr := board.ParseSquare(squareStr)
	if perr != nil {
		return nil, errInvalidRetreat("%v", perr)
	}
	opt, ok := retreat.FindOption(g.RetreatOptions, sq)
	if !ok {
		return nil, errInvalidRetreat("%s is not an available retreat square", sq)
	}
	if sq != g.PendingDuel.From && opt.Cost > player.BattlePoints {
		return nil, errInsufficientBP("retreat to %s costs %d BP", sq, opt.Cost)
	}

	var events []Event
	if err := g.completeRetreat(&events, opt); err != nil {
		return nil, err
	}
	return events, nil
}

// completeRetreat applies a chosen (or implicit) retreat, charges its
// cost, pays the defender when configured, and passes the turn.
func (g *GameState) completeRetreat(events *[]Event, opt retreat.Option) error {
	d := g.PendingDuel
	attacker := g.Players[d.AttackerColor]
	before := g.Position.Copy()

	cost := opt.Cost
	if opt.Square == d.From && cost > attacker.BattlePoints {
		// Returning home can never be blocked by an empty pool.
		cost = attacker.BattlePoints
	}
	attacker.BattlePoints -= cost

	if pay := g.Config.PieceLossRules.RetreatPayment; pay.Enabled && pay.CostToDefenderEnabled && cost > 0 {
		share := ruleset.RoundHalfUp(float64(cost*pay.CostToDefenderPercentage) / 100)
		g.creditBP(g.Players[d.DefenderColor()], share)
	}

	if opt.Square != d.From {
		if err := g.Position.RelocatePiece(d.From, opt.Square); err != nil {
			return g.poison("retreat relocation: %v", err)
		}
	}
	g.Position.PassTurn()

	record := MoveRecord{
		Number:         before.FullMoveNumber,
		Color:          d.AttackerColor,
		Move:           d.Move,
		CaptureAttempt: true,
		Duel:           g.PendingOutcome,
		Retreat:        &RetreatRecord{To: opt.Square, Cost: cost},
	}

	// The turn still produced a position; base regeneration and any
	// patterns the retreat created are awarded.
	report, rerr := tactics.CalculateRegeneration(&g.Config, before, g.Position,
		d.AttackerColor, board.NewMove(d.From, opt.Square))
	if rerr != nil {
		return g.poison("regeneration: %v", rerr)
	}
	g.creditBP(attacker, report.Total)
	g.LastReport = report
	g.LastReportFor = d.AttackerColor
	record.Regeneration = report.Total

	g.MoveHistory = append(g.MoveHistory, record)
	g.PositionHistory = append(g.PositionHistory, g.Position.RepetitionKey())
	g.CurrentTurn = g.Position.SideToMove
	g.PendingDuel = nil
	g.PendingOutcome = nil
	g.RetreatOptions = nil
	g.Status = StatusInProgress

	g.emit(events, EventRetreatMade, "", RetreatMadePayload{
		Color: record.Color,
		From:  d.From,
		To:    opt.Square,
		Cost:  cost,
		FEN:   g.Position.ToFEN(),
		Turn:  g.CurrentTurn,
	})
	g.emit(events, EventMoveMade, "", MoveMadePayload{
		Record: record,
		FEN:    g.Position.ToFEN(),
		Turn:   g.CurrentTurn,
	})
	g.bpEvents(events, record.Color, report)
	g.checkTerminal(events)
	return nil
}

// forfeitAttacker removes the losing attacker's piece instead of
// retreating it (AttackerCanLosePiece profiles).
func (g *GameState) forfeitAttacker(events *[]Event, duelRecord *DuelRecord) error {
	d := g.PendingDuel
	before := g.Position.Copy()

	if _, err := g.Position.RemovePieceAt(d.From); err != nil {
		return g.poison("attacker forfeit: %v", err)
	}
	g.Position.PassTurn()

	record := MoveRecord{
		Number:         before.FullMoveNumber,
		Color:          d.AttackerColor,
		Move:           d.Move,
		CaptureAttempt: true,
		Duel:           duelRecord,
	}
	g.MoveHistory = append(g.MoveHistory, record)
	g.PositionHistory = append(g.PositionHistory, g.Position.RepetitionKey())
	g.CurrentTurn = g.Position.SideToMove
	g.PendingDuel = nil
	g.Status = StatusInProgress

	g.emit(events, EventMoveMade, "", MoveMadePayload{
		Record: record,
		FEN:    g.Position.ToFEN(),
		Turn:   g.CurrentTurn,
	})
	g.checkTerminal(events)
	return nil
}

// HandleResign ends the game in the opponent's favor. Allowed at any
// point after the game has started, including mid-duel.
func (g *GameState) HandleResign(playerID string) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}

	var events []Event
	g.finish(&events, resultFor(player.Color.Other()), ReasonResignation, StatusResigned)
	return events, nil
}

// HandleOfferDraw registers a draw offer. Offers are only accepted
// between moves, not during duels or retreats.
func (g *GameState) HandleOfferDraw(playerID string) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusInProgress {
		return nil, errInvalidAction("draw offers are not accepted while %s", g.Status)
	}
	if g.DrawOfferBy != nil {
		return nil, errInvalidAction("a draw offer is already pending")
	}
	c := player.Color
	g.DrawOfferBy = &c
	return nil, nil
}

// HandleRespondDraw accepts or declines a pending draw offer.
func (g *GameState) HandleRespondDraw(playerID string, accept bool) ([]Event, error) {
	player, err := g.guardActive(playerID)
	if err != nil {
		return nil, err
	}
	if g.DrawOfferBy == nil {
		return nil, errInvalidAction("no draw offer is pending")
	}
	if player.Color == *g.DrawOfferBy {
		return nil, errInvalidAction("cannot respond to your own draw offer")
	}

	if !accept {
		g.DrawOfferBy = nil
		return nil, nil
	}

	var events []Event
	g.finish(&events, ResultDraw, ReasonAgreement, StatusDraw)
	return events, nil
}

// Abandon marks an idle game abandoned. Called by the sweeper, not by
// players.
func (g *GameState) Abandon() []Event {
	if g.Status.Terminal() {
		return nil
	}
	var events []Event
	g.finish(&events, ResultDraw, ReasonAbandonment, StatusAbandoned)
	return events
}

// guardActive authorizes a game-mutating input from a seated player.
func (g *GameState) guardActive(playerID string) (*Player, *Error) {
	if g.Poisoned {
		return nil, errServer("game %s is unavailable", g.ID)
	}
	if g.Status.Terminal() {
		return nil, errInvalidAction("game %s is over", g.ID)
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return nil, errUnauthorized("not a player in game %s", g.ID)
	}
	if g.Status == StatusWaitingForPlayers {
		return nil, errInvalidAction("game %s has not started", g.ID)
	}
	return player, nil
}

// isLegal reports whether m is among the legal moves of the position.
func (g *GameState) isLegal(m board.Move) bool {
	for _, lm := range g.Position.GenerateLegalMoves() {
		if lm == m {
			return true
		}
	}
	return false
}

// applyExecutedMove plays a move that definitely executes (either a
// plain move or a duel the attacker won), then regenerates, advances the
// turn, and checks for termination.
func (g *GameState) applyExecutedMove(events *[]Event, mover board.Color, m board.Move, duelRecord *DuelRecord) error {
	before := g.Position.Copy()
	if _, err := g.Position.MakeMove(m); err != nil {
		return g.poison("move application: %v", err)
	}

	record := MoveRecord{
		Number:         before.FullMoveNumber,
		Color:          mover,
		Move:           m.String(),
		CaptureAttempt: duelRecord != nil,
		Duel:           duelRecord,
	}

	report, err := tactics.CalculateRegeneration(&g.Config, before, g.Position, mover, m)
	if err != nil {
		return g.poison("regeneration: %v", err)
	}
	g.creditBP(g.Players[mover], report.Total)
	g.LastReport = report
	g.LastReportFor = mover
	record.Regeneration = report.Total

	g.MoveHistory = append(g.MoveHistory, record)
	g.PositionHistory = append(g.PositionHistory, g.Position.RepetitionKey())
	g.CurrentTurn = g.Position.SideToMove
	g.DrawOfferBy = nil

	g.emit(events, EventMoveMade, "", MoveMadePayload{
		Record: record,
		FEN:    g.Position.ToFEN(),
		Turn:   g.CurrentTurn,
	})
	g.bpEvents(events, mover, report)
	g.checkTerminal(events)
	return nil
}

// bpEvents emits one BP_UPDATED per seated player: the mover's copy
// carries the full regeneration report, the opponent's copy hides the
// amount when the profile hides BP.
func (g *GameState) bpEvents(events *[]Event, mover board.Color, report *tactics.Report) {
	bp := g.Players[mover].BattlePoints
	for _, p := range g.Players {
		if p == nil {
			continue
		}
		payload := BPUpdatedPayload{Color: mover, BattlePoints: bp}
		if p.Color == mover {
			payload.Report = report
		} else if g.Config.InformationHiding.HideBattlePoints {
			payload.BattlePoints = HiddenValue
		}
		g.emit(events, EventBPUpdated, p.ID, payload)
	}
}

// checkTerminal ends the game when the position is terminal.
func (g *GameState) checkTerminal(events *[]Event) {
	switch {
	case g.Position.IsCheckmate():
		g.finish(events, resultFor(g.Position.SideToMove.Other()), ReasonCheckmate, StatusCheckmate)
	case g.Position.IsStalemate():
		g.finish(events, ResultDraw, ReasonStalemate, StatusStalemate)
	case g.Position.IsInsufficientMaterial():
		g.finish(events, ResultDraw, ReasonInsufficient, StatusDraw)
	case g.Position.HalfMoveClock >= 100:
		g.finish(events, ResultDraw, ReasonFiftyMove, StatusDraw)
	case g.repetitionCount() >= 3:
		g.finish(events, ResultDraw, ReasonThreefold, StatusDraw)
	}
}

// finish transitions to a terminal status and emits GAME_OVER.
func (g *GameState) finish(events *[]Event, result, reason string, status Status) {
	g.Status = status
	g.Result = result
	g.Reason = reason
	g.PendingDuel = nil
	g.PendingOutcome = nil
	g.RetreatOptions = nil
	g.DrawOfferBy = nil

	g.emit(events, EventGameOver, "", GameOverPayload{
		Status: status,
		Result: result,
		Reason: reason,
		FEN:    g.Position.ToFEN(),
	})
}

// poison marks the game unusable after an invariant violation.
func (g *GameState) poison(format string, args ...any) *Error {
	g.Poisoned = true
	return errServer(format, args...)
}

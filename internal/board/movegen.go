package board

import "fmt"

// GenerateLegalMoves generates all legal moves for the side to move.
func (p *Position) GenerateLegalMoves() []Move {
	pseudo := p.generatePseudoLegalMoves()
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		cp := *p
		if _, err := cp.MakeMove(m); err == nil {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMoves returns true if the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	for _, m := range p.generatePseudoLegalMoves() {
		cp := *p
		if _, err := cp.MakeMove(m); err == nil {
			return true
		}
	}
	return false
}

// generatePseudoLegalMoves generates all pseudo-legal moves (may leave the
// king in check; legality is filtered by make-on-copy).
func (p *Position) generatePseudoLegalMoves() []Move {
	moves := make([]Move, 0, 48)
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	moves = p.generatePawnMoves(moves, us, enemies, occupied)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & ^p.Occupied[us]
		for attacks != 0 {
			moves = append(moves, NewMove(from, attacks.PopLSB()))
		}
	}

	for _, pt := range []PieceType{Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := PieceAttacks(pt, us, from, occupied) & ^p.Occupied[us]
			for attacks != 0 {
				moves = append(moves, NewMove(from, attacks.PopLSB()))
			}
		}
	}

	ksq := p.KingSquare[us]
	if ksq.IsValid() {
		attacks := KingAttacks(ksq) & ^p.Occupied[us]
		for attacks != 0 {
			moves = append(moves, NewMove(ksq, attacks.PopLSB()))
		}
	}

	moves = p.generateCastlingMoves(moves, us)
	return moves
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(moves []Move, us Color, enemies, occupied Bitboard) []Move {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	add := func(bb Bitboard, fromOffset int) []Move {
		promo := bb & promotionRank
		plain := bb & ^promotionRank
		for plain != 0 {
			to := plain.PopLSB()
			moves = append(moves, NewMove(Square(int(to)-fromOffset), to))
		}
		for promo != 0 {
			to := promo.PopLSB()
			from := Square(int(to) - fromOffset)
			moves = append(moves,
				NewPromotion(from, to, Queen),
				NewPromotion(from, to, Rook),
				NewPromotion(from, to, Bishop),
				NewPromotion(from, to, Knight))
		}
		return moves
	}

	moves = add(push1, pushDir)

	for push2 != 0 {
		to := push2.PopLSB()
		moves = append(moves, NewMove(Square(int(to)-2*pushDir), to))
	}

	moves = add(attackL, pushDir-1)
	moves = add(attackR, pushDir+1)

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for epAttackers != 0 {
			moves = append(moves, NewEnPassant(epAttackers.PopLSB(), p.EnPassant))
		}
	}

	return moves
}

// generateCastlingMoves generates castling moves. Castle-through-attack and
// castle-while-in-check are rejected here, not in the legality filter.
func (p *Position) generateCastlingMoves(moves []Move, us Color) []Move {
	them := us.Other()

	type castle struct {
		right      CastlingRights
		kingFrom   Square
		kingTo     Square
		mustEmpty  Bitboard
		mustSafe   [3]Square
	}

	var candidates [2]castle
	if us == White {
		candidates = [2]castle{
			{WhiteKingSideCastle, E1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
			{WhiteQueenSideCastle, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
		}
	} else {
		candidates = [2]castle{
			{BlackKingSideCastle, E8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
			{BlackQueenSideCastle, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
		}
	}

	for _, c := range candidates {
		if p.CastlingRights&c.right == 0 {
			continue
		}
		if p.AllOccupied&c.mustEmpty != 0 {
			continue
		}
		safe := true
		for _, sq := range c.mustSafe {
			if p.IsSquareAttacked(sq, them) {
				safe = false
				break
			}
		}
		if safe {
			moves = append(moves, NewCastling(c.kingFrom, c.kingTo))
		}
	}

	return moves
}

// MakeMove applies a move to the position in place. It returns the captured
// piece (NoPiece if none). The position is left unchanged on error: a
// malformed move, a move of the wrong side's piece, or a move that leaves
// the mover's king in check.
func (p *Position) MakeMove(m Move) (Piece, error) {
	snapshot := *p

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()

	piece := p.PieceAt(from)
	if piece == NoPiece {
		return NoPiece, fmt.Errorf("no piece on %s", from)
	}
	if piece.Color() != us {
		return NoPiece, fmt.Errorf("%s piece on %s cannot move on %s's turn", piece.Color(), from, us)
	}

	pt := piece.Type()
	if m.IsPromotion() {
		if pt != Pawn {
			return NoPiece, fmt.Errorf("promotion move requires a pawn on %s", from)
		}
		if promoRank := to.Rank(); (us == White && promoRank != 7) || (us == Black && promoRank != 0) {
			return NoPiece, fmt.Errorf("promotion square %s is not on the back rank", to)
		}
	}

	captured := NoPiece
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		captured = p.removePiece(capturedSq)
	} else if target := p.PieceAt(to); target != NoPiece {
		if target.Color() == us {
			*p = snapshot
			return NoPiece, fmt.Errorf("destination %s occupied by own piece", to)
		}
		if target.Type() == King {
			*p = snapshot
			return NoPiece, fmt.Errorf("king on %s cannot be captured", to)
		}
		captured = p.removePiece(to)
	}

	p.movePiece(from, to)

	if m.IsPromotion() {
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][m.Promotion()] |= SquareBB(to)
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
	}

	// Castling rights decay on king moves, rook moves, and rook captures.
	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}

	// Double pawn push sets the en passant target.
	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		p.EnPassant = Square((int(from) + int(to)) / 2)
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them

	if p.InCheck(us) {
		*p = snapshot
		return NoPiece, fmt.Errorf("move %s leaves own king in check", m)
	}

	return captured, nil
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck(p.SideToMove) && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return !p.InCheck(p.SideToMove) && !p.HasLegalMoves()
}

// IsInsufficientMaterial returns true if neither side can deliver mate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	bMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	// K vs K, K+minor vs K.
	if wMinors+bMinors == 0 {
		return true
	}
	if wMinors <= 1 && bMinors == 0 {
		return true
	}
	if bMinors <= 1 && wMinors == 0 {
		return true
	}

	return false
}

package shogi

import "fmt"

// Position holds the full game state: board, hands, side to move and the
// incrementally maintained hash, material score and check information.
type Position struct {
	Board    [SquareCount]Piece
	Pieces   [2][PieceTypeCount]Bitboard
	Occupied [2]Bitboard
	All      Bitboard

	Hands      [2]Hand
	SideToMove Color
	MoveNumber int

	Hash     uint64
	Material int // material balance from Black's perspective, hands included
	KingSq   [2]Square
	Checkers Bitboard
	Pinned   Bitboard

	// history records the hash after every move for repetition detection.
	history []uint64
}

// NewPosition returns the starting position.
func NewPosition() *Position {
	p, err := ParseSFEN(StartSFEN)
	if err != nil {
		panic(fmt.Sprintf("bad start position: %v", err))
	}
	return p
}

// Clone returns a deep copy safe for use by another goroutine.
func (p *Position) Clone() *Position {
	c := *p
	c.history = make([]uint64, len(p.history), len(p.history)+64)
	copy(c.history, p.history)
	return &c
}

// PieceOn returns the piece on sq, or NoPiece.
func (p *Position) PieceOn(sq Square) Piece {
	return p.Board[sq]
}

// PieceBB returns the bitboard of the given kind and color.
func (p *Position) PieceBB(c Color, pt PieceType) Bitboard {
	return p.Pieces[c][pt]
}

// GoldsBB returns all pieces of a color that move like a gold.
func (p *Position) GoldsBB(c Color) Bitboard {
	return p.Pieces[c][Gold].
		Or(p.Pieces[c][ProPawn]).
		Or(p.Pieces[c][ProLance]).
		Or(p.Pieces[c][ProKnight]).
		Or(p.Pieces[c][ProSilver])
}

// IsCapture reports whether m takes a piece. Drops never capture.
func (p *Position) IsCapture(m Move) bool {
	return !m.IsDrop() && p.Board[m.To()] != NoPiece
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers.Any()
}

// putPiece and removePiece maintain the board array and bitboards only.
// Hash and material updates stay in MakeMove so UnmakeMove can restore
// them from the snapshot without re-deriving anything.
func (p *Position) putPiece(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	p.Board[sq] = pc
	p.Pieces[c][pt] = p.Pieces[c][pt].Set(sq)
	p.Occupied[c] = p.Occupied[c].Set(sq)
	p.All = p.All.Set(sq)
	if pt == King {
		p.KingSq[c] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	pc := p.Board[sq]
	c, pt := pc.Color(), pc.Type()
	p.Board[sq] = NoPiece
	p.Pieces[c][pt] = p.Pieces[c][pt].Clear(sq)
	p.Occupied[c] = p.Occupied[c].Clear(sq)
	p.All = p.All.Clear(sq)
	return pc
}

func materialSign(c Color) int {
	if c == Black {
		return 1
	}
	return -1
}

// MakeMove applies a legal move and returns the snapshot needed to undo
// it. Moves must come from the legal move generator.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		Captured:   NoPiece,
		Hash:       p.Hash,
		Checkers:   p.Checkers,
		Pinned:     p.Pinned,
		Hands:      p.Hands,
		Material:   p.Material,
		MoveNumber: p.MoveNumber,
		SideToMove: p.SideToMove,
		Valid:      true,
	}

	us := p.SideToMove
	them := us.Other()
	to := m.To()

	if m.IsDrop() {
		pt := m.Piece()
		old := p.Hands[us].Count(pt)
		p.Hash ^= handKey(us, pt, old)
		p.Hash ^= handKey(us, pt, old-1)
		p.Hands[us] = p.Hands[us].Remove(pt)
		p.Material += materialSign(us) * (PieceValue[pt] - HandValue[pt])

		pc := NewPiece(pt, us)
		p.putPiece(pc, to)
		p.Hash ^= pieceKey(pc, to)
	} else {
		from := m.From()
		pc := p.removePiece(from)
		p.Hash ^= pieceKey(pc, from)

		if captured := p.Board[to]; captured != NoPiece {
			undo.Captured = captured
			p.removePiece(to)
			p.Hash ^= pieceKey(captured, to)
			p.Material -= materialSign(them) * PieceValue[captured.Type()]

			ht := captured.Type().Demote()
			old := p.Hands[us].Count(ht)
			p.Hash ^= handKey(us, ht, old)
			p.Hash ^= handKey(us, ht, old+1)
			p.Hands[us] = p.Hands[us].Add(ht)
			p.Material += materialSign(us) * HandValue[ht]
		}

		if m.IsPromotion() {
			promoted := pc.Type().Promote()
			p.Material += materialSign(us) * (PieceValue[promoted] - PieceValue[pc.Type()])
			pc = NewPiece(promoted, us)
		}
		p.putPiece(pc, to)
		p.Hash ^= pieceKey(pc, to)
	}

	p.Hash ^= zobristSide
	p.SideToMove = them
	p.MoveNumber++

	p.updateCheckers()
	p.Pinned = p.computePinned(p.SideToMove)
	p.history = append(p.history, p.Hash)

	return undo
}

// UnmakeMove reverses MakeMove using the snapshot it returned.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	if !undo.Valid {
		return
	}
	to := m.To()
	if m.IsDrop() {
		p.removePiece(to)
	} else {
		pc := p.removePiece(to)
		if m.IsPromotion() {
			pc = NewPiece(pc.Type().Demote(), pc.Color())
		}
		p.putPiece(pc, m.From())
		if undo.Captured != NoPiece {
			p.putPiece(undo.Captured, to)
		}
	}

	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.Pinned = undo.Pinned
	p.Hands = undo.Hands
	p.Material = undo.Material
	p.MoveNumber = undo.MoveNumber
	p.SideToMove = undo.SideToMove
	p.history = p.history[:len(p.history)-1]
}

// MakeNullMove passes the turn. Only valid when not in check.
func (p *Position) MakeNullMove() UndoInfo {
	undo := UndoInfo{
		Captured:   NoPiece,
		Hash:       p.Hash,
		Checkers:   p.Checkers,
		Pinned:     p.Pinned,
		Hands:      p.Hands,
		Material:   p.Material,
		MoveNumber: p.MoveNumber,
		SideToMove: p.SideToMove,
		Valid:      true,
	}
	p.Hash ^= zobristSide
	p.SideToMove = p.SideToMove.Other()
	p.MoveNumber++
	p.Checkers = EmptyBB
	p.Pinned = p.computePinned(p.SideToMove)
	p.history = append(p.history, p.Hash)
	return undo
}

// UnmakeNullMove reverses MakeNullMove.
func (p *Position) UnmakeNullMove(undo UndoInfo) {
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.Pinned = undo.Pinned
	p.MoveNumber = undo.MoveNumber
	p.SideToMove = undo.SideToMove
	p.history = p.history[:len(p.history)-1]
}

// attackersTo returns all pieces of color c attacking sq under the given
// occupancy. Step attacks are looked up from the opposite color's tables
// since attack patterns mirror between the colors.
func (p *Position) attackersTo(c Color, sq Square, occ Bitboard) Bitboard {
	them := c.Other()
	atk := pawnAttacks[them][sq].And(p.Pieces[c][Pawn])
	atk = atk.Or(knightAttacks[them][sq].And(p.Pieces[c][Knight]))
	atk = atk.Or(silverAttacks[them][sq].And(p.Pieces[c][Silver]))
	atk = atk.Or(goldAttacks[them][sq].And(p.GoldsBB(c)))
	atk = atk.Or(kingAttacks[sq].And(
		p.Pieces[c][King].Or(p.Pieces[c][Horse]).Or(p.Pieces[c][Dragon])))
	atk = atk.Or(BishopAttacks(sq, occ).And(
		p.Pieces[c][Bishop].Or(p.Pieces[c][Horse])))
	atk = atk.Or(RookAttacks(sq, occ).And(
		p.Pieces[c][Rook].Or(p.Pieces[c][Dragon])))
	atk = atk.Or(LanceAttacks(them, sq, occ).And(p.Pieces[c][Lance]))
	return atk
}

// IsSquareAttacked reports whether color c attacks sq.
func (p *Position) IsSquareAttacked(c Color, sq Square) bool {
	return p.attackersTo(c, sq, p.All).Any()
}

func (p *Position) updateCheckers() {
	us := p.SideToMove
	p.Checkers = p.attackersTo(us.Other(), p.KingSq[us], p.All)
}

// computePinned returns pieces of color c that are absolutely pinned to
// their king by an enemy slider.
func (p *Position) computePinned(c Color) Bitboard {
	them := c.Other()
	king := p.KingSq[c]

	snipers := RookAttacks(king, EmptyBB).And(
		p.Pieces[them][Rook].Or(p.Pieces[them][Dragon]))
	snipers = snipers.Or(BishopAttacks(king, EmptyBB).And(
		p.Pieces[them][Bishop].Or(p.Pieces[them][Horse])))
	snipers = snipers.Or(LanceAttacks(c, king, EmptyBB).And(p.Pieces[them][Lance]))

	pinned := EmptyBB
	for snipers.Any() {
		sniper := snipers.PopLSB()
		blockers := Between(king, sniper).And(p.All)
		if blockers.PopCount() == 1 && blockers.And(p.Occupied[c]).Any() {
			pinned = pinned.Or(blockers)
		}
	}
	return pinned
}

// IsRepetition reports whether the current position occurred before in
// the game history. The hash includes the side to move and both hands,
// so a match is a true sennichite candidate.
func (p *Position) IsRepetition() bool {
	if len(p.history) < 5 {
		return false
	}
	for i := len(p.history) - 5; i >= 0; i -= 2 {
		if p.history[i] == p.Hash {
			return true
		}
	}
	return false
}

// declarationPoints counts the entering-king score for c: five points
// for each major piece in the enemy camp or in hand, one for any other
// piece except the king.
func (p *Position) declarationPoints(c Color) (points, invaders int) {
	zone := PromoZoneBB[c]
	inZone := p.Occupied[c].And(zone)
	for rest := inZone; rest.Any(); {
		sq := rest.PopLSB()
		pt := p.Board[sq].Type()
		if pt == King {
			continue
		}
		invaders++
		if pt.Demote() == Rook || pt.Demote() == Bishop {
			points += 5
		} else {
			points++
		}
	}
	h := p.Hands[c]
	for pt := PieceType(0); pt < HandPieceCount; pt++ {
		n := h.Count(pt)
		if pt == Rook || pt == Bishop {
			points += 5 * n
		} else {
			points += n
		}
	}
	return points, invaders
}

// CanDeclareWin implements the 27-point entering-king declaration for
// the side to move: king inside the enemy camp, not in check, at least
// ten other pieces in the camp, and 28 points for Black or 27 for White.
func (p *Position) CanDeclareWin() bool {
	us := p.SideToMove
	if p.InCheck() {
		return false
	}
	if !PromoZoneBB[us].IsSet(p.KingSq[us]) {
		return false
	}
	points, invaders := p.declarationPoints(us)
	if invaders < 10 {
		return false
	}
	need := 27
	if us == Black {
		need = 28
	}
	return points >= need
}

// Validate checks structural invariants. It is used by tests and when
// accepting positions from the protocol layer.
func (p *Position) Validate() error {
	for c := Black; c <= White; c++ {
		if p.Pieces[c][King].PopCount() != 1 {
			return fmt.Errorf("%v must have exactly one king", c)
		}
		if !p.Pieces[c][King].IsSet(p.KingSq[c]) {
			return fmt.Errorf("%v king square out of sync", c)
		}
		pawns := p.Pieces[c][Pawn]
		for f := 0; f < 9; f++ {
			if pawns.And(FileBB[f]).PopCount() > 1 {
				return fmt.Errorf("%v has two pawns on file %d", c, f+1)
			}
		}
	}
	// The side that just moved must not have left its king in check.
	prev := p.SideToMove.Other()
	if p.attackersTo(p.SideToMove, p.KingSq[prev], p.All).Any() {
		return fmt.Errorf("%v king is capturable", prev)
	}
	for sq := Square(0); sq < SquareCount; sq++ {
		pc := p.Board[sq]
		if pc == NoPiece {
			if p.All.IsSet(sq) {
				return fmt.Errorf("occupancy out of sync on %s", sq)
			}
			continue
		}
		if !p.Pieces[pc.Color()][pc.Type()].IsSet(sq) {
			return fmt.Errorf("bitboards out of sync on %s", sq)
		}
	}
	return nil
}

// recompute rebuilds hash, material and check state from scratch. Used
// after parsing a position from SFEN.
func (p *Position) recompute() {
	p.Hash = 0
	p.Material = 0
	for sq := Square(0); sq < SquareCount; sq++ {
		pc := p.Board[sq]
		if pc == NoPiece {
			continue
		}
		p.Hash ^= pieceKey(pc, sq)
		p.Material += materialSign(pc.Color()) * PieceValue[pc.Type()]
	}
	for c := Black; c <= White; c++ {
		for pt := PieceType(0); pt < HandPieceCount; pt++ {
			n := p.Hands[c].Count(pt)
			p.Hash ^= handKey(c, pt, n)
			p.Material += materialSign(c) * n * HandValue[pt]
		}
	}
	if p.SideToMove == White {
		p.Hash ^= zobristSide
	}
	p.updateCheckers()
	p.Pinned = p.computePinned(p.SideToMove)
	p.history = append(p.history[:0], p.Hash)
}

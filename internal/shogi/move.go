package shogi

import "fmt"

// Move packs a board move or a drop into 32 bits:
//
//	bits  0-6   to square
//	bits  7-13  from square (unused for drops)
//	bit   14    promotion
//	bit   15    drop
//	bits 16-19  piece kind (the dropped kind for drops)
type Move uint32

const MoveNone Move = 0

const (
	moveToShift      = 0
	moveFromShift    = 7
	movePromoteFlag  = 1 << 14
	moveDropFlag     = 1 << 15
	movePieceShift   = 16
	moveSquareMask   = 0x7F
)

// NewMove builds a board move.
func NewMove(from, to Square, pt PieceType, promote bool) Move {
	m := Move(to) | Move(from)<<moveFromShift | Move(pt)<<movePieceShift
	if promote {
		m |= movePromoteFlag
	}
	return m
}

// NewDropMove builds a drop of pt onto to.
func NewDropMove(pt PieceType, to Square) Move {
	return Move(to) | moveDropFlag | Move(pt)<<movePieceShift
}

func (m Move) To() Square   { return Square(m & moveSquareMask) }
func (m Move) From() Square { return Square(m >> moveFromShift & moveSquareMask) }

// Piece returns the moving piece kind, or the dropped kind for drops.
func (m Move) Piece() PieceType { return PieceType(m >> movePieceShift & 0xF) }

func (m Move) IsPromotion() bool { return m&movePromoteFlag != 0 }
func (m Move) IsDrop() bool      { return m&moveDropFlag != 0 }

// String renders the move in USI notation, e.g. "7g7f", "8h2b+", "P*5e".
func (m Move) String() string {
	if m == MoveNone {
		return "none"
	}
	if m.IsDrop() {
		return fmt.Sprintf("%s*%s", m.Piece().USI(), m.To())
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += "+"
	}
	return s
}

// ParseUSIMove parses USI move notation. The position supplies the
// moving piece kind for board moves, and the parsed move is checked
// against the legal move list: a notationally well-formed but illegal
// move (wrong side, empty hand, self-check) is an error, never a Move.
func (p *Position) ParseUSIMove(s string) (Move, error) {
	m, err := p.parseUSIMove(s)
	if err != nil {
		return MoveNone, err
	}
	var legal MoveList
	p.GenerateMoves(&legal)
	if !legal.Contains(m) {
		return MoveNone, fmt.Errorf("illegal move %q", s)
	}
	return m, nil
}

func (p *Position) parseUSIMove(s string) (Move, error) {
	if len(s) < 4 {
		return MoveNone, fmt.Errorf("invalid move %q", s)
	}
	if s[1] == '*' {
		pt := PieceTypeFromUSI(s[0])
		if pt == NoPieceType || pt >= King {
			return MoveNone, fmt.Errorf("invalid drop %q", s)
		}
		to, err := ParseSquare(s[2:4])
		if err != nil {
			return MoveNone, fmt.Errorf("invalid drop %q: %w", s, err)
		}
		return NewDropMove(pt, to), nil
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return MoveNone, fmt.Errorf("invalid move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return MoveNone, fmt.Errorf("invalid move %q: %w", s, err)
	}
	pc := p.PieceOn(from)
	if pc == NoPiece {
		return MoveNone, fmt.Errorf("no piece on %s in %q", from, s)
	}
	promote := len(s) >= 5 && s[4] == '+'
	return NewMove(from, to, pc.Type(), promote), nil
}

// MoveList is a fixed-capacity move buffer. Shogi positions top out
// below 600 legal moves.
type MoveList struct {
	Moves [600]Move
	Count int
}

func (ml *MoveList) Add(m Move) {
	ml.Moves[ml.Count] = m
	ml.Count++
}

func (ml *MoveList) Clear() { ml.Count = 0 }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.Count; i++ {
		if ml.Moves[i] == m {
			return true
		}
	}
	return false
}

// UndoInfo snapshots everything MakeMove mutates that cannot be cheaply
// recomputed on unmake.
type UndoInfo struct {
	Captured   Piece
	Hash       uint64
	Checkers   Bitboard
	Pinned     Bitboard
	Hands      [2]Hand
	Material   int
	MoveNumber int
	SideToMove Color
	Valid      bool
}

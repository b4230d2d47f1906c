package engine

import (
	"github.com/hailam/shogiplay/internal/shogi"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	PromotionBonus  = 700000   // Quiet promotions
)

// MoveOrderer handles move ordering for the search.
// Killers stay per-worker; the from-dimension of the quiet tables has
// one extra slot per droppable kind, see historyFrom.
type MoveOrderer struct {
	killers [MaxPly][2]shogi.Move

	// History heuristic (indexed by [historyFrom][to])
	history [historyIndexCount][shogi.SquareCount]int

	// Counter move heuristic (indexed by [piece][to] of the previous move)
	counterMoves [int(shogi.NoPiece) + 1][shogi.SquareCount]shogi.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = shogi.MoveNone
		mo.killers[i][1] = shogi.MoveNone
	}

	// Age history scores rather than dropping them
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}

	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = shogi.MoveNone
		}
	}
}

// ScoreMoves assigns scores to moves for ordering.
func (mo *MoveOrderer) ScoreMoves(pos *shogi.Position, moves *shogi.MoveList, ply int, ttMove, prevMove shogi.Move) []int {
	scores := make([]int, moves.Count)
	counterMove := mo.GetCounterMove(prevMove, pos)

	for i := 0; i < moves.Count; i++ {
		move := moves.Moves[i]
		scores[i] = mo.scoreMove(pos, move, ply, ttMove)

		// Counter-move bonus, just below the second killer
		if move == counterMove && scores[i] < KillerScore2 {
			scores[i] = KillerScore2 - 10000
		}
	}

	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *shogi.Position, m shogi.Move, ply int, ttMove shogi.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	// Captures: most valuable victim first, cheapest attacker as the
	// tie break. A capture gains the victim's board value plus its hand
	// value, since the piece switches sides.
	if pos.IsCapture(m) {
		victim := pos.PieceOn(m.To()).Type()
		attacker := m.Piece()
		gain := shogi.PieceValue[victim] + shogi.HandValue[victim.Demote()]
		return GoodCaptureBase + gain*16 - shogi.PieceValue[attacker]/8
	}

	if m.IsPromotion() {
		return PromotionBonus + shogi.PieceValue[m.Piece().Promote()] - shogi.PieceValue[m.Piece()]
	}

	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	// History heuristic for the quiet rest, drops included
	return mo.history[historyFrom(m)][m.To()]
}

// PickMove selects the best remaining move and swaps it to index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *shogi.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Count; j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Moves[index], moves.Moves[best] = moves.Moves[best], moves.Moves[index]
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m shogi.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory updates the history score for a quiet move.
func (mo *MoveOrderer) UpdateHistory(m shogi.Move, depth int, isGood bool) {
	from := historyFrom(m)
	to := m.To()

	bonus := depth * depth
	if isGood {
		mo.history[from][to] += bonus
		if mo.history[from][to] > 400000 {
			for i := range mo.history {
				for j := range mo.history[i] {
					mo.history[i][j] /= 2
				}
			}
		}
	} else {
		mo.history[from][to] -= bonus
		if mo.history[from][to] < -400000 {
			mo.history[from][to] = -400000
		}
	}
}

// GetHistoryScore returns the history score for a move.
func (mo *MoveOrderer) GetHistoryScore(m shogi.Move) int {
	return mo.history[historyFrom(m)][m.To()]
}

// UpdateCounterMove records counterMove as the standing reply to prevMove.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove shogi.Move, pos *shogi.Position) {
	if prevMove == shogi.MoveNone {
		return
	}
	piece := pos.PieceOn(prevMove.To())
	if piece == shogi.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the remembered reply to a previous move.
func (mo *MoveOrderer) GetCounterMove(prevMove shogi.Move, pos *shogi.Position) shogi.Move {
	if prevMove == shogi.MoveNone {
		return shogi.MoveNone
	}
	piece := pos.PieceOn(prevMove.To())
	if piece == shogi.NoPiece {
		return shogi.MoveNone
	}
	return mo.counterMoves[piece][prevMove.To()]
}

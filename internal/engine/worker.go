package engine

import (
	"math"
	"sync/atomic"

	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
)

// LMR reduction table - precomputed logarithmic reductions.
var lmrReductions [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrReductions[d][m] = int(21.46 * math.Log(float64(d)) * math.Log(float64(m)) / 1024.0)
		}
	}
}

// Worker is a search worker for parallel search. Each worker owns its
// position copy and killers; the transposition table and the quiet
// history are shared.
type Worker struct {
	id int

	pos *shogi.Position

	orderer *MoveOrderer

	nodes uint64
	pv    PVTable

	undoStack [MaxPly]shogi.UndoInfo
	evalStack [MaxPly]int
	moveLists [MaxPly + 1]shogi.MoveList

	// Shared resources
	tt            *TranspositionTable
	weights       *eval.Weights
	sharedHistory *SharedHistory
	stopFlag      *atomic.Bool

	disablePruning bool

	depth int
}

// NewWorker creates a new search worker.
func NewWorker(id int, tt *TranspositionTable, weights *eval.Weights, sharedHistory *SharedHistory, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:            id,
		orderer:       NewMoveOrderer(),
		tt:            tt,
		weights:       weights,
		sharedHistory: sharedHistory,
		stopFlag:      stopFlag,
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Nodes returns the number of nodes searched by this worker.
func (w *Worker) Nodes() uint64 {
	return atomic.LoadUint64(&w.nodes)
}

// Reset resets the worker for a new search.
func (w *Worker) Reset() {
	atomic.StoreUint64(&w.nodes, 0)
	w.orderer.Clear()
}

// InitSearch gives the worker its own copy of the root position. The
// copy carries the game history, so repetitions across the root are
// still seen inside the search.
func (w *Worker) InitSearch(pos *shogi.Position) {
	w.pos = pos.Clone()
}

// SearchDepth performs a search to the given depth from the root.
func (w *Worker) SearchDepth(depth, alpha, beta int) (shogi.Move, int) {
	w.depth = depth

	score := w.negamax(depth, 0, alpha, beta, shogi.MoveNone)

	var bestMove shogi.Move
	if w.pv.length[0] > 0 {
		bestMove = w.pv.moves[0][0]
	}

	// Safety fallback: if no PV but legal moves exist, take the first.
	if bestMove == shogi.MoveNone && !w.stopFlag.Load() {
		var ml shogi.MoveList
		w.pos.GenerateMoves(&ml)
		if ml.Count > 0 {
			bestMove = ml.Moves[0]
		}
	}

	return bestMove, score
}

// SearchRootMove scores one root move on the worker's own position
// copy, as a root-split worker's unit of work. The returned PV starts
// with the move itself.
func (w *Worker) SearchRootMove(m shogi.Move, depth, alpha, beta int) (int, []shogi.Move) {
	w.depth = depth

	w.undoStack[0] = w.pos.MakeMove(m)
	score := -w.negamax(depth-1, 1, -beta, -alpha, m)
	w.pos.UnmakeMove(m, w.undoStack[0])

	pv := []shogi.Move{m}
	if score > alpha && score < beta {
		for j := 1; j < w.pv.length[1]; j++ {
			pv = append(pv, w.pv.moves[1][j])
		}
	}
	return score, pv
}

// evaluate returns the static evaluation from the side to move's view.
func (w *Worker) evaluate() int {
	return eval.Evaluate(w.pos, w.weights)
}

// GetPV returns the principal variation from the last search.
func (w *Worker) GetPV() []shogi.Move {
	pv := make([]shogi.Move, w.pv.length[0])
	for i := 0; i < w.pv.length[0]; i++ {
		pv[i] = w.pv.moves[0][i]
	}
	return pv
}

// negamax implements the negamax algorithm with alpha-beta pruning.
func (w *Worker) negamax(depth, ply int, alpha, beta int, prevMove shogi.Move) int {
	// Bounds check; MaxPly-1 because pv.length[ply+1] is read below.
	if ply >= MaxPly-1 {
		return w.evaluate()
	}

	// Check for stop signal periodically
	if w.nodes&4095 == 0 && w.stopFlag.Load() {
		return 0
	}

	atomic.AddUint64(&w.nodes, 1)

	w.pv.length[ply] = ply

	// Sennichite: a repeated position scores as a draw.
	if ply > 0 && w.pos.IsRepetition() {
		return 0
	}

	// An available entering-king declaration is a win on the spot. The
	// root case is handled before the search starts.
	if ply > 0 && w.pos.CanDeclareWin() {
		return MateScore - ply
	}

	// Probe transposition table
	var ttMove shogi.Move
	ttEntry, found := w.tt.Probe(w.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove

		// Validate the TT move before trusting it across collisions.
		if ttMove != shogi.MoveNone && !w.validTTMove(ttMove) {
			ttMove = shogi.MoveNone
		}

		if int(ttEntry.Depth) >= depth && ply > 0 {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	// Quiescence search at depth 0
	if depth <= 0 {
		return w.quiescence(ply, 0, alpha, beta)
	}

	inCheck := w.pos.InCheck()

	// Check extension
	extension := 0
	if inCheck {
		extension = 1
	}

	// Static evaluation for pruning decisions
	staticEval := w.evaluate()
	w.evalStack[ply] = staticEval

	improving := false
	if ply >= 2 {
		improving = staticEval > w.evalStack[ply-2]
	}

	prune := !w.disablePruning && !inCheck && ply > 0 && abs(beta) < MateScore-MaxPly

	// Razoring: hopeless nodes drop straight into quiescence.
	if prune && depth <= razorMaxDepth {
		razorMargin := 300 + 150*depth
		if staticEval+razorMargin <= alpha {
			score := w.quiescence(ply, 0, alpha, beta)
			if score <= alpha {
				return score
			}
		}
	}

	// Null Move Pruning. Always sound in shogi: there is no zugzwang
	// with a full hand of drops, but mate-bound windows are excluded.
	if prune && depth >= nullMoveMinDepth {
		R := 2 + depth/4
		if R > depth-1 {
			R = depth - 1
		}

		nullUndo := w.pos.MakeNullMove()
		nullScore := -w.negamax(depth-1-R, ply+1, -beta, -beta+1, shogi.MoveNone)
		w.pos.UnmakeNullMove(nullUndo)

		if nullScore >= beta {
			return beta
		}
	}

	// Futility pruning flag for the move loop
	pruneQuietMoves := false
	if prune && depth <= futilityMaxDepth {
		futilityMargin := [futilityMaxDepth + 1]int{0, 250, 400, 600}
		if staticEval+futilityMargin[depth] <= alpha {
			pruneQuietMoves = true
		}
	}

	// Generate moves
	moves := &w.moveLists[ply]
	w.pos.GenerateMoves(moves)

	// Checkmate or stalemate
	if moves.Count == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := w.orderer.ScoreMoves(w.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := shogi.MoveNone
	flag := TTUpperBound
	movesSearched := 0

	for i := 0; i < moves.Count; i++ {
		PickMove(moves, scores, i)
		move := moves.Moves[i]

		isCapture := w.pos.IsCapture(move)
		isPromotion := move.IsPromotion()

		// Futility pruning
		if pruneQuietMoves && !isCapture && !isPromotion && bestMove != shogi.MoveNone {
			continue
		}

		// Late Move Pruning
		if !w.disablePruning && depth <= 7 && !inCheck && movesSearched > 0 &&
			!isCapture && !isPromotion && move != ttMove {
			threshold := lmpThreshold[depth]
			if !improving {
				threshold = threshold * 2 / 3
			}
			if movesSearched >= threshold {
				continue
			}
		}

		w.undoStack[ply] = w.pos.MakeMove(move)
		movesSearched++

		var score int
		newDepth := depth - 1 + extension

		// Late Move Reduction
		if !w.disablePruning && movesSearched > 4 && depth >= 3 && !inCheck &&
			!isCapture && !isPromotion {
			d := min(depth, 63)
			m := min(movesSearched, 63)
			reduction := lmrReductions[d][m]

			if !improving {
				reduction++
			}

			// History steers the reduction both ways.
			localHist := w.orderer.GetHistoryScore(move)
			sharedHist := w.sharedHistory.Get(historyFrom(move), int(move.To()))
			reduction -= (localHist + sharedHist) / 2 / 8192

			if reduction < 1 {
				reduction = 1
			}
			reducedDepth := newDepth - reduction
			if reducedDepth < 1 {
				reducedDepth = 1
			}

			score = -w.negamax(reducedDepth, ply+1, -alpha-1, -alpha, move)
			if score > alpha {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move)
			}
		} else if movesSearched == 1 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, move)
		} else {
			score = -w.negamax(newDepth, ply+1, -alpha-1, -alpha, move)
			if score > alpha && score < beta {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move)
			}
		}

		w.pos.UnmakeMove(move, w.undoStack[ply])

		if w.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				w.pv.moves[ply][ply] = move
				for j := ply + 1; j < w.pv.length[ply+1]; j++ {
					w.pv.moves[ply][j] = w.pv.moves[ply+1][j]
				}
				w.pv.length[ply] = w.pv.length[ply+1]
			}
		}

		// Beta cutoff
		if score >= beta {
			if ply == 0 && bestMove != shogi.MoveNone {
				w.pv.moves[0][0] = bestMove
				w.pv.length[0] = 1
			}

			w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)

			if !isCapture {
				w.orderer.UpdateKillers(move, ply)
				w.orderer.UpdateHistory(move, depth, true)
				w.sharedHistory.Update(historyFrom(move), int(move.To()), depth*depth)
				w.orderer.UpdateCounterMove(prevMove, move, w.pos)
			}

			return score
		}
	}

	// Safety fallback
	if bestMove == shogi.MoveNone && moves.Count > 0 {
		bestMove = moves.Moves[0]
		if bestScore == -Infinity {
			bestScore = alpha
		}
	}

	w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	return bestScore
}

// validTTMove checks a hash move against the board before it is tried.
func (w *Worker) validTTMove(m shogi.Move) bool {
	if m.IsDrop() {
		return w.pos.Hands[w.pos.SideToMove].Has(m.Piece()) &&
			w.pos.PieceOn(m.To()) == shogi.NoPiece
	}
	pc := w.pos.PieceOn(m.From())
	return pc != shogi.NoPiece &&
		pc.Color() == w.pos.SideToMove &&
		pc.Type() == m.Piece()
}

// quiescence searches captures, promotions of captures, and at its
// first ply quiet checks, to settle the horizon.
func (w *Worker) quiescence(ply, qPly int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || qPly > maxQuiescencePly {
		return w.evaluate()
	}

	if w.stopFlag.Load() {
		return 0
	}

	atomic.AddUint64(&w.nodes, 1)

	// In check there is no standing pat: search every evasion.
	if w.pos.InCheck() {
		return w.quiescenceEvasions(ply, qPly, alpha, beta)
	}

	// Stand pat
	standPat := w.evaluate()
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	// Delta pruning: even winning a whole dragon will not help.
	bigDelta := shogi.PieceValue[shogi.Dragon] + shogi.HandValue[shogi.Rook]
	if standPat+bigDelta < alpha {
		return alpha
	}

	moves := &w.moveLists[ply]
	w.pos.GenerateCaptures(moves)
	scores := w.orderer.ScoreMoves(w.pos, moves, ply, shogi.MoveNone, shogi.MoveNone)

	for i := 0; i < moves.Count; i++ {
		PickMove(moves, scores, i)
		move := moves.Moves[i]

		// Delta pruning for individual captures
		victim := w.pos.PieceOn(move.To()).Type()
		gain := shogi.PieceValue[victim] + shogi.HandValue[victim.Demote()]
		if move.IsPromotion() {
			gain += shogi.PieceValue[move.Piece().Promote()] - shogi.PieceValue[move.Piece()]
		}
		if standPat+gain+deltaMargin < alpha {
			continue
		}

		undo := w.pos.MakeMove(move)
		score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	// At the first quiescence ply, also try quiet checking moves.
	if qPly == 0 {
		var checks shogi.MoveList
		w.pos.GenerateChecks(&checks)

		for i := 0; i < checks.Count; i++ {
			move := checks.Moves[i]

			undo := w.pos.MakeMove(move)
			score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
			w.pos.UnmakeMove(move, undo)

			if score >= beta {
				return beta
			}
			if score > alpha {
				alpha = score
			}
		}
	}

	return alpha
}

// quiescenceEvasions searches every legal reply to a check inside
// quiescence. Getting mated on the spot must be seen exactly.
func (w *Worker) quiescenceEvasions(ply, qPly int, alpha, beta int) int {
	moves := &w.moveLists[ply]
	w.pos.GenerateMoves(moves)
	if moves.Count == 0 {
		return -MateScore + ply
	}

	scores := w.orderer.ScoreMoves(w.pos, moves, ply, shogi.MoveNone, shogi.MoveNone)

	bestScore := -Infinity
	for i := 0; i < moves.Count; i++ {
		PickMove(moves, scores, i)
		move := moves.Moves[i]

		undo := w.pos.MakeMove(move)
		score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if score > bestScore {
			bestScore = score
		}
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestScore
}

package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []shogi.Move
	HashFull int // permille of hash table used
}

// SearchResult is the outcome of a root search.
type SearchResult struct {
	BestMove shogi.Move
	Score    int
	Declare  bool // an entering-king declaration wins outright
	Resign   bool // no legal move
}

// Engine drives iterative deepening over a pool of workers sharing the
// transposition table and quiet history.
type Engine struct {
	tt            *TranspositionTable
	weights       *eval.Weights
	sharedHistory *SharedHistory
	timeman       *TimeManager
	threads       int
	stopFlag      atomic.Bool

	log zerolog.Logger

	// OnInfo is called after every completed depth.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with the given transposition table size
// in MB and worker count.
func NewEngine(hashMB, threads int, weights *eval.Weights, log zerolog.Logger) *Engine {
	if threads < 1 {
		threads = 1
	}
	return &Engine{
		tt:            NewTranspositionTable(hashMB),
		weights:       weights,
		sharedHistory: NewSharedHistory(),
		timeman:       NewTimeManager(),
		threads:       threads,
		log:           log,
	}
}

// TT exposes the transposition table for statistics reporting.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// SetThreads changes the worker count for subsequent searches.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.threads = n
}

// Stop aborts the current search. The search returns the best move
// found so far.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear drops all cached search state, as after "usinewgame".
func (e *Engine) Clear() {
	e.tt.Clear()
	e.sharedHistory.Clear()
}

// Search finds the best move under the given limits. It blocks until
// the search finishes, the limits expire, ctx is cancelled or Stop is
// called.
func (e *Engine) Search(ctx context.Context, pos *shogi.Position, limits Limits) SearchResult {
	searchID := uuid.NewString()
	e.stopFlag.Store(false)
	e.tt.NewSearch()
	e.timeman.Init(limits, pos.SideToMove, pos.MoveNumber)

	log := e.log.With().Str("search_id", searchID).Logger()
	log.Debug().
		Str("sfen", pos.SFEN()).
		Dur("optimum", e.timeman.OptimumTime()).
		Dur("maximum", e.timeman.MaximumTime()).
		Msg("search started")

	if pos.CanDeclareWin() {
		log.Info().Msg("entering king declaration available")
		return SearchResult{Declare: true, Score: MateScore}
	}

	var rootMoves shogi.MoveList
	pos.GenerateMoves(&rootMoves)
	if rootMoves.Count == 0 {
		log.Info().Msg("no legal moves, resigning")
		return SearchResult{Resign: true, Score: -MateScore}
	}

	// Hard budget watchdog. The optimum budget is checked between
	// depths; the maximum stops a runaway iteration mid-flight.
	watchdog := time.AfterFunc(e.timeman.MaximumTime(), func() { e.stopFlag.Store(true) })
	defer watchdog.Stop()
	stopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-stopCtx.Done()
		if ctx.Err() != nil {
			e.stopFlag.Store(true)
		}
	}()

	pool := newWorkerPool(e.threads, e.tt, e.weights, e.sharedHistory, &e.stopFlag)

	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	startTime := time.Now()
	bestMove := rootMoves.Moves[0]
	bestScore := -Infinity
	stability := 0
	changes := 0

	const initialWindow = 60

	for depth := 1; depth <= maxDepth; depth++ {
		var move shogi.Move
		var score int

		// Aspiration windows once a previous score exists.
		if depth >= 5 {
			alpha := bestScore - initialWindow
			beta := bestScore + initialWindow
			for {
				move, score = pool.Search(pos, depth, alpha, beta)
				if e.stopFlag.Load() {
					break
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
				if alpha == -Infinity && beta == Infinity {
					move, score = pool.Search(pos, depth, alpha, beta)
					break
				}
			}
		} else {
			move, score = pool.Search(pos, depth, -Infinity, Infinity)
		}

		if e.stopFlag.Load() {
			break
		}

		if move != shogi.MoveNone {
			if move == bestMove {
				stability++
			} else {
				stability = 0
				changes++
			}
			bestMove = move
			bestScore = score
		}

		elapsed := time.Since(startTime)
		nodes := pool.Nodes()
		log.Debug().
			Int("depth", depth).
			Int("score", bestScore).
			Uint64("nodes", nodes).
			Dur("elapsed", elapsed).
			Str("bestmove", bestMove.String()).
			Msg("depth complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    nodes,
				Time:     elapsed,
				PV:       pool.PV(),
				HashFull: e.tt.HashFull(),
			})
		}

		// Mate found: deeper search cannot change the outcome.
		if abs(bestScore) > MateScore-MaxPly {
			break
		}

		if limits.Nodes > 0 && nodes >= limits.Nodes {
			break
		}

		if stability > 0 {
			e.timeman.AdjustForStability(stability)
		} else {
			e.timeman.AdjustForInstability(changes)
		}
		if !limits.Infinite && e.timeman.PastOptimum() {
			break
		}
	}

	log.Info().
		Str("bestmove", bestMove.String()).
		Int("score", bestScore).
		Uint64("nodes", pool.Nodes()).
		Dur("elapsed", time.Since(startTime)).
		Msg("search finished")

	return SearchResult{BestMove: bestMove, Score: bestScore}
}

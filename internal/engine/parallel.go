package engine

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
)

// workerPool splits the root move list over worker goroutines. Each
// worker owns its Position copy and heuristic tables; the transposition
// table and quiet history are shared and race-tolerant.
type workerPool struct {
	workers []*Worker

	bestPV []shogi.Move
}

func newWorkerPool(threads int, tt *TranspositionTable, weights *eval.Weights, sharedHistory *SharedHistory, stopFlag *atomic.Bool) *workerPool {
	p := &workerPool{workers: make([]*Worker, threads)}
	for i := range p.workers {
		p.workers[i] = NewWorker(i, tt, weights, sharedHistory, stopFlag)
	}
	return p
}

// Search runs one iteration at the given depth and returns the best
// move and score. With one worker it is a plain sequential search;
// otherwise the ordered root moves are handed out to workers as they
// become free.
func (p *workerPool) Search(pos *shogi.Position, depth, alpha, beta int) (shogi.Move, int) {
	main := p.workers[0]
	main.InitSearch(pos)

	if len(p.workers) == 1 {
		move, score := main.SearchDepth(depth, alpha, beta)
		p.bestPV = main.GetPV()
		return move, score
	}

	var rootMoves shogi.MoveList
	main.pos.GenerateMoves(&rootMoves)
	if rootMoves.Count == 0 {
		return shogi.MoveNone, -MateScore
	}

	var ttMove shogi.Move
	if entry, ok := main.tt.Probe(pos.Hash); ok {
		ttMove = entry.BestMove
	}
	scores := main.orderer.ScoreMoves(main.pos, &rootMoves, 0, ttMove, shogi.MoveNone)
	for i := 0; i < rootMoves.Count; i++ {
		PickMove(&rootMoves, scores, i)
	}

	type rootResult struct {
		score int
		pv    []shogi.Move
		done  bool
	}
	results := make([]rootResult, rootMoves.Count)

	// Workers raise the shared bound as they go. A stale read only
	// costs pruning, never correctness.
	var sharedAlpha atomic.Int64
	sharedAlpha.Store(int64(alpha))

	var next atomic.Int64
	var g errgroup.Group
	for _, w := range p.workers {
		w := w
		w.InitSearch(pos)
		g.Go(func() error {
			for {
				i := int(next.Add(1)) - 1
				if i >= rootMoves.Count || w.stopFlag.Load() {
					return nil
				}
				a := int(sharedAlpha.Load())
				if a < alpha {
					a = alpha
				}
				score, pv := w.SearchRootMove(rootMoves.Moves[i], depth, a, beta)
				results[i] = rootResult{score: score, pv: pv, done: true}

				for {
					cur := sharedAlpha.Load()
					if int64(score) <= cur || sharedAlpha.CompareAndSwap(cur, int64(score)) {
						break
					}
				}
			}
		})
	}
	_ = g.Wait()

	bestMove := rootMoves.Moves[0]
	bestScore := -Infinity
	p.bestPV = nil
	for i := 0; i < rootMoves.Count; i++ {
		if !results[i].done {
			continue
		}
		if results[i].score > bestScore {
			bestScore = results[i].score
			bestMove = rootMoves.Moves[i]
			p.bestPV = results[i].pv
		}
	}

	return bestMove, bestScore
}

// Nodes returns the total node count across all workers.
func (p *workerPool) Nodes() uint64 {
	var total uint64
	for _, w := range p.workers {
		total += w.Nodes()
	}
	return total
}

// PV returns the principal variation of the best root move from the
// last completed iteration.
func (p *workerPool) PV() []shogi.Move {
	return p.bestPV
}

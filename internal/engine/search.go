package engine

import (
	"sync/atomic"

	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
)

// Search constants
const (
	Infinity  = 32000
	MateScore = 31000
	MaxPly    = 128
)

// Pruning constants
const (
	futilityMaxDepth = 3   // Maximum depth for futility pruning
	razorMaxDepth    = 2   // Maximum depth for razoring
	nullMoveMinDepth = 3   // Minimum depth for null move pruning
	deltaMargin      = 200 // Delta pruning slack in quiescence
)

// LMP (Late Move Pruning) thresholds by depth.
// At depth d, prune quiet moves after lmpThreshold[d] moves. Shogi
// branching factors run higher than chess, so the table is generous.
var lmpThreshold = [8]int{0, 6, 10, 16, 24, 36, 50, 68}

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]shogi.Move
}

// historyIndexCount is the size of the from-dimension of the history
// tables: 81 board squares plus one pseudo-origin per droppable kind.
const historyIndexCount = shogi.SquareCount + shogi.HandPieceCount

// historyFrom maps a move origin to a history index. Drops have no from
// square, so each dropped kind gets its own slot past the board.
func historyFrom(m shogi.Move) int {
	if m.IsDrop() {
		return shogi.SquareCount + int(m.Piece())
	}
	return int(m.From())
}

// SharedHistory is a lock-free history table shared between workers.
// Counters are atomics, so concurrent updates may lose increments but
// never corrupt the table.
type SharedHistory struct {
	table [historyIndexCount][shogi.SquareCount]atomic.Int64
}

// NewSharedHistory creates an empty shared history table.
func NewSharedHistory() *SharedHistory {
	return &SharedHistory{}
}

// Get returns the shared history score for a from/to pair.
func (sh *SharedHistory) Get(from, to int) int {
	return int(sh.table[from][to].Load())
}

// Update adds a bonus to the shared history score.
func (sh *SharedHistory) Update(from, to, bonus int) {
	sh.table[from][to].Add(int64(bonus))
}

// Clear zeroes the table.
func (sh *SharedHistory) Clear() {
	for i := range sh.table {
		for j := range sh.table[i] {
			sh.table[i][j].Store(0)
		}
	}
}

// Searcher performs the alpha-beta search.
// It wraps a single Worker; parallel search builds its own worker set.
type Searcher struct {
	worker   *Worker
	stopFlag atomic.Bool
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable, weights *eval.Weights) *Searcher {
	sharedHistory := NewSharedHistory()
	s := &Searcher{}
	s.worker = NewWorker(0, tt, weights, sharedHistory, &s.stopFlag)
	return s
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.worker.Reset()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.worker.Nodes()
}

// SetDisablePruning turns off speculative pruning, leaving plain
// alpha-beta with quiescence. Mainly useful for debugging.
func (s *Searcher) SetDisablePruning(disable bool) {
	s.worker.disablePruning = disable
}

// Search performs the search at the given depth.
func (s *Searcher) Search(pos *shogi.Position, depth int) (shogi.Move, int) {
	return s.SearchWithBounds(pos, depth, -Infinity, Infinity)
}

// SearchWithBounds performs search with custom alpha/beta bounds (for
// aspiration windows).
func (s *Searcher) SearchWithBounds(pos *shogi.Position, depth, alpha, beta int) (shogi.Move, int) {
	s.worker.InitSearch(pos)
	return s.worker.SearchDepth(depth, alpha, beta)
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []shogi.Move {
	return s.worker.GetPV()
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

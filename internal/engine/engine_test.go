package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
)

func newTestEngine(t *testing.T, threads int) *Engine {
	t.Helper()
	return NewEngine(16, threads, eval.DefaultWeights(), zerolog.Nop())
}

func TestFindsMateInOne(t *testing.T) {
	// The gold drop G*2b mates: the silver on 3c guards the drop square
	// and the gold covers every flight square of the king on 1a.
	pos, err := shogi.ParseSFEN("8k/9/6S2/9/9/9/9/9/4K4 b G 1")
	require.NoError(t, err)

	e := newTestEngine(t, 1)
	res := e.Search(context.Background(), pos, Limits{Depth: 3})

	require.False(t, res.Resign)
	require.NotEqual(t, shogi.MoveNone, res.BestMove)
	require.Greater(t, res.Score, MateScore-MaxPly, "mate score expected, got %d", res.Score)

	pos.MakeMove(res.BestMove)
	require.True(t, pos.IsCheckmate(), "%s does not mate", res.BestMove)
}

func TestMateInOneWithoutPruning(t *testing.T) {
	pos, err := shogi.ParseSFEN("8k/9/6S2/9/9/9/9/9/4K4 b G 1")
	require.NoError(t, err)

	tt := NewTranspositionTable(8)
	s := NewSearcher(tt, eval.DefaultWeights())
	s.SetDisablePruning(true)

	move, score := s.Search(pos, 1)
	require.Equal(t, MateScore-1, score)

	undo := pos.MakeMove(move)
	require.True(t, pos.IsCheckmate())
	pos.UnmakeMove(move, undo)
}

// pickMove runs a fresh unpruned search to the given depth and returns
// the chosen move.
func pickMove(t *testing.T, pos *shogi.Position, depth int) shogi.Move {
	t.Helper()
	s := NewSearcher(NewTranspositionTable(4), eval.DefaultWeights())
	s.SetDisablePruning(true)
	move, _ := s.Search(pos.Clone(), depth)
	require.NotEqual(t, shogi.MoveNone, move)
	return move
}

// scoreMoveAt re-evaluates a root move with a fresh unpruned search of
// the resulting position to depth-1, negated back to the mover's view.
func scoreMoveAt(t *testing.T, pos *shogi.Position, m shogi.Move, depth int) int {
	t.Helper()
	s := NewSearcher(NewTranspositionTable(4), eval.DefaultWeights())
	s.SetDisablePruning(true)
	child := pos.Clone()
	child.MakeMove(m)
	_, score := s.Search(child, depth-1)
	return -score
}

func TestDepthMonotoneConsistency(t *testing.T) {
	// With pruning disabled, the deeper search's choice must hold up:
	// re-evaluated at depth d+2, it scores at least as well as the
	// shallower search's choice.
	pos, err := shogi.ParseSFEN("4k4/9/9/9/9/9/9/9/4K4 b R 1")
	require.NoError(t, err)

	const d = 1
	shallow := pickMove(t, pos, d)
	deep := pickMove(t, pos, d+2)

	shallowScore := scoreMoveAt(t, pos, shallow, d+2)
	deepScore := scoreMoveAt(t, pos, deep, d+2)
	require.GreaterOrEqual(t, deepScore, shallowScore,
		"deep choice %s regressed against shallow choice %s", deep, shallow)
}

func TestResignWhenMated(t *testing.T) {
	// The checkmate position from the movegen tests, engine side view.
	pos, err := shogi.ParseSFEN("8k/8G/8K/9/9/9/9/9/9 w - 1")
	require.NoError(t, err)

	e := newTestEngine(t, 1)
	res := e.Search(context.Background(), pos, Limits{Depth: 2})
	require.True(t, res.Resign)
}

func TestDeclarationWin(t *testing.T) {
	pos, err := shogi.ParseSFEN("B2G1K1R1/GGSSNNLLP/9/9/9/9/9/9/4k4 b RB2P 1")
	require.NoError(t, err)
	require.True(t, pos.CanDeclareWin())

	e := newTestEngine(t, 1)
	res := e.Search(context.Background(), pos, Limits{Depth: 2})
	require.True(t, res.Declare)
}

func TestSearchReturnsLegalMove(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 1)
	res := e.Search(context.Background(), pos, Limits{Depth: 3})

	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	require.True(t, ml.Contains(res.BestMove), "illegal best move %s", res.BestMove)
}

func TestSearchParallelReturnsLegalMove(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 4)
	res := e.Search(context.Background(), pos, Limits{Depth: 4})

	var ml shogi.MoveList
	pos.GenerateMoves(&ml)
	require.True(t, ml.Contains(res.BestMove), "illegal best move %s", res.BestMove)
}

func TestMoveTimeIsHonored(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 1)
	start := time.Now()
	res := e.Search(context.Background(), pos, Limits{MoveTime: 100 * time.Millisecond})
	elapsed := time.Since(start)

	require.NotEqual(t, shogi.MoveNone, res.BestMove)
	require.Less(t, elapsed, 2*time.Second, "search overran its budget")
}

func TestContextCancelStopsSearch(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := e.Search(ctx, pos, Limits{Infinite: true})
	require.Less(t, time.Since(start), 5*time.Second)
	require.NotEqual(t, shogi.MoveNone, res.BestMove)
}

func TestStopStopsSearch(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		e.Stop()
	}()

	start := time.Now()
	res := e.Search(context.Background(), pos, Limits{Infinite: true})
	require.Less(t, time.Since(start), 5*time.Second)
	require.NotEqual(t, shogi.MoveNone, res.BestMove)
}

func TestRepetitionScoredAsDraw(t *testing.T) {
	// Kings shuffled back to the start: the root position already
	// repeats, so a further shuffle is an immediate draw line.
	pos := shogi.NewPosition()
	for _, s := range []string{"5i5h", "5a5b", "5h5i", "5b5a"} {
		m, err := pos.ParseUSIMove(s)
		require.NoError(t, err)
		pos.MakeMove(m)
	}
	require.True(t, pos.IsRepetition())

	tt := NewTranspositionTable(8)
	s := NewSearcher(tt, eval.DefaultWeights())
	_, score := s.Search(pos, 1)

	// Not asserted to be exactly zero: the search may prefer a
	// non-repeating line. It must not be a mate score.
	require.Less(t, abs(score), MateScore-MaxPly)
}

func TestInfoCallbackFires(t *testing.T) {
	pos := shogi.NewPosition()

	e := newTestEngine(t, 1)
	var depths []int
	e.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		require.NotEmpty(t, info.PV)
	}

	e.Search(context.Background(), pos, Limits{Depth: 3})
	require.Len(t, depths, 3)
	require.Equal(t, []int{1, 2, 3}, depths)
}

package usi

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hailam/shogiplay/internal/engine"
	"github.com/hailam/shogiplay/internal/eval"
	"github.com/hailam/shogiplay/internal/shogi"
	"github.com/hailam/shogiplay/internal/storage"
)

// syncBuffer serializes writes from the command loop and the search
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runScript(t *testing.T, cache *storage.Storage, script string) string {
	t.Helper()
	eng := engine.NewEngine(16, 1, eval.DefaultWeights(), zerolog.Nop())
	h := New(eng, cache, 0, zerolog.Nop())

	var out syncBuffer
	h.in = strings.NewReader(script)
	h.out = &out

	h.Run()
	return out.String()
}

func TestHandshake(t *testing.T) {
	out := runScript(t, nil, "usi\nisready\nquit\n")

	require.Contains(t, out, "id name ShogiPlay")
	require.Contains(t, out, "usiok")
	require.Contains(t, out, "readyok")
}

func TestGoReturnsLegalBestmove(t *testing.T) {
	out := runScript(t, nil, "usinewgame\nposition startpos moves 7g7f 3c3d\ngo depth 3\nquit\n")

	m := regexp.MustCompile(`bestmove (\S+)`).FindStringSubmatch(out)
	require.NotNil(t, m, "no bestmove in output:\n%s", out)

	pos := shogi.NewPosition()
	for _, mv := range []string{"7g7f", "3c3d"} {
		move, err := pos.ParseUSIMove(mv)
		require.NoError(t, err)
		pos.MakeMove(move)
	}
	_, err := pos.ParseUSIMove(m[1])
	require.NoError(t, err, "bestmove %s is not legal", m[1])

	require.Contains(t, out, "info depth")
	require.Contains(t, out, "pv ")
}

func TestResignWhenMated(t *testing.T) {
	out := runScript(t, nil, "position sfen 8k/8G/8K/9/9/9/9/9/9 w - 1\ngo depth 2\nquit\n")
	require.Contains(t, out, "bestmove resign")
}

func TestDeclarationWin(t *testing.T) {
	out := runScript(t, nil, "position sfen B2G1K1R1/GGSSNNLLP/9/9/9/9/9/9/4k4 b RB2P 1\ngo depth 2\nquit\n")
	require.Contains(t, out, "bestmove win")
}

func TestInvalidSFENReported(t *testing.T) {
	out := runScript(t, nil, "position sfen not/a/position\nquit\n")
	require.Contains(t, out, "info string invalid sfen")
}

func TestInvalidMoveReported(t *testing.T) {
	out := runScript(t, nil, "position startpos moves 1a1b\nquit\n")
	require.Contains(t, out, "info string invalid move 1a1b")
}

func TestIllegalReplayKeepsPosition(t *testing.T) {
	script := "position startpos moves 7g7f\n" +
		"position startpos moves 7g7f 7g7f\n" +
		"d\n" +
		"quit\n"
	out := runScript(t, nil, script)

	// The second position command repeats a move from an empty square
	// and must be rejected without clobbering the current position.
	require.Contains(t, out, "info string invalid move 7g7f")
	require.Contains(t, out,
		"lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2")
}

func TestSetOptions(t *testing.T) {
	out := runScript(t, nil, "setoption name USI_Hash value 32\nsetoption name Threads value 2\nsetoption name MoveMargin value 100\nisready\nquit\n")
	require.Contains(t, out, "readyok")
	require.NotContains(t, out, "invalid")
}

func TestPerftCommand(t *testing.T) {
	out := runScript(t, nil, "position startpos\nperft 2\nquit\n")
	require.Contains(t, out, "nodes 900")
}

func TestCachedAnalysisReused(t *testing.T) {
	cache, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.SaveAnalysis(shogi.StartSFEN, &storage.AnalysisRecord{
		BestMove: "2g2f",
		Score:    42,
		Depth:    10,
		Nodes:    99999,
		PV:       []string{"2g2f", "8c8d"},
	}))

	out := runScript(t, cache, "position startpos\ngo depth 3\nquit\n")
	require.Contains(t, out, "bestmove 2g2f")
	require.Contains(t, out, "info depth 10 score cp 42")
	require.Contains(t, out, "pv 2g2f 8c8d")
}

func TestShallowerCacheNotReused(t *testing.T) {
	cache, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.SaveAnalysis(shogi.StartSFEN, &storage.AnalysisRecord{
		BestMove: "2g2f",
		Depth:    1,
	}))

	out := runScript(t, cache, "position startpos\ngo depth 3\nquit\n")
	require.Contains(t, out, "info depth 3")
}

func TestAnalysisCached(t *testing.T) {
	cache, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	out := runScript(t, cache, "position startpos\ngo depth 3\nquit\n")
	m := regexp.MustCompile(`bestmove (\S+)`).FindStringSubmatch(out)
	require.NotNil(t, m)

	rec, err := cache.LoadAnalysis(shogi.StartSFEN)
	require.NoError(t, err)
	require.Equal(t, m[1], rec.BestMove)
	require.Equal(t, 3, rec.Depth)
	require.NotZero(t, rec.Nodes)
}

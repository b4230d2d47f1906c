// Package usi implements the Universal Shogi Interface protocol.
package usi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/shogiplay/internal/engine"
	"github.com/hailam/shogiplay/internal/shogi"
	"github.com/hailam/shogiplay/internal/storage"
)

// Handler implements the USI protocol loop on top of an engine.
type Handler struct {
	engine   *engine.Engine
	position *shogi.Position
	cache    *storage.Storage // nil disables the analysis cache
	log      zerolog.Logger

	// moveMargin is shaved off fixed time budgets to cover I/O latency.
	moveMargin time.Duration

	in  io.Reader
	out io.Writer

	searching  bool
	searchDone chan struct{}
}

// New creates a USI protocol handler reading stdin and writing stdout.
// cache may be nil to run without the persistent analysis cache.
func New(eng *engine.Engine, cache *storage.Storage, moveMargin time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		engine:     eng,
		position:   shogi.NewPosition(),
		cache:      cache,
		log:        log,
		moveMargin: moveMargin,
		in:         os.Stdin,
		out:        os.Stdout,
	}
}

// Run processes commands until "quit" or EOF.
func (h *Handler) Run() {
	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "usi":
			h.handleUSI()
		case "isready":
			h.println("readyok")
		case "usinewgame":
			h.handleNewGame()
		case "position":
			h.handlePosition(args)
		case "go":
			h.handleGo(args)
		case "stop":
			h.handleStop()
		case "ponderhit":
			// Pondering is not supported; the search is already running
			// on real time.
		case "gameover":
			h.handleStop()
		case "setoption":
			h.handleSetOption(args)
		case "quit":
			h.handleStop()
			return
		// Debug commands
		case "d":
			h.println(h.position.SFEN())
		case "perft":
			h.handlePerft(args)
		default:
			h.log.Debug().Str("command", line).Msg("unknown command")
		}
	}
}

func (h *Handler) println(s string) {
	fmt.Fprintln(h.out, s)
}

func (h *Handler) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}

// handleUSI responds to the "usi" command.
func (h *Handler) handleUSI() {
	h.println("id name ShogiPlay")
	h.println("id author ShogiPlay Team")
	h.println("option name USI_Hash type spin default 256 min 1 max 4096")
	h.println("option name Threads type spin default 1 min 1 max 64")
	h.println("option name MoveMargin type spin default 50 min 0 max 2000")
	h.println("usiok")
}

// handleNewGame resets the engine for a new game.
func (h *Handler) handleNewGame() {
	h.engine.Clear()
	h.position = shogi.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves 7g7f 3c3d
//   - position sfen <sfen>
//   - position sfen <sfen> moves 7g7f
func (h *Handler) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i + 1
			break
		}
	}

	var pos *shogi.Position
	switch args[0] {
	case "startpos":
		pos = shogi.NewPosition()
	case "sfen":
		sfenEnd := moveStart
		if moveStart < len(args) {
			sfenEnd = moveStart - 1
		}
		parsed, err := shogi.ParseSFEN(strings.Join(args[1:sfenEnd], " "))
		if err != nil {
			h.printf("info string invalid sfen: %v\n", err)
			return
		}
		pos = parsed
	default:
		return
	}

	// Replay onto the scratch position; the current position survives
	// a rejected move list untouched.
	for _, moveStr := range args[moveStart:] {
		move, err := pos.ParseUSIMove(moveStr)
		if err != nil {
			h.printf("info string invalid move %s: %v\n", moveStr, err)
			return
		}
		pos.MakeMove(move)
	}
	h.position = pos
}

// handleGo starts a search with the given parameters.
func (h *Handler) handleGo(args []string) {
	if h.searching {
		return
	}

	limits := h.parseLimits(args)

	// A depth-limited search of an already-analyzed position can be
	// answered straight from the cache.
	if h.answerFromCache(limits) {
		return
	}

	// OnInfo runs on the search goroutine, so lastInfo needs no lock.
	var lastInfo engine.SearchInfo
	h.engine.OnInfo = func(info engine.SearchInfo) {
		lastInfo = info
		h.sendInfo(info)
	}

	h.searching = true
	h.searchDone = make(chan struct{})

	pos := h.position.Clone()

	go func() {
		defer close(h.searchDone)

		result := h.engine.Search(context.Background(), pos, limits)
		h.searching = false

		switch {
		case result.Declare:
			h.println("bestmove win")
		case result.Resign:
			h.println("bestmove resign")
		default:
			h.printf("bestmove %s\n", result.BestMove.String())
			h.saveAnalysis(pos, result, lastInfo)
		}
	}()
}

// answerFromCache replies with a cached result when the position was
// already searched at least as deep. Only fixed-depth searches reuse
// the cache; time-controlled games always search fresh.
func (h *Handler) answerFromCache(limits engine.Limits) bool {
	if h.cache == nil || limits.Depth <= 0 {
		return false
	}
	rec, err := h.cache.LoadAnalysis(h.position.SFEN())
	if err != nil {
		return false
	}
	if rec.Depth < limits.Depth {
		return false
	}
	// The cached move must still parse as legal before it is trusted.
	if _, err := h.position.Clone().ParseUSIMove(rec.BestMove); err != nil {
		return false
	}

	line := fmt.Sprintf("info depth %d score cp %d nodes %d time 0", rec.Depth, rec.Score, rec.Nodes)
	if len(rec.PV) > 0 {
		line += " pv " + strings.Join(rec.PV, " ")
	}
	h.println(line)
	h.printf("bestmove %s\n", rec.BestMove)
	return true
}

// saveAnalysis records the finished search in the persistent cache.
func (h *Handler) saveAnalysis(pos *shogi.Position, result engine.SearchResult, info engine.SearchInfo) {
	if h.cache == nil {
		return
	}
	pv := make([]string, 0, len(info.PV))
	for _, m := range info.PV {
		pv = append(pv, m.String())
	}
	rec := &storage.AnalysisRecord{
		BestMove: result.BestMove.String(),
		Score:    result.Score,
		Depth:    info.Depth,
		Nodes:    info.Nodes,
		PV:       pv,
	}
	if err := h.cache.SaveAnalysis(pos.SFEN(), rec); err != nil {
		h.log.Warn().Err(err).Msg("analysis cache write failed")
	}
}

// parseLimits parses "go" command arguments into search limits.
func (h *Handler) parseLimits(args []string) engine.Limits {
	var limits engine.Limits

	nextMS := func(i int) time.Duration {
		if i+1 >= len(args) {
			return 0
		}
		ms, _ := strconv.Atoi(args[i+1])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "btime":
			limits.Time[shogi.Black] = nextMS(i)
			i++
		case "wtime":
			limits.Time[shogi.White] = nextMS(i)
			i++
		case "binc":
			limits.Inc[shogi.Black] = nextMS(i)
			i++
		case "winc":
			limits.Inc[shogi.White] = nextMS(i)
			i++
		case "byoyomi":
			limits.Byoyomi = h.applyMargin(nextMS(i))
			i++
		case "movetime":
			limits.MoveTime = h.applyMargin(nextMS(i))
			i++
		case "depth":
			if i+1 < len(args) {
				limits.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				limits.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				limits.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "infinite":
			limits.Infinite = true
		case "mate":
			// Mate search runs as a normal search; it stops on its own
			// once a mate score is returned.
			limits.Infinite = true
		}
	}

	return limits
}

// applyMargin shaves the I/O margin off a fixed budget.
func (h *Handler) applyMargin(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	d -= h.moveMargin
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// sendInfo outputs search info in USI format.
func (h *Handler) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Mate scores are reported in plies.
	if info.Score > engine.MateScore-engine.MaxPly {
		parts = append(parts, fmt.Sprintf("score mate %d", engine.MateScore-info.Score))
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		parts = append(parts, fmt.Sprintf("score mate -%d", engine.MateScore+info.Score))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		pv := make([]string, 0, len(info.PV))
		for _, m := range info.PV {
			pv = append(pv, m.String())
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	h.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for bestmove.
func (h *Handler) handleStop() {
	if h.searching {
		h.engine.Stop()
	}
	if h.searchDone != nil {
		<-h.searchDone
		h.searchDone = nil
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (h *Handler) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "usi_hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			h.printf("info string invalid USI_Hash value %q\n", value)
			return
		}
		h.engine.TT().Resize(mb)
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			h.printf("info string invalid Threads value %q\n", value)
			return
		}
		h.engine.SetThreads(n)
	case "movemargin":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			h.printf("info string invalid MoveMargin value %q\n", value)
			return
		}
		h.moveMargin = time.Duration(ms) * time.Millisecond
	}
}

// handlePerft counts leaf nodes to the given depth from the current
// position, a move generator sanity check.
func (h *Handler) handlePerft(args []string) {
	depth := 4
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes := perft(h.position.Clone(), depth)
	elapsed := time.Since(start)

	h.printf("nodes %d time %d\n", nodes, elapsed.Milliseconds())
}

func perft(p *shogi.Position, depth int) uint64 {
	var ml shogi.MoveList
	p.GenerateMoves(&ml)
	if depth == 1 {
		return uint64(ml.Count)
	}

	var nodes uint64
	for i := 0; i < ml.Count; i++ {
		undo := p.MakeMove(ml.Moves[i])
		nodes += perft(p, depth-1)
		p.UnmakeMove(ml.Moves[i], undo)
	}
	return nodes
}

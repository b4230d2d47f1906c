package engine

import (
	"time"

	"github.com/hailam/shogiplay/internal/shogi"
)

// Limits contains the time control parameters of a "go" command.
type Limits struct {
	Time      [2]time.Duration // btime, wtime (remaining time per color)
	Inc       [2]time.Duration // binc, winc (increment per move)
	Byoyomi   time.Duration    // fixed thinking time once main time runs out
	MoveTime  time.Duration    // fixed time per move (overrides the rest)
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
	MovesToGo int              // moves until next time control (0 = none)
}

// TimeManager handles time allocation for searches.
type TimeManager struct {
	baseOptimum time.Duration // Init-time target, adjustments rescale from here
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Maximum time allowed
	startTime   time.Time     // When search started
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number).
func (tm *TimeManager) Init(limits Limits, us shogi.Color, ply int) {
	tm.startTime = time.Now()

	// Fixed move time mode
	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		tm.baseOptimum = tm.optimumTime
		return
	}

	// Infinite or depth-limited mode
	if limits.Infinite || (limits.Time[us] == 0 && limits.Byoyomi == 0) {
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		tm.baseOptimum = tm.optimumTime
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	// Pure byoyomi: main time is gone, spend the period but keep a
	// safety slice so the flag never falls.
	if timeLeft == 0 {
		tm.optimumTime = limits.Byoyomi * 80 / 100
		tm.maximumTime = limits.Byoyomi * 95 / 100
		tm.baseOptimum = tm.optimumTime
		return
	}

	// Estimate moves to go. Shogi games run longer than chess games,
	// and the middlegame is where time matters.
	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = 60 - ply/4
		if mtg < 14 {
			mtg = 14
		}
		if mtg > 60 {
			mtg = 60
		}
	}

	baseTime := timeLeft / time.Duration(mtg)
	baseTime += inc * 9 / 10

	// Byoyomi is guaranteed every move once the main time is spent, so
	// a period's worth can be committed on top of the base share.
	baseTime += limits.Byoyomi * 8 / 10

	tm.optimumTime = baseTime
	if ply < 16 {
		tm.optimumTime = baseTime * 85 / 100
	}

	// Maximum time: 5x optimum or 80% of remaining plus the byoyomi
	// period, whichever is smaller.
	maxFromOptimum := tm.optimumTime * 5
	maxFromRemaining := timeLeft*8/10 + limits.Byoyomi

	if maxFromOptimum < maxFromRemaining {
		tm.maximumTime = maxFromOptimum
	} else {
		tm.maximumTime = maxFromRemaining
	}

	safetyMargin := timeLeft*95/100 + limits.Byoyomi*95/100
	if tm.maximumTime > safetyMargin {
		tm.maximumTime = safetyMargin
	}

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
	tm.baseOptimum = tm.optimumTime
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop returns true if we should stop searching.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximumTime
}

// PastOptimum returns true if we've exceeded the optimum time.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}

// AdjustForStability shortens the target when the best move has been
// stable for several depths in a row. The factor applies to the
// Init-time base, so repeated calls at the same stability level leave
// the target unchanged.
func (tm *TimeManager) AdjustForStability(stability int) {
	factor := 100
	switch {
	case stability >= 6:
		factor = 40
	case stability >= 4:
		factor = 60
	case stability >= 2:
		factor = 80
	}
	tm.optimumTime = tm.baseOptimum * time.Duration(factor) / 100
	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
}

// AdjustForInstability stretches the target when the best move keeps
// changing between depths. Like AdjustForStability, the factor applies
// to the Init-time base.
func (tm *TimeManager) AdjustForInstability(changes int) {
	factor := 100
	switch {
	case changes >= 4:
		factor = 200
	case changes >= 2:
		factor = 150
	}
	tm.optimumTime = tm.baseOptimum * time.Duration(factor) / 100
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
}

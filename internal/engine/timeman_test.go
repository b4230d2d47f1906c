package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hailam/shogiplay/internal/shogi"
)

func TestTimeManagerFixedMoveTime(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(Limits{MoveTime: 3 * time.Second}, shogi.Black, 1)

	require.Equal(t, 3*time.Second, tm.OptimumTime())
	require.Equal(t, 3*time.Second, tm.MaximumTime())
}

func TestTimeManagerInfinite(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(Limits{Infinite: true}, shogi.Black, 1)

	require.Equal(t, time.Hour, tm.OptimumTime())
	require.False(t, tm.ShouldStop())
}

func TestTimeManagerPureByoyomi(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(Limits{Byoyomi: 10 * time.Second}, shogi.Black, 40)

	// The whole period may be spent, minus a safety slice.
	require.LessOrEqual(t, tm.MaximumTime(), 10*time.Second*95/100)
	require.LessOrEqual(t, tm.OptimumTime(), tm.MaximumTime())
	require.Greater(t, tm.OptimumTime(), 5*time.Second)
}

func TestTimeManagerMainTimeBudget(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{}
	limits.Time[shogi.White] = 10 * time.Minute
	tm.Init(limits, shogi.White, 30)

	// Never commit anywhere near the full clock to one move.
	require.Less(t, tm.MaximumTime(), 10*time.Minute/2)
	require.Greater(t, tm.OptimumTime(), time.Duration(0))
	require.LessOrEqual(t, tm.OptimumTime(), tm.MaximumTime())
}

func TestTimeManagerStability(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{}
	limits.Time[shogi.Black] = time.Minute
	tm.Init(limits, shogi.Black, 30)

	before := tm.OptimumTime()
	tm.AdjustForStability(6)
	require.Less(t, tm.OptimumTime(), before)

	tm.AdjustForInstability(4)
	require.LessOrEqual(t, tm.OptimumTime(), tm.MaximumTime())
	require.GreaterOrEqual(t, tm.OptimumTime(), before)
}

func TestTimeManagerAdjustmentsDoNotCompound(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{}
	limits.Time[shogi.Black] = time.Minute
	tm.Init(limits, shogi.Black, 30)

	base := tm.OptimumTime()

	// Repeated calls at the same stability level must settle on one
	// target instead of shrinking it toward zero.
	tm.AdjustForStability(6)
	want := tm.OptimumTime()
	for i := 0; i < 20; i++ {
		tm.AdjustForStability(6)
	}
	require.Equal(t, want, tm.OptimumTime())
	require.Equal(t, base*40/100, tm.OptimumTime())

	// Dropping back to low stability restores the full base target.
	tm.AdjustForStability(0)
	require.Equal(t, base, tm.OptimumTime())

	// Instability stretches from the base too, never stacking.
	tm.AdjustForInstability(4)
	want = tm.OptimumTime()
	for i := 0; i < 20; i++ {
		tm.AdjustForInstability(4)
	}
	require.Equal(t, want, tm.OptimumTime())
	require.LessOrEqual(t, tm.OptimumTime(), tm.MaximumTime())
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/value"
)

func TestScheduler_NothingToDo(t *testing.T) {
	s := NewScheduler()
	more, err := s.Simulate()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 0.0, s.Now())
	assert.Equal(t, int64(0), s.Ticks())
}

func TestScheduler_CascadeReachesFixpointWithinOneTick(t *testing.T) {
	obs := &recordingObserver{}
	sc := newTestScene(t, WithObserver(obs))
	a := mustNode(t, sc, "Probe", "a")
	b := mustNode(t, sc, "Probe", "b")
	c := mustNode(t, sc, "Probe", "c")

	_, err := sc.AddRoute("a", "out", "b", "set_value")
	require.NoError(t, err)
	_, err = sc.AddRoute("b", "value_changed", "c", "in")
	require.NoError(t, err)

	_, err = a.MustField("out").Send(value.SFFloat(0.5))
	require.NoError(t, err)

	more, err := sc.Scheduler().Simulate()
	require.NoError(t, err)
	assert.False(t, more)

	assert.Equal(t, []value.Value{value.SFFloat(0.5)}, probeOf(c).received)
	assert.Equal(t, value.SFFloat(0.5), b.MustField("value").UnsafeGet())
	assert.Equal(t, []string{"a.out", "b.value"}, obs.fired)
	require.Len(t, obs.ticks, 1)
	assert.Equal(t, TickStats{Time: 0, Rounds: 1, Events: 0, FieldEvents: 2}, obs.ticks[0])

	assert.False(t, a.MustField("out").IsDirty())
	assert.False(t, b.MustField("value").IsDirty())
}

func TestScheduler_FeedbackLoopSettles(t *testing.T) {
	sc := newTestScene(t)
	a := mustNode(t, sc, "Probe", "a")
	b := mustNode(t, sc, "Probe", "b")
	_, err := sc.AddRoute("a", "value", "b", "value")
	require.NoError(t, err)
	_, err = sc.AddRoute("b", "value", "a", "value")
	require.NoError(t, err)

	require.NoError(t, a.MustField("value").Set(value.SFFloat(1)))
	_, err = sc.Scheduler().Simulate()
	require.NoError(t, err)

	assert.Equal(t, value.SFFloat(1), a.MustField("value").UnsafeGet())
	assert.Equal(t, value.SFFloat(1), b.MustField("value").UnsafeGet())
	assert.Equal(t, 1, probeOf(a).actions, "the echo back to a is dropped")
	assert.Equal(t, 1, probeOf(b).actions)
}

func TestScheduler_EventsInTimeOrder(t *testing.T) {
	sc := newTestScene(t)
	tk := mustNode(t, sc, "Ticker", "clock")
	require.NoError(t, sc.AddRoot(tk))
	s := sc.Scheduler()

	s.Schedule(2, tk)
	s.Schedule(1, tk)
	s.Wake(1.5)
	s.Schedule(1, tk)

	more, err := s.Simulate()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1.0, s.Now())
	assert.Equal(t, []float64{1, 1}, tickerOf(tk).evals, "both events due at t=1 run in one tick")
	assert.Equal(t, 1, tickerOf(tk).inits)

	more, err = s.Simulate()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1.5, s.Now())

	more, err = s.Simulate()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 2.0, s.Now())
	assert.Equal(t, []float64{1, 1, 2}, tickerOf(tk).evals)
	assert.Equal(t, int64(3), s.Ticks())
}

func TestScheduler_TimeNeverRunsBackwards(t *testing.T) {
	sc := newTestScene(t, WithStartTime(5))
	tk := mustNode(t, sc, "Ticker", "clock")
	require.NoError(t, sc.AddRoot(tk))

	sc.Scheduler().Schedule(3, tk)
	_, err := sc.Scheduler().Simulate()
	require.NoError(t, err)
	assert.Equal(t, 5.0, sc.Scheduler().Now())
	assert.Equal(t, []float64{5}, tickerOf(tk).evals)
}

func TestScheduler_TimeDependentRounds(t *testing.T) {
	sc := newTestScene(t)
	tk := mustNode(t, sc, "Ticker", "clock")
	require.NoError(t, sc.AddRoot(tk))
	tickerOf(tk).changeFor = 2

	sc.Scheduler().Wake(0)
	_, err := sc.Scheduler().Simulate()
	require.NoError(t, err)
	assert.Equal(t, 3, tickerOf(tk).ticks, "two changing rounds and one settled round")
}

func TestScheduler_RoundQuota(t *testing.T) {
	sc := newTestScene(t, WithMaxRounds(3))
	tk := mustNode(t, sc, "Ticker", "clock")
	require.NoError(t, sc.AddRoot(tk))
	tickerOf(tk).changeFor = -1

	sc.Scheduler().Wake(0)
	_, err := sc.Scheduler().Simulate()
	require.Error(t, err)
	assert.True(t, IsRoundQuotaError(err))
	assert.True(t, IsRoundsExceededError(err))
	assert.Equal(t, 3, tickerOf(tk).ticks)
}

func TestScheduler_DisposedSensorIsSkipped(t *testing.T) {
	sc := newTestScene(t)
	tk := mustNode(t, sc, "Ticker", "clock")
	require.NoError(t, sc.AddRoot(tk))
	s := sc.Scheduler()
	s.Schedule(1, tk)

	sc.DisposeNode(tk)
	more, err := s.Simulate()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Empty(t, tickerOf(tk).evals)
	assert.Zero(t, tickerOf(tk).inits)
	assert.Empty(t, s.Roots())
}

func TestScheduler_RootsRealizeReferencedNodes(t *testing.T) {
	sc := newTestScene(t)
	parent := mustNode(t, sc, "Probe", "parent")
	child := mustNode(t, sc, "Probe", "")
	grandchild := mustNode(t, sc, "Ticker", "")
	require.NoError(t, parent.MustField("children").Set(value.MFNode{{Node: child}}))
	require.NoError(t, child.MustField("children").Set(value.MFNode{{Node: grandchild}, {Node: parent}}))
	require.NoError(t, sc.AddRoot(parent))

	assert.True(t, sc.Scheduler().HasWork())
	_, err := sc.Scheduler().Simulate()
	require.NoError(t, err)

	assert.True(t, parent.IsRealized())
	assert.True(t, child.IsRealized())
	assert.True(t, grandchild.IsRealized())
	assert.Equal(t, 1, tickerOf(grandchild).inits)

	late := mustNode(t, sc, "Probe", "late")
	require.NoError(t, sc.AddRoot(late))
	assert.True(t, late.IsRealized(), "roots added after the first tick realize at once")
}

func TestScheduler_QueueOrdering(t *testing.T) {
	var q eventQueue
	clock := NewClock()
	for _, tm := range []float64{3, 1, 2, 1} {
		q.push(event{time: tm, seq: clock.Next()})
	}
	next, ok := q.peek()
	require.True(t, ok)
	assert.Equal(t, 1.0, next.time)

	var got []int64
	for q.Len() > 0 {
		got = append(got, q.pop().seq)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, got)
	assert.Equal(t, int64(4), clock.Current())
}

func TestRoundQuota(t *testing.T) {
	q := NewRoundQuota(2)
	require.NoError(t, q.Check(0))
	require.NoError(t, q.Check(0))

	err := q.Check(1.5)
	var re *RoundsExceededError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Rounds)
	assert.Equal(t, 2, re.Limit)
	assert.Contains(t, re.Error(), "t=1.5")

	q.Reset()
	assert.Zero(t, q.Current())
	assert.Equal(t, 2, q.MaxRounds())
}

func TestClock(t *testing.T) {
	c := NewClockAt(10)
	assert.Equal(t, int64(10), c.Current())
	assert.Equal(t, int64(11), c.Next())
	assert.Equal(t, int64(11), c.Current())
}

func TestScheduler_RunUntil(t *testing.T) {
	sc := newTestScene(t)
	n := mustNode(t, sc, "Ticker", "tk")
	require.NoError(t, sc.AddRoot(n))
	s := sc.Scheduler()
	for _, at := range []float64{2, 1, 5} {
		s.Schedule(at, n)
	}

	ticks, err := s.RunUntil(3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 3.0, s.Now())
	assert.Equal(t, []float64{1, 2}, tickerOf(n).evals)

	next, ok := s.NextEventTime()
	require.True(t, ok)
	assert.Equal(t, 5.0, next)
}

func TestScheduler_RunUntilTickLimit(t *testing.T) {
	sc := newTestScene(t)
	n := mustNode(t, sc, "Ticker", "tk")
	require.NoError(t, sc.AddRoot(n))
	s := sc.Scheduler()
	s.Schedule(1, n)
	s.Schedule(2, n)

	ticks, err := s.RunUntil(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 2.0, s.Now())
}

func TestScheduler_RunUntilPast(t *testing.T) {
	s := NewScheduler(WithStartTime(4))

	ticks, err := s.RunUntil(1, 0)
	require.NoError(t, err)
	assert.Zero(t, ticks)
	assert.Equal(t, 4.0, s.Now())
	assert.Zero(t, s.QueueLen())
}

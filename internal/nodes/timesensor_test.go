package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

func TestTimeSensor_LoopingCycleReportsOneAtBoundary(t *testing.T) {
	sc, obs := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"loop": value.SFBool(true),
	})
	require.NoError(t, sc.AddRoot(clock))

	assert.True(t, simulate(t, sc))
	assert.Equal(t, 0.0, sc.Scheduler().Now())
	assert.Equal(t, []string{
		"Clock.isActive=TRUE",
		"Clock.time=0",
		"Clock.fraction_changed=0",
		"Clock.elapsedTime=0",
	}, obs.at(0))

	assert.True(t, simulate(t, sc))
	assert.Equal(t, 1.0, sc.Scheduler().Now())
	assert.Equal(t, []string{
		"Clock.time=1",
		"Clock.cycleTime=1",
		"Clock.fraction_changed=1",
		"Clock.elapsedTime=1",
	}, obs.at(1))

	assert.True(t, simulate(t, sc))
	assert.Equal(t, 2.0, sc.Scheduler().Now())
	assert.Contains(t, obs.at(2), "Clock.cycleTime=2")
	assert.Contains(t, obs.at(2), "Clock.fraction_changed=1")
}

func TestTimeSensor_ForcedStopWithoutLoop(t *testing.T) {
	sc, obs := newScene(t, engine.WithStartTime(2.5))
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(2),
	})
	require.NoError(t, sc.AddRoot(clock))

	more := simulate(t, sc)
	assert.False(t, more, "a stopped sensor schedules nothing")
	assert.Equal(t, []string{"Clock.isActive=FALSE"}, obs.at(2.5))
	assert.Equal(t, value.SFBool(false), clock.MustField("isActive").UnsafeGet())
}

func TestTimeSensor_StopWhilePausedIsFatal(t *testing.T) {
	sc, obs := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(10),
		"pauseTime":     value.SFTime(0.5),
	})
	require.NoError(t, sc.AddRoot(clock))

	simulate(t, sc)
	simulate(t, sc)
	assert.Equal(t, 0.5, sc.Scheduler().Now())
	assert.Equal(t, []string{"Clock.isPaused=TRUE"}, obs.at(0.5))

	require.NoError(t, clock.MustField("stopTime").Set(value.SFTime(0.75)))
	_, err := sc.Scheduler().Simulate()
	require.Error(t, err)
	assert.True(t, engine.IsInvalidConfiguration(err))
	assert.Contains(t, err.Error(), "stopped while paused")
}

func TestTimeSensor_PauseAndResume(t *testing.T) {
	sc, obs := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(10),
		"pauseTime":     value.SFTime(0.5),
	})
	require.NoError(t, sc.AddRoot(clock))
	simulate(t, sc)
	simulate(t, sc)

	require.NoError(t, clock.MustField("resumeTime").Set(value.SFTime(0.8)))
	simulate(t, sc)
	assert.Equal(t, 0.8, sc.Scheduler().Now())

	events := obs.at(0.8)
	assert.Contains(t, events, "Clock.isPaused=FALSE")
	frac, err := value.As[value.SFFloat](clock.MustField("fraction_changed").UnsafeGet())
	require.NoError(t, err)
	assert.InDelta(t, 0.05, float64(frac), 1e-6, "paused time does not count")

	assert.Equal(t, value.SFTime(0.5), clock.MustField("elapsedTime").UnsafeGet())
}

func TestTimeSensor_ContinuousOutputOnOtherTicks(t *testing.T) {
	sc, _ := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(4),
		"loop":          value.SFBool(true),
	})
	require.NoError(t, sc.AddRoot(clock))
	simulate(t, sc)

	sc.Scheduler().Wake(1)
	simulate(t, sc)
	assert.Equal(t, value.SFFloat(0.25), clock.MustField("fraction_changed").UnsafeGet())
	assert.Equal(t, value.SFTime(1), clock.MustField("time").UnsafeGet())
}

func TestTimeSensor_DisableStopsActiveSensor(t *testing.T) {
	sc, obs := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"loop": value.SFBool(true),
	})
	require.NoError(t, sc.AddRoot(clock))
	simulate(t, sc)

	require.NoError(t, clock.MustField("enabled").Set(value.SFBool(false)))
	simulate(t, sc)

	assert.Equal(t, 1.0, sc.Scheduler().Now())
	assert.Equal(t, []string{"Clock.enabled=FALSE", "Clock.isActive=FALSE"}, obs.at(1))
}

func TestTimeSensor_ForcedStopAfterStartingEarlier(t *testing.T) {
	sc, _ := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(2),
	})
	require.NoError(t, sc.AddRoot(clock))
	simulate(t, sc)
	require.Equal(t, value.SFBool(true), clock.MustField("isActive").UnsafeGet())

	// Evaluate past the end of the cycle without the wake-up at 2.
	ts := clock.Behavior().(*timeSensor)
	changed, err := ts.evaluate(2.5)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, value.SFBool(false), clock.MustField("isActive").UnsafeGet())
	assert.Equal(t, value.SFTime(0), clock.MustField("time").UnsafeGet(), "no continuous output once stopped")
}

func TestTimeSensor_TriggerReconciliation(t *testing.T) {
	tests := []struct {
		name    string
		start   float64 // scheduler start time
		fields  map[string]float64
		until   float64
		active  bool
		paused  bool
		outputs bool // check fraction_changed and elapsedTime
		frac    float64
		elapsed float64
	}{
		{
			name:   "start before stop crossed together drops both",
			start:  5,
			fields: map[string]float64{"startTime": 1, "stopTime": 3},
			until:  5,
		},
		{
			name:    "stop before start crossed together starts",
			start:   5,
			fields:  map[string]float64{"startTime": 3, "stopTime": 1},
			until:   5,
			active:  true,
			outputs: true, frac: 0.2, elapsed: 2,
		},
		{
			name:    "stop at the start instant is ignored",
			fields:  map[string]float64{"startTime": 2, "stopTime": 2},
			until:   2,
			active:  true,
			outputs: true, frac: 0, elapsed: 0,
		},
		{
			name:    "pause before resume crossed together drops both",
			start:   6,
			fields:  map[string]float64{"startTime": 1, "pauseTime": 3, "resumeTime": 5},
			until:   6,
			active:  true,
			outputs: true, frac: 0.5, elapsed: 5,
		},
		{
			name:   "pause with a later resume pauses",
			fields: map[string]float64{"pauseTime": 3, "resumeTime": 5},
			until:  3,
			active: true,
			paused: true,
		},
		{
			name:    "paused window does not count",
			fields:  map[string]float64{"pauseTime": 3, "resumeTime": 5},
			until:   7,
			active:  true,
			outputs: true, frac: 0.5, elapsed: 5,
		},
		{
			name:    "pause crossed between evaluations stops time at its instant",
			start:   4,
			fields:  map[string]float64{"startTime": 1, "pauseTime": 3, "resumeTime": 6},
			until:   8,
			active:  true,
			outputs: true, frac: 0.4, elapsed: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newScene(t, engine.WithStartTime(tt.start))
			init := map[string]value.Value{
				"cycleInterval": value.SFTime(10),
				"loop":          value.SFBool(true),
			}
			for k, v := range tt.fields {
				init[k] = value.SFTime(v)
			}
			clock := create(t, sc, TimeSensor, "Clock", init)
			require.NoError(t, sc.AddRoot(clock))

			_, err := sc.Scheduler().RunUntil(tt.until, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.until, sc.Scheduler().Now())

			assert.Equal(t, value.SFBool(tt.active), clock.MustField("isActive").UnsafeGet(), "isActive")
			assert.Equal(t, value.SFBool(tt.paused), clock.MustField("isPaused").UnsafeGet(), "isPaused")
			if !tt.outputs {
				return
			}
			frac, err := value.As[value.SFFloat](clock.MustField("fraction_changed").UnsafeGet())
			require.NoError(t, err)
			assert.InDelta(t, tt.frac, float64(frac), 1e-6, "fraction_changed")
			elapsed, err := value.As[value.SFTime](clock.MustField("elapsedTime").UnsafeGet())
			require.NoError(t, err)
			assert.InDelta(t, tt.elapsed, float64(elapsed), 1e-6, "elapsedTime")
		})
	}
}

func TestTimeSensor_StopBeforeLaterStart(t *testing.T) {
	sc, obs := newScene(t)
	clock := create(t, sc, TimeSensor, "Clock", map[string]value.Value{
		"cycleInterval": value.SFTime(10),
		"loop":          value.SFBool(true),
	})
	require.NoError(t, sc.AddRoot(clock))
	simulate(t, sc)

	require.NoError(t, clock.MustField("startTime").Set(value.SFTime(3)))
	require.NoError(t, clock.MustField("stopTime").Set(value.SFTime(2)))

	_, err := sc.Scheduler().RunUntil(2, 0)
	require.NoError(t, err)
	assert.Contains(t, obs.at(2), "Clock.isActive=FALSE")
	assert.NotContains(t, obs.at(2), "Clock.fraction_changed=0.2")
	assert.Equal(t, value.SFBool(false), clock.MustField("isActive").UnsafeGet())

	_, err = sc.Scheduler().RunUntil(3, 0)
	require.NoError(t, err)
	assert.Contains(t, obs.at(3), "Clock.isActive=TRUE")
}

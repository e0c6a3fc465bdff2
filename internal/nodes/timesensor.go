package nodes

import (
	"math"
	"sort"

	"github.com/roach88/scenecore/internal/engine"
	"github.com/roach88/scenecore/internal/value"
)

// trigger kinds, in field declaration order.
const (
	trigStart = iota
	trigStop
	trigPause
	trigResume
	numTriggers
)

var triggerFields = [numTriggers]string{"startTime", "stopTime", "pauseTime", "resumeTime"}

// timeWatcher is implemented by behaviors that react to changes of the
// X3DTimeDependentNode time fields.
type timeWatcher interface {
	timeChanged(n *engine.Node, trig int, at float64)
}

func defineTimeDependent(child *engine.NodeType) (*engine.NodeType, error) {
	fields := []*engine.FieldDescriptor{
		field("loop", value.KindSFBool, engine.AccessInputOutput, nil),
	}
	for trig, name := range triggerFields {
		fields = append(fields, withAction(
			field(name, value.KindSFTime, engine.AccessInputOutput, nil),
			func(f *engine.Field, v value.Value) error {
				if w, ok := f.Node().Behavior().(timeWatcher); ok {
					w.timeChanged(f.Node(), trig, float64(v.(value.SFTime)))
				}
				return nil
			},
		))
	}
	fields = append(fields,
		field("elapsedTime", value.KindSFTime, engine.AccessOutputOnly, nil),
		field("isPaused", value.KindSFBool, engine.AccessOutputOnly, nil),
	)
	return define(engine.NewAbstractNodeType(X3DTimeDependentNode, child), fields...)
}

func defineTimeSensor(timeDep, sensor *engine.NodeType) (*engine.NodeType, error) {
	nt := engine.NewNodeType(TimeSensor, timeDep, sensor)
	nt.SetBehavior(newTimeSensor)
	return define(nt,
		field("cycleInterval", value.KindSFTime, engine.AccessInputOutput, value.SFTime(1)),
		field("cycleTime", value.KindSFTime, engine.AccessOutputOnly, nil),
		field("fraction_changed", value.KindSFFloat, engine.AccessOutputOnly, nil),
		field("time", value.KindSFTime, engine.AccessOutputOnly, nil),
	)
}

// timeSensor drives a TimeSensor node.
//
// Each evaluation at time now reconciles the start, stop, pause and resume
// instants crossed since the previous evaluation, advances the elapsed
// cycle time, and emits the continuous outputs while active and unpaused.
type timeSensor struct {
	node  *engine.Node
	sched *engine.Scheduler

	enabled  *engine.Field
	loop     *engine.Field
	interval *engine.Field
	times    [numTriggers]*engine.Field

	isActive    *engine.Field
	isPaused    *engine.Field
	cycleTime   *engine.Field
	elapsedTime *engine.Field
	fraction    *engine.Field
	timeOut     *engine.Field

	active   bool
	paused   bool
	cycle    float64 // cycleInterval captured at start
	startAt  float64
	elapsed  float64 // time into the current cycle
	total    float64 // active, unpaused time since start
	lastTime float64

	fresh   [numTriggers]bool // time fields changed since the last evaluation
	recheck bool
	woken   bool
}

func newTimeSensor(n *engine.Node) (any, error) {
	ts := &timeSensor{
		node:        n,
		sched:       n.Scheduler(),
		enabled:     n.MustField("enabled"),
		loop:        n.MustField("loop"),
		interval:    n.MustField("cycleInterval"),
		isActive:    n.MustField("isActive"),
		isPaused:    n.MustField("isPaused"),
		cycleTime:   n.MustField("cycleTime"),
		elapsedTime: n.MustField("elapsedTime"),
		fraction:    n.MustField("fraction_changed"),
		timeOut:     n.MustField("time"),
		lastTime:    math.Inf(-1),
	}
	for i, name := range triggerFields {
		ts.times[i] = n.MustField(name)
	}
	return ts, nil
}

func timeValue(f *engine.Field) float64 {
	t, _ := value.As[value.SFTime](f.UnsafeGet())
	return float64(t)
}

func boolValue(f *engine.Field) bool {
	b, _ := value.As[value.SFBool](f.UnsafeGet())
	return bool(b)
}

// InitSensor schedules an evaluation now and at every future trigger instant.
func (ts *timeSensor) InitSensor(n *engine.Node) error {
	now := ts.sched.Now()
	ts.sched.Schedule(now, n)
	for _, f := range ts.times {
		if at := timeValue(f); at > now {
			ts.sched.Schedule(at, n)
		}
	}
	return nil
}

// Evaluate runs on a scheduled event.
func (ts *timeSensor) Evaluate(n *engine.Node) error {
	ts.woken = true
	if !ts.due() {
		return nil
	}
	_, err := ts.evaluate(ts.sched.Now())
	return err
}

// Tick evaluates whenever time has moved or an input changed.
func (ts *timeSensor) Tick(n *engine.Node) (bool, error) {
	if !ts.due() {
		return false, nil
	}
	return ts.evaluate(ts.sched.Now())
}

func (ts *timeSensor) due() bool {
	if ts.sched.Now() > ts.lastTime || ts.recheck {
		return true
	}
	for _, f := range ts.fresh {
		if f {
			return true
		}
	}
	return false
}

func (ts *timeSensor) enabledChanged(n *engine.Node) {
	ts.recheck = true
}

func (ts *timeSensor) timeChanged(n *engine.Node, trig int, at float64) {
	ts.fresh[trig] = true
	if at > ts.sched.Now() {
		ts.sched.Schedule(at, n)
	}
}

type output struct {
	f *engine.Field
	v value.Value
}

type trigger struct {
	kind int
	at   float64
}

// candidates returns the triggers crossed in (lastTime, now], after
// redundancy elimination, sorted by instant. A time field changed since the
// last evaluation also counts when its instant equals lastTime.
func (ts *timeSensor) candidates(now float64) []trigger {
	var at [numTriggers]float64
	var hit [numTriggers]bool
	for i, f := range ts.times {
		at[i] = timeValue(f)
		crossed := at[i] > ts.lastTime || (ts.fresh[i] && at[i] >= ts.lastTime)
		hit[i] = crossed && at[i] <= now
	}
	// A start/stop or pause/resume pair crossed together with the first
	// instant not after the second is a window already over: drop both.
	// A stop at the very instant of its start is ignored instead, so the
	// default stopTime of 0 never cancels a start at 0.
	if hit[trigStart] && hit[trigStop] {
		switch {
		case at[trigStart] == at[trigStop]:
			hit[trigStop] = false
		case at[trigStart] < at[trigStop]:
			hit[trigStart], hit[trigStop] = false, false
		}
	}
	if hit[trigPause] && hit[trigResume] && at[trigPause] <= at[trigResume] {
		hit[trigPause], hit[trigResume] = false, false
	}

	var out []trigger
	for i := range hit {
		if hit[i] {
			out = append(out, trigger{kind: i, at: at[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

func (ts *timeSensor) stopWhilePaused() error {
	err := engine.NewInvalidConfigurationError("TimeSensor stopped while paused")
	err.Node = ts.node.Name()
	err.Field = "stopTime"
	return err
}

// evaluate runs the state machine at time now and reports whether any
// output changed.
func (ts *timeSensor) evaluate(now float64) (bool, error) {
	ts.recheck = false
	defer func() { ts.fresh = [numTriggers]bool{} }()

	var activeChanged, pausedChanged bool

	if !boolValue(ts.enabled) {
		if ts.active {
			ts.active = false
			activeChanged = true
			if ts.paused {
				ts.paused = false
				pausedChanged = true
			}
		}
		ts.lastTime = now
		return ts.emitState(activeChanged, pausedChanged)
	}

	// Running time accrues between triggers, so a pause or resume crossed
	// since the last evaluation splits the interval at its instant.
	mark := ts.lastTime
	for _, c := range ts.candidates(now) {
		ts.accrue(mark, c.at)
		if c.at > mark {
			mark = c.at
		}
		switch c.kind {
		case trigStart:
			if ts.active {
				continue
			}
			cycle := timeValue(ts.interval)
			if cycle <= 0 {
				err := engine.NewInvalidConfigurationError("cycleInterval must be positive, got %g", cycle)
				err.Node = ts.node.Name()
				err.Field = "cycleInterval"
				return false, err
			}
			ts.active = true
			ts.cycle = cycle
			ts.startAt = c.at
			ts.elapsed = 0
			ts.total = 0
			activeChanged = true
		case trigStop:
			if !ts.active {
				continue
			}
			if ts.paused {
				return false, ts.stopWhilePaused()
			}
			ts.active = false
			activeChanged = true
		case trigPause:
			if !ts.active || ts.paused {
				continue
			}
			ts.paused = true
			pausedChanged = true
		case trigResume:
			if !ts.paused {
				continue
			}
			if !ts.active {
				err := engine.NewInvalidConfigurationError("TimeSensor resumed while inactive")
				err.Node = ts.node.Name()
				err.Field = "resumeTime"
				return false, err
			}
			ts.paused = false
			pausedChanged = true
		}
	}
	ts.accrue(mark, now)

	if ts.active && !boolValue(ts.loop) && ts.elapsed >= ts.cycle {
		if ts.paused {
			return false, ts.stopWhilePaused()
		}
		ts.active = false
		activeChanged = true
	}

	changed, err := ts.emitState(activeChanged, pausedChanged)
	if err != nil {
		return false, err
	}
	if !ts.active || ts.paused {
		ts.lastTime = now
		return changed, nil
	}

	outs := []output{{ts.timeOut, value.SFTime(now)}}
	restarted := false
	if ts.elapsed >= ts.cycle {
		ts.elapsed = math.Mod(ts.elapsed, ts.cycle)
		restarted = true
		outs = append(outs, output{ts.cycleTime, value.SFTime(now)})
	}
	frac := ts.elapsed / ts.cycle
	if frac == 0 && now > ts.startAt {
		frac = 1
	}
	outs = append(outs,
		output{ts.fraction, value.SFFloat(frac)},
		output{ts.elapsedTime, value.SFTime(ts.total)},
	)
	for _, o := range outs {
		c, err := emit(o.f, o.v)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}

	if restarted || ts.woken {
		ts.sched.Schedule(now+ts.cycle-ts.elapsed, ts.node)
		ts.woken = false
	}
	ts.lastTime = now
	return changed, nil
}

// accrue adds the running time in (from, to] to the cycle and total
// elapsed time.
func (ts *timeSensor) accrue(from, to float64) {
	if ts.active && !ts.paused && to > from {
		ts.elapsed += to - from
		ts.total += to - from
	}
}

func (ts *timeSensor) emitState(activeChanged, pausedChanged bool) (bool, error) {
	changed := false
	if activeChanged {
		c, err := emit(ts.isActive, value.SFBool(ts.active))
		if err != nil {
			return false, err
		}
		changed = c
	}
	if pausedChanged {
		c, err := emit(ts.isPaused, value.SFBool(ts.paused))
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

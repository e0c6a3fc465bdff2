package engine

import (
	"log/slog"
	"slices"
)

// Observer receives notifications from the scheduler. Observers must not
// write fields; they run in the middle of a cascade.
type Observer interface {
	// FieldFired is called once for each dirty field when its routes have
	// been activated, in cascade order.
	FieldFired(time float64, f *Field)
	// TickDone is called at the end of every tick that did work.
	TickDone(stats TickStats)
}

// TickStats summarizes one call to Simulate.
type TickStats struct {
	Time        float64
	Rounds      int
	Events      int
	FieldEvents int
}

// Scheduler is the discrete-event loop that drives a scene.
//
// One Simulate call is one tick: advance time to the earliest queued event,
// then repeat rounds of (deliver due events, cascade dirty fields through
// their routes, tick time-dependent nodes) until nothing is due and nothing
// changed. Dirty flags are cleared when the tick ends, so each field fires
// at most once per tick.
//
// The scheduler is single-threaded and run-to-completion: nothing in it is
// safe for concurrent use.
type Scheduler struct {
	now   float64
	clock *Clock
	queue eventQueue

	roots         []*Node
	rootsRealized bool
	pending       []*Node // sensors awaiting InitSensor
	timeDeps      []*Node

	toRoute []*Field
	fired   []*Field

	maxRounds int
	observers []Observer
	ticks     int64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithStartTime sets the initial simulation time.
func WithStartTime(t float64) SchedulerOption {
	return func(s *Scheduler) {
		s.now = t
	}
}

// WithMaxRounds sets the inner-loop round quota per tick.
//
// Default: 10000 rounds (DefaultMaxRounds)
func WithMaxRounds(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxRounds = n
	}
}

// WithObserver attaches an observer. Observers are notified in the order
// they were added.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) {
		s.observers = append(s.observers, o)
	}
}

// NewScheduler creates an idle scheduler at time 0.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:     NewClock(),
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current simulation time.
func (s *Scheduler) Now() float64 { return s.now }

// Ticks returns the number of ticks that did work.
func (s *Scheduler) Ticks() int64 { return s.ticks }

// AddObserver attaches an observer after construction.
func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Schedule queues an evaluation of sensor at time t. A nil sensor only
// wakes the scheduler.
func (s *Scheduler) Schedule(t float64, sensor *Node) {
	s.queue.push(event{time: t, seq: s.clock.Next(), sensor: sensor})
}

// Wake queues a pure wake-up at time t.
func (s *Scheduler) Wake(t float64) {
	s.Schedule(t, nil)
}

// AddRoot marks n as a root, realized on the first Simulate.
// A root added after that is realized immediately.
func (s *Scheduler) AddRoot(n *Node) error {
	if !slices.Contains(s.roots, n) {
		s.roots = append(s.roots, n)
	}
	if s.rootsRealized {
		return n.Realize()
	}
	return nil
}

// Roots returns the root nodes in insertion order.
func (s *Scheduler) Roots() []*Node { return s.roots }

// NextEventTime returns the time of the earliest queued event.
func (s *Scheduler) NextEventTime() (float64, bool) {
	e, ok := s.queue.peek()
	return e.time, ok
}

// QueueLen returns the number of queued events.
func (s *Scheduler) QueueLen() int { return s.queue.Len() }

// HasWork reports whether a Simulate call would do anything.
func (s *Scheduler) HasWork() bool {
	return s.queue.Len() > 0 || len(s.toRoute) > 0 || len(s.pending) > 0 ||
		(!s.rootsRealized && len(s.roots) > 0)
}

// Simulate runs one tick and reports whether work remains afterwards.
// With nothing queued and nothing dirty it returns (false, nil) and leaves
// time unchanged.
func (s *Scheduler) Simulate() (bool, error) {
	if !s.rootsRealized {
		s.rootsRealized = true
		for _, r := range slices.Clone(s.roots) {
			if err := r.Realize(); err != nil {
				return false, err
			}
		}
	}
	if err := s.initSensors(); err != nil {
		return false, err
	}
	if s.queue.Len() == 0 && len(s.toRoute) == 0 {
		return false, nil
	}

	if next, ok := s.queue.peek(); ok && next.time > s.now {
		s.now = next.time
	}
	defer s.endTick()

	stats := TickStats{Time: s.now}
	quota := NewRoundQuota(s.maxRounds)
	for {
		if err := quota.Check(s.now); err != nil {
			slog.Error("tick did not settle",
				"time", s.now,
				"rounds", quota.Current(),
				"max_rounds", quota.MaxRounds(),
			)
			return false, &Error{
				Code:    ErrCodeRoundQuotaExceeded,
				Message: "tick exceeded round quota",
				Err:     err,
			}
		}
		stats.Rounds++

		for s.queue.due(s.now) {
			ev := s.queue.pop()
			stats.Events++
			if ev.sensor == nil || ev.sensor.state != StateRealized {
				continue
			}
			if sensor, ok := ev.sensor.behavior.(Sensor); ok {
				if err := sensor.Evaluate(ev.sensor); err != nil {
					return false, err
				}
			}
		}

		if err := s.cascade(&stats); err != nil {
			return false, err
		}

		changed := false
		for _, n := range slices.Clone(s.timeDeps) {
			if n.state != StateRealized {
				continue
			}
			c, err := n.behavior.(TimeDependent).Tick(n)
			if err != nil {
				return false, err
			}
			changed = changed || c
		}

		if !changed && len(s.toRoute) == 0 && !s.queue.due(s.now) {
			break
		}
	}

	s.ticks++
	slog.Debug("tick complete",
		"time", stats.Time,
		"rounds", stats.Rounds,
		"events", stats.Events,
		"field_events", stats.FieldEvents,
	)
	for _, o := range s.observers {
		o.TickDone(stats)
	}
	return s.HasWork(), nil
}

// cascade routes every dirty field, including fields dirtied while routing,
// and records each as fired.
func (s *Scheduler) cascade(stats *TickStats) error {
	for i := 0; i < len(s.toRoute); i++ {
		f := s.toRoute[i]
		if f.node.state == StateDisposed {
			continue
		}
		for _, r := range slices.Clone(f.out) {
			if err := r.Activate(); err != nil {
				return err
			}
		}
		s.fired = append(s.fired, f)
		stats.FieldEvents++
		for _, o := range s.observers {
			o.FieldFired(s.now, f)
		}
	}
	s.toRoute = s.toRoute[:0]
	return nil
}

// endTick clears dirty flags on every field touched this tick.
func (s *Scheduler) endTick() {
	for _, f := range s.fired {
		f.dirty = false
	}
	for _, f := range s.toRoute {
		f.dirty = false
	}
	s.fired = s.fired[:0]
	s.toRoute = s.toRoute[:0]
}

func (s *Scheduler) initSensors() error {
	if len(s.pending) == 0 {
		return nil
	}
	pending := s.pending
	s.pending = nil
	for _, n := range pending {
		if n.state != StateRealized {
			continue
		}
		if err := n.behavior.(Sensor).InitSensor(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) markDirty(f *Field) {
	s.toRoute = append(s.toRoute, f)
}

// register is called when a node is realized.
func (s *Scheduler) register(n *Node) {
	if _, ok := n.behavior.(Sensor); ok {
		s.pending = append(s.pending, n)
	}
	if _, ok := n.behavior.(TimeDependent); ok {
		s.timeDeps = append(s.timeDeps, n)
	}
}

// forget removes n from the node lists. Queued events naming n are skipped
// when they come due, and its fields are skipped by the cascade.
func (s *Scheduler) forget(n *Node) {
	isNode := func(x *Node) bool { return x == n }
	s.roots = slices.DeleteFunc(s.roots, isNode)
	s.pending = slices.DeleteFunc(s.pending, isNode)
	s.timeDeps = slices.DeleteFunc(s.timeDeps, isNode)
}

// Reset drops every queued event and work list so a new scene can be
// loaded. Simulation time is kept, so time never runs backwards.
func (s *Scheduler) Reset() {
	s.endTick()
	s.queue = nil
	s.roots = nil
	s.rootsRealized = false
	s.pending = nil
	s.timeDeps = nil
}

// RunUntil simulates every tick due at or before t and leaves time at t
// (or later, if time had already passed t). At most maxTicks ticks run;
// maxTicks <= 0 means no limit. It returns the number of ticks that did
// work.
func (s *Scheduler) RunUntil(t float64, maxTicks int) (int, error) {
	if t > s.now {
		s.Wake(t)
	}
	start := s.ticks
	for maxTicks <= 0 || int(s.ticks-start) < maxTicks {
		next, ok := s.NextEventTime()
		setup := len(s.pending) > 0 || (!s.rootsRealized && len(s.roots) > 0)
		if !setup && len(s.toRoute) == 0 && (!ok || next > t) {
			break
		}
		if _, err := s.Simulate(); err != nil {
			return int(s.ticks - start), err
		}
	}
	return int(s.ticks - start), nil
}

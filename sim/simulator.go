package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SimState tracks the lifecycle of a Simulation.
type SimState int

const (
	StateCreated SimState = iota
	StateInitialized
	StateRunning
	StateFinished
	StateResultified
)

// prioEnd sorts the horizon end-event after every regular event at the same
// instant.
const prioEnd = 1 << 30

// Component is the hook interface of everything living in a simulation.
// The Simulation drives the lifecycle of its root component; containers
// (the shop) forward each phase to their children in dependency order.
type Component interface {
	Init(s *Simulation)
	BeforeRun()
	AfterRun()
	ProduceResults(res map[string]any)
}

// Simulation is the discrete-event kernel: it owns the clock, the event
// heap and the notification bus, and drives the main loop. Strictly
// single-threaded; handlers run to completion between pops.
type Simulation struct {
	// SimLength is the simulation horizon in virtual time units. Zero means
	// no horizon: the run ends when the event heap drains.
	SimLength float64

	// Root is the top-level component, usually the shop.
	Root Component

	clock         float64
	seqCounter    uint64
	events        eventHeap
	notifier      *NotifierService
	state         SimState
	endRequested  bool
	numDispatched uint64
}

// NewSimulation creates an empty simulation in state Created.
func NewSimulation() *Simulation {
	return &Simulation{notifier: NewNotifierService()}
}

// SimTime returns the current virtual time. Monotone non-decreasing.
func (s *Simulation) SimTime() float64 { return s.clock }

// State returns the lifecycle state.
func (s *Simulation) State() SimState { return s.state }

// Notifier returns the simulation's notification bus.
func (s *Simulation) Notifier() *NotifierService { return s.notifier }

// Subscribe registers a listener on the bus.
func (s *Simulation) Subscribe(stream *EventStream, sub Subscriber) {
	s.notifier.Subscribe(stream, sub)
}

// Publish delivers a notification through the bus.
func (s *Simulation) Publish(source any, kind Notification) {
	s.notifier.Publish(source, kind)
}

// Schedule queues an event. Scheduling into the past is an invariant
// violation and panics with ErrPastEvent; the experiment driver converts
// the panic into an aborted run.
func (s *Simulation) Schedule(ev *Event) {
	if ev.time < s.clock {
		panic(fmt.Errorf("%w: event at %v, now %v", ErrPastEvent, ev.time, s.clock))
	}
	ev.cancelled = false
	s.seqCounter++
	ev.seq = s.seqCounter
	s.events.schedule(ev)
}

// ScheduleFunc creates and schedules an event in one step, returning it so
// the caller can cancel it later.
func (s *Simulation) ScheduleFunc(t float64, prio int, fn func()) *Event {
	ev := NewEvent(t, prio, fn)
	s.Schedule(ev)
	return ev
}

// Cancel invalidates a queued event. A cancelled event still in the heap is
// silently skipped if encountered by the main loop.
func (s *Simulation) Cancel(ev *Event) {
	ev.cancelled = true
	s.events.remove(ev)
}

// End requests a soft stop: the current handler completes, then the main
// loop exits before the next pop.
func (s *Simulation) End() {
	s.endRequested = true
}

// Init traverses the component tree in dependency order, letting every
// component set up its state and schedule initial events. If a horizon is
// set, the end event is scheduled last at SimLength.
func (s *Simulation) Init() {
	if s.state != StateCreated {
		panic(fmt.Sprintf("Init: simulation in state %d, want Created", s.state))
	}
	if s.Root != nil {
		s.Root.Init(s)
	}
	if s.SimLength > 0 {
		s.Schedule(NewEvent(s.SimLength, prioEnd, s.End))
	}
	s.state = StateInitialized
}

// Run executes the main event loop until the heap drains or a stop
// condition fires. Deterministic for a given seed, scenario and listener
// registration order.
func (s *Simulation) Run() {
	if s.state != StateInitialized {
		panic(fmt.Sprintf("Run: simulation in state %d, want Initialized", s.state))
	}
	s.state = StateRunning
	if s.Root != nil {
		s.Root.BeforeRun()
	}

	for s.events.Len() > 0 && !s.endRequested {
		ev := s.events.popNext()
		if ev.cancelled {
			continue
		}
		// advance the clock; the heap guarantees ev.time >= clock
		s.clock = ev.time
		s.numDispatched++
		logrus.Debugf("[t=%010.3f] dispatching event prio=%d seq=%d", s.clock, ev.prio, ev.seq)
		ev.Handler()
	}

	if s.Root != nil {
		s.Root.AfterRun()
	}
	s.state = StateFinished
	logrus.Debugf("[t=%010.3f] simulation ended after %d events", s.clock, s.numDispatched)
}

// Results collects the contributions of every component into a fresh result
// map and moves the simulation to its terminal state. The reserved key
// "simTime" holds the final clock value.
func (s *Simulation) Results() map[string]any {
	if s.state != StateFinished {
		panic(fmt.Sprintf("Results: simulation in state %d, want Finished", s.state))
	}
	res := make(map[string]any)
	if s.Root != nil {
		s.Root.ProduceResults(res)
	}
	AddResultOnce(res, "simTime", s.clock)
	s.state = StateResultified
	return res
}

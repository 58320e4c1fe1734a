package sim

// Event priority bands. Events at the same instant fire in ascending
// priority order: arrivals (high) before normal events (breakdowns, repairs,
// warm-up end), those before machine departures (low).
const (
	EventPrioHigh   = -100
	EventPrioNormal = 0
	EventPrioLow    = 100
)

// Event is a scheduled occurrence in virtual time. Events are plain structs
// so a handler can reuse its own event object: adjust the time with SetTime
// and schedule it again instead of allocating on the hot path (job sources
// and machine departures do exactly this).
type Event struct {
	time float64
	prio int

	// Handler is invoked by the main loop when the event fires.
	Handler func()

	seq       uint64 // insertion order, assigned by Simulation.Schedule
	heapIdx   int    // position in the event heap, -1 when not queued
	cancelled bool
}

// NewEvent creates an event for the given time and priority band.
func NewEvent(time float64, prio int, handler func()) *Event {
	return &Event{time: time, prio: prio, Handler: handler, heapIdx: -1}
}

// Time returns the instant the event is scheduled for.
func (e *Event) Time() float64 { return e.time }

// SetTime adjusts the event time. Only valid while the event is not queued,
// i.e. from inside its own handler before rescheduling.
func (e *Event) SetTime(t float64) { e.time = t }

// Prio returns the event's priority band.
func (e *Event) Prio() int { return e.prio }

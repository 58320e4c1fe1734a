package sim

import "reflect"

// EventStream identifies a family of notification kinds (job events,
// workstation events, ...). Streams are sentinel values: listeners subscribe
// to a stream and match individual kinds by comparing the typed constants a
// domain package defines for it.
type EventStream struct {
	name string
}

// NewEventStream creates a named stream sentinel. Domain packages call this
// once per event family, at package init.
func NewEventStream(name string) *EventStream {
	return &EventStream{name: name}
}

func (s *EventStream) String() string { return s.name }

// Notification is implemented by every notification kind. A kind knows the
// stream it belongs to; the bus routes on the stream, listeners switch on
// the kind value.
type Notification interface {
	Stream() *EventStream
}

// Subscriber receives notifications published on a stream it subscribed to.
type Subscriber interface {
	Inform(source any, kind Notification)
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(source any, kind Notification)

func (f SubscriberFunc) Inform(source any, kind Notification) { f(source, kind) }

type pendingNote struct {
	source any
	kind   Notification
}

// notifierAdapter holds the delivery state for one stream: its listener
// list in registration order, and the FIFO of notifications published while
// a fan-out on the same stream is still in progress.
type notifierAdapter struct {
	listeners []Subscriber
	firing    bool
	firePos   int // index of the next listener to inform during fan-out
	pending   []pendingNote
}

// NotifierService is the notification bus. It routes published kinds to the
// subscribers of their stream, in registration order. Publishing on a stream
// from inside a delivery on that same stream is queued and drained after the
// active fan-out completes, so causal order is preserved within the stream.
// A publish on another stream is delivered immediately, nested in the
// current delivery.
type NotifierService struct {
	adapters     map[*EventStream]*notifierAdapter
	disableCount int
}

// NewNotifierService creates an empty bus.
func NewNotifierService() *NotifierService {
	return &NotifierService{adapters: make(map[*EventStream]*notifierAdapter)}
}

func (ns *NotifierService) adapter(s *EventStream) *notifierAdapter {
	a := ns.adapters[s]
	if a == nil {
		a = &notifierAdapter{}
		ns.adapters[s] = a
	}
	return a
}

// Subscribe registers a listener for all kinds of the given stream.
// Subscribing while a notification on the same stream is being delivered
// panics with ErrConcurrentModification.
func (ns *NotifierService) Subscribe(s *EventStream, sub Subscriber) {
	if sub == nil {
		panic("Subscribe: sub must not be nil")
	}
	a := ns.adapter(s)
	if a.firing {
		panic(ErrConcurrentModification)
	}
	a.listeners = append(a.listeners, sub)
}

// Unsubscribe removes a listener from a stream. During delivery only the
// listener currently being informed may remove itself; removing any other
// listener mid-fan-out panics with ErrConcurrentModification.
func (ns *NotifierService) Unsubscribe(s *EventStream, sub Subscriber) {
	a := ns.adapter(s)
	for i, l := range a.listeners {
		if sameSubscriber(l, sub) {
			if a.firing {
				if i != a.firePos-1 {
					panic(ErrConcurrentModification)
				}
				a.firePos--
			}
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

// sameSubscriber compares two subscribers by identity. Func-typed
// subscribers are not comparable with ==, so those fall back to comparing
// code pointers.
func sameSubscriber(a, b Subscriber) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// NumListeners returns the subscriber count of a stream.
func (ns *NotifierService) NumListeners(s *EventStream) int {
	return len(ns.adapter(s).listeners)
}

// Publish delivers kind to every subscriber of its stream, in registration
// order. A no-op while events are disabled.
func (ns *NotifierService) Publish(source any, kind Notification) {
	if !ns.EventsEnabled() {
		return
	}
	a := ns.adapter(kind.Stream())
	if a.firing {
		// Published from inside a delivery on the same stream: queue it,
		// the outer fan-out drains the FIFO before returning.
		a.pending = append(a.pending, pendingNote{source, kind})
		return
	}

	a.firing = true
	defer func() {
		a.firing = false
		a.firePos = 0
	}()

	cur := pendingNote{source, kind}
	for {
		a.firePos = 0
		for a.firePos < len(a.listeners) {
			l := a.listeners[a.firePos]
			a.firePos++
			l.Inform(cur.source, cur.kind)
		}
		if len(a.pending) == 0 {
			return
		}
		cur = a.pending[0]
		a.pending = a.pending[1:]
	}
}

// DisableEvents suppresses all publishing until a matching EnableEvents.
// Calls nest.
func (ns *NotifierService) DisableEvents() {
	ns.disableCount++
}

// EnableEvents reverses one DisableEvents. Enabling below zero panics with
// ErrEventsEnabledBelowZero.
func (ns *NotifierService) EnableEvents() {
	if ns.disableCount <= 0 {
		panic(ErrEventsEnabledBelowZero)
	}
	ns.disableCount--
}

// EventsEnabled reports whether Publish currently delivers.
func (ns *NotifierService) EventsEnabled() bool {
	return ns.disableCount == 0
}

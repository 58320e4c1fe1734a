package sim

import "container/heap"

// eventHeap implements a priority queue with deterministic ordering.
// Ordering: time → priority → insertion sequence.
type eventHeap struct {
	events []*Event
}

func (h *eventHeap) Len() int { return len(h.events) }

// Less implements heap.Interface with deterministic ordering.
func (h *eventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	// Primary: time (earlier first)
	if ei.time != ej.time {
		return ei.time < ej.time
	}

	// Secondary: priority band (lower value = fired first)
	if ei.prio != ej.prio {
		return ei.prio < ej.prio
	}

	// Tertiary: insertion sequence (FIFO tie-break)
	return ei.seq < ej.seq
}

func (h *eventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
	h.events[i].heapIdx = i
	h.events[j].heapIdx = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*Event)
	ev.heapIdx = len(h.events)
	h.events = append(h.events, ev)
}

func (h *eventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIdx = -1
	h.events = old[0 : n-1]
	return item
}

// schedule adds an event to the heap.
func (h *eventHeap) schedule(e *Event) {
	heap.Push(h, e)
}

// popNext removes and returns the next event, or nil if the heap is empty.
func (h *eventHeap) popNext() *Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*Event)
}

// remove takes a queued event out of the heap in O(log n).
func (h *eventHeap) remove(e *Event) {
	if e.heapIdx < 0 || e.heapIdx >= len(h.events) || h.events[e.heapIdx] != e {
		return
	}
	heap.Remove(h, e.heapIdx)
}

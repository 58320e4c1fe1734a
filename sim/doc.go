// Package sim provides the discrete-event simulation kernel for the
// job-shop simulator.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go / event_heap.go: reusable events and the deterministic
//     (time, priority, insertion order) heap
//   - simulator.go: the clock, the main loop and the component lifecycle
//     (Created → Initialized → Running → Finished → Resultified)
//   - notifier.go: the notification bus with re-entrant, per-stream FIFO
//     delivery
//
// # Architecture
//
// The kernel knows nothing about job shops. Domain state lives in the shop
// package, which plugs into the kernel through two seams:
//   - Component: init/run/results hooks driven by the Simulation
//   - EventStream/Notification/Subscriber: the listener protocol that
//     statistics collectors and trace writers observe a run through
//
// Random streams (stream.go) produce deterministic, clonable sample
// sequences; experiment replication relies on their bit-identical clones.
package sim

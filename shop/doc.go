// Package shop models a manufacturing job-shop on top of the sim kernel:
// workstations with parallel machines, jobs flowing along per-job routes,
// queue selection through priority rules, sequence-dependent setups, batch
// families, machine breakdowns and routing look-ahead.
//
// The lifecycle of a job is
//
//	Released → (EnqueuedAt Wk → SelectedOn mk,j → Processing → CompletedOn Wk)* → Finished
//
// Every transition publishes a notification (events.go); collectors
// (stats.go) and trace writers (trace.go) subscribe to them instead of
// coupling to the model.
package shop

package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// TraceRecord is one observed shop transition.
type TraceRecord struct {
	Time    float64
	Kind    string
	Job     string
	Station string
}

func (r TraceRecord) String() string {
	return fmt.Sprintf("%10.3f %-22s %-14s %s", r.Time, r.Kind, r.Job, r.Station)
}

// EventTrace records every job and workstation notification of a run, in
// delivery order. Mainly a debugging aid; tests use it to assert
// notification ordering.
type EventTrace struct {
	Records []TraceRecord
}

func NewEventTrace() *EventTrace { return &EventTrace{} }

func (t *EventTrace) record(s *sim.Simulation, kind, job, station string) {
	t.Records = append(t.Records, TraceRecord{
		Time:    s.SimTime(),
		Kind:    kind,
		Job:     job,
		Station: station,
	})
}

func (t *EventTrace) Install(s *sim.Simulation) {
	s.Subscribe(JobEvents, sim.SubscriberFunc(func(source any, kind sim.Notification) {
		j := source.(*Job)
		station := ""
		if j.CurrMachine() != nil {
			station = j.CurrMachine().Name()
		}
		t.record(s, kind.(JobEvent).String(), j.Name(), station)
	}))
	s.Subscribe(WorkStationEvents, sim.SubscriberFunc(func(source any, kind sim.Notification) {
		ws := source.(*WorkStation)
		job := ""
		switch kind.(WorkStationEvent) {
		case WSJobArrival:
			job = ws.JustArrived.Name()
		case WSJobSelected:
			job = ws.JustStarted.Name()
		case WSJobCompleted:
			job = ws.JustCompleted.Name()
		}
		t.record(s, kind.(WorkStationEvent).String(), job, ws.Name())
	}))
}

func (t *EventTrace) CloneListener() ShopListener { return NewEventTrace() }

// Kinds returns just the record kinds, in order.
func (t *EventTrace) Kinds() []string {
	kinds := make([]string, len(t.Records))
	for i, r := range t.Records {
		kinds[i] = r.Kind
	}
	return kinds
}

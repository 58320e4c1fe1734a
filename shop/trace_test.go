package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

func TestEventTrace_RecordsTransitionProtocol(t *testing.T) {
	// GIVEN a single job through a single station
	sh := NewShop()
	w := NewWorkStation("W1", 1)
	sh.AddWorkStation(w)
	route := NewRoute(Operation{Machine: w, ProcTime: 2.0})
	src := NewJobSource("src", sim.NewDblConst(0), route)
	src.MaxJobs = 1
	sh.AddSource(src)

	trace := NewEventTrace()
	s := sim.NewSimulation()
	s.Root = sh
	trace.Install(s)
	s.Init()
	s.Run()

	// THEN the trace shows the full transition protocol in order
	want := []string{
		"WS_INIT",
		"JOB_RELEASED",
		"JOB_ARRIVED_IN_QUEUE",
		"WS_JOB_ARRIVAL",
		"JOB_REMOVED_FROM_QUEUE",
		"WS_JOB_SELECTED",
		"JOB_START_OPERATION",
		"JOB_END_OPERATION",
		"WS_JOB_COMPLETED",
		"JOB_FINISHED",
		"WS_DONE",
	}
	assert.Equal(t, want, trace.Kinds())

	// and the processing records carry job and station identity
	require.NotEmpty(t, trace.Records)
	for _, r := range trace.Records {
		if r.Kind == "WS_JOB_SELECTED" {
			assert.Equal(t, "W1", r.Station)
			assert.Equal(t, "Job.0.0", r.Job)
		}
	}
}

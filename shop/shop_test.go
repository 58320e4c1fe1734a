package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// runShop initializes and runs a shop on a fresh simulation, returning the
// simulation and its result map.
func runShop(t *testing.T, sh *Shop, simLength float64, listeners ...ShopListener) (*sim.Simulation, map[string]any) {
	t.Helper()
	s := sim.NewSimulation()
	s.SimLength = simLength
	s.Root = sh
	for _, l := range listeners {
		l.Install(s)
	}
	s.Init()
	s.Run()
	return s, s.Results()
}

func TestShop_SingleMachineFIFO(t *testing.T) {
	// GIVEN one workstation, capacity 1, no setups, and a source emitting
	// releases at 0, 1 and 2 with a single 2.0-length operation each
	sh := NewShop()
	w := NewWorkStation("W1", 1)
	sh.AddWorkStation(w)

	route := NewRoute(Operation{Machine: w, ProcTime: 2.0})
	src := NewJobSource("src", sim.NewDblConst(0, 1, 1), route)
	src.MaxJobs = 3
	sh.AddSource(src)

	var completions []float64
	collect := &JobEventFuncs{
		Finished: func(s *Shop, j *Job) {
			completions = append(completions, s.Sim().SimTime())
		},
	}

	flow := NewFlowTimeCollector()
	s := sim.NewSimulation()
	s.Root = sh
	s.Subscribe(JobEvents, collect)
	flow.Install(s)
	s.Init()
	s.Run()
	res := s.Results()

	// THEN jobs complete FIFO at 2, 4 and 6 with mean flow time 3.0
	assert.Equal(t, []float64{2.0, 4.0, 6.0}, completions)
	assert.InDelta(t, 3.0, res["flowMean"].(float64), 1e-9)
	assert.Equal(t, 3, res["jobsFinished"])
	assert.Equal(t, 3, res["jobsStarted"])
	assert.Equal(t, 6.0, res["simTime"])
}

func TestShop_EveryReleasedJobCompletesItsRoute(t *testing.T) {
	// two stations in series, several jobs, generous horizon
	sh := NewShop()
	w1 := NewWorkStation("W1", 1)
	w2 := NewWorkStation("W2", 2)
	sh.AddWorkStation(w1, w2)

	route := NewRoute(
		Operation{Machine: w1, ProcTime: 1.0},
		Operation{Machine: w2, ProcTime: 3.0},
	)
	src := NewJobSource("src", sim.NewDblExp(1.0), route)
	src.MaxJobs = 25
	sh.AddSource(src)
	sh.ReseedStreams(42)

	finished := map[int]bool{}
	s := sim.NewSimulation()
	s.Root = sh
	s.Subscribe(JobEvents, &JobEventFuncs{
		Finished: func(_ *Shop, j *Job) {
			require.False(t, finished[j.JobNum()], "job %d finished twice", j.JobNum())
			require.True(t, j.IsLastOperation(), "job %d finished before its last operation", j.JobNum())
			finished[j.JobNum()] = true
		},
	})
	s.Init()
	s.Run()

	assert.Equal(t, 25, sh.JobsFinished())
	assert.Len(t, finished, 25)
}

func TestShop_MaxJobsFinishedStopsRun(t *testing.T) {
	sh := NewShop()
	w := NewWorkStation("W1", 1)
	sh.AddWorkStation(w)
	route := NewRoute(Operation{Machine: w, ProcTime: 1.0})
	src := NewJobSource("src", sim.NewDblConst(1.0), route)
	sh.AddSource(src)
	sh.MaxJobsFinished = 5

	_, res := runShop(t, sh, 0)

	assert.Equal(t, 5, res["jobsFinished"])
}

func TestShop_SingleOwnership(t *testing.T) {
	// at every notification, a real job is in at most one queue or
	// processing slot across all stations
	sh := NewShop()
	w1 := NewWorkStation("W1", 1)
	w2 := NewWorkStation("W2", 1)
	sh.AddWorkStation(w1, w2)
	route := NewRoute(
		Operation{Machine: w1, ProcTime: 2.0},
		Operation{Machine: w2, ProcTime: 2.0},
	)
	src := NewJobSource("src", sim.NewDblConst(0.5, 1, 1.5), route)
	src.MaxJobs = 12
	sh.AddSource(src)

	checkOwnership := func(s *Shop) {
		count := map[*Job]int{}
		for _, ws := range s.WorkStations {
			for _, tgt := range ws.Queue() {
				for i := 0; i < tgt.NumJobsInBatch(); i++ {
					count[tgt.Job(i)]++
				}
			}
			for i := 0; i < ws.Capacity(); i++ {
				if cur := ws.Machine(i).CurTarget(); cur != nil && ws.Machine(i).State() == MachineProcessing {
					for k := 0; k < cur.NumJobsInBatch(); k++ {
						count[cur.Job(k)]++
					}
				}
			}
		}
		for j, n := range count {
			require.False(t, j.IsFuture(), "future clone %s in a real queue", j)
			require.LessOrEqual(t, n, 1, "job %s owned %d times", j.Name(), n)
		}
	}

	s := sim.NewSimulation()
	s.Root = sh
	s.Subscribe(JobEvents, &JobEventFuncs{
		ArrivedInQueue:   func(sh *Shop, _ *Job) { checkOwnership(sh) },
		RemovedFromQueue: func(sh *Shop, _ *Job) { checkOwnership(sh) },
		EndOperation:     func(sh *Shop, _ *Job) { checkOwnership(sh) },
	})
	s.Init()
	s.Run()

	assert.Equal(t, 12, sh.JobsFinished())
}

func TestShop_WarmUpResetsCollectors(t *testing.T) {
	// releases at 2,4,...,20, proc 1.0: completions at 3,5,...,21, every
	// flow time exactly 1.0
	sh := NewShop()
	w := NewWorkStation("W1", 1)
	sh.AddWorkStation(w)
	route := NewRoute(Operation{Machine: w, ProcTime: 1.0})
	src := NewJobSource("src", sim.NewDblConst(2), route)
	src.MaxJobs = 10
	sh.AddSource(src)
	sh.WarmUp = 11.5

	_, res := runShop(t, sh, 0, NewFlowTimeCollector())

	// only the five completions after the warm-up are counted
	flow := res["flowTime"].(map[string]any)
	assert.Equal(t, 5, flow["count"])
	assert.InDelta(t, 1.0, res["flowMean"].(float64), 1e-9)
}

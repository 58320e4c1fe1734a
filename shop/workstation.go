package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"

	"github.com/sirupsen/logrus"
)

// DefSetup is the neutral setup state every machine starts in.
const DefSetup = 0

// DowntimePolicy decides what happens to in-progress work when a machine
// breaks down.
type DowntimePolicy int

const (
	// DowntimePreserve pauses the operation; it resumes with its remaining
	// processing time once the machine is repaired.
	DowntimePreserve DowntimePolicy = iota
	// DowntimeDiscard abandons the operation; its jobs return to the queue
	// and the operation restarts from scratch on the next selection.
	DowntimeDiscard
)

// WorkStation is a processing resource with one or more parallel machines
// and a shared input queue. The queue has no stable order: each selection
// re-evaluates it through the station's priority rule.
type WorkStation struct {
	shop  *Shop
	name  string
	index int

	machines []*IndividualMachine
	queue    []PrioRuleTarget
	rule     PrioRule

	// setupMatrix[old][new] is the changeover time between setup states.
	// A nil matrix means no setups at all.
	setupMatrix [][]float64

	// futures holds announced look-ahead arrivals, in announcement order.
	futures []*Job

	DowntimePolicy DowntimePolicy

	numBusy int

	// Transient notification payload, set immediately before the matching
	// publish and valid for the duration of the fan-out.
	JustArrived   *Job
	JustStarted   PrioRuleTarget
	JustCompleted PrioRuleTarget
	OldSetupState int
	NewSetupState int
	SetupTime     float64
	CurrMachine   *IndividualMachine
	ResultMap     map[string]any
}

// NewWorkStation creates a station with the given parallel capacity. The
// default rule is FCFS.
func NewWorkStation(name string, numMachines int) *WorkStation {
	if numMachines < 1 {
		panic(fmt.Sprintf("workstation %q needs capacity >= 1, got %d", name, numMachines))
	}
	ws := &WorkStation{name: name, rule: NewFCFS()}
	for i := 0; i < numMachines; i++ {
		ws.machines = append(ws.machines, &IndividualMachine{workStation: ws, idx: i})
	}
	return ws
}

func (ws *WorkStation) Name() string   { return ws.name }
func (ws *WorkStation) Index() int     { return ws.index }
func (ws *WorkStation) Shop() *Shop    { return ws.shop }
func (ws *WorkStation) NumBusy() int   { return ws.numBusy }
func (ws *WorkStation) Capacity() int  { return len(ws.machines) }
func (ws *WorkStation) Rule() PrioRule { return ws.rule }

func (ws *WorkStation) SetRule(r PrioRule) { ws.rule = r }

// Machine returns the i-th individual machine.
func (ws *WorkStation) Machine(i int) *IndividualMachine { return ws.machines[i] }

// SetSetupMatrix installs the changeover-time matrix, indexed
// [oldState][newState].
func (ws *WorkStation) SetSetupMatrix(m [][]float64) { ws.setupMatrix = m }

// SetupTimeBetween returns the changeover time between two setup states,
// zero when they are equal or no matrix is configured.
func (ws *WorkStation) SetupTimeBetween(old, new int) float64 {
	if old == new || ws.setupMatrix == nil {
		return 0
	}
	return ws.setupMatrix[old][new]
}

// QueueLen returns the number of targets currently waiting.
func (ws *WorkStation) QueueLen() int { return len(ws.queue) }

// Queue returns the waiting targets. Callers must not modify the slice;
// ordering carries no meaning.
func (ws *WorkStation) Queue() []PrioRuleTarget { return ws.queue }

// Futures returns the announced look-ahead arrivals. Each future job's
// arrive time holds the announced arrival instant.
func (ws *WorkStation) Futures() []*Job { return ws.futures }

func (ws *WorkStation) init(s *sim.Simulation) {
	ws.queue = nil
	ws.futures = nil
	ws.numBusy = 0
	for _, m := range ws.machines {
		m.init(s)
	}
	s.Publish(ws, WSInit)
}

func (ws *WorkStation) done() {
	ws.shop.sim.Publish(ws, WSDone)
}

func (ws *WorkStation) produceResults(res map[string]any) {
	ws.ResultMap = res
	ws.shop.sim.Publish(ws, WSCollectResults)
	ws.ResultMap = nil
}

// enqueueOrProcess takes a job arriving at the station: the matching
// look-ahead announcement (if any) is replaced by the real arrival, the
// arrival notifications fire, and an idle machine immediately attempts a
// selection.
func (ws *WorkStation) enqueueOrProcess(j *Job) {
	now := ws.shop.sim.SimTime()

	ws.removeFuture(j)

	ws.queue = append(ws.queue, j)
	j.arriveInQueue(ws, now)

	ws.JustArrived = j
	ws.shop.sim.Publish(ws, WSJobArrival)

	if m := ws.idleMachine(); m != nil {
		ws.selectAndStart(m)
	}
}

// futureArrival records the announced arrival of a look-ahead clone. The
// announcement is removed when the real job arrives.
func (ws *WorkStation) futureArrival(f *Job, arrivesAt float64) {
	f.SetArriveTime(arrivesAt)
	ws.futures = append(ws.futures, f)
}

func (ws *WorkStation) removeFuture(j *Job) {
	f := j.Future()
	if f == nil {
		return
	}
	for i, q := range ws.futures {
		if q == f {
			ws.futures = append(ws.futures[:i], ws.futures[i+1:]...)
			return
		}
	}
}

func (ws *WorkStation) idleMachine() *IndividualMachine {
	for _, m := range ws.machines {
		if m.state == MachineIdle {
			return m
		}
	}
	return nil
}

// selectAndStart asks the priority rule for the next target and starts it
// on machine m. The rule may return nil to decline, e.g. to wait for an
// announced arrival that avoids a setup changeover.
func (ws *WorkStation) selectAndStart(m *IndividualMachine) {
	if m.state != MachineIdle || len(ws.queue) == 0 {
		return
	}
	now := ws.shop.sim.SimTime()

	ws.CurrMachine = m
	target := ws.rule.SelectTarget(ws, ws.queue, ws.futures, now)
	if target == nil {
		return
	}

	ws.removeTargetFromQueue(target)
	ws.startProc(m, target)
}

// removeTargetFromQueue removes every member of the target atomically,
// publishing one removed-from-queue notification per job.
func (ws *WorkStation) removeTargetFromQueue(target PrioRuleTarget) {
	for i := 0; i < target.NumJobsInBatch(); i++ {
		j := target.Job(i)
		found := false
		for qi, q := range ws.queue {
			if q == PrioRuleTarget(j) {
				ws.queue = append(ws.queue[:qi], ws.queue[qi+1:]...)
				found = true
				break
			}
		}
		if !found {
			panic(fmt.Sprintf("%s: selected %s not in queue", ws.name, j.Name()))
		}
		j.removedFromQueue()
	}
}

func (ws *WorkStation) startProc(m *IndividualMachine, target PrioRuleTarget) {
	now := ws.shop.sim.SimTime()

	oldState := m.setupState
	newState := target.SetupState()
	setup := ws.SetupTimeBetween(oldState, newState)

	m.state = MachineProcessing
	m.curTarget = target
	m.setupState = newState
	m.procStarted = now
	m.procFinished = now + setup + target.CurrProcTime()
	ws.numBusy++

	logrus.Debugf("%s.%d starts %s (setup %d->%d, %.3f) until %.3f",
		ws.name, m.idx, target.Name(), oldState, newState, setup, m.procFinished)

	ws.CurrMachine = m
	ws.JustStarted = target
	ws.OldSetupState = oldState
	ws.NewSetupState = newState
	ws.SetupTime = setup
	ws.shop.sim.Publish(ws, WSJobSelected)

	for i := 0; i < target.NumJobsInBatch(); i++ {
		target.Job(i).startProcessing(m)
	}

	m.departEvent.SetTime(m.procFinished)
	ws.shop.sim.Schedule(m.departEvent)
}

// depart completes the current operation of machine m: completion
// notifications fire, every member proceeds along its route, and the freed
// machine attempts another selection.
func (ws *WorkStation) depart(m *IndividualMachine) {
	target := m.curTarget
	m.curTarget = nil
	m.state = MachineIdle
	ws.numBusy--

	for i := 0; i < target.NumJobsInBatch(); i++ {
		target.Job(i).endProcessing()
	}

	ws.CurrMachine = m
	ws.JustCompleted = target
	ws.shop.sim.Publish(ws, WSJobCompleted)

	for i := 0; i < target.NumJobsInBatch(); i++ {
		target.Job(i).proceed()
	}

	ws.selectAndStart(m)
}

// Clone deep-copies the station template: machines with their failure
// streams, the setup matrix and the rule (rules may be stateful). Runtime
// state (queue, futures) is not part of a template and starts empty.
func (ws *WorkStation) Clone() *WorkStation {
	c := &WorkStation{
		name:           ws.name,
		index:          ws.index,
		rule:           ws.rule.Clone(),
		DowntimePolicy: ws.DowntimePolicy,
	}
	for _, m := range ws.machines {
		c.machines = append(c.machines, m.clone(c))
	}
	if ws.setupMatrix != nil {
		c.setupMatrix = make([][]float64, len(ws.setupMatrix))
		for i, row := range ws.setupMatrix {
			c.setupMatrix[i] = append([]float64(nil), row...)
		}
	}
	return c
}

func (ws *WorkStation) String() string {
	return fmt.Sprintf("WorkStation(%s,cap=%d)", ws.name, len(ws.machines))
}

package shop

import (
	"github.com/jobshop-sim/jobshop-sim/sim"

	"github.com/sirupsen/logrus"
)

// MachineState is the lifecycle state of an individual machine.
type MachineState int

const (
	MachineIdle MachineState = iota
	MachineProcessing
	MachineDown
	MachineInactive
)

func (s MachineState) String() string {
	switch s {
	case MachineIdle:
		return "IDLE"
	case MachineProcessing:
		return "PROCESSING"
	case MachineDown:
		return "DOWN"
	case MachineInactive:
		return "INACTIVE"
	default:
		return "UNKNOWN"
	}
}

// IndividualMachine is a single processing unit inside a workstation. Jobs
// may still arrive at the station while a machine is Down, but none are
// selected to it.
type IndividualMachine struct {
	workStation *WorkStation
	idx         int

	state       MachineState
	setupState  int
	curTarget   PrioRuleTarget
	procStarted float64
	// procFinished is the completion time of the current operation while
	// the machine is Processing.
	procFinished float64

	// remaining processing time preserved across a breakdown (preserve
	// policy only).
	remaining float64

	departEvent *sim.Event
	downEvent   *sim.Event

	// Optional failure/repair streams. When TimeBetweenFailures is set the
	// machine schedules its own breakdowns; TimeToRepair then determines
	// how long each one lasts.
	TimeBetweenFailures sim.DblStream
	TimeToRepair        sim.DblStream
}

func (m *IndividualMachine) WorkStation() *WorkStation { return m.workStation }
func (m *IndividualMachine) Index() int                { return m.idx }
func (m *IndividualMachine) State() MachineState       { return m.state }
func (m *IndividualMachine) SetupState() int           { return m.setupState }
func (m *IndividualMachine) ProcFinished() float64     { return m.procFinished }
func (m *IndividualMachine) ProcStarted() float64      { return m.procStarted }
func (m *IndividualMachine) CurTarget() PrioRuleTarget { return m.curTarget }

func (m *IndividualMachine) init(s *sim.Simulation) {
	m.state = MachineIdle
	m.setupState = DefSetup
	m.curTarget = nil
	m.remaining = 0
	m.departEvent = sim.NewEvent(0, sim.EventPrioLow, func() { m.workStation.depart(m) })
	if m.TimeBetweenFailures != nil {
		m.downEvent = sim.NewEvent(s.SimTime()+m.TimeBetweenFailures.NextDbl(),
			sim.EventPrioNormal, m.TakeDown)
		s.Schedule(m.downEvent)
	}
}

// TakeDown transitions the machine to Down. In-progress work is paused
// (remaining time preserved) or abandoned back to the queue, per the
// workstation's downtime policy. If a repair stream is configured, the
// matching Activate is scheduled automatically.
func (m *IndividualMachine) TakeDown() {
	ws := m.workStation
	s := ws.shop.sim
	now := s.SimTime()

	if m.state == MachineProcessing {
		s.Cancel(m.departEvent)
		target := m.curTarget
		m.curTarget = nil
		ws.numBusy--
		switch ws.DowntimePolicy {
		case DowntimePreserve:
			m.remaining = m.procFinished - now
			m.curTarget = target
			logrus.Debugf("%s.%d down, preserving %.3f of %s", ws.Name(), m.idx, m.remaining, target.Name())
		case DowntimeDiscard:
			// the operation restarts from scratch: members go back into
			// the queue and wait for the next selection
			for i := 0; i < target.NumJobsInBatch(); i++ {
				ws.queue = append(ws.queue, target.Job(i))
			}
			logrus.Debugf("%s.%d down, discarding %s", ws.Name(), m.idx, target.Name())
		}
	}
	m.state = MachineDown

	ws.CurrMachine = m
	s.Publish(ws, WSDeactivated)

	if m.TimeToRepair != nil {
		s.ScheduleFunc(now+m.TimeToRepair.NextDbl(), sim.EventPrioNormal, m.Activate)
	}
}

// Activate restores the machine after a breakdown. Preserved work resumes
// with its remaining processing time; otherwise the machine becomes idle
// and a new selection is attempted. The next breakdown is scheduled from
// the failure stream, if any.
func (m *IndividualMachine) Activate() {
	ws := m.workStation
	s := ws.shop.sim
	now := s.SimTime()

	if m.curTarget != nil && m.remaining > 0 {
		m.state = MachineProcessing
		m.procFinished = now + m.remaining
		m.remaining = 0
		ws.numBusy++
		for i := 0; i < m.curTarget.NumJobsInBatch(); i++ {
			m.curTarget.Job(i).SetFinishTime(m.procFinished)
		}
		m.departEvent.SetTime(m.procFinished)
		s.Schedule(m.departEvent)
	} else {
		m.state = MachineIdle
	}

	ws.CurrMachine = m
	s.Publish(ws, WSActivated)

	if m.TimeBetweenFailures != nil {
		m.downEvent.SetTime(now + m.TimeBetweenFailures.NextDbl())
		s.Schedule(m.downEvent)
	}

	if m.state == MachineIdle {
		ws.selectAndStart(m)
	}
}

func (m *IndividualMachine) clone(ws *WorkStation) *IndividualMachine {
	c := &IndividualMachine{workStation: ws, idx: m.idx}
	if m.TimeBetweenFailures != nil {
		c.TimeBetweenFailures = m.TimeBetweenFailures.Clone()
	}
	if m.TimeToRepair != nil {
		c.TimeToRepair = m.TimeToRepair.Clone()
	}
	return c
}

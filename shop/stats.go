package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// ShopListener is a statistics collector or trace writer that observes a
// run through the notification bus without coupling to it. Listeners are
// installed before Init and cloned together with the scenario.
type ShopListener interface {
	Install(s *sim.Simulation)
	CloneListener() ShopListener
}

// FlowTimeCollector records flow time and tardiness of every finished job.
// Results: "flowMean" plus the "flowTime" and "tardiness" summaries and
// the "numTardy" count. Warm-up aware.
type FlowTimeCollector struct {
	flowTimes     *sim.SummaryStat
	tardiness     *sim.SummaryStat
	weightedTardy *sim.SummaryStat
	numTardy      int
}

func NewFlowTimeCollector() *FlowTimeCollector {
	return &FlowTimeCollector{
		flowTimes:     sim.NewSummaryStat(),
		tardiness:     sim.NewSummaryStat(),
		weightedTardy: sim.NewSummaryStat(),
	}
}

func (c *FlowTimeCollector) FlowTimes() *sim.SummaryStat { return c.flowTimes }
func (c *FlowTimeCollector) Tardiness() *sim.SummaryStat { return c.tardiness }

func (c *FlowTimeCollector) Install(s *sim.Simulation) {
	s.Subscribe(JobEvents, &JobEventFuncs{
		Finished: func(sh *Shop, j *Job) {
			now := sh.Sim().SimTime()
			c.flowTimes.Value(now - j.RelDate())
			tard := now - j.DueDate()
			if tard > 0 {
				c.tardiness.Value(tard)
				c.weightedTardy.Value(j.Weight() * tard)
				c.numTardy++
			} else {
				c.tardiness.Value(0)
				c.weightedTardy.Value(0)
			}
		},
	})
	s.Subscribe(ShopEvents, &ShopEventFuncs{
		WarmUpEnded: func(*Shop) {
			c.flowTimes.Reset()
			c.tardiness.Reset()
			c.weightedTardy.Reset()
			c.numTardy = 0
		},
		CollectResults: func(_ *Shop, res map[string]any) {
			sim.AddResultOnce(res, "flowMean", c.flowTimes.Mean())
			sim.AddResultOnce(res, "flowTime", c.flowTimes.AsMap())
			sim.AddResultOnce(res, "tardiness", c.tardiness.AsMap())
			sim.AddResultOnce(res, "weightedTardiness", c.weightedTardy.AsMap())
			sim.AddResultOnce(res, "numTardy", c.numTardy)
		},
	})
}

func (c *FlowTimeCollector) CloneListener() ShopListener { return NewFlowTimeCollector() }

// MakespanCollector records the completion time of the last finished job
// under the "makespan" key.
type MakespanCollector struct {
	lastFinish float64
}

func NewMakespanCollector() *MakespanCollector { return &MakespanCollector{} }

func (c *MakespanCollector) Install(s *sim.Simulation) {
	s.Subscribe(JobEvents, &JobEventFuncs{
		Finished: func(sh *Shop, _ *Job) {
			if now := sh.Sim().SimTime(); now > c.lastFinish {
				c.lastFinish = now
			}
		},
	})
	s.Subscribe(ShopEvents, &ShopEventFuncs{
		CollectResults: func(_ *Shop, res map[string]any) {
			sim.AddResultOnce(res, "makespan", c.lastFinish)
		},
	})
}

func (c *MakespanCollector) CloneListener() ShopListener { return NewMakespanCollector() }

// UtilizationCollector integrates busy time (setup included) per
// workstation and reports "<station>.util" = busy / (capacity * span),
// where span is simTime minus the warm-up end (zero without warm-up).
// Work in progress at the end of the run is counted up to the final clock
// value.
type UtilizationCollector struct {
	busy      map[*WorkStation]float64
	lastStart map[*IndividualMachine]float64
	warmUpAt  float64
}

func NewUtilizationCollector() *UtilizationCollector {
	return &UtilizationCollector{
		busy:      make(map[*WorkStation]float64),
		lastStart: make(map[*IndividualMachine]float64),
	}
}

func (c *UtilizationCollector) Install(s *sim.Simulation) {
	s.Subscribe(WorkStationEvents, &WorkStationEventFuncs{
		OperationStarted: func(ws *WorkStation, _ PrioRuleTarget, _, _ int, _ float64) {
			c.lastStart[ws.CurrMachine] = s.SimTime()
		},
		OperationCompleted: func(ws *WorkStation, _ PrioRuleTarget) {
			c.busy[ws] += s.SimTime() - c.lastStart[ws.CurrMachine]
			delete(c.lastStart, ws.CurrMachine)
		},
		Deactivated: func(ws *WorkStation, m *IndividualMachine) {
			if start, ok := c.lastStart[m]; ok {
				c.busy[ws] += s.SimTime() - start
				delete(c.lastStart, m)
			}
		},
		Activated: func(ws *WorkStation, m *IndividualMachine) {
			if m.State() == MachineProcessing {
				c.lastStart[m] = s.SimTime()
			}
		},
		Done: func(ws *WorkStation) {
			for i := 0; i < ws.Capacity(); i++ {
				m := ws.Machine(i)
				if start, ok := c.lastStart[m]; ok {
					c.busy[ws] += s.SimTime() - start
					delete(c.lastStart, m)
				}
			}
		},
		CollectResults: func(ws *WorkStation, res map[string]any) {
			span := s.SimTime() - c.warmUpAt
			util := 0.0
			if span > 0 {
				util = c.busy[ws] / (float64(ws.Capacity()) * span)
			}
			sim.AddResultOnce(res, fmt.Sprintf("%s.util", ws.Name()), util)
		},
	})
	s.Subscribe(ShopEvents, &ShopEventFuncs{
		WarmUpEnded: func(*Shop) {
			now := s.SimTime()
			c.warmUpAt = now
			for ws := range c.busy {
				c.busy[ws] = 0
			}
			for m := range c.lastStart {
				c.lastStart[m] = now
			}
		},
	})
}

func (c *UtilizationCollector) CloneListener() ShopListener { return NewUtilizationCollector() }

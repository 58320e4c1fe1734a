package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"

	"github.com/sirupsen/logrus"
)

// Shop is the owning container of workstations and job sources, and the
// root component of a job-shop simulation.
type Shop struct {
	sim *sim.Simulation

	WorkStations []*WorkStation
	Sources      []*JobSource

	// EnableLookAhead lets jobs announce their next arrival to the
	// downstream workstation when an operation starts.
	EnableLookAhead bool

	// MaxJobsFinished ends the run after this many completions, 0 = no
	// limit.
	MaxJobsFinished int

	// WarmUp is the statistics warm-up period: at this instant the shop
	// broadcasts ShopWarmUpEnded so collectors reset. Zero disables it.
	WarmUp float64

	jobsStarted  int
	jobsFinished int
	jobNumCount  int

	// ResultMap is the transient payload of ShopCollectResults, valid
	// during the fan-out.
	ResultMap map[string]any
}

// NewShop creates an empty shop.
func NewShop() *Shop {
	return &Shop{}
}

// Sim returns the simulation the shop is attached to, nil before Init.
func (sh *Shop) Sim() *sim.Simulation { return sh.sim }

func (sh *Shop) JobsStarted() int  { return sh.jobsStarted }
func (sh *Shop) JobsFinished() int { return sh.jobsFinished }

// AddWorkStation attaches stations to the shop, assigning their indices.
func (sh *Shop) AddWorkStation(stations ...*WorkStation) {
	for _, ws := range stations {
		ws.shop = sh
		ws.index = len(sh.WorkStations)
		sh.WorkStations = append(sh.WorkStations, ws)
	}
}

// AddSource attaches job sources to the shop.
func (sh *Shop) AddSource(sources ...*JobSource) {
	for _, src := range sources {
		src.shop = sh
		src.index = len(sh.Sources)
		sh.Sources = append(sh.Sources, src)
	}
}

// WorkStationByName returns the station with the given name, nil if absent.
func (sh *Shop) WorkStationByName(name string) *WorkStation {
	for _, ws := range sh.WorkStations {
		if ws.name == name {
			return ws
		}
	}
	return nil
}

func (sh *Shop) nextJobNum() int {
	n := sh.jobNumCount
	sh.jobNumCount++
	return n
}

// startJob releases a job into the shop: it arrives at the queue of the
// first workstation on its route.
func (sh *Shop) startJob(j *Job) {
	sh.jobsStarted++
	j.jobReleased()

	ws := j.Route().Op(j.TaskNumber()).Machine
	ws.enqueueOrProcess(j)
}

// jobFinished is called by a job leaving its last operation.
func (sh *Shop) jobFinished(j *Job) {
	sh.jobsFinished++
	j.jobFinished()

	if sh.MaxJobsFinished > 0 && sh.jobsFinished >= sh.MaxJobsFinished {
		logrus.Debugf("shop reached %d finished jobs, stopping", sh.jobsFinished)
		sh.sim.End()
	}
}

// === sim.Component ===

// Init wires the shop into the simulation and initializes stations before
// sources, so every arrival meets a ready machine.
func (sh *Shop) Init(s *sim.Simulation) {
	sh.sim = s
	sh.jobsStarted = 0
	sh.jobsFinished = 0
	sh.jobNumCount = 0

	for _, ws := range sh.WorkStations {
		ws.init(s)
	}
	for _, src := range sh.Sources {
		src.init(s)
	}

	if sh.WarmUp > 0 {
		s.ScheduleFunc(sh.WarmUp, sim.EventPrioNormal, func() {
			s.Publish(sh, ShopWarmUpEnded)
		})
	}
}

func (sh *Shop) BeforeRun() {}

func (sh *Shop) AfterRun() {
	for _, ws := range sh.WorkStations {
		ws.done()
	}
}

// ProduceResults contributes shop counters and broadcasts the collection
// notifications so listeners can add their keys.
func (sh *Shop) ProduceResults(res map[string]any) {
	sim.AddResultOnce(res, "jobsStarted", sh.jobsStarted)
	sim.AddResultOnce(res, "jobsFinished", sh.jobsFinished)

	for _, ws := range sh.WorkStations {
		ws.produceResults(res)
	}

	sh.ResultMap = res
	sh.sim.Publish(sh, ShopCollectResults)
	sh.ResultMap = nil
}

// Clone deep-copies the shop template: stations (with rules and machine
// streams), sources (with routes rebound to the cloned stations) and the
// configuration flags. Runtime counters start at zero.
func (sh *Shop) Clone() *Shop {
	c := NewShop()
	c.EnableLookAhead = sh.EnableLookAhead
	c.MaxJobsFinished = sh.MaxJobsFinished
	c.WarmUp = sh.WarmUp

	wsMap := make(map[*WorkStation]*WorkStation, len(sh.WorkStations))
	for _, ws := range sh.WorkStations {
		cw := ws.Clone()
		wsMap[ws] = cw
		c.AddWorkStation(cw)
	}
	for _, src := range sh.Sources {
		c.AddSource(src.Clone(wsMap))
	}
	return c
}

// ReseedStreams derives fresh, isolated generator states for every stream
// in the shop from a master seed.
func (sh *Shop) ReseedStreams(master uint64) {
	for _, src := range sh.Sources {
		src.reseed(master)
	}
	for _, ws := range sh.WorkStations {
		for _, m := range ws.machines {
			if m.TimeBetweenFailures != nil {
				m.TimeBetweenFailures.Reseed(sim.DeriveSeed(master, fmt.Sprintf("%s.%d.failures", ws.name, m.idx)))
			}
			if m.TimeToRepair != nil {
				m.TimeToRepair.Reseed(sim.DeriveSeed(master, fmt.Sprintf("%s.%d.repairs", ws.name, m.idx)))
			}
		}
	}
}

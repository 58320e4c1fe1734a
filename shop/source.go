package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// JobSource produces the jobs of a shop. Its arrival event reuses itself:
// each firing creates the following job, reschedules the event at that
// job's release date, and releases the job created by the previous firing.
type JobSource struct {
	sim.ValueStore

	shop  *Shop
	index int // index in shop.Sources
	name  string

	// InterArrivals yields the time between consecutive release dates. The
	// first draw is the offset of the first release from time zero.
	InterArrivals sim.DblStream

	// Routes are the routes this source can start jobs on; RouteSelect
	// picks the index per job (nil with a single route). The chosen index
	// doubles as the job type.
	Routes      []*Route
	RouteSelect sim.IntStream

	// DueDateFactor turns total work content into a due date:
	// due = release + factor * procSum.
	DueDateFactor float64

	// MaxJobs stops the source after this many jobs, 0 = unlimited.
	MaxJobs int

	// StopArrivals suppresses further job creation when set.
	StopArrivals bool

	jobsStarted int

	arriveEvent *sim.Event
	nextJob     *Job
}

// NewJobSource creates a source with a due-date factor of 1.
func NewJobSource(name string, interArrivals sim.DblStream, routes ...*Route) *JobSource {
	return &JobSource{
		name:          name,
		InterArrivals: interArrivals,
		Routes:        routes,
		DueDateFactor: 1.0,
	}
}

func (src *JobSource) Name() string     { return src.name }
func (src *JobSource) Shop() *Shop      { return src.shop }
func (src *JobSource) Index() int       { return src.index }
func (src *JobSource) JobsStarted() int { return src.jobsStarted }

func (src *JobSource) init(s *sim.Simulation) {
	src.StopArrivals = false
	src.jobsStarted = 0
	src.nextJob = nil

	src.arriveEvent = sim.NewEvent(s.SimTime(), sim.EventPrioHigh, func() {
		if src.StopArrivals {
			return
		}

		job := src.createNextJob()

		if job != nil {
			if job.RelDate() < s.SimTime() {
				panic(fmt.Errorf("%w: job %s releases at %v", sim.ErrPastEvent, job.Name(), job.RelDate()))
			}
			// schedule the next arrival reusing this event object
			src.arriveEvent.SetTime(job.RelDate())
			s.Schedule(src.arriveEvent)
		}

		if src.nextJob != nil {
			src.shop.startJob(src.nextJob)
		}
		src.nextJob = job
	})

	// first arrival
	src.arriveEvent.SetTime(s.SimTime())
	s.Schedule(src.arriveEvent)
}

// createNextJob builds the next job, or nil when the source is exhausted.
func (src *JobSource) createNextJob() *Job {
	if src.MaxJobs > 0 && src.jobsStarted >= src.MaxJobs {
		return nil
	}
	src.jobsStarted++

	now := src.shop.sim.SimTime()

	routeIdx := 0
	if src.RouteSelect != nil {
		routeIdx = src.RouteSelect.NextInt()
	}
	route := src.Routes[routeIdx]

	j := NewJob(src.shop)
	j.SetJobNum(src.shop.nextJobNum())
	j.SetJobType(routeIdx)
	j.SetRoute(route)
	j.SetRelDate(now + src.InterArrivals.NextDbl())
	j.SetDueDate(j.RelDate() + src.DueDateFactor*route.ProcSum())
	return j
}

// reseed derives independent generator states for the source's streams from
// the experiment's master seed.
func (src *JobSource) reseed(master uint64) {
	src.InterArrivals.Reseed(sim.DeriveSeed(master, src.name+".arrivals"))
	if src.RouteSelect != nil {
		src.RouteSelect.Reseed(sim.DeriveSeed(master, src.name+".routes"))
	}
}

// Clone deep-copies the source template. Routes are rebound to the cloned
// workstations via wsMap.
func (src *JobSource) Clone(wsMap map[*WorkStation]*WorkStation) *JobSource {
	c := &JobSource{
		name:          src.name,
		index:         src.index,
		InterArrivals: src.InterArrivals.Clone(),
		DueDateFactor: src.DueDateFactor,
		MaxJobs:       src.MaxJobs,
	}
	c.ValueStore = src.CloneStore()
	if src.RouteSelect != nil {
		c.RouteSelect = src.RouteSelect.Clone()
	}
	for _, r := range src.Routes {
		c.Routes = append(c.Routes, r.rebind(wsMap))
	}
	return c
}

func (src *JobSource) String() string { return fmt.Sprintf("JobSource(%s)", src.name) }

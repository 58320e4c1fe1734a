package shop

import (
	"fmt"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// Job is the main work unit in a shop. A job follows its route through the
// workstations, competing for machine capacity; its lifecycle notifications
// feed the statistics collectors.
type Job struct {
	sim.ValueStore

	shop *Shop

	jobNum  int // global number of the job in the system
	jobType int
	name    string

	route      *Route
	taskNumber int // index of the current operation

	relDate float64
	dueDate float64
	weight  float64

	arriveTime float64 // arrival time at the current workstation
	startTime  float64 // start of the current operation
	finishTime float64 // completion of the current operation

	currMachine *WorkStation

	isFuture bool
	future   *Job

	opDueDates []float64

	// cached value of RemainingProcTime(), invalidated by SetTaskNumber
	remProcTime float64
}

// NewJob creates a job bound to a shop. Weight defaults to 1.
func NewJob(shop *Shop) *Job {
	return &Job{shop: shop, weight: 1.0, remProcTime: -1.0}
}

func (j *Job) Shop() *Shop { return j.shop }

func (j *Job) SetArriveTime(t float64) { j.arriveTime = t }
func (j *Job) ArriveTime() float64     { return j.arriveTime }

func (j *Job) SetJobType(t int) { j.jobType = t }
func (j *Job) JobType() int     { return j.jobType }

func (j *Job) SetJobNum(n int) { j.jobNum = n }
func (j *Job) JobNum() int     { return j.jobNum }

func (j *Job) SetRelDate(t float64) { j.relDate = t }
func (j *Job) RelDate() float64     { return j.relDate }

func (j *Job) SetDueDate(t float64) { j.dueDate = t }
func (j *Job) DueDate() float64     { return j.dueDate }

func (j *Job) SetWeight(w float64) { j.weight = w }
func (j *Job) Weight() float64     { return j.weight }

func (j *Job) SetCurrMachine(ws *WorkStation) { j.currMachine = ws }
func (j *Job) CurrMachine() *WorkStation      { return j.currMachine }

func (j *Job) SetStartTime(t float64) { j.startTime = t }
func (j *Job) StartTime() float64     { return j.startTime }

// SetFinishTime records the completion time of the current operation. It is
// called by a workstation whenever processing starts.
func (j *Job) SetFinishTime(t float64) { j.finishTime = t }
func (j *Job) FinishTime() float64     { return j.finishTime }

// SetTaskNumber moves the job to another operation index and invalidates
// the remaining-processing-time cache.
func (j *Job) SetTaskNumber(tn int) {
	j.remProcTime = -1.0
	j.taskNumber = tn
}

func (j *Job) TaskNumber() int { return j.taskNumber }

// SetRoute binds the job to the route it follows and drops any operation
// due dates computed for a previous route.
func (j *Job) SetRoute(r *Route) {
	j.route = r
	j.opDueDates = nil
}

func (j *Job) Route() *Route { return j.route }

// CurrentOperation returns the operation the job is currently at.
func (j *Job) CurrentOperation() Operation {
	return j.route.Op(j.taskNumber)
}

// CurrProcTime is the processing time of the current operation.
func (j *Job) CurrProcTime() float64 {
	return j.route.Op(j.taskNumber).ProcTime
}

// ProcSum returns the total processing time over the whole route.
func (j *Job) ProcSum() float64 {
	return j.route.ProcSum()
}

// RemainingProcTime returns the sum of processing times from the current
// operation to the end of the route. The value is cached until the task
// number changes.
func (j *Job) RemainingProcTime() float64 {
	if j.remProcTime < 0 {
		j.remProcTime = 0
		for i := j.taskNumber; i < j.route.NumOps(); i++ {
			j.remProcTime += j.route.Op(i).ProcTime
		}
	}
	return j.remProcTime
}

func (j *Job) NumOps() int     { return j.route.NumOps() }
func (j *Job) NumOpsLeft() int { return j.route.NumOps() - j.taskNumber }

// IsLastOperation reports whether the current operation is the final one.
func (j *Job) IsLastOperation() bool {
	return j.taskNumber == j.route.NumOps()-1
}

// proceed sends the job to the next machine on its route, or reports it
// finished to the shop after its last operation.
func (j *Job) proceed() {
	if !j.IsLastOperation() {
		j.SetTaskNumber(j.taskNumber + 1)
		next := j.route.Op(j.taskNumber).Machine
		next.enqueueOrProcess(j)
	} else {
		j.shop.jobFinished(j)
	}
}

func (j *Job) jobReleased() {
	j.shop.sim.Publish(j, JobReleased)
}

func (j *Job) jobFinished() {
	j.shop.sim.Publish(j, JobFinished)
}

// arriveInQueue records the arrival of the job at a workstation queue.
func (j *Job) arriveInQueue(ws *WorkStation, arrivesAt float64) {
	j.SetCurrMachine(ws)
	j.SetArriveTime(arrivesAt)

	j.shop.sim.Publish(j, JobArrivedInQueue)
}

func (j *Job) removedFromQueue() {
	j.shop.sim.Publish(j, JobRemovedFromQueue)
}

// startProcessing is called by a workstation when the job's operation
// begins; finish time and setup payload have been set on the station.
func (j *Job) startProcessing(m *IndividualMachine) {
	j.SetFinishTime(m.procFinished)
	j.SetStartTime(j.shop.sim.SimTime())
	j.notifyNextMachine()

	j.shop.sim.Publish(j, JobStartOperation)
}

func (j *Job) endProcessing() {
	j.shop.sim.Publish(j, JobEndOperation)
}

// notifyNextMachine announces the job's future arrival to the next machine
// on its route. Called whenever an operation is started; assumes the finish
// time of the current operation has been set.
func (j *Job) notifyNextMachine() {
	if !j.IsLastOperation() && j.shop.EnableLookAhead {
		f := j.MyFuture()
		next := f.route.Op(f.taskNumber).Machine
		next.futureArrival(f, j.FinishTime())
	}
}

// MyFuture returns a clone of this job switched to the next operation. The
// clone is lazily created once and reused; it carries the isFuture flag and
// is never enqueued for real processing.
func (j *Job) MyFuture() *Job {
	if j.future == nil {
		j.future = j.Clone()
		j.future.isFuture = true
	}
	j.future.SetTaskNumber(j.taskNumber + 1)
	return j.future
}

func (j *Job) IsFuture() bool { return j.isFuture }

// Future returns the look-ahead clone, nil if none was created yet.
func (j *Job) Future() *Job { return j.future }

// Clone copies the job. The clone shares the (immutable) route, gets an
// independent value store and no future clone of its own.
func (j *Job) Clone() *Job {
	c := *j
	c.future = nil
	c.ValueStore = j.CloneStore()
	if j.opDueDates != nil {
		c.opDueDates = append([]float64(nil), j.opDueDates...)
	}
	return &c
}

// SetOpDueDates overrides the per-operation due dates.
func (j *Job) SetOpDueDates(d []float64) { j.opDueDates = d }

func (j *Job) OpDueDates() []float64 { return j.opDueDates }

// CurrentOperationDueDate returns the due date of the current operation,
// computing total-work-content due dates on first use.
func (j *Job) CurrentOperationDueDate() float64 {
	if j.opDueDates == nil {
		j.SetOpDueDates(ComputeDueDatesTWC(j, (j.dueDate-j.relDate)/j.ProcSum()))
	}
	return j.opDueDates[j.taskNumber]
}

// ComputeDueDatesTWC computes operational due dates with the total work
// content method, i.e. proportional to an operation's processing time.
func ComputeDueDatesTWC(j *Job, ff float64) []float64 {
	ops := j.route.Operations()
	res := make([]float64, len(ops))

	due := j.RelDate()
	for i := range res {
		due += ff * ops[i].ProcTime
		res[i] = due
	}
	return res
}

// === PrioRuleTarget ===

func (j *Job) Job(i int) *Job {
	if i != 0 {
		panic(fmt.Sprintf("job %s has no batch member %d", j.Name(), i))
	}
	return j
}

func (j *Job) NumJobsInBatch() int { return 1 }
func (j *Job) IsBatch() bool       { return false }

func (j *Job) SetupState() int {
	return j.route.Op(j.taskNumber).SetupState
}

func (j *Job) BatchFamily() string {
	return j.route.Op(j.taskNumber).BatchFamily
}

func (j *Job) SetName(n string) { j.name = n }

func (j *Job) Name() string {
	if j.name == "" {
		return fmt.Sprintf("Job.%d.%d", j.jobType, j.jobNum)
	}
	return j.name
}

func (j *Job) String() string {
	s := fmt.Sprintf("%s#%d", j.Name(), j.taskNumber)
	if j.isFuture {
		s += "(future)"
	}
	return s
}

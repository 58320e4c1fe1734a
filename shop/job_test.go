package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoStationShop builds an uninitialized shop with two stations and a
// route W1(2.0) -> W2(3.0).
func twoStationShop() (*Shop, *Route) {
	sh := NewShop()
	w1 := NewWorkStation("W1", 1)
	w2 := NewWorkStation("W2", 1)
	sh.AddWorkStation(w1, w2)
	r := NewRoute(
		Operation{Machine: w1, ProcTime: 2.0},
		Operation{Machine: w2, ProcTime: 3.0},
	)
	return sh, r
}

func TestJob_RemainingProcTimeFollowsTaskNumber(t *testing.T) {
	// GIVEN a job on a two-operation route (2.0 then 3.0)
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)

	// THEN the remaining time covers the whole route at task 0
	require.Equal(t, 5.0, j.RemainingProcTime())

	// WHEN the task number advances
	j.SetTaskNumber(1)

	// THEN the cache was invalidated and recomputed from the new index
	require.Equal(t, 3.0, j.RemainingProcTime())

	j.SetTaskNumber(2)
	require.Equal(t, 0.0, j.RemainingProcTime())
}

func TestJob_CurrProcTimeAndOpsLeft(t *testing.T) {
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)

	assert.Equal(t, 2.0, j.CurrProcTime())
	assert.Equal(t, 2, j.NumOps())
	assert.Equal(t, 2, j.NumOpsLeft())
	assert.False(t, j.IsLastOperation())

	j.SetTaskNumber(1)
	assert.Equal(t, 3.0, j.CurrProcTime())
	assert.Equal(t, 1, j.NumOpsLeft())
	assert.True(t, j.IsLastOperation())
}

func TestJob_MyFutureIsFlaggedAndAdvanced(t *testing.T) {
	// GIVEN a job at its first operation
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)
	j.SetJobNum(7)

	// WHEN the future clone is requested
	f := j.MyFuture()

	// THEN the clone is marked future, points at the next operation and
	// is reused on subsequent calls
	assert.True(t, f.IsFuture())
	assert.False(t, j.IsFuture())
	assert.Equal(t, 1, f.TaskNumber())
	assert.Equal(t, 7, f.JobNum())
	assert.Same(t, f, j.MyFuture())
}

func TestJob_CloneIsIndependent(t *testing.T) {
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)
	j.Put("color", "red")

	c := j.Clone()
	c.Put("color", "blue")
	c.SetTaskNumber(1)

	assert.Equal(t, "red", j.Get("color"))
	assert.Equal(t, 0, j.TaskNumber())
	assert.Nil(t, c.Future(), "clone must not share the future clone")
}

func TestJob_ComputeDueDatesTWC(t *testing.T) {
	// operation due dates are proportional to processing time
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)
	j.SetRelDate(10)
	j.SetDueDate(20) // allowance 10 over procSum 5 => factor 2

	assert.Equal(t, 14.0, j.CurrentOperationDueDate())
	j.SetTaskNumber(1)
	assert.Equal(t, 20.0, j.CurrentOperationDueDate())
}

func TestJob_DefaultName(t *testing.T) {
	sh, r := twoStationShop()
	j := NewJob(sh)
	j.SetRoute(r)
	j.SetJobNum(3)
	j.SetJobType(1)

	assert.Equal(t, "Job.1.3", j.Name())
	j.SetName("rush")
	assert.Equal(t, "rush", j.Name())
}

func TestBatch_AggregatesMembers(t *testing.T) {
	// GIVEN two jobs of one batch family with different proc times
	sh := NewShop()
	w := NewWorkStation("W", 1)
	sh.AddWorkStation(w)
	r1 := NewRoute(Operation{Machine: w, ProcTime: 2.0, BatchFamily: "F"})
	r2 := NewRoute(Operation{Machine: w, ProcTime: 5.0, BatchFamily: "F"})

	a := NewJob(sh)
	a.SetRoute(r1)
	a.SetJobNum(1)
	a.SetArriveTime(4)
	a.SetDueDate(30)
	b := NewJob(sh)
	b.SetRoute(r2)
	b.SetJobNum(2)
	b.SetArriveTime(3)
	b.SetDueDate(20)

	// WHEN both join a batch
	batch := NewBatch("F")
	batch.AddToBatch(a)
	batch.AddToBatch(b)

	// THEN the batch aggregates: max proc time, earliest arrival and due
	// date, smallest job number
	assert.True(t, batch.IsBatch())
	assert.Equal(t, 2, batch.NumJobsInBatch())
	assert.Equal(t, 5.0, batch.CurrProcTime())
	assert.Equal(t, 3.0, batch.ArriveTime())
	assert.Equal(t, 20.0, batch.DueDate())
	assert.Equal(t, 1, batch.JobNum())
	assert.Equal(t, "F", batch.BatchFamily())
}

func TestBatch_RejectsForeignFamily(t *testing.T) {
	sh := NewShop()
	w := NewWorkStation("W", 1)
	sh.AddWorkStation(w)
	j := NewJob(sh)
	j.SetRoute(NewRoute(Operation{Machine: w, ProcTime: 1, BatchFamily: "G"}))

	batch := NewBatch("F")
	assert.Panics(t, func() { batch.AddToBatch(j) })
}

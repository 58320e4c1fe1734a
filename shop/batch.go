package shop

import (
	"fmt"
	"math"
)

// Batch groups jobs of the same batch family for joint processing on one
// machine. Its processing time is the maximum processing time among its
// members; its setup state is derived from the batch family via the first
// member's current operation.
type Batch struct {
	family string
	jobs   []*Job
}

// NewBatch creates an empty batch for a family.
func NewBatch(family string) *Batch {
	return &Batch{family: family}
}

// AddToBatch appends a member. All members must share the batch family.
func (b *Batch) AddToBatch(j *Job) {
	if j.BatchFamily() != b.family {
		panic(fmt.Sprintf("job %s of family %q added to batch of family %q",
			j.Name(), j.BatchFamily(), b.family))
	}
	b.jobs = append(b.jobs, j)
}

func (b *Batch) Job(i int) *Job      { return b.jobs[i] }
func (b *Batch) NumJobsInBatch() int { return len(b.jobs) }
func (b *Batch) IsBatch() bool       { return true }

// ArriveTime is the earliest member arrival.
func (b *Batch) ArriveTime() float64 {
	t := math.Inf(1)
	for _, j := range b.jobs {
		if j.ArriveTime() < t {
			t = j.ArriveTime()
		}
	}
	return t
}

// CurrProcTime is the maximum processing time among the members.
func (b *Batch) CurrProcTime() float64 {
	var p float64
	for _, j := range b.jobs {
		if j.CurrProcTime() > p {
			p = j.CurrProcTime()
		}
	}
	return p
}

func (b *Batch) RemainingProcTime() float64 {
	var p float64
	for _, j := range b.jobs {
		if j.RemainingProcTime() > p {
			p = j.RemainingProcTime()
		}
	}
	return p
}

// DueDate is the earliest member due date.
func (b *Batch) DueDate() float64 {
	t := math.Inf(1)
	for _, j := range b.jobs {
		if j.DueDate() < t {
			t = j.DueDate()
		}
	}
	return t
}

// JobNum is the smallest member job number, used for tie-breaking.
func (b *Batch) JobNum() int {
	n := math.MaxInt
	for _, j := range b.jobs {
		if j.JobNum() < n {
			n = j.JobNum()
		}
	}
	return n
}

func (b *Batch) SetupState() int {
	return b.jobs[0].SetupState()
}

func (b *Batch) BatchFamily() string { return b.family }

func (b *Batch) Name() string {
	return fmt.Sprintf("Batch(%s,n=%d)", b.family, len(b.jobs))
}

func (b *Batch) String() string { return b.Name() }

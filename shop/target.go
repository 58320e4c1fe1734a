package shop

// PrioRuleTarget abstracts over what a priority rule may select: a single
// job or a batch of jobs processed jointly on one machine.
type PrioRuleTarget interface {
	// Job returns the i-th job of the target; a plain job only answers i=0.
	Job(i int) *Job
	// NumJobsInBatch returns how many jobs the target carries.
	NumJobsInBatch() int
	// IsBatch reports whether the target is a multi-job batch.
	IsBatch() bool

	// ArriveTime is the queue arrival time of the target (for a batch, the
	// earliest member arrival).
	ArriveTime() float64
	// CurrProcTime is the processing time of the target's current operation
	// (for a batch, the maximum over its members).
	CurrProcTime() float64
	// RemainingProcTime is the processing time left on the route(s).
	RemainingProcTime() float64
	// DueDate of the target (for a batch, the earliest member due date).
	DueDate() float64
	// JobNum is the target's tie-break identity: rules break score ties by
	// ascending job number.
	JobNum() int
	// SetupState the machine must be in to process the target.
	SetupState() int
	// BatchFamily of the target's current operation.
	BatchFamily() string

	Name() string
}

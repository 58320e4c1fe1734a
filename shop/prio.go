package shop

// PrioRule selects which queued target an idle machine processes next. A
// rule never mutates the queue; it only chooses. Rules may be stateful
// across calls (a setup-minimizing rule remembering its last choice), so
// they are cloned together with the scenario.
//
// lookAhead holds the announced future arrivals of the station when
// look-ahead is enabled, the empty slice otherwise. now is the current
// simulation time. Returning nil declines the selection; the machine stays
// idle until the next arrival or activation triggers another attempt.
type PrioRule interface {
	SelectTarget(ws *WorkStation, queue []PrioRuleTarget, lookAhead []*Job, now float64) PrioRuleTarget
	Clone() PrioRule
}

// maxByScore picks the target with the highest score. Score ties are broken
// by ascending job number.
func maxByScore(queue []PrioRuleTarget, score func(PrioRuleTarget) float64) PrioRuleTarget {
	var best PrioRuleTarget
	var bestScore float64
	for _, t := range queue {
		s := score(t)
		switch {
		case best == nil, s > bestScore:
			best, bestScore = t, s
		case s == bestScore && t.JobNum() < best.JobNum():
			best = t
		}
	}
	return best
}

// FCFS selects the target that arrived in the queue first.
type FCFS struct{}

func NewFCFS() *FCFS { return &FCFS{} }

func (r *FCFS) SelectTarget(_ *WorkStation, queue []PrioRuleTarget, _ []*Job, _ float64) PrioRuleTarget {
	return maxByScore(queue, func(t PrioRuleTarget) float64 { return -t.ArriveTime() })
}

func (r *FCFS) Clone() PrioRule { return &FCFS{} }

func (r *FCFS) String() string { return "FCFS" }

// SPT selects the target with the shortest current processing time.
type SPT struct{}

func NewSPT() *SPT { return &SPT{} }

func (r *SPT) SelectTarget(_ *WorkStation, queue []PrioRuleTarget, _ []*Job, _ float64) PrioRuleTarget {
	return maxByScore(queue, func(t PrioRuleTarget) float64 { return -t.CurrProcTime() })
}

func (r *SPT) Clone() PrioRule { return &SPT{} }

func (r *SPT) String() string { return "SPT" }

// EDD selects the target with the earliest due date.
type EDD struct{}

func NewEDD() *EDD { return &EDD{} }

func (r *EDD) SelectTarget(_ *WorkStation, queue []PrioRuleTarget, _ []*Job, _ float64) PrioRuleTarget {
	return maxByScore(queue, func(t PrioRuleTarget) float64 { return -t.DueDate() })
}

func (r *EDD) Clone() PrioRule { return &EDD{} }

func (r *EDD) String() string { return "EDD" }

// MinSetup is a setup-minimizing rule: it prefers targets matching the
// machine's current setup state, FCFS among those. With look-ahead it may
// decline a selection entirely when a matching arrival has been announced
// that is closer than the changeover a non-matching choice would cost —
// the machine then idles briefly instead of paying the setup.
type MinSetup struct{}

func NewMinSetup() *MinSetup { return &MinSetup{} }

func (r *MinSetup) SelectTarget(ws *WorkStation, queue []PrioRuleTarget, lookAhead []*Job, now float64) PrioRuleTarget {
	cur := ws.CurrMachine.SetupState()

	var matching []PrioRuleTarget
	for _, t := range queue {
		if t.SetupState() == cur {
			matching = append(matching, t)
		}
	}
	if len(matching) > 0 {
		return maxByScore(matching, func(t PrioRuleTarget) float64 { return -t.ArriveTime() })
	}

	// No queued target matches the current setup. If an announced arrival
	// does, and it lands before the changeover to the FCFS fallback would
	// complete, waiting for it is the better move.
	fallback := maxByScore(queue, func(t PrioRuleTarget) float64 { return -t.ArriveTime() })
	if fallback == nil {
		return nil
	}
	changeover := ws.SetupTimeBetween(cur, fallback.SetupState())
	for _, f := range lookAhead {
		if f.SetupState() == cur && f.ArriveTime()-now < changeover {
			return nil
		}
	}
	return fallback
}

func (r *MinSetup) Clone() PrioRule { return &MinSetup{} }

func (r *MinSetup) String() string { return "MinSetup" }

// FamilyBatching wraps a base rule with greedy batch forming: queued jobs
// of the same batch family are offered to the base rule as a single batch
// of up to MaxBatchSize members (ordered by queue arrival). Jobs without a
// family stay individual targets.
type FamilyBatching struct {
	Base         PrioRule
	MaxBatchSize int
}

func NewFamilyBatching(base PrioRule, maxBatchSize int) *FamilyBatching {
	return &FamilyBatching{Base: base, MaxBatchSize: maxBatchSize}
}

func (r *FamilyBatching) SelectTarget(ws *WorkStation, queue []PrioRuleTarget, lookAhead []*Job, now float64) PrioRuleTarget {
	var candidates []PrioRuleTarget
	batches := make(map[string]*Batch)

	for _, t := range queue {
		fam := t.BatchFamily()
		if fam == NoBatchFamily || t.IsBatch() {
			candidates = append(candidates, t)
			continue
		}
		b := batches[fam]
		if b == nil {
			b = NewBatch(fam)
			batches[fam] = b
			candidates = append(candidates, b)
		}
		if r.MaxBatchSize <= 0 || b.NumJobsInBatch() < r.MaxBatchSize {
			b.AddToBatch(t.Job(0))
		}
	}

	return r.Base.SelectTarget(ws, candidates, lookAhead, now)
}

func (r *FamilyBatching) Clone() PrioRule {
	return &FamilyBatching{Base: r.Base.Clone(), MaxBatchSize: r.MaxBatchSize}
}

func (r *FamilyBatching) String() string { return "FamilyBatching" }

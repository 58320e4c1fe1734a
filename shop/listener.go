package shop

import "github.com/jobshop-sim/jobshop-sim/sim"

// JobEventFuncs dispatches job notifications to per-kind hooks. Hooks left
// nil are skipped; unknown kinds fall through to Other. Register it with
// Simulation.Subscribe(JobEvents, ...).
type JobEventFuncs struct {
	Released         func(sh *Shop, j *Job)
	Finished         func(sh *Shop, j *Job)
	ArrivedInQueue   func(sh *Shop, j *Job)
	RemovedFromQueue func(sh *Shop, j *Job)
	// OperationStarted receives the setup transition the station computed
	// for the job's selection.
	OperationStarted func(sh *Shop, j *Job, oldSetup, newSetup int, setupTime float64)
	EndOperation     func(sh *Shop, j *Job)
	Other            func(sh *Shop, j *Job, kind JobEvent)
}

func (l *JobEventFuncs) Inform(source any, kind sim.Notification) {
	j := source.(*Job)
	e := kind.(JobEvent)
	sh := j.Shop()

	switch e {
	case JobReleased:
		if l.Released != nil {
			l.Released(sh, j)
		}
	case JobFinished:
		if l.Finished != nil {
			l.Finished(sh, j)
		}
	case JobArrivedInQueue:
		if l.ArrivedInQueue != nil {
			l.ArrivedInQueue(sh, j)
		}
	case JobRemovedFromQueue:
		if l.RemovedFromQueue != nil {
			l.RemovedFromQueue(sh, j)
		}
	case JobStartOperation:
		if l.OperationStarted != nil {
			ws := j.CurrMachine()
			l.OperationStarted(sh, j, ws.OldSetupState, ws.NewSetupState, ws.SetupTime)
		}
	case JobEndOperation:
		if l.EndOperation != nil {
			l.EndOperation(sh, j)
		}
	default:
		if l.Other != nil {
			l.Other(sh, j, e)
		}
	}
}

// WorkStationEventFuncs dispatches workstation notifications to per-kind
// hooks, unpacking the station's transient payload fields.
type WorkStationEventFuncs struct {
	Init    func(ws *WorkStation)
	Arrival func(ws *WorkStation, justArrived *Job)
	// OperationStarted fires on selection, with the setup transition.
	OperationStarted   func(ws *WorkStation, justStarted PrioRuleTarget, oldSetup, newSetup int, setupTime float64)
	OperationCompleted func(ws *WorkStation, justCompleted PrioRuleTarget)
	Activated          func(ws *WorkStation, m *IndividualMachine)
	Deactivated        func(ws *WorkStation, m *IndividualMachine)
	Done               func(ws *WorkStation)
	CollectResults     func(ws *WorkStation, res map[string]any)
	Other              func(ws *WorkStation, kind WorkStationEvent)
}

func (l *WorkStationEventFuncs) Inform(source any, kind sim.Notification) {
	ws := source.(*WorkStation)
	e := kind.(WorkStationEvent)

	switch e {
	case WSInit:
		if l.Init != nil {
			l.Init(ws)
		}
	case WSJobArrival:
		if l.Arrival != nil {
			l.Arrival(ws, ws.JustArrived)
		}
	case WSJobSelected:
		if l.OperationStarted != nil {
			l.OperationStarted(ws, ws.JustStarted, ws.OldSetupState, ws.NewSetupState, ws.SetupTime)
		}
	case WSJobCompleted:
		if l.OperationCompleted != nil {
			l.OperationCompleted(ws, ws.JustCompleted)
		}
	case WSActivated:
		if l.Activated != nil {
			l.Activated(ws, ws.CurrMachine)
		}
	case WSDeactivated:
		if l.Deactivated != nil {
			l.Deactivated(ws, ws.CurrMachine)
		}
	case WSDone:
		if l.Done != nil {
			l.Done(ws)
		}
	case WSCollectResults:
		if l.CollectResults != nil {
			l.CollectResults(ws, ws.ResultMap)
		}
	default:
		if l.Other != nil {
			l.Other(ws, e)
		}
	}
}

// ShopEventFuncs dispatches shop notifications to per-kind hooks.
type ShopEventFuncs struct {
	WarmUpEnded    func(sh *Shop)
	CollectResults func(sh *Shop, res map[string]any)
	Other          func(sh *Shop, kind ShopEvent)
}

func (l *ShopEventFuncs) Inform(source any, kind sim.Notification) {
	sh := source.(*Shop)
	e := kind.(ShopEvent)

	switch e {
	case ShopWarmUpEnded:
		if l.WarmUpEnded != nil {
			l.WarmUpEnded(sh)
		}
	case ShopCollectResults:
		if l.CollectResults != nil {
			l.CollectResults(sh, sh.ResultMap)
		}
	default:
		if l.Other != nil {
			l.Other(sh, e)
		}
	}
}

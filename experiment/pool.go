package experiment

import "sync"

// runPool executes run(0..numTasks-1), at most workers at a time. Each
// task owns its clone of the scenario, so tasks share no mutable state;
// the caller merges results after Wait. workers <= 1 runs inline.
func runPool(numTasks, workers int, run func(i int)) {
	if workers <= 1 {
		for i := 0; i < numTasks; i++ {
			run(i)
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			run(i)
		}(i)
	}
	wg.Wait()
}

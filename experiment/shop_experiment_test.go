package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/shop"
	"github.com/jobshop-sim/jobshop-sim/sim"
)

// testScenario builds a small two-station flow shop with stochastic
// arrivals and the standard collectors.
func testScenario(name string, maxJobs int) *ShopExperiment {
	sh := shop.NewShop()
	w1 := shop.NewWorkStation("W1", 1)
	w2 := shop.NewWorkStation("W2", 2)
	sh.AddWorkStation(w1, w2)

	route := shop.NewRoute(
		shop.Operation{Machine: w1, ProcTime: 1.0},
		shop.Operation{Machine: w2, ProcTime: 2.5},
	)
	src := shop.NewJobSource("src", sim.NewDblExp(1.2), route)
	src.MaxJobs = maxJobs
	sh.AddSource(src)

	exp := NewShopExperiment(name, sh)
	exp.Seed = 42
	exp.AddListener(shop.NewFlowTimeCollector(), shop.NewMakespanCollector())
	return exp
}

// withoutRunTime strips the wall-clock key so result maps can be compared
// byte for byte.
func withoutRunTime(res map[string]any) map[string]any {
	c := make(map[string]any, len(res))
	for k, v := range res {
		if k == RunTimeKey {
			continue
		}
		c[k] = v
	}
	return c
}

func TestShopExperiment_RunIsDeterministic(t *testing.T) {
	// GIVEN one experiment run twice with the same seed
	exp := testScenario("det", 30)

	first, err := exp.Run()
	require.NoError(t, err)
	second, err := exp.Run()
	require.NoError(t, err)

	// THEN the numeric result maps are identical
	assert.Equal(t, withoutRunTime(first), withoutRunTime(second))
}

func TestShopExperiment_SeedChangesResults(t *testing.T) {
	exp := testScenario("seeded", 30)

	first, err := exp.Run()
	require.NoError(t, err)
	exp.SetSeed(43)
	second, err := exp.Run()
	require.NoError(t, err)

	assert.NotEqual(t, withoutRunTime(first), withoutRunTime(second))
}

func TestShopExperiment_CloneRunsIdentically(t *testing.T) {
	exp := testScenario("orig", 30)
	clone := exp.Clone()

	a, err := exp.Run()
	require.NoError(t, err)
	b, err := clone.Run()
	require.NoError(t, err)

	assert.Equal(t, withoutRunTime(a), withoutRunTime(b))
}

func TestShopExperiment_CloneIsIndependent(t *testing.T) {
	// GIVEN an experiment and its clone
	exp := testScenario("orig", 30)
	baseline, err := exp.Run()
	require.NoError(t, err)

	clone := exp.Clone().(*ShopExperiment)

	// WHEN the clone's scenario is mutated and run
	for _, src := range clone.Shop.Sources {
		src.DueDateFactor = 5.0
		src.MaxJobs = 7
	}
	_, err = clone.Run()
	require.NoError(t, err)

	// THEN the original still reproduces its baseline
	again, err := exp.Run()
	require.NoError(t, err)
	assert.Equal(t, withoutRunTime(baseline), withoutRunTime(again))
	assert.Equal(t, 30, exp.Shop.Sources[0].MaxJobs)
}

func TestShopExperiment_FailureSurfacesAsError(t *testing.T) {
	// a listener that panics aborts the run with an error instead of
	// crashing the caller
	exp := testScenario("faulty", 5)
	exp.AddListener(panickyListener{})

	_, err := exp.Run()
	require.Error(t, err)
}

type panickyListener struct{}

func (panickyListener) Install(s *sim.Simulation) {
	s.Subscribe(shop.JobEvents, sim.SubscriberFunc(func(any, sim.Notification) {
		panic("listener exploded")
	}))
}

func (p panickyListener) CloneListener() shop.ShopListener { return p }

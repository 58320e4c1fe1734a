package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiConf_UsesConfigurationTemplate(t *testing.T) {
	// GIVEN a base experiment and a configuration carrying its own
	// template under the reserved "@" key
	base := testScenario("base", 10)
	base.SimLength = 100
	alt := testScenario("alt", 4)

	multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
	multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})
	multi.AddConfiguration(map[string]any{"dueDateFactor": 2.0, KeyExperiment: alt})

	// WHEN the sweep runs
	res, err := multi.Run()
	require.NoError(t, err)

	// THEN the second run cloned the alternate template, not the base
	runs := res["configurations"].([]map[string]any)
	require.Len(t, runs, 2)
	assert.Equal(t, 10, runs[0]["jobsFinished"])
	assert.Equal(t, 4, runs[1]["jobsFinished"])
	assert.Equal(t, 0, res[AbortCountKey])
}

func TestMultiConf_FaultIsolation(t *testing.T) {
	// GIVEN a 4-configuration sweep whose second configuration fails
	// during setup (unknown property path)
	base := testScenario("base", 5)
	multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
	multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})
	multi.AddConfiguration(map[string]any{"noSuchProperty": 1.0})
	multi.AddConfiguration(map[string]any{"dueDateFactor": 2.0})
	multi.AddConfiguration(map[string]any{"dueDateFactor": 3.0})

	// WHEN the sweep runs
	res, err := multi.Run()
	require.NoError(t, err)

	// THEN three runs succeeded, the failing one carries the exception
	// entries, and the sweep completed
	runs := res["configurations"].([]map[string]any)
	require.Len(t, runs, 4)

	assert.Equal(t, 1, res[AbortCountKey])
	failed := runs[1]
	assert.Contains(t, failed, ExceptionKey)
	assert.Contains(t, failed, ExceptionMessageKey)
	assert.NotContains(t, failed, "simTime")
	for _, i := range []int{0, 2, 3} {
		assert.Contains(t, runs[i], "simTime", "run %d should have succeeded", i)
		assert.NotContains(t, runs[i], ExceptionKey)
	}
}

func TestMultiConf_AppliesKeysByAscendingLength(t *testing.T) {
	// GIVEN a recording setter and a configuration with keys "a" and
	// "a.b"
	base := testScenario("base", 1)
	var applied []string
	setter := NewSetterRegistry()
	setter.Register("a", func(Experiment, any) error {
		applied = append(applied, "a")
		return nil
	})
	setter.Register("a.b", func(Experiment, any) error {
		applied = append(applied, "a.b")
		return nil
	})

	multi := NewMultiConfExperiment("sweep", base, setter)
	multi.AddConfiguration(map[string]any{"a.b": 2, "a": 1})

	// WHEN the sweep runs
	_, err := multi.Run()
	require.NoError(t, err)

	// THEN the containing object is set strictly before its sub-property
	assert.Equal(t, []string{"a", "a.b"}, applied)
}

func TestMultiConf_ComplexFactorSetter(t *testing.T) {
	base := testScenario("base", 3)
	base.SimLength = 100

	multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
	multi.AddConfiguration(map[string]any{
		"dueDateFactor": 1.0,
		"tweak": ComplexFactorSetter(func(e Experiment) {
			e.(*ShopExperiment).SimLength = 2.0
		}),
	})

	res, err := multi.Run()
	require.NoError(t, err)

	runs := res["configurations"].([]map[string]any)
	require.Len(t, runs, 1)
	// the horizon cut the run short at simTime 2
	assert.Equal(t, 2.0, runs[0]["simTime"])
	// the base template is untouched
	assert.Equal(t, 100.0, base.SimLength)
}

func TestMultiConf_ValidatorSkipsSilently(t *testing.T) {
	base := testScenario("base", 2)
	multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
	multi.Validator = func(conf map[string]any) bool {
		return conf["dueDateFactor"] != 2.0
	}
	multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})
	multi.AddConfiguration(map[string]any{"dueDateFactor": 2.0})
	multi.AddConfiguration(map[string]any{"dueDateFactor": 3.0})

	res, err := multi.Run()
	require.NoError(t, err)

	assert.Equal(t, 2, res["numConfigurations"])
	assert.Len(t, res["configurations"].([]map[string]any), 2)
	assert.Equal(t, 0, res[AbortCountKey])
}

func TestMultiConf_MissingBaseExperimentFails(t *testing.T) {
	multi := NewMultiConfExperiment("sweep", nil, NewShopExperimentSetter())
	multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})

	_, err := multi.Run()
	assert.ErrorIs(t, err, ErrNoBaseExperiment)
}

func TestMultiConf_ReplicationsAggregate(t *testing.T) {
	// GIVEN one configuration run three times with derived seeds
	base := testScenario("base", 8)
	multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
	multi.Seed = 7
	multi.Replications = 3
	multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})

	res, err := multi.Run()
	require.NoError(t, err)

	// THEN every numeric key is summarised across the replications
	summary := res["summary"].(map[string]any)
	require.Len(t, summary, 1)
	for _, byKey := range summary {
		flow := byKey.(map[string]any)["flowMean"].(map[string]any)
		assert.Equal(t, 3, flow["count"])
	}
	runs := res["configurations"].([]map[string]any)
	assert.Len(t, runs, 3)
}

func TestMultiConf_ParallelWorkersMatchSequential(t *testing.T) {
	// replication parallelism must not change the produced results
	mk := func(workers int) map[string]any {
		base := testScenario("base", 12)
		multi := NewMultiConfExperiment("sweep", base, NewShopExperimentSetter())
		multi.Seed = 11
		multi.Replications = 4
		multi.Workers = workers
		multi.AddConfiguration(map[string]any{"dueDateFactor": 1.0})
		multi.AddConfiguration(map[string]any{"dueDateFactor": 2.0})
		res, err := multi.Run()
		require.NoError(t, err)
		runs := res["configurations"].([]map[string]any)
		out := map[string]any{}
		for i, r := range runs {
			out[string(rune('a'+i))] = withoutRunTime(r)
		}
		return out
	}

	assert.Equal(t, mk(1), mk(4))
}

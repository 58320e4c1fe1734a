package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
name: two-stage
simLength: 0
seed: 42
lookAhead: false
workstations:
  - name: W1
    machines: 1
    rule: fcfs
  - name: W2
    machines: 2
    rule: spt
    setupMatrix: [[0, 1.5], [1.5, 0]]
routes:
  - name: main
    operations:
      - workstation: W1
        procTime: 1.0
      - workstation: W2
        procTime: 2.0
        setupState: 1
sources:
  - name: orders
    interArrival: {type: const, values: [0, 1]}
    routes: [main]
    maxJobs: 6
    dueDateFactor: 2.0
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ParsesTopology(t *testing.T) {
	cfg, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	assert.Equal(t, "two-stage", cfg.Name)
	require.Len(t, cfg.WorkStations, 2)
	assert.Equal(t, 2, cfg.WorkStations[1].Machines)
	assert.Equal(t, "spt", cfg.WorkStations[1].Rule)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, 2.0, cfg.Routes[0].Operations[1].ProcTime)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, 6, cfg.Sources[0].MaxJobs)
}

func TestBuildExperiment_RunsScenario(t *testing.T) {
	cfg, err := LoadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	exp, err := BuildExperiment(cfg)
	require.NoError(t, err)

	res, err := exp.Run()
	require.NoError(t, err)

	assert.Equal(t, 6, res["jobsFinished"])
	assert.Contains(t, res, "flowMean")
	assert.Contains(t, res, "makespan")
	assert.Contains(t, res, "W1.util")
	assert.Contains(t, res, "W2.util")
}

func TestBuildExperiment_UnknownWorkstationFails(t *testing.T) {
	bad := `
workstations:
  - name: W1
routes:
  - name: r
    operations:
      - workstation: W9
        procTime: 1.0
sources:
  - name: s
    interArrival: {type: const, values: [1]}
    routes: [r]
`
	cfg, err := LoadScenario(writeScenario(t, bad))
	require.NoError(t, err)

	_, err = BuildExperiment(cfg)
	assert.ErrorContains(t, err, "unknown workstation")
}

func TestBuildExperiment_UnknownRuleFails(t *testing.T) {
	bad := `
workstations:
  - name: W1
    rule: psychic
`
	cfg, err := LoadScenario(writeScenario(t, bad))
	require.NoError(t, err)

	_, err = BuildExperiment(cfg)
	assert.ErrorContains(t, err, "unknown priority rule")
}

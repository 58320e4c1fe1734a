package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jobshop-sim/jobshop-sim/experiment"
)

// FactorsConfig is the YAML shape of a factor sweep: a list of
// configurations mapping property paths to values, plus replication and
// worker counts.
type FactorsConfig struct {
	Replications   int              `yaml:"replications"`
	Workers        int              `yaml:"workers"`
	Configurations []map[string]any `yaml:"configurations"`
}

var (
	sweepScenarioFile string
	factorsFile       string
	sweepWorkers      int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a factor sweep over a base scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadScenario(sweepScenarioFile)
		if err != nil {
			return err
		}
		base, err := BuildExperiment(cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(factorsFile)
		if err != nil {
			return fmt.Errorf("reading factors: %w", err)
		}
		var factors FactorsConfig
		if err := yaml.Unmarshal(data, &factors); err != nil {
			return fmt.Errorf("parsing factors: %w", err)
		}

		multi := experiment.NewMultiConfExperiment(base.Name()+"-sweep", base,
			experiment.NewShopExperimentSetter())
		multi.Seed = cfg.Seed
		multi.Replications = factors.Replications
		multi.Workers = factors.Workers
		if cmd.Flags().Changed("workers") {
			multi.Workers = sweepWorkers
		}
		for _, conf := range factors.Configurations {
			multi.AddConfiguration(conf)
		}

		res, err := multi.Run()
		if err != nil {
			return err
		}
		return printResults(res)
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepScenarioFile, "scenario", "", "base scenario YAML file")
	sweepCmd.Flags().StringVar(&factorsFile, "factors", "", "factor sweep YAML file")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "replication worker count")
	_ = sweepCmd.MarkFlagRequired("scenario")
	_ = sweepCmd.MarkFlagRequired("factors")
	rootCmd.AddCommand(sweepCmd)
}

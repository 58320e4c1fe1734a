package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jobshop-sim/jobshop-sim/experiment"
	"github.com/jobshop-sim/jobshop-sim/shop"
	"github.com/jobshop-sim/jobshop-sim/sim"
)

// ScenarioConfig is the YAML shape of a scenario definition: shop
// topology, job sources and global parameters.
type ScenarioConfig struct {
	Name            string  `yaml:"name"`
	SimLength       float64 `yaml:"simLength"`
	WarmUp          float64 `yaml:"warmUp"`
	Seed            uint64  `yaml:"seed"`
	LookAhead       bool    `yaml:"lookAhead"`
	MaxJobsFinished int     `yaml:"maxJobsFinished"`

	WorkStations []WorkStationConfig `yaml:"workstations"`
	Routes       []RouteConfig       `yaml:"routes"`
	Sources      []SourceConfig      `yaml:"sources"`
}

type WorkStationConfig struct {
	Name           string      `yaml:"name"`
	Machines       int         `yaml:"machines"`
	Rule           string      `yaml:"rule"`
	SetupMatrix    [][]float64 `yaml:"setupMatrix"`
	DowntimePolicy string      `yaml:"downtimePolicy"`
	// MaxBatchSize > 0 wraps the rule with family batch forming.
	MaxBatchSize int `yaml:"maxBatchSize"`
}

type OperationConfig struct {
	WorkStation string  `yaml:"workstation"`
	ProcTime    float64 `yaml:"procTime"`
	SetupState  int     `yaml:"setupState"`
	BatchFamily string  `yaml:"batchFamily"`
}

type RouteConfig struct {
	Name       string            `yaml:"name"`
	Operations []OperationConfig `yaml:"operations"`
}

// StreamConfig selects and parameterizes a random stream.
type StreamConfig struct {
	Type   string    `yaml:"type"` // const, exp, normal, uniform
	Mean   float64   `yaml:"mean"`
	Stdev  float64   `yaml:"stdev"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Values []float64 `yaml:"values"`
}

type SourceConfig struct {
	Name          string       `yaml:"name"`
	InterArrival  StreamConfig `yaml:"interArrival"`
	Routes        []string     `yaml:"routes"`
	DueDateFactor float64      `yaml:"dueDateFactor"`
	MaxJobs       int          `yaml:"maxJobs"`
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &cfg, nil
}

// BuildExperiment turns a scenario config into a runnable ShopExperiment
// with the standard collectors attached.
func BuildExperiment(cfg *ScenarioConfig) (*experiment.ShopExperiment, error) {
	sh := shop.NewShop()
	sh.EnableLookAhead = cfg.LookAhead
	sh.MaxJobsFinished = cfg.MaxJobsFinished
	sh.WarmUp = cfg.WarmUp

	for _, wc := range cfg.WorkStations {
		machines := wc.Machines
		if machines == 0 {
			machines = 1
		}
		ws := shop.NewWorkStation(wc.Name, machines)

		rule, err := buildRule(wc.Rule)
		if err != nil {
			return nil, err
		}
		if wc.MaxBatchSize > 0 {
			rule = shop.NewFamilyBatching(rule, wc.MaxBatchSize)
		}
		ws.SetRule(rule)

		if wc.SetupMatrix != nil {
			ws.SetSetupMatrix(wc.SetupMatrix)
		}
		switch wc.DowntimePolicy {
		case "", "preserve":
			ws.DowntimePolicy = shop.DowntimePreserve
		case "discard":
			ws.DowntimePolicy = shop.DowntimeDiscard
		default:
			return nil, fmt.Errorf("workstation %q: unknown downtime policy %q", wc.Name, wc.DowntimePolicy)
		}
		sh.AddWorkStation(ws)
	}

	routes := make(map[string]*shop.Route, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		var ops []shop.Operation
		for _, oc := range rc.Operations {
			ws := sh.WorkStationByName(oc.WorkStation)
			if ws == nil {
				return nil, fmt.Errorf("route %q: unknown workstation %q", rc.Name, oc.WorkStation)
			}
			ops = append(ops, shop.Operation{
				Machine:     ws,
				ProcTime:    oc.ProcTime,
				SetupState:  oc.SetupState,
				BatchFamily: oc.BatchFamily,
			})
		}
		routes[rc.Name] = shop.NewRoute(ops...)
	}

	for _, sc := range cfg.Sources {
		stream, err := buildDblStream(sc.InterArrival)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		var rts []*shop.Route
		for _, name := range sc.Routes {
			r, ok := routes[name]
			if !ok {
				return nil, fmt.Errorf("source %q: unknown route %q", sc.Name, name)
			}
			rts = append(rts, r)
		}
		if len(rts) == 0 {
			return nil, fmt.Errorf("source %q: no routes", sc.Name)
		}
		src := shop.NewJobSource(sc.Name, stream, rts...)
		if sc.DueDateFactor > 0 {
			src.DueDateFactor = sc.DueDateFactor
		}
		src.MaxJobs = sc.MaxJobs
		if len(rts) > 1 {
			src.RouteSelect = sim.NewIntUniformRange(0, len(rts)-1)
		}
		sh.AddSource(src)
	}

	name := cfg.Name
	if name == "" {
		name = "scenario"
	}
	exp := experiment.NewShopExperiment(name, sh)
	exp.Seed = cfg.Seed
	exp.SimLength = cfg.SimLength
	exp.AddListener(
		shop.NewFlowTimeCollector(),
		shop.NewMakespanCollector(),
		shop.NewUtilizationCollector(),
	)
	return exp, nil
}

func buildRule(name string) (shop.PrioRule, error) {
	switch name {
	case "", "fcfs":
		return shop.NewFCFS(), nil
	case "spt":
		return shop.NewSPT(), nil
	case "edd":
		return shop.NewEDD(), nil
	case "minsetup":
		return shop.NewMinSetup(), nil
	default:
		return nil, fmt.Errorf("unknown priority rule %q", name)
	}
}

func buildDblStream(cfg StreamConfig) (sim.DblStream, error) {
	switch cfg.Type {
	case "const":
		if len(cfg.Values) == 0 {
			return nil, fmt.Errorf("const stream needs values")
		}
		return sim.NewDblConst(cfg.Values...), nil
	case "", "exp":
		if cfg.Mean <= 0 {
			return nil, fmt.Errorf("exp stream needs mean > 0")
		}
		return sim.NewDblExp(cfg.Mean), nil
	case "normal":
		return sim.NewDblNormal(cfg.Mean, cfg.Stdev), nil
	case "uniform":
		return sim.NewDblUniform(cfg.Min, cfg.Max), nil
	default:
		return nil, fmt.Errorf("unknown stream type %q", cfg.Type)
	}
}

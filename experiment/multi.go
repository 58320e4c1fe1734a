package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jobshop-sim/jobshop-sim/sim"
)

// KeyExperiment is the reserved configuration key whose value replaces the
// base experiment as the clone source for that configuration. It is never
// applied as a property.
const KeyExperiment = "@"

// ComplexFactorSetter configures a cloned experiment procedurally, used in
// place of a direct property assignment when a factor is more involved
// than a single value.
type ComplexFactorSetter func(e Experiment)

// ConfigurationValidator vetoes configurations whose factor combinations
// make no sense. Rejected configurations are skipped silently.
type ConfigurationValidator func(conf map[string]any) bool

// MultiConfExperiment executes variations of a base experiment by changing
// its properties. Each configuration maps property paths to values; the
// paths are applied in ascending key-length order so that a containing
// object is always set before its sub-properties (KeyExperiment counts as
// length -2 and is never applied). Equal lengths are applied in
// lexicographic order — callers must not rely on it.
type MultiConfExperiment struct {
	ExpName string
	Seed    uint64

	BaseExperiment Experiment
	Setter         PropertySetter
	Validator      ConfigurationValidator
	Configurations []map[string]any

	// Replications runs every configuration this many times with derived
	// seeds; zero means one.
	Replications int

	// Workers bounds replication-level parallelism. Each worker owns a
	// disjoint clone; results are merged on the coordinator. Zero or one
	// runs sequentially.
	Workers int
}

// NewMultiConfExperiment creates a sweep around a base experiment using
// the given property setter.
func NewMultiConfExperiment(name string, base Experiment, setter PropertySetter) *MultiConfExperiment {
	return &MultiConfExperiment{ExpName: name, BaseExperiment: base, Setter: setter}
}

func (m *MultiConfExperiment) Name() string { return m.ExpName }

func (m *MultiConfExperiment) SetSeed(seed uint64) { m.Seed = seed }

// AddConfiguration appends one factor combination to the sweep.
func (m *MultiConfExperiment) AddConfiguration(conf map[string]any) {
	m.Configurations = append(m.Configurations, conf)
}

type runSpec struct {
	conf map[string]any
	sig  string
	rep  int
}

type runOutcome struct {
	res     map[string]any
	aborted bool
}

// Run executes the sweep. Per-configuration failures are isolated: the
// failing run's result map carries EXCEPTION and EXCEPTION_MESSAGE and the
// abortCount total increments, but the sweep continues.
//
// The final result map holds "configurations" (the per-run result maps in
// configuration order), "summary" (per configuration signature, every
// numeric key summarised across replications) and "abortCount".
func (m *MultiConfExperiment) Run() (map[string]any, error) {
	reps := m.Replications
	if reps < 1 {
		reps = 1
	}

	var specs []runSpec
	numConfs := 0
	for _, conf := range m.Configurations {
		if m.Validator != nil && !m.Validator(conf) {
			continue
		}
		if m.BaseExperiment == nil {
			if _, ok := conf[KeyExperiment]; !ok {
				return nil, ErrNoBaseExperiment
			}
		}
		numConfs++
		sig := confSignature(conf)
		for rep := 0; rep < reps; rep++ {
			specs = append(specs, runSpec{conf: conf, sig: sig, rep: rep})
		}
	}

	logrus.WithField("experiment", m.ExpName).
		Infof("sweep: %d configurations, %d replications, %d runs", numConfs, reps, len(specs))

	outcomes := make([]runOutcome, len(specs))
	runPool(len(specs), m.Workers, func(i int) {
		outcomes[i] = m.runOne(specs[i])
	})

	aborted := 0
	var all []map[string]any
	summaries := make(map[string]map[string]*sim.SummaryStat)
	order := make([]string, 0)

	for i, out := range outcomes {
		all = append(all, out.res)
		if out.aborted {
			aborted++
			continue
		}
		sig := specs[i].sig
		byKey := summaries[sig]
		if byKey == nil {
			byKey = make(map[string]*sim.SummaryStat)
			summaries[sig] = byKey
			order = append(order, sig)
		}
		for k, v := range out.res {
			f, ok := toFloat(v)
			if !ok {
				continue
			}
			st := byKey[k]
			if st == nil {
				st = sim.NewSummaryStat()
				byKey[k] = st
			}
			st.Value(f)
		}
	}

	summary := make(map[string]any, len(order))
	for _, sig := range order {
		byKey := make(map[string]any, len(summaries[sig]))
		for k, st := range summaries[sig] {
			byKey[k] = st.AsMap()
		}
		summary[sig] = byKey
	}

	res := make(map[string]any)
	sim.AddResultOnce(res, "configurations", all)
	sim.AddResultOnce(res, "summary", summary)
	sim.AddResultOnce(res, "numConfigurations", numConfs)
	sim.AddResultOnce(res, AbortCountKey, aborted)
	return res, nil
}

// runOne clones, configures and runs a single replication, trapping every
// failure into an aborted outcome.
func (m *MultiConfExperiment) runOne(spec runSpec) runOutcome {
	res, err := runProtected(func() (map[string]any, error) {
		exp, err := m.createExperimentForConf(spec.conf)
		if err != nil {
			return nil, err
		}
		exp.SetSeed(sim.DeriveSeed(m.Seed, fmt.Sprintf("%s#%d", spec.sig, spec.rep)))
		return exp.Run()
	})
	if err == nil {
		return runOutcome{res: res}
	}

	logrus.WithField("experiment", m.ExpName).WithError(err).
		Warnf("configuration %s aborted", spec.sig)
	return runOutcome{
		res: map[string]any{
			ExceptionKey:        fmt.Sprintf("%+v", err),
			ExceptionMessageKey: err.Error(),
		},
		aborted: true,
	}
}

// createExperimentForConf clones the configuration's template (the
// reserved "@" entry, or the base experiment) and applies the factor
// entries in ascending key-length order.
func (m *MultiConfExperiment) createExperimentForConf(conf map[string]any) (Experiment, error) {
	tmpl := m.BaseExperiment
	if t, ok := conf[KeyExperiment]; ok {
		e, ok := t.(Experiment)
		if !ok {
			return nil, fmt.Errorf("%w: %q value %T is not an Experiment", ErrTypeMismatch, KeyExperiment, t)
		}
		tmpl = e
	}
	if tmpl == nil {
		return nil, ErrNoBaseExperiment
	}
	exp := tmpl.Clone()

	keys := make([]string, 0, len(conf))
	for k := range conf {
		if k == KeyExperiment {
			continue
		}
		keys = append(keys, k)
	}
	// sort by length so containing objects are set before sub-properties;
	// lexicographic among equal lengths
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		v := conf[k]
		if cfs, ok := v.(ComplexFactorSetter); ok {
			cfs(exp)
			continue
		}
		if m.Setter == nil {
			return nil, fmt.Errorf("%w: no property setter configured for %q", ErrUnknownProperty, k)
		}
		if err := m.Setter.Set(exp, k, cloneIfPossible(v)); err != nil {
			return nil, err
		}
	}
	return exp, nil
}

// Clone copies the sweep, deep-cloning the base experiment.
func (m *MultiConfExperiment) Clone() Experiment {
	c := *m
	if m.BaseExperiment != nil {
		c.BaseExperiment = m.BaseExperiment.Clone()
	}
	c.Configurations = append([]map[string]any(nil), m.Configurations...)
	return &c
}

// confSignature renders a configuration as a stable string key for
// aggregation across replications.
func confSignature(conf map[string]any) string {
	keys := make([]string, 0, len(conf))
	for k := range conf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		if k == KeyExperiment {
			if e, ok := conf[k].(Experiment); ok {
				fmt.Fprintf(&sb, "@=%s", e.Name())
				continue
			}
		}
		fmt.Fprintf(&sb, "%s=%v", k, conf[k])
	}
	return sb.String()
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

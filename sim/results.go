package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// AddResultOnce writes a key into a result map, panicking with
// ErrDuplicateResultKey if two producers claim the same key.
func AddResultOnce(res map[string]any, key string, value any) {
	if _, ok := res[key]; ok {
		panic(fmt.Errorf("%w: %q", ErrDuplicateResultKey, key))
	}
	res[key] = value
}

// SummaryStat collects numeric observations and summarises them as count,
// sum, mean, min, max and standard deviation. Merging two stats is
// associative and commutative, so replication results can be combined on
// the coordinator in any order.
type SummaryStat struct {
	values []float64
	min    float64
	max    float64
}

// NewSummaryStat creates an empty summary.
func NewSummaryStat() *SummaryStat {
	return &SummaryStat{min: math.Inf(1), max: math.Inf(-1)}
}

// Value records one observation.
func (s *SummaryStat) Value(v float64) {
	s.values = append(s.values, v)
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

// Merge folds another summary into this one.
func (s *SummaryStat) Merge(o *SummaryStat) {
	s.values = append(s.values, o.values...)
	if o.min < s.min {
		s.min = o.min
	}
	if o.max > s.max {
		s.max = o.max
	}
}

// Reset drops all observations, e.g. at the end of the warm-up period.
func (s *SummaryStat) Reset() {
	s.values = s.values[:0]
	s.min = math.Inf(1)
	s.max = math.Inf(-1)
}

func (s *SummaryStat) Count() int { return len(s.values) }

func (s *SummaryStat) Sum() float64 {
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum
}

func (s *SummaryStat) Mean() float64 {
	if len(s.values) == 0 {
		return math.NaN()
	}
	return stat.Mean(s.values, nil)
}

// StdDev returns the sample standard deviation, NaN for fewer than two
// observations.
func (s *SummaryStat) StdDev() float64 {
	if len(s.values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(s.values, nil)
}

func (s *SummaryStat) Min() float64 { return s.min }
func (s *SummaryStat) Max() float64 { return s.max }

// Clone returns an independent copy.
func (s *SummaryStat) Clone() *SummaryStat {
	c := &SummaryStat{min: s.min, max: s.max}
	c.values = append([]float64(nil), s.values...)
	return c
}

// AsMap renders the summary in result-map form.
func (s *SummaryStat) AsMap() map[string]any {
	return map[string]any{
		"count":  s.Count(),
		"sum":    s.Sum(),
		"mean":   s.Mean(),
		"min":    s.Min(),
		"max":    s.Max(),
		"stddev": s.StdDev(),
	}
}

func (s *SummaryStat) String() string {
	return fmt.Sprintf("n=%d mean=%.4f min=%.4f max=%.4f", s.Count(), s.Mean(), s.Min(), s.Max())
}

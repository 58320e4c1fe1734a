package sim

import (
	"fmt"
	"hash/fnv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DblStream yields a lazy, potentially infinite sequence of float64
// samples. A stream in a cloned scenario produces a bit-identical sequence
// to the original, given identical consumption order.
type DblStream interface {
	NextDbl() float64
	// Reseed re-initializes the stream's generator state. Deterministic
	// streams reset their cursor instead.
	Reseed(seed uint64)
	Clone() DblStream
	fmt.Stringer
}

// IntStream yields a lazy sequence of int samples.
type IntStream interface {
	NextInt() int
	Reseed(seed uint64)
	Clone() IntStream
	fmt.Stringer
}

// DeriveSeed computes a per-subsystem seed from a master seed, isolating
// the consumption of one stream from reorderings in another.
// Derivation: masterSeed XOR fnv1a64(subsystemName).
func DeriveSeed(master uint64, subsystem string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(subsystem))
	return master ^ h.Sum64()
}

// newPCG builds a clonable PCG source from a seed value. PCGSource is the
// source type distuv distributions draw from.
func newPCG(seed uint64) *rand.PCGSource {
	var src rand.PCGSource
	src.Seed(seed)
	return &src
}

// clonePCG duplicates the full generator state so that the copy produces
// the same sequence as the original from this point on.
func clonePCG(src *rand.PCGSource) *rand.PCGSource {
	b, err := src.MarshalBinary()
	if err != nil {
		panic(fmt.Errorf("clonePCG: marshal: %w", err))
	}
	var c rand.PCGSource
	if err := c.UnmarshalBinary(b); err != nil {
		panic(fmt.Errorf("clonePCG: unmarshal: %w", err))
	}
	return &c
}

// === DblConst ===

// DblConst infinitely returns the numbers of Values in exactly this order.
// After the last value the sequence wraps around to the first.
type DblConst struct {
	Values []float64
	next   int
}

// NewDblConst creates a cycling constant stream.
func NewDblConst(values ...float64) *DblConst {
	return &DblConst{Values: values}
}

func (s *DblConst) NextDbl() float64 {
	v := s.Values[s.next]
	// wrap around
	if s.next++; s.next == len(s.Values) {
		s.next = 0
	}
	return v
}

// Reseed resets the cursor to the first value.
func (s *DblConst) Reseed(uint64) { s.next = 0 }

func (s *DblConst) Clone() DblStream {
	return &DblConst{Values: append([]float64(nil), s.Values...), next: s.next}
}

func (s *DblConst) String() string { return fmt.Sprintf("DblConst%v", s.Values) }

// === DblExp ===

// DblExp draws exponentially distributed samples with the given mean.
type DblExp struct {
	Mean float64
	src  *rand.PCGSource
}

func NewDblExp(mean float64) *DblExp {
	return &DblExp{Mean: mean, src: newPCG(1)}
}

func (s *DblExp) NextDbl() float64 {
	d := distuv.Exponential{Rate: 1.0 / s.Mean, Src: s.src}
	return d.Rand()
}

func (s *DblExp) Reseed(seed uint64) { s.src = newPCG(seed) }

func (s *DblExp) Clone() DblStream {
	return &DblExp{Mean: s.Mean, src: clonePCG(s.src)}
}

func (s *DblExp) String() string { return fmt.Sprintf("DblExp(mean=%v)", s.Mean) }

// === DblNormal ===

// DblNormal draws normally distributed samples.
type DblNormal struct {
	Mean  float64
	Stdev float64
	src   *rand.PCGSource
}

func NewDblNormal(mean, stdev float64) *DblNormal {
	return &DblNormal{Mean: mean, Stdev: stdev, src: newPCG(1)}
}

func (s *DblNormal) NextDbl() float64 {
	d := distuv.Normal{Mu: s.Mean, Sigma: s.Stdev, Src: s.src}
	return d.Rand()
}

func (s *DblNormal) Reseed(seed uint64) { s.src = newPCG(seed) }

func (s *DblNormal) Clone() DblStream {
	return &DblNormal{Mean: s.Mean, Stdev: s.Stdev, src: clonePCG(s.src)}
}

func (s *DblNormal) String() string {
	return fmt.Sprintf("DblNormal(mean=%v,stdev=%v)", s.Mean, s.Stdev)
}

// === DblUniform ===

// DblUniform draws uniformly distributed samples from [Min, Max).
type DblUniform struct {
	Min float64
	Max float64
	src *rand.PCGSource
}

func NewDblUniform(min, max float64) *DblUniform {
	return &DblUniform{Min: min, Max: max, src: newPCG(1)}
}

func (s *DblUniform) NextDbl() float64 {
	d := distuv.Uniform{Min: s.Min, Max: s.Max, Src: s.src}
	return d.Rand()
}

func (s *DblUniform) Reseed(seed uint64) { s.src = newPCG(seed) }

func (s *DblUniform) Clone() DblStream {
	return &DblUniform{Min: s.Min, Max: s.Max, src: clonePCG(s.src)}
}

func (s *DblUniform) String() string {
	return fmt.Sprintf("DblUniform[%v,%v)", s.Min, s.Max)
}

// === IntConst ===

// IntConst cycles a fixed vector of ints, the integer analogue of DblConst.
type IntConst struct {
	Values []int
	next   int
}

func NewIntConst(values ...int) *IntConst {
	return &IntConst{Values: values}
}

func (s *IntConst) NextInt() int {
	v := s.Values[s.next]
	if s.next++; s.next == len(s.Values) {
		s.next = 0
	}
	return v
}

func (s *IntConst) Reseed(uint64) { s.next = 0 }

func (s *IntConst) Clone() IntStream {
	return &IntConst{Values: append([]int(nil), s.Values...), next: s.next}
}

func (s *IntConst) String() string { return fmt.Sprintf("IntConst%v", s.Values) }

// === IntUniformRange ===

// IntUniformRange draws ints uniformly from [Min, Max] inclusive.
type IntUniformRange struct {
	Min int
	Max int
	src *rand.PCGSource
}

func NewIntUniformRange(min, max int) *IntUniformRange {
	return &IntUniformRange{Min: min, Max: max, src: newPCG(1)}
}

func (s *IntUniformRange) NextInt() int {
	return s.Min + rand.New(s.src).Intn(s.Max-s.Min+1)
}

func (s *IntUniformRange) Reseed(seed uint64) { s.src = newPCG(seed) }

func (s *IntUniformRange) Clone() IntStream {
	return &IntUniformRange{Min: s.Min, Max: s.Max, src: clonePCG(s.src)}
}

func (s *IntUniformRange) String() string {
	return fmt.Sprintf("IntUniformRange[%d,%d]", s.Min, s.Max)
}

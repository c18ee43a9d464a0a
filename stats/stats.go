// Package stats provides incremental (Welford) statistics accumulators for
// scalar and vector-valued samples, used to track per-node returns and
// episode-level reporting statistics without storing every sample.
package stats

import "math"

// Accumulator incrementally tracks the count, mean, variance, min and max of
// a stream of scalar samples.
type Accumulator struct {
	count    int
	mean     float64
	variance float64
	min      float64
	max      float64
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.Clear()
	return a
}

// Clear resets the accumulator to its zero state.
func (a *Accumulator) Clear() {
	a.count = 0
	a.mean = 0
	a.variance = 0
	a.min = math.Inf(1)
	a.max = math.Inf(-1)
}

// Add folds val into the running statistics.
func (a *Accumulator) Add(val float64) {
	meanOld := a.mean
	countOld := a.count
	a.count++
	a.mean += (val - meanOld) / float64(a.count)
	a.variance = (float64(countOld)*(a.variance+meanOld*meanOld)+val*val)/float64(a.count) - a.mean*a.mean
	if val > a.max {
		a.max = val
	}
	if val < a.min {
		a.min = val
	}
}

// Count returns the number of samples added.
func (a *Accumulator) Count() int { return a.count }

// Mean returns the running mean, or 0 if no samples have been added.
func (a *Accumulator) Mean() float64 { return a.mean }

// Total returns mean * count.
func (a *Accumulator) Total() float64 { return a.mean * float64(a.count) }

// Variance returns the running (population) variance.
func (a *Accumulator) Variance() float64 { return a.variance }

// StdDev returns sqrt(Variance()).
func (a *Accumulator) StdDev() float64 { return math.Sqrt(a.variance) }

// StdErr returns sqrt(Variance() / Count()).
func (a *Accumulator) StdErr() float64 {
	if a.count == 0 {
		return 0
	}
	return math.Sqrt(a.variance / float64(a.count))
}

// Min returns the smallest sample seen, or +Inf if empty.
func (a *Accumulator) Min() float64 { return a.min }

// Max returns the largest sample seen, or -Inf if empty.
func (a *Accumulator) Max() float64 { return a.max }

// VectorAccumulator incrementally tracks per-coordinate mean, variance, min
// and max of a stream of equal-length vector samples, mirroring the
// reference VECTORSTATISTIC accumulator used for multi-objective returns.
type VectorAccumulator struct {
	dim      int
	count    int
	mean     []float64
	variance []float64
	min      []float64
	max      []float64
}

// NewVectorAccumulator returns an empty VectorAccumulator for vectors of the
// given dimensionality.
func NewVectorAccumulator(dim int) *VectorAccumulator {
	v := &VectorAccumulator{dim: dim}
	v.Clear()
	return v
}

// Clear resets the accumulator to its zero state, preserving Dim().
func (v *VectorAccumulator) Clear() {
	v.count = 0
	v.mean = make([]float64, v.dim)
	v.variance = make([]float64, v.dim)
	v.min = make([]float64, v.dim)
	v.max = make([]float64, v.dim)
	for i := 0; i < v.dim; i++ {
		v.min[i] = math.Inf(1)
		v.max[i] = math.Inf(-1)
	}
}

// Dim returns the configured vector dimensionality.
func (v *VectorAccumulator) Dim() int { return v.dim }

// Add folds val into the running per-coordinate statistics. val must have
// length Dim().
func (v *VectorAccumulator) Add(val []float64) {
	if len(val) != v.dim {
		panic("stats.VectorAccumulator.Add: dimension mismatch")
	}
	countOld := v.count
	v.count++
	for i := 0; i < v.dim; i++ {
		meanOld := v.mean[i]
		v.mean[i] += (val[i] - meanOld) / float64(v.count)
		v.variance[i] = (float64(countOld)*(v.variance[i]+meanOld*meanOld)+val[i]*val[i])/float64(v.count) - v.mean[i]*v.mean[i]
		if val[i] > v.max[i] {
			v.max[i] = val[i]
		}
		if val[i] < v.min[i] {
			v.min[i] = val[i]
		}
	}
}

// Count returns the number of vector samples added.
func (v *VectorAccumulator) Count() int { return v.count }

// Mean returns a copy of the running per-coordinate mean.
func (v *VectorAccumulator) Mean() []float64 { return append([]float64(nil), v.mean...) }

// Total returns a copy of mean[i] * count for each coordinate.
func (v *VectorAccumulator) Total() []float64 {
	total := make([]float64, v.dim)
	for i := range total {
		total[i] = v.mean[i] * float64(v.count)
	}
	return total
}

// Variance returns a copy of the running per-coordinate (population) variance.
func (v *VectorAccumulator) Variance() []float64 { return append([]float64(nil), v.variance...) }

// StdDev returns sqrt(Variance()) per coordinate.
func (v *VectorAccumulator) StdDev() []float64 {
	out := make([]float64, v.dim)
	for i, vr := range v.variance {
		out[i] = math.Sqrt(vr)
	}
	return out
}

// StdErr returns sqrt(Variance()/Count()) per coordinate.
func (v *VectorAccumulator) StdErr() []float64 {
	out := make([]float64, v.dim)
	if v.count == 0 {
		return out
	}
	for i, vr := range v.variance {
		out[i] = math.Sqrt(vr / float64(v.count))
	}
	return out
}

// Min returns a copy of the running per-coordinate minimum.
func (v *VectorAccumulator) Min() []float64 { return append([]float64(nil), v.min...) }

// Max returns a copy of the running per-coordinate maximum.
func (v *VectorAccumulator) Max() []float64 { return append([]float64(nil), v.max...) }

// Package welfare implements the social-welfare scalarization functions
// used to turn a multi-objective reward vector into a single score: the
// Generalized Gini Function (GGF), a uniform weighted sum (WS), a
// piecewise-linear generalized-3-fold Choquet integral (G3F), and the
// coefficient of variation (CV) used only for reporting.
package welfare

import (
	"math"
	"slices"
	"sort"
)

// Strategy names the scalarization used by the planner's UCB selection and
// greedy action choice.
type Strategy string

const (
	GGFStrategy Strategy = "GGF"
	WSStrategy  Strategy = "WS"
)

// Scalarize applies the named strategy to u.
func Scalarize(strategy Strategy, u []float64) float64 {
	if strategy == WSStrategy {
		return WS(u)
	}
	return GGF(u)
}

// ggfWeights returns w_i = 1/2^i for i in [0, n).
func ggfWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / math.Pow(2, float64(i))
	}
	return w
}

// GGF computes the Generalized Gini Function of u: sort u ascending, then
// take a weighted sum with geometrically decreasing weights so the lowest
// objective receives the highest weight. This rewards equalizing low
// objectives.
func GGF(u []float64) float64 {
	n := len(u)
	if n == 0 {
		panic("welfare.GGF: empty utility vector")
	}
	sorted := slices.Clone(u)
	sort.Float64s(sorted)
	w := ggfWeights(n)
	var score float64
	for i, v := range sorted {
		score += w[i] * v
	}
	return score
}

// WS computes the uniform weighted sum of u: Σ u_i / n.
func WS(u []float64) float64 {
	n := len(u)
	if n == 0 {
		panic("welfare.WS: empty utility vector")
	}
	var sum float64
	for _, v := range u {
		sum += v
	}
	return sum / float64(n)
}

// CV computes the coefficient of variation of u (population stdev / mean),
// returning 0 when the mean is 0. It is used only as a reporting metric,
// never as a planning objective.
func CV(u []float64) float64 {
	n := len(u)
	if n == 0 {
		panic("welfare.CV: empty vector")
	}
	var sum float64
	for _, v := range u {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range u {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	return math.Sqrt(variance) / mean
}

// argsortStable returns the permutation that sorts u ascending, stable on
// ties (first occurrence first) — i.e. ties are broken by original index.
func argsortStable(u []float64) []int {
	sigma := make([]int, len(u))
	for i := range sigma {
		sigma[i] = i
	}
	sort.SliceStable(sigma, func(a, b int) bool {
		return u[sigma[a]] < u[sigma[b]]
	})
	return sigma
}

// interp1 performs piecewise-linear interpolation of (x, y) control points
// at each point in xNew, linearly extrapolating past the first/last segment
// using that segment's slope, matching the reference implementation's
// nearest-lower-neighbour segment lookup.
func interp1(x, y, xNew []float64) []float64 {
	n := len(x)
	slope := make([]float64, n)
	intercept := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < n-1 {
			dx := x[i+1] - x[i]
			dy := y[i+1] - y[i]
			slope[i] = dy / dx
			intercept[i] = y[i] - x[i]*slope[i]
		} else {
			slope[i] = slope[i-1]
			intercept[i] = intercept[i-1]
		}
	}
	out := make([]float64, len(xNew))
	for i, v := range xNew {
		idx := nearestLowerNeighbour(v, x)
		out[i] = slope[idx]*v + intercept[idx]
	}
	return out
}

// nearestLowerNeighbour finds the index of the closest x[i] strictly below
// value, matching the reference's findNearestNeighbourIndex. At or below the
// smallest anchor (value has no strictly-lower neighbour) it falls back to
// the first segment, which evaluates to the correct y at x=x[0] by
// construction and extrapolates below it using that segment's slope.
func nearestLowerNeighbour(value float64, x []float64) int {
	dist := math.MaxFloat64
	idx := -1
	for i, xi := range x {
		d := value - xi
		if d > 0 && d < dist {
			dist = d
			idx = i
		}
	}
	if idx == -1 {
		return 0
	}
	return idx
}

func partialSum(x []float64, idx []int, left, right int) float64 {
	var sum float64
	for i := left; i < right; i++ {
		sum += x[idx[i]]
	}
	return sum
}

// G3F computes the generalized-3-fold Choquet-like integral of utility
// vector u against reference distribution p (both length n):
//
//  1. sigma sorts u ascending, stable on ties.
//  2. w_i = 1/2^i, W_k = Σ_{i≥k} w_i (suffix sum).
//  3. anchor points (x_k, y_k) = (k/n, W_{n-k}) for k=0..n define a
//     piecewise-linear function φ, linearly extrapolated outside [0,1].
//  4. for each i, q1_i = min(1, Σ_{j≥i} p_σj), q2_i = min(1, Σ_{j≥i+1} p_σj),
//     ω_i = φ(q1_i) − φ(q2_i).
//  5. score = Σ ω_i · sorted(u)_i.
func G3F(u, p []float64) float64 {
	n := len(u)
	if n == 0 || len(p) != n {
		panic("welfare.G3F: u and p must be non-empty and equal length")
	}
	sorted := slices.Clone(u)
	sort.Float64s(sorted)
	sigma := argsortStable(u)

	w := ggfWeights(n)
	suffix := make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		suffix[i] = w[i] + suffix[i+1]
	}
	// Normalize the suffix-weight curve to [0, 1] so φ is idempotent on
	// constant utility vectors (φ(1) - φ(0) == 1): without this, the raw
	// GGF-style geometric weights (which need not sum to 1) would scale
	// every G3F score by their total, breaking that invariant.
	total := suffix[0]

	xData := make([]float64, n+1)
	yData := make([]float64, n+1)
	for k := 0; k <= n; k++ {
		xData[k] = float64(k) / float64(n)
		yData[k] = suffix[n-k] / total
	}

	q1 := make([]float64, n)
	q2 := make([]float64, n)
	for i := 0; i < n; i++ {
		q1[i] = math.Min(partialSum(p, sigma, i, n), 1.0)
		q2[i] = math.Min(partialSum(p, sigma, i+1, n), 1.0)
	}
	y1 := interp1(xData, yData, q1)
	y2 := interp1(xData, yData, q2)

	var score float64
	for i := 0; i < n; i++ {
		omega := y1[i] - y2[i]
		score += omega * sorted[i]
	}
	return score
}

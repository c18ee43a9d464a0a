// Package lpsolve selects an action distribution by solving the linear
// program that maximizes the Generalized Gini welfare of the expected
// reward vector under a mixed action policy. It is a pluggable
// alternative to greedy-UCB action selection at a tree node: instead of
// picking one action, it returns a probability distribution over
// actions that a caller can sample from.
//
// The LP is Ogryczak's standard reformulation of GGF maximization: given
// per-action expected reward vectors Q[a] and a reference distribution p
// over the objectives, it introduces order variables x_k and
// slack variables d_{i,k} so that the non-linear sorting inside GGF
// becomes a set of linear inequalities, then solves
//
//	maximize   sum_k (k+1) w'_k/n * x_k - sum_i sum_k w'_k p_i d_{i,k}
//	subject to x_k - d_{i,k} - sum_a pi_a Q[a][i] <= 0   for all i, k
//	           sum_a pi_a = 1
//	           0 <= pi_a <= 1
//
// where w_i = 1/2^i and w'_i = n*(w_i - w_{i+1}) (w_n := 0).
package lpsolve

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Select returns a probability distribution over actions maximizing the
// GGF welfare of the expected reward vector sum_a pi[a]*qValues[a].
// qValues[a][i] is the expected return of objective i under action a; p
// is the reference distribution over objectives (length == number of
// objectives) that weights the slack d_{i,k}. The GGF weights
// w_i = 1/2^i are built internally.
func Select(qValues [][]float64, p []float64) ([]float64, error) {
	if len(qValues) == 0 || len(qValues[0]) == 0 {
		return nil, errors.New("lpsolve: qValues must be non-empty")
	}
	numActions := len(qValues)
	n := len(qValues[0])
	if len(p) != n {
		return nil, errors.Errorf("lpsolve: len(p)=%d does not match %d objectives", len(p), n)
	}
	for _, row := range qValues {
		if len(row) != n {
			return nil, errors.New("lpsolve: qValues rows have inconsistent length")
		}
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / pow2(i)
	}
	wPrime := make([]float64, n)
	for i := 0; i < n; i++ {
		next := 0.0
		if i != n-1 {
			next = w[i+1]
		}
		wPrime[i] = float64(n) * (w[i] - next)
	}

	// Variable layout: xp[0..n) xm[0..n) d[0..n*n) pi[0..numActions) t[0..n*n) s[0..numActions)
	offXp := 0
	offXm := offXp + n
	offD := offXm + n
	offPi := offD + n*n
	offT := offPi + numActions
	offS := offT + n*n
	numVars := offS + numActions

	idxD := func(i, k int) int { return offD + i*n + k }
	idxT := func(i, k int) int { return offT + i*n + k }

	c := make([]float64, numVars)
	for k := 0; k < n; k++ {
		coeff := float64(k+1) * wPrime[k] / float64(n)
		c[offXp+k] = -coeff
		c[offXm+k] = coeff
	}
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			c[idxD(i, k)] = wPrime[k] * p[i]
		}
	}

	numRows := n*n + 1 + numActions
	rows := make([][]float64, numRows)
	b := make([]float64, numRows)

	row := 0
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			r := make([]float64, numVars)
			r[offXp+k] = 1
			r[offXm+k] = -1
			r[idxD(i, k)] = -1
			for a := 0; a < numActions; a++ {
				r[offPi+a] = -qValues[a][i]
			}
			r[idxT(i, k)] = 1
			rows[row] = r
			b[row] = 0
			row++
		}
	}

	eqPi := make([]float64, numVars)
	for a := 0; a < numActions; a++ {
		eqPi[offPi+a] = 1
	}
	rows[row] = eqPi
	b[row] = 1
	row++

	for a := 0; a < numActions; a++ {
		r := make([]float64, numVars)
		r[offPi+a] = 1
		r[offS+a] = 1
		rows[row] = r
		b[row] = 1
		row++
	}

	data := make([]float64, 0, numRows*numVars)
	for _, r := range rows {
		data = append(data, r...)
	}
	A := mat.NewDense(numRows, numVars, data)

	_, x, err := lp.Simplex(c, A, b, 0, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lpsolve: simplex failed")
	}

	pi := make([]float64, numActions)
	sum := 0.0
	for a := 0; a < numActions; a++ {
		v := x[offPi+a]
		if v < 0 {
			v = 0
		}
		pi[a] = v
		sum += v
	}
	if sum > 0 {
		for a := range pi {
			pi[a] /= sum
		}
	} else {
		// Degenerate solve: fall back to uniform rather than an all-zero
		// distribution a caller can't sample from.
		for a := range pi {
			pi[a] = 1.0 / float64(numActions)
		}
	}
	return pi, nil
}

func pow2(i int) float64 {
	v := 1.0
	for j := 0; j < i; j++ {
		v *= 2
	}
	return v
}

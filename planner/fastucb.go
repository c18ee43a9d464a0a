package planner

import "math"

// UCB table dimensions: covers any tree search shallow enough to keep N
// under 10000 root visits and 100 visits per action, matching the
// reference's static UCB[UCB_N][UCB_n] lookup table.
const (
	ucbN = 10000
	ucbn = 100
)

// fastUCB precomputes the exploration-bonus table c*sqrt(log(N+1)/n) for
// every (N, n) pair within range, seeded once at planner construction.
// Outside that range it falls back to computing the bonus directly.
type fastUCB struct {
	exploration float64
	table       [ucbN][ucbn]float64
}

func newFastUCB(exploration float64) *fastUCB {
	f := &fastUCB{exploration: exploration}
	for n := 0; n < ucbN; n++ {
		for k := 0; k < ucbn; k++ {
			if k == 0 {
				f.table[n][k] = math.Inf(1)
			} else {
				f.table[n][k] = exploration * math.Sqrt(math.Log(float64(n+1))/float64(k))
			}
		}
	}
	return f
}

// bonus returns the UCB exploration term for n parent visits and k child
// visits; k == 0 always yields +Inf, forcing every action to be tried once.
func (f *fastUCB) bonus(n, k int) float64 {
	if n >= 0 && n < ucbN && k >= 0 && k < ucbn {
		return f.table[n][k]
	}
	if k == 0 {
		return math.Inf(1)
	}
	return f.exploration * math.Sqrt(math.Log(float64(n+1))/float64(k))
}

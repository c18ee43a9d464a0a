package env

import "math"

// DiscountedHorizon computes the standard Monte-Carlo planning horizon: the
// number of steps after which a per-step reward's discounted contribution
// falls below accuracy, i.e. the smallest h with discount^h <= accuracy.
// When discount is 1 (no decay), there is no such h, so the caller-supplied
// undiscountedHorizon is used instead. Environments with a fixed discount
// factor typically implement GetHorizon by delegating to this helper.
func DiscountedHorizon(discount, accuracy float64, undiscountedHorizon int) int {
	if discount >= 1 {
		return undiscountedHorizon
	}
	if accuracy <= 0 {
		accuracy = 1e-3
	}
	h := int(math.Ceil(math.Log(accuracy) / math.Log(discount)))
	if h < 1 {
		h = 1
	}
	return h
}

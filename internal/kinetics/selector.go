package kinetics

import "math"

// selectEvent draws the waiting time and the next channel from the current
// propensity vector using the direct-method SSA restricted to channels with
// nonzero propensity:
//
//	tau    = -ln(r1) / A0
//	target = r2 * A0
//
// and the fired channel is the first, in ascending index order, whose
// running cumulative propensity reaches target. Exactly two uniform draws
// are consumed, r1 then r2; a degenerate state consumes none.
func selectEvent(rng RandomSource, pv *propensityVector) (ChannelIndex, float64, error) {
	if pv.total <= 0 {
		return 0, 0, &DegenerateStateError{Total: pv.total}
	}

	r1 := rng.Float64()
	r2 := rng.Float64()
	tau := -math.Log(r1) / pv.total
	target := r2 * pv.total

	cum := 0.0
	for _, c := range pv.relevant {
		cum += pv.values[c]
		if cum >= target {
			return c, tau, nil
		}
	}
	// Floating-point summation can leave target a few ulps above the final
	// cumulative sum; the last relevant channel is the correct pick then.
	return pv.relevant[len(pv.relevant)-1], tau, nil
}

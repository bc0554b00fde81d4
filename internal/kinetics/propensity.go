package kinetics

// propensityVector caches propensity[c] = rateConstant[c] * coordination[c]
// for every channel, the ascending list of channels with strictly positive
// propensity, and the total over that list.
type propensityVector struct {
	values   []float64
	relevant []ChannelIndex
	total    float64
}

func newPropensityVector(numChannels int) *propensityVector {
	return &propensityVector{
		values:   make([]float64, numChannels),
		relevant: make([]ChannelIndex, 0, numChannels),
	}
}

// rebuildAll recomputes every propensity from scratch. Used once at run
// initialization.
func (pv *propensityVector) rebuildAll(rates, coord []float64) {
	for c := range pv.values {
		pv.values[c] = rates[c] * coord[c]
	}
	pv.rescan()
}

// refresh recomputes only the listed channels, then rebuilds the relevant
// set and the total from the full vector. The full-vector rescan is O(C)
// even when only a handful of channels changed; that matches the original
// model and keeps the cached total trivially equal to a full resum.
func (pv *propensityVector) refresh(channels []ChannelIndex, rates, coord []float64) {
	for _, c := range channels {
		pv.values[c] = rates[c] * coord[c]
	}
	pv.rescan()
}

func (pv *propensityVector) rescan() {
	pv.relevant = pv.relevant[:0]
	pv.total = 0
	for c, a := range pv.values {
		if a > 0 {
			pv.relevant = append(pv.relevant, ChannelIndex(c))
			pv.total += a
		}
	}
}

package kinetics

// refresher recomputes coordination numbers for exactly the channels whose
// propensity may have changed after a reaction fired. It keeps a scratch
// buffer and a seen-marker array so the per-step union of dependency lists
// allocates nothing in steady state.
type refresher struct {
	touched []ChannelIndex
	seen    []bool
}

func newRefresher(numChannels int) *refresher {
	return &refresher{
		touched: make([]ChannelIndex, 0, 64),
		seen:    make([]bool, numChannels),
	}
}

// affectedChannels collects the deduplicated union of the dependency lists
// of every species on either side of the fired reaction. The returned
// slice is valid until the next call.
func (rf *refresher) affectedChannels(net *Network, c ChannelIndex) []ChannelIndex {
	for _, ch := range rf.touched {
		rf.seen[ch] = false
	}
	rf.touched = rf.touched[:0]

	rxn := net.Reaction(c.Reaction())
	for _, s := range rxn.Reactants.Species() {
		rf.addDeps(net, s)
	}
	for _, s := range rxn.Products.Species() {
		rf.addDeps(net, s)
	}
	return rf.touched
}

func (rf *refresher) addDeps(net *Network, s SpeciesID) {
	for _, ch := range net.Dependencies(s) {
		if !rf.seen[ch] {
			rf.seen[ch] = true
			rf.touched = append(rf.touched, ch)
		}
	}
}

// recompute refreshes the coordination numbers of the listed channels from
// the current population array, using the same per-side rule applied at
// initialization.
func recompute(net *Network, state []int64, coord []float64, channels []ChannelIndex) {
	for _, ch := range channels {
		rxn := net.Reaction(ch.Reaction())
		coord[ch] = rxn.ConsumingSide(ch.Reverse()).Coordination(state)
	}
}

package kinetics

// stoichiometry returns each distinct species on this side together with
// how many molecules of it the side carries (2 for an identical pair).
func (s Side) stoichiometry() [2]struct {
	ID    SpeciesID
	Count int64
} {
	var out [2]struct {
		ID    SpeciesID
		Count int64
	}
	switch s.kind {
	case sideUnary:
		out[0].ID, out[0].Count = s.a, 1
	case sideBinaryIdentical:
		out[0].ID, out[0].Count = s.a, 2
	default:
		out[0].ID, out[0].Count = s.a, 1
		out[1].ID, out[1].Count = s.b, 1
	}
	return out
}

// applyChannel applies the fired channel to the population array: the
// consuming side of the channel direction is decremented, the producing
// side incremented. A decrement below zero means the propensity model and
// the population array disagree; the error aborts the run and callers must
// not reuse the state after a non-nil return, as it is left mid-update.
func applyChannel(net *Network, state []int64, c ChannelIndex) error {
	rxn := net.Reaction(c.Reaction())
	reverse := c.Reverse()

	for _, st := range rxn.ConsumingSide(reverse).stoichiometry() {
		if st.Count == 0 {
			continue
		}
		state[st.ID] -= st.Count
		if state[st.ID] < 0 {
			return &StateInvariantError{Channel: c, Species: st.ID, Count: state[st.ID]}
		}
	}
	for _, st := range rxn.ProducingSide(reverse).stoichiometry() {
		if st.Count == 0 {
			continue
		}
		state[st.ID] += st.Count
	}
	return nil
}

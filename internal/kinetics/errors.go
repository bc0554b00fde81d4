package kinetics

import "fmt"

// StateInvariantError reports that applying a channel would drive a species
// count negative. It signals a bookkeeping inconsistency between the
// propensity model and the population array; the run that produced it
// cannot be safely continued.
type StateInvariantError struct {
	Channel ChannelIndex
	Species SpeciesID
	Count   int64
}

func (e *StateInvariantError) Error() string {
	return fmt.Sprintf("state invariant violated: channel %d drove species %d to count %d",
		e.Channel, e.Species, e.Count)
}

// DegenerateStateError reports that the total propensity was not strictly
// positive when a step began, so no channel can ever fire again.
type DegenerateStateError struct {
	Total float64
}

func (e *DegenerateStateError) Error() string {
	return fmt.Sprintf("degenerate state: total propensity %g, no channel can fire", e.Total)
}

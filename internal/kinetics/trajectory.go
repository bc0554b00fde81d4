package kinetics

import "math"

// TrajectoryPoint is a population count at a cumulative simulated time.
type TrajectoryPoint struct {
	Time  float64 `json:"time"`
	Count int64   `json:"count"`
}

// Trajectory is the full population history of a run, reconstructed from
// its event history. Only species whose count ever changed (or started
// nonzero) carry a series.
type Trajectory struct {
	TotalTime float64
	Series    map[SpeciesID][]TrajectoryPoint
}

// ReplayTrajectory reconstructs per-species population series by replaying
// the event history against the initial population array with the same
// update rule the live run used. The same negative-count corruption the
// live updater guards against is detected here too, so a history replayed
// against the wrong initial state fails loudly instead of drifting.
func ReplayTrajectory(net *Network, initial []int64, history []Event) (*Trajectory, error) {
	if len(initial) != net.NumSpecies {
		return nil, &ValidationError{Issues: []string{"initial state length does not match network"}}
	}

	state := append([]int64(nil), initial...)
	traj := &Trajectory{Series: make(map[SpeciesID][]TrajectoryPoint)}
	for id, n := range state {
		if n > 0 {
			traj.Series[SpeciesID(id)] = []TrajectoryPoint{{Time: 0, Count: n}}
		}
	}

	t := 0.0
	for _, ev := range history {
		t += ev.Tau
		if err := applyChannel(net, state, ev.Channel); err != nil {
			return nil, err
		}
		rxn := net.Reaction(ev.Channel.Reaction())
		for _, s := range rxn.Reactants.Species() {
			traj.append(s, t, state[s])
		}
		for _, s := range rxn.Products.Species() {
			traj.append(s, t, state[s])
		}
	}
	traj.TotalTime = t
	return traj, nil
}

func (tr *Trajectory) append(s SpeciesID, t float64, count int64) {
	series, ok := tr.Series[s]
	if !ok {
		// species first appears mid-run
		series = []TrajectoryPoint{{Time: 0, Count: 0}}
	}
	tr.Series[s] = append(series, TrajectoryPoint{Time: t, Count: count})
}

// Final returns the last recorded count for a species, or zero if it never
// appeared.
func (tr *Trajectory) Final(s SpeciesID) int64 {
	series := tr.Series[s]
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Count
}

// WaitingTimeStats summarizes the waiting times of a run.
type WaitingTimeStats struct {
	Steps int     `json:"steps"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Total float64 `json:"total"`
}

// AnalyzeWaitingTimes computes mean, standard deviation, step count and
// total simulated time of an event history.
func AnalyzeWaitingTimes(history []Event) WaitingTimeStats {
	stats := WaitingTimeStats{Steps: len(history)}
	if len(history) == 0 {
		return stats
	}
	for _, ev := range history {
		stats.Total += ev.Tau
	}
	stats.Mean = stats.Total / float64(len(history))
	var ss float64
	for _, ev := range history {
		d := ev.Tau - stats.Mean
		ss += d * d
	}
	stats.Std = math.Sqrt(ss / float64(len(history)))
	return stats
}

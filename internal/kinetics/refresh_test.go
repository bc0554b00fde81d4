package kinetics

import "testing"

func TestRefresher_AffectedChannels(t *testing.T) {
	// two reactions sharing species 1: firing reaction 0 must refresh all
	// four channels, each exactly once
	net, err := CompileNetwork(NetworkConfig{
		Name:       "refresh",
		NumSpecies: 4,
		Reactions: []ReactionConfig{
			{Reactants: []int{0}, Products: []int{1}, KForward: 1, KReverse: 1},
			{Reactants: []int{1, 2}, Products: []int{3}, KForward: 1, KReverse: 1},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	rf := newRefresher(net.NumChannels())
	affected := rf.affectedChannels(net, ForwardChannel(0))

	seen := make(map[ChannelIndex]int)
	for _, c := range affected {
		seen[c]++
	}
	if len(seen) != 4 {
		t.Errorf("affected = %v, want all 4 channels", affected)
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("channel %d appears %d times, want deduplication", c, n)
		}
	}

	// firing reaction 1 does not touch species 0, so channels of reaction 0
	// still appear (via shared species 1) — but a network without sharing
	// must stay local
	isolated, err := CompileNetwork(NetworkConfig{
		Name:       "isolated",
		NumSpecies: 4,
		Reactions: []ReactionConfig{
			{Reactants: []int{0}, Products: []int{1}, KForward: 1, KReverse: 1},
			{Reactants: []int{2}, Products: []int{3}, KForward: 1, KReverse: 1},
		},
	})
	if err != nil {
		t.Fatalf("compile isolated: %v", err)
	}
	rf2 := newRefresher(isolated.NumChannels())
	local := rf2.affectedChannels(isolated, ForwardChannel(1))
	for _, c := range local {
		if c.Reaction() != 1 {
			t.Errorf("channel %d of unrelated reaction refreshed", c)
		}
	}
}

func TestRefresher_ReusableAcrossSteps(t *testing.T) {
	net := bimolecularNet(t)
	rf := newRefresher(net.NumChannels())

	first := rf.affectedChannels(net, ForwardChannel(0))
	n1 := len(first)
	second := rf.affectedChannels(net, ForwardChannel(0))
	if len(second) != n1 {
		t.Errorf("second collection returned %d channels, want %d (seen markers must reset)",
			len(second), n1)
	}
}

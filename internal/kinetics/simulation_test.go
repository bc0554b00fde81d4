package kinetics

import (
	"errors"
	"math"
	"sort"
	"testing"
)

// abNet compiles the smallest reversible network, A <-> B with unit rates
// unless overridden.
func abNet(t *testing.T, kf, kr float64) *Network {
	t.Helper()
	net, err := CompileNetwork(NetworkConfig{
		Name:       "ab",
		NumSpecies: 2,
		Reactions: []ReactionConfig{
			{Reactants: []int{0}, Products: []int{1}, KForward: kf, KReverse: kr},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return net
}

func TestNewSimulation_StateLengthMismatch(t *testing.T) {
	net := abNet(t, 1, 1)
	if _, err := NewSimulation(net, []int64{100}); err == nil {
		t.Fatal("expected error for short initial state, got nil")
	}
}

func TestNewSimulation_CopiesInitialState(t *testing.T) {
	net := abNet(t, 1, 1)
	initial := []int64{100, 0}
	sim, err := NewSimulation(net, initial, WithSeed(1))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	if _, err := sim.Run(10); err != nil {
		t.Fatalf("run: %v", err)
	}
	if initial[0] != 100 || initial[1] != 0 {
		t.Errorf("caller's initial slice mutated: %v", initial)
	}
}

func TestSimulation_FirstStepIsForcedForward(t *testing.T) {
	// with B empty the reverse channel has zero propensity, so the first
	// event must be the forward channel regardless of the draws
	net := abNet(t, 1, 1)
	rng := &sequenceSource{draws: []float64{0.25, 0.999}}
	sim, err := NewSimulation(net, []int64{100, 0}, WithRandomSource(rng))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}

	history, err := sim.Run(1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length %d, want 1", len(history))
	}
	if history[0].Channel != ForwardChannel(0) {
		t.Errorf("first event fired channel %d, want forward channel 0", history[0].Channel)
	}
	wantTau := -math.Log(0.25) / 100.0
	if math.Abs(history[0].Tau-wantTau) > 1e-12 {
		t.Errorf("tau = %g, want %g", history[0].Tau, wantTau)
	}

	state := sim.State()
	if state[0] != 99 || state[1] != 1 {
		t.Errorf("state after one step = %v, want [99 1]", state)
	}
	if sim.Status() != StatusComplete {
		t.Errorf("status = %s, want complete", sim.Status())
	}
}

func TestSimulation_SeedDeterminism(t *testing.T) {
	net := abNet(t, 1.0, 0.5)
	run := func() ([]Event, []int64) {
		sim, err := NewSimulation(net, []int64{300, 200}, WithSeed(42))
		if err != nil {
			t.Fatalf("new simulation: %v", err)
		}
		history, err := sim.Run(500)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return history, sim.State()
	}

	h1, s1 := run()
	h2, s2 := run()
	if len(h1) != len(h2) {
		t.Fatalf("history lengths differ: %d vs %d", len(h1), len(h2))
	}
	for i := range h1 {
		if h1[i] != h2[i] {
			t.Fatalf("histories diverge at step %d: %+v vs %+v", i, h1[i], h2[i])
		}
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Errorf("final state diverges for species %d: %d vs %d", i, s1[i], s2[i])
		}
	}
}

func TestSimulation_ConservationAndNonNegativity(t *testing.T) {
	// isomerization conserves total mass; no count may ever go negative
	net := abNet(t, 1, 1)
	var sim *Simulation
	checked := 0
	obs := func(ev StepEvent) {
		state := sim.State()
		if state[0]+state[1] != 1000 {
			t.Fatalf("step %d: total mass %d, want 1000", ev.Step, state[0]+state[1])
		}
		for s, n := range state {
			if n < 0 {
				t.Fatalf("step %d: species %d count %d went negative", ev.Step, s, n)
			}
		}
		checked++
	}

	sim, err := NewSimulation(net, []int64{600, 400}, WithSeed(7), WithObserver(obs))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	if _, err := sim.Run(5000); err != nil {
		t.Fatalf("run: %v", err)
	}
	if checked != 5000 {
		t.Errorf("observer saw %d steps, want 5000", checked)
	}
}

func TestSimulation_CachedTotalMatchesFullRecompute(t *testing.T) {
	// the incrementally maintained A0 in each step event must agree with a
	// from-scratch recompute over the post-step populations
	cfg := NetworkConfig{
		Name:       "mixed",
		NumSpecies: 4,
		Reactions: []ReactionConfig{
			{Reactants: []int{0}, Products: []int{1}, KForward: 2.0, KReverse: 1.0},
			{Reactants: []int{1, 2}, Products: []int{3}, KForward: 0.05, KReverse: 0.2},
			{Reactants: []int{3, 3}, Products: []int{0}, KForward: 0.01, KReverse: 0.5},
		},
	}
	net, err := CompileNetwork(cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var sim *Simulation
	obs := func(ev StepEvent) {
		coord, err := net.InitialCoordination(sim.State())
		if err != nil {
			t.Fatalf("step %d: recompute coordination: %v", ev.Step, err)
		}
		want := 0.0
		for c := 0; c < net.NumChannels(); c++ {
			want += net.RateConstant(ChannelIndex(c)) * coord[c]
		}
		if diff := math.Abs(ev.Total - want); diff > 1e-9*math.Max(want, 1) {
			t.Fatalf("step %d: cached A0 %g, full recompute %g (diff %g)",
				ev.Step, ev.Total, want, diff)
		}
	}

	sim, err = NewSimulation(net, []int64{200, 150, 120, 80}, WithSeed(11), WithObserver(obs))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	if _, err := sim.Run(3000); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSimulation_RunIsSingleUse(t *testing.T) {
	net := abNet(t, 1, 1)
	sim, err := NewSimulation(net, []int64{50, 50}, WithSeed(3))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	if _, err := sim.Run(10); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := sim.Run(10); err == nil {
		t.Fatal("expected error on second Run, got nil")
	}
}

func TestSimulation_MaxTimeStopsEarly(t *testing.T) {
	net := abNet(t, 1, 1)
	sim, err := NewSimulation(net, []int64{500, 500}, WithSeed(9), WithMaxTime(1e-6))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	history, err := sim.Run(100000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(history) >= 100000 {
		t.Errorf("time bound did not stop the run: %d steps taken", len(history))
	}
	if sim.SimulatedTime() <= 1e-6 {
		t.Errorf("simulated time %g did not pass the bound", sim.SimulatedTime())
	}
	if sim.Status() != StatusComplete {
		t.Errorf("status = %s, want complete", sim.Status())
	}
}

func TestSimulation_DegenerateStateAbortsRun(t *testing.T) {
	// with a zero reverse rate the single A molecule converts once, then
	// every channel has zero propensity
	net := abNet(t, 1, 0)
	sim, err := NewSimulation(net, []int64{1, 0}, WithSeed(5))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}

	history, err := sim.Run(10)
	if err == nil {
		t.Fatal("expected degenerate state error, got nil")
	}
	var derr *DegenerateStateError
	if !errors.As(err, &derr) {
		t.Fatalf("error %v is not a DegenerateStateError", err)
	}
	if len(history) != 1 {
		t.Errorf("partial history has %d events, want the 1 step before the abort", len(history))
	}
	if sim.Status() != StatusFailed {
		t.Errorf("status = %s, want failed", sim.Status())
	}
}

func TestSimulation_DetailedBalance(t *testing.T) {
	// at equilibrium with equal rates and equal populations, forward and
	// reverse events fire in near-equal proportion
	net := abNet(t, 1, 1)
	sim, err := NewSimulation(net, []int64{500, 500}, WithSeed(1234))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	history, err := sim.Run(20000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	forward, reverse := 0, 0
	for _, ev := range history {
		if ev.Channel.Reverse() {
			reverse++
		} else {
			forward++
		}
	}
	ratio := float64(forward) / float64(reverse)
	if ratio < 0.9 || ratio > 1.1 {
		t.Errorf("forward/reverse ratio %g (f=%d r=%d), want within 10%% of 1", ratio, forward, reverse)
	}
}

func TestSimulation_WaitingTimesAreExponential(t *testing.T) {
	// isomerization with equal rates keeps A0 = k*(nA+nB) constant, so the
	// waiting times are iid Exponential(A0); one-sample KS test at fixed seed
	net := abNet(t, 1, 1)
	sim, err := NewSimulation(net, []int64{500, 500}, WithSeed(2024))
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	const n = 2000
	history, err := sim.Run(n)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	taus := make([]float64, len(history))
	for i, ev := range history {
		taus[i] = ev.Tau
	}
	sort.Float64s(taus)

	const rate = 1000.0 // k_f*nA + k_r*nB, invariant under every event
	maxDiff := 0.0
	for i, tau := range taus {
		cdf := 1 - math.Exp(-rate*tau)
		lo := math.Abs(cdf - float64(i)/n)
		hi := math.Abs(cdf - float64(i+1)/n)
		maxDiff = math.Max(maxDiff, math.Max(lo, hi))
	}

	critical := 1.36 / math.Sqrt(n)
	if maxDiff > critical {
		t.Errorf("KS statistic %g exceeds 5%% critical value %g", maxDiff, critical)
	}
}

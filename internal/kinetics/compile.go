package kinetics

import (
	"fmt"
	"math"
	"sort"
)

// Avogadro's number, molecules per mole.
const avogadro = 6.02214076e23

// Network is a reaction network compiled into the flat, index-based form
// the step loop works on. It is immutable after compilation and may be
// shared read-only across any number of concurrent runs.
type Network struct {
	Name       string
	NumSpecies int

	reactions []Reaction

	// rateConstants[2r] is the forward rate of reaction r,
	// rateConstants[2r+1] the reverse rate.
	rateConstants []float64

	// deps[s] lists, in ascending order, every channel whose coordination
	// number may change when the count of species s changes. Built once,
	// read-only afterwards.
	deps [][]ChannelIndex
}

// CompileNetwork validates and compiles a network config.
func CompileNetwork(cfg NetworkConfig) (*Network, error) {
	if err := ValidateNetworkConfig(cfg); err != nil {
		return nil, err
	}

	net := &Network{
		Name:          cfg.Name,
		NumSpecies:    cfg.NumSpecies,
		reactions:     make([]Reaction, len(cfg.Reactions)),
		rateConstants: make([]float64, 2*len(cfg.Reactions)),
		deps:          make([][]ChannelIndex, cfg.NumSpecies),
	}

	for r, rc := range cfg.Reactions {
		rxn := Reaction{
			Reactants: sideFromIDs(rc.Reactants),
			Products:  sideFromIDs(rc.Products),
			KForward:  rc.KForward,
			KReverse:  rc.KReverse,
		}
		net.reactions[r] = rxn
		net.rateConstants[ForwardChannel(r)] = rc.KForward
		net.rateConstants[ReverseChannel(r)] = rc.KReverse

		// Both channels of a reaction touch every species on either side:
		// the forward channel consumes reactants and yields products, so a
		// change to any of them can shift either coordination number.
		for _, s := range rxn.Reactants.Species() {
			net.deps[s] = append(net.deps[s], ForwardChannel(r), ReverseChannel(r))
		}
		for _, s := range rxn.Products.Species() {
			net.deps[s] = append(net.deps[s], ForwardChannel(r), ReverseChannel(r))
		}
	}

	for s := range net.deps {
		net.deps[s] = dedupeChannels(net.deps[s])
	}

	return net, nil
}

func sideFromIDs(ids []int) Side {
	if len(ids) == 1 {
		return Unary(SpeciesID(ids[0]))
	}
	return Binary(SpeciesID(ids[0]), SpeciesID(ids[1]))
}

func dedupeChannels(chs []ChannelIndex) []ChannelIndex {
	if len(chs) < 2 {
		return chs
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })
	out := chs[:1]
	for _, c := range chs[1:] {
		if c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	return out
}

// NumReactions returns the number of reversible reactions in the network.
func (n *Network) NumReactions() int {
	return len(n.reactions)
}

// NumChannels returns the number of directed channels (2 per reaction).
func (n *Network) NumChannels() int {
	return 2 * len(n.reactions)
}

// Reaction returns the reaction descriptor at index r.
func (n *Network) Reaction(r int) Reaction {
	return n.reactions[r]
}

// RateConstant returns the rate constant of channel c.
func (n *Network) RateConstant(c ChannelIndex) float64 {
	return n.rateConstants[c]
}

// Dependencies returns the channels affected by a change in species s.
// The returned slice is shared and must not be mutated.
func (n *Network) Dependencies(s SpeciesID) []ChannelIndex {
	return n.deps[s]
}

// InitialState converts an initial condition into a population array of
// length NumSpecies. Molarity becomes an integer molecule count via
// count = floor(conc * volume * N_A * 1000), the factor 1000 converting
// the per-liter concentration to the cubic-meter volume.
func (n *Network) InitialState(ic InitialCondition) ([]int64, error) {
	if err := ValidateInitialCondition(n, ic); err != nil {
		return nil, err
	}
	state := make([]int64, n.NumSpecies)
	for id, conc := range ic.Concentrations {
		state[id] = int64(math.Floor(conc * ic.Volume * avogadro * 1000))
	}
	return state, nil
}

// InitialCoordination computes the coordination number of every channel
// from a population array, using the same per-side rule the refresher
// applies during a run.
func (n *Network) InitialCoordination(state []int64) ([]float64, error) {
	if len(state) != n.NumSpecies {
		return nil, fmt.Errorf("state length %d does not match network species count %d",
			len(state), n.NumSpecies)
	}
	coord := make([]float64, n.NumChannels())
	for r, rxn := range n.reactions {
		coord[ForwardChannel(r)] = rxn.Reactants.Coordination(state)
		coord[ReverseChannel(r)] = rxn.Products.Coordination(state)
	}
	return coord, nil
}

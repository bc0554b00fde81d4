package kinetics

// SpeciesID is the dense integer identifier of a chemical species,
// in [0, NumSpecies) for the network it belongs to.
type SpeciesID int

// ChannelIndex identifies one directed reaction channel. Every reaction
// contributes two channels: 2*r for the forward direction and 2*r+1 for
// the reverse direction.
type ChannelIndex int

// Reaction returns the reaction index this channel belongs to.
func (c ChannelIndex) Reaction() int {
	return int(c) / 2
}

// Reverse reports whether this channel is the reverse direction of its reaction.
func (c ChannelIndex) Reverse() bool {
	return int(c)%2 == 1
}

// ForwardChannel returns the forward channel index of reaction r.
func ForwardChannel(r int) ChannelIndex {
	return ChannelIndex(2 * r)
}

// ReverseChannel returns the reverse channel index of reaction r.
func ReverseChannel(r int) ChannelIndex {
	return ChannelIndex(2*r + 1)
}

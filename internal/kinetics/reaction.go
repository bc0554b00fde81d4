package kinetics

// sideKind tags the arity/shape of one side of a reaction.
type sideKind int

const (
	sideUnary sideKind = iota
	sideBinaryDistinct
	sideBinaryIdentical
)

// Side is one side of a reaction: a multiset of one or two species.
// The zero value is not a valid side; build one with Unary or Binary.
// Using a tagged value instead of a fixed-width id table with a numeric
// "absent" sentinel means no code path ever has to compare against a
// placeholder species id.
type Side struct {
	kind sideKind
	a, b SpeciesID
}

// Unary builds a single-species side.
func Unary(s SpeciesID) Side {
	return Side{kind: sideUnary, a: s}
}

// Binary builds a two-species side. Two equal ids collapse into the
// identical-pair variant so the coordination rule is picked by the type,
// not re-derived at every call site.
func Binary(s1, s2 SpeciesID) Side {
	if s1 == s2 {
		return Side{kind: sideBinaryIdentical, a: s1, b: s1}
	}
	return Side{kind: sideBinaryDistinct, a: s1, b: s2}
}

// Arity returns the number of molecules consumed on this side (1 or 2).
func (s Side) Arity() int {
	if s.kind == sideUnary {
		return 1
	}
	return 2
}

// Species returns the distinct species ids appearing on this side.
func (s Side) Species() []SpeciesID {
	switch s.kind {
	case sideUnary, sideBinaryIdentical:
		return []SpeciesID{s.a}
	default:
		return []SpeciesID{s.a, s.b}
	}
}

// Reaction is one reversible reaction of the compiled network.
// Reactants and Products are the sides as written in the forward
// direction; the reverse channel consumes Products and yields Reactants.
type Reaction struct {
	Reactants Side
	Products  Side
	KForward  float64
	KReverse  float64
}

// ConsumingSide returns the side consumed by the channel direction:
// products for a reverse channel, reactants otherwise.
func (r Reaction) ConsumingSide(reverse bool) Side {
	if reverse {
		return r.Products
	}
	return r.Reactants
}

// ProducingSide returns the side yielded by the channel direction.
func (r Reaction) ProducingSide(reverse bool) Side {
	if reverse {
		return r.Reactants
	}
	return r.Products
}

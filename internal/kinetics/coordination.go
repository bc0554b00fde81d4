package kinetics

// Coordination computes the combinatorial coordination number of this side
// given current population counts:
//
//	unary:            h = n
//	binary distinct:  h = n1 * n2
//	binary identical: h = n * (n-1) / 2
//
// The identical-pair rule counts unordered pairs of indistinguishable
// molecules. It is applied uniformly at network initialization and during
// incremental refresh, so a channel's propensity never jumps between two
// conventions mid-run.
func (s Side) Coordination(counts []int64) float64 {
	switch s.kind {
	case sideUnary:
		return float64(counts[s.a])
	case sideBinaryIdentical:
		n := counts[s.a]
		return float64(n*(n-1)) / 2
	default:
		return float64(counts[s.a]) * float64(counts[s.b])
	}
}

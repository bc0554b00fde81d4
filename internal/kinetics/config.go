package kinetics

// ReactionConfig describes one reversible reaction as loaded from a
// network file. Reactants and Products each hold 1 or 2 species ids;
// repeating the same id twice expresses an identical-pair side.
type ReactionConfig struct {
	Reactants []int   `json:"reactants"`
	Products  []int   `json:"products"`
	KForward  float64 `json:"k_forward"`
	KReverse  float64 `json:"k_reverse"`
}

// NetworkConfig is the on-disk description of a reaction network.
type NetworkConfig struct {
	Name       string           `json:"name"`
	NumSpecies int              `json:"num_species"`
	Reactions  []ReactionConfig `json:"reactions"`
}

// InitialCondition describes the starting state of a run: a system volume
// in cubic meters and molar concentrations keyed by species id. Species
// absent from the map start at zero molecules.
type InitialCondition struct {
	Volume         float64               `json:"volume"`
	Concentrations map[SpeciesID]float64 `json:"concentrations"`
}

package kinetics

import (
	"fmt"
	"strings"
)

// ValidationError collects every problem found in a network config.
// One bad reaction invalidates the whole network, but all issues are
// reported in a single pass.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid network: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "network validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateNetworkConfig checks a network config before compilation.
// This engine supports unimolecular and bimolecular kinetics only: any
// reaction side with an arity other than 1 or 2 is fatal.
func ValidateNetworkConfig(cfg NetworkConfig) error {
	err := &ValidationError{}

	if cfg.NumSpecies <= 0 {
		err.Add(fmt.Sprintf("num_species must be positive, got %d", cfg.NumSpecies))
	}
	if len(cfg.Reactions) == 0 {
		err.Add("network has no reactions")
	}

	for i, rxn := range cfg.Reactions {
		validateSideConfig(err, cfg.NumSpecies, i, "reactant", rxn.Reactants)
		validateSideConfig(err, cfg.NumSpecies, i, "product", rxn.Products)
		if rxn.KForward < 0 {
			err.Add(fmt.Sprintf("reaction %d: negative forward rate constant %g", i, rxn.KForward))
		}
		if rxn.KReverse < 0 {
			err.Add(fmt.Sprintf("reaction %d: negative reverse rate constant %g", i, rxn.KReverse))
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

func validateSideConfig(err *ValidationError, numSpecies, rxn int, label string, ids []int) {
	if len(ids) < 1 || len(ids) > 2 {
		err.Add(fmt.Sprintf("reaction %d: %s arity %d, only unimolecular and bimolecular reactions are supported",
			rxn, label, len(ids)))
		return
	}
	for _, id := range ids {
		if id < 0 || id >= numSpecies {
			err.Add(fmt.Sprintf("reaction %d: %s species id %d out of range [0, %d)",
				rxn, label, id, numSpecies))
		}
	}
}

// ValidateInitialCondition checks an initial condition against a compiled
// network: positive volume, known species ids, nonnegative concentrations.
func ValidateInitialCondition(net *Network, ic InitialCondition) error {
	err := &ValidationError{}

	if ic.Volume <= 0 {
		err.Add(fmt.Sprintf("volume must be positive, got %g", ic.Volume))
	}
	for id, conc := range ic.Concentrations {
		if id < 0 || int(id) >= net.NumSpecies {
			err.Add(fmt.Sprintf("concentration for unknown species id %d", id))
		}
		if conc < 0 {
			err.Add(fmt.Sprintf("species %d: negative concentration %g", id, conc))
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

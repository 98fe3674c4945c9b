package core

import (
	"fmt"
	"math"
)

// Vec3 is a Cartesian position in Å.
type Vec3 [3]float64

// Distance returns the Euclidean distance between two points.
func (v Vec3) Distance(w Vec3) float64 {
	dx := v[0] - w[0]
	dy := v[1] - w[1]
	dz := v[2] - w[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// IndexSets holds the receptor, ligand and complex atom ids of one variant,
// all expressed in the same dense 0..N space. The receptor and ligand each
// occupy one contiguous block of the complex. When no ligand is defined the
// three sets are identical.
type IndexSets struct {
	Complex  []int
	Receptor []int
	Ligand   []int

	// Global maps a dense id back to its original atom index.
	Global []int
}

// NoLigand reports whether the ligand coincides with the receptor.
func (s IndexSets) NoLigand() bool {
	if len(s.Receptor) != len(s.Ligand) {
		return false
	}
	return len(s.Receptor) == 0 || s.Receptor[0] == s.Ligand[0]
}

// LigandFirst reports whether the ligand block precedes the receptor block.
func (s IndexSets) LigandFirst() bool {
	return !s.NoLigand() && s.Ligand[0] < s.Receptor[0]
}

// InReceptor reports whether dense id i lies in the receptor block.
func (s IndexSets) InReceptor(i int) bool {
	if len(s.Receptor) == 0 {
		return false
	}
	return i >= s.Receptor[0] && i < s.Receptor[0]+len(s.Receptor)
}

// InLigand reports whether dense id i lies in the ligand block.
func (s IndexSets) InLigand(i int) bool {
	if len(s.Ligand) == 0 {
		return false
	}
	return i >= s.Ligand[0] && i < s.Ligand[0]+len(s.Ligand)
}

// LocalReceptor converts a complex id into its position within the
// standalone receptor numbering.
func (s IndexSets) LocalReceptor(i int) int {
	return i - s.Receptor[0]
}

// LocalLigand converts a complex id into its position within the standalone
// ligand numbering.
func (s IndexSets) LocalLigand(i int) int {
	return i - s.Ligand[0]
}

// Validate checks that the sets describe n atoms: the complex is exactly
// 0..n-1 and receptor and ligand are contiguous blocks inside it.
func (s IndexSets) Validate(n int) error {
	if len(s.Receptor) == 0 {
		return &TopologyError{Message: "receptor set is empty"}
	}
	if len(s.Complex) != n {
		return &TopologyError{Message: fmt.Sprintf("complex has %d atoms, atom table has %d", len(s.Complex), n)}
	}
	for i, c := range s.Complex {
		if c != i {
			return &TopologyError{Message: fmt.Sprintf("complex id %d at position %d is not dense", c, i)}
		}
	}
	for _, set := range [][]int{s.Receptor, s.Ligand} {
		for k, id := range set {
			if id < 0 || id >= n {
				return &TopologyError{Message: fmt.Sprintf("atom id %d outside 0..%d", id, n-1)}
			}
			if k > 0 && id != set[k-1]+1 {
				return &TopologyError{Message: fmt.Sprintf("atom id %d breaks block contiguity", id)}
			}
		}
	}
	if !s.NoLigand() && len(s.Receptor)+len(s.Ligand) != n {
		return &TopologyError{Message: fmt.Sprintf("receptor (%d) and ligand (%d) do not partition %d atoms",
			len(s.Receptor), len(s.Ligand), n)}
	}
	if s.Global != nil && len(s.Global) != n {
		return &TopologyError{Message: fmt.Sprintf("global map has %d entries, want %d", len(s.Global), n)}
	}
	return nil
}

// System is one fully prepared variant: wild type or one alanine mutant.
type System struct {
	Label    string // "WT" or a mutation label such as "L45A"
	Atoms    *AtomProperties
	Residues []Residue
	Sets     IndexSets

	// Coords holds one position per atom for every selected frame.
	Coords [][]Vec3
	// Times holds the time of every selected frame in ns.
	Times []float64
}

// Validate checks the internal consistency of the system.
func (s *System) Validate() error {
	if s.Atoms == nil {
		return &ConfigError{Field: "Atoms", Message: "atom property table is required"}
	}
	if err := s.Atoms.Validate(len(s.Residues)); err != nil {
		return err
	}
	if err := s.Sets.Validate(s.Atoms.Len()); err != nil {
		return err
	}
	for i, r := range s.Residues {
		if r.ID != i {
			return &TopologyError{Message: fmt.Sprintf("residue %d has id %d", i, r.ID)}
		}
	}
	if len(s.Coords) == 0 {
		return &ConfigError{Field: "Coords", Message: "at least one frame is required"}
	}
	if len(s.Times) != len(s.Coords) {
		return &ConfigError{Field: "Times", Message: fmt.Sprintf("%d times for %d frames", len(s.Times), len(s.Coords))}
	}
	for f, frame := range s.Coords {
		if len(frame) != s.Atoms.Len() {
			return &TopologyError{Message: fmt.Sprintf("frame %d has %d atoms, want %d", f, len(frame), s.Atoms.Len())}
		}
	}
	return nil
}

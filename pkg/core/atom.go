package core

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// AtomProperty is the static force-field data of one atom.
type AtomProperty struct {
	ID     int // dense index within the owning table
	Name   string
	ResID  int // index into the residue list
	Charge float64
	TypeID int // Lennard-Jones type
	Radius float64
}

// Residue is one residue of the combined system.
type Residue struct {
	ID   int // dense index used by all decomposition arrays
	Nr   int // original numbering, for labels only
	Name string
}

// AtomProperties is the atom property table of one system variant.
type AtomProperties struct {
	Atoms []AtomProperty

	// Lennard-Jones coefficients indexed by type id. A C10 entry below
	// HBondThreshold selects the 12-6 form, otherwise 12-10.
	C6, C10, C12 *mat.SymDense

	TypeMap    map[string]int // LJ type name -> type id
	RadiusType string
}

// HBondThreshold separates 12-6 pairs from 12-10 hydrogen-bond pairs.
const HBondThreshold = 1e-10

// NumTypes returns the number of LJ types.
func (ap *AtomProperties) NumTypes() int {
	if ap.C12 == nil {
		return 0
	}
	return ap.C12.SymmetricDim()
}

// Len returns the number of atoms.
func (ap *AtomProperties) Len() int {
	return len(ap.Atoms)
}

// ResidueOf returns the residue id of every atom, in atom order.
func (ap *AtomProperties) ResidueOf() []int {
	out := make([]int, len(ap.Atoms))
	for i, a := range ap.Atoms {
		out[i] = a.ResID
	}
	return out
}

// Names returns the atom names in atom order.
func (ap *AtomProperties) Names() []string {
	out := make([]string, len(ap.Atoms))
	for i, a := range ap.Atoms {
		out[i] = a.Name
	}
	return out
}

// Clone returns a deep copy of the atom list. LJ matrices and the type map
// are shared, they are never modified after construction.
func (ap *AtomProperties) Clone() *AtomProperties {
	atoms := make([]AtomProperty, len(ap.Atoms))
	copy(atoms, ap.Atoms)
	return &AtomProperties{
		Atoms:      atoms,
		C6:         ap.C6,
		C10:        ap.C10,
		C12:        ap.C12,
		TypeMap:    ap.TypeMap,
		RadiusType: ap.RadiusType,
	}
}

// Retype changes the LJ type and name of atom i. When radii is non-nil the
// radius is looked up again for the new name.
func (ap *AtomProperties) Retype(i int, typeName, atomName string, radii *RadiusTable) error {
	t, ok := ap.TypeMap[typeName]
	if !ok {
		return &ConfigError{Field: "TypeMap", Message: fmt.Sprintf("LJ type %q is not defined", typeName)}
	}
	ap.Atoms[i].TypeID = t
	ap.Atoms[i].Name = atomName
	if radii != nil {
		ap.Atoms[i].Radius = radii.Lookup(atomName)
	}
	return nil
}

// ApplyRadii overwrites every atom radius from a radius table.
func (ap *AtomProperties) ApplyRadii(radii *RadiusTable) {
	for i := range ap.Atoms {
		ap.Atoms[i].Radius = radii.Lookup(ap.Atoms[i].Name)
	}
	ap.RadiusType = radii.Name
}

// Validate checks the table against nres residues.
func (ap *AtomProperties) Validate(nres int) error {
	var errs []string

	if ap.C6 == nil || ap.C10 == nil || ap.C12 == nil {
		errs = append(errs, "LJ coefficient matrices are required")
	} else {
		n := ap.C12.SymmetricDim()
		if ap.C6.SymmetricDim() != n || ap.C10.SymmetricDim() != n {
			errs = append(errs, "LJ coefficient matrices must share one dimension")
		}
	}

	for i, a := range ap.Atoms {
		if a.ID != i {
			errs = append(errs, fmt.Sprintf("atom %d has id %d", i, a.ID))
		}
		if a.ResID < 0 || a.ResID >= nres {
			errs = append(errs, fmt.Sprintf("atom %d references residue %d of %d", i, a.ResID, nres))
		}
		if a.TypeID < 0 || a.TypeID >= ap.NumTypes() {
			errs = append(errs, fmt.Sprintf("atom %d has LJ type %d of %d", i, a.TypeID, ap.NumTypes()))
		}
		if math.IsNaN(a.Charge) || math.IsInf(a.Charge, 0) {
			errs = append(errs, fmt.Sprintf("atom %d has invalid charge", i))
		}
		if !(a.Radius > 0) {
			errs = append(errs, fmt.Sprintf("atom %d has non-positive radius", i))
		}
	}

	if len(errs) > 0 {
		return &ConfigError{
			Field:   "AtomProperties",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

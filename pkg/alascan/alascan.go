// Package alascan derives alanine mutants of a prepared system.
package alascan

import (
	"fmt"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/index"
)

// backbone lists the atoms of a residue that survive truncation: the
// backbone, its hydrogens and the β-carbon with its hydrogens.
var backbone = map[string]bool{
	"N": true, "H": true, "HN": true, "H1": true, "H2": true, "H3": true,
	"CA": true, "HA": true, "HCA": true,
	"CB": true, "HB": true, "HB1": true, "HB2": true, "HB3": true, "HCB": true,
	"C": true, "O": true, "OXT": true,
}

// gammaAtoms are the side-chain atoms bonded to CB in the supported force
// fields. The first one present becomes the third β-hydrogen.
var gammaAtoms = map[string]bool{
	"CG": true, "SG": true, "OG": true, "OG1": true, "CG1": true,
}

// Variant is an alanine mutant together with what changed.
type Variant struct {
	*core.System

	Residue core.Residue
	// Removed holds the source ids of the deleted atoms.
	Removed []int
	// Gamma is the mutant id of the retyped γ atom, -1 if the residue had none.
	Gamma int
}

// Mutate truncates residue resID of sys to alanine. The source system is
// not modified. radii, when non-nil, supplies the radius of the retyped
// atom. Glycine, alanine and residues without a one-letter code yield an
// UnsupportedResidueError.
func Mutate(sys *core.System, resID int, radii *core.RadiusTable) (*Variant, error) {
	if resID < 0 || resID >= len(sys.Residues) {
		return nil, &core.ConfigError{Field: "residue", Message: fmt.Sprintf("residue id %d out of range", resID)}
	}
	res := sys.Residues[resID]

	code, ok := core.OneLetterCode(res.Name)
	switch {
	case !ok:
		return nil, &core.UnsupportedResidueError{Name: res.Name, Nr: res.Nr, Reason: "unknown residue name"}
	case code == 'G':
		return nil, &core.UnsupportedResidueError{Name: res.Name, Nr: res.Nr, Reason: "glycine has no side chain"}
	case code == 'A':
		return nil, &core.UnsupportedResidueError{Name: res.Name, Nr: res.Nr, Reason: "residue is already alanine"}
	}
	proline := code == 'P'

	n := sys.Atoms.Len()
	keep := make([]bool, n)
	gamma := -1
	var removed []int
	for i, a := range sys.Atoms.Atoms {
		switch {
		case a.ResID != resID:
			keep[i] = true
		case backbone[a.Name]:
			keep[i] = true
		case gamma < 0 && gammaAtoms[a.Name]:
			keep[i] = true
			gamma = i
		default:
			removed = append(removed, i)
		}
	}

	sets, err := index.Rebuild(sys.Sets, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to renumber %s%d: %w", res.Name, res.Nr, err)
	}

	src := sys.Atoms
	ap := src.Clone()
	ap.Atoms = make([]core.AtomProperty, 0, n-len(removed))
	newID := make([]int, n)
	for i, a := range src.Atoms {
		if !keep[i] {
			newID[i] = -1
			continue
		}
		newID[i] = len(ap.Atoms)
		a.ID = newID[i]
		ap.Atoms = append(ap.Atoms, a)
	}

	v := &Variant{Residue: res, Removed: removed, Gamma: -1}
	if gamma >= 0 {
		v.Gamma = newID[gamma]
		typeName, atomName := "HC", "HB"
		if proline {
			typeName, atomName = "HN", "HN"
		}
		if err := ap.Retype(v.Gamma, typeName, atomName, radii); err != nil {
			return nil, fmt.Errorf("failed to retype %s of %s%d: %w", src.Atoms[gamma].Name, res.Name, res.Nr, err)
		}
	}

	coords := make([][]core.Vec3, len(sys.Coords))
	for f, frame := range sys.Coords {
		sel := make([]core.Vec3, 0, len(ap.Atoms))
		for i, p := range frame {
			if keep[i] {
				sel = append(sel, p)
			}
		}
		coords[f] = sel
	}

	v.System = &core.System{
		Label:    fmt.Sprintf("%c%dA", code, res.Nr),
		Atoms:    ap,
		Residues: append([]core.Residue(nil), sys.Residues...),
		Sets:     sets,
		Coords:   coords,
		Times:    append([]float64(nil), sys.Times...),
	}
	return v, nil
}

// Package coretest builds small synthetic systems for tests.
package coretest

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// LJ type ids of the toy force field.
const (
	TypeC = iota
	TypeH
	TypeHC
	TypeHN
	TypeN
	TypeO
	numTypes
)

var typeNames = map[string]int{"C": TypeC, "H": TypeH, "HC": TypeHC, "HN": TypeHN, "N": TypeN, "O": TypeO}

// LJ returns symmetric C6, C10 and C12 matrices (kJ/mol·nm^n). The O–HN
// pair uses the 12-10 form.
func LJ() (c6, c10, c12 *mat.SymDense) {
	sigma := []float64{0.34, 0.11, 0.26, 0.11, 0.33, 0.30}
	eps := []float64{0.36, 0.07, 0.07, 0.07, 0.71, 0.88}
	c6 = mat.NewSymDense(numTypes, nil)
	c10 = mat.NewSymDense(numTypes, nil)
	c12 = mat.NewSymDense(numTypes, nil)
	for i := 0; i < numTypes; i++ {
		for j := i; j < numTypes; j++ {
			s := (sigma[i] + sigma[j]) / 2
			e := 4 * math.Sqrt(eps[i]*eps[j])
			s6 := s * s * s * s * s * s
			c6.SetSym(i, j, e*s6)
			c12.SetSym(i, j, e*s6*s6)
		}
	}
	c10.SetSym(TypeO, TypeHN, 2.5e-6)
	return c6, c10, c12
}

type atomSpec struct {
	name   string
	typ    string
	charge float64
}

var residueAtoms = map[string][]atomSpec{
	"GLY": {
		{"N", "N", -0.4157}, {"H", "HN", 0.2719}, {"CA", "C", -0.0252}, {"HA2", "H", 0.0698},
		{"HA3", "H", 0.0698}, {"C", "C", 0.5973}, {"O", "O", -0.5679},
	},
	"LEU": {
		{"N", "N", -0.4157}, {"H", "HN", 0.2719}, {"CA", "C", -0.0518}, {"HA", "H", 0.0922},
		{"CB", "C", -0.1102}, {"HB2", "HC", 0.0457}, {"HB3", "HC", 0.0457}, {"CG", "C", 0.3531},
		{"HG", "HC", -0.0361}, {"CD1", "C", -0.4121}, {"HD11", "HC", 0.1000}, {"HD12", "HC", 0.1000},
		{"HD13", "HC", 0.1000}, {"CD2", "C", -0.4121}, {"HD21", "HC", 0.1000}, {"HD22", "HC", 0.1000},
		{"HD23", "HC", 0.1000}, {"C", "C", 0.5973}, {"O", "O", -0.5679},
	},
	"PRO": {
		{"N", "N", -0.2548}, {"CD", "C", 0.0192}, {"HD2", "H", 0.0391}, {"HD3", "H", 0.0391},
		{"CG", "C", 0.0189}, {"HG2", "HC", 0.0213}, {"HG3", "HC", 0.0213}, {"CB", "C", -0.0070},
		{"HB2", "HC", 0.0253}, {"HB3", "HC", 0.0253}, {"CA", "C", -0.0266}, {"HA", "H", 0.0641},
		{"C", "C", 0.5896}, {"O", "O", -0.5748},
	},
	"SER": {
		{"N", "N", -0.4157}, {"H", "HN", 0.2719}, {"CA", "C", -0.0249}, {"HA", "H", 0.0843},
		{"CB", "C", 0.2117}, {"HB2", "H", 0.0352}, {"HB3", "H", 0.0352}, {"OG", "O", -0.6546},
		{"HG", "HN", 0.4275}, {"C", "C", 0.5973}, {"O", "O", -0.5679},
	},
	"LIG": {
		{"C1", "C", 0.45}, {"O1", "O", -0.55}, {"H1", "HN", 0.10},
	},
}

// Build assembles a system from residue names. Residues listed in ligand
// (by position) form the ligand block, which follows the receptor in global
// numbering. Every atom gets a distinct position; frame f is shifted by
// 0.05·f Å along z.
func Build(names []string, ligand map[int]bool, frames int) *core.System {
	c6, c10, c12 := LJ()
	ap := &core.AtomProperties{
		C6: c6, C10: c10, C12: c12,
		TypeMap:    typeNames,
		RadiusType: "mBondi",
	}
	radii, _ := core.DefaultRadiusTable("mBondi")

	var residues []core.Residue
	var rec, lig []int
	var base []core.Vec3
	for r, name := range names {
		residues = append(residues, core.Residue{ID: r, Nr: r + 1, Name: name})
		for _, a := range residueAtoms[name] {
			id := len(ap.Atoms)
			ap.Atoms = append(ap.Atoms, core.AtomProperty{
				ID:     id,
				Name:   a.name,
				ResID:  r,
				Charge: a.charge,
				TypeID: typeNames[a.typ],
				Radius: radii.Lookup(a.name),
			})
			base = append(base, core.Vec3{
				1.1 * float64(id),
				0.9 * float64(id%3),
				0.7 * float64(id%4),
			})
			if ligand[r] {
				lig = append(lig, id)
			} else {
				rec = append(rec, id)
			}
		}
	}

	sets := core.IndexSets{Receptor: rec, Ligand: lig}
	if len(lig) == 0 {
		sets.Ligand = rec
	}
	for i := range ap.Atoms {
		sets.Complex = append(sets.Complex, i)
		sets.Global = append(sets.Global, i)
	}

	sys := &core.System{
		Label:    "WT",
		Atoms:    ap,
		Residues: residues,
		Sets:     sets,
	}
	for f := 0; f < frames; f++ {
		frame := make([]core.Vec3, len(base))
		for i, p := range base {
			frame[i] = core.Vec3{p[0], p[1], p[2] + 0.05*float64(f)}
		}
		sys.Coords = append(sys.Coords, frame)
		sys.Times = append(sys.Times, 0.1*float64(f))
	}
	return sys
}

// Complex returns GLY-LEU-SER-PRO as receptor and LIG as ligand over the
// given number of frames.
func Complex(frames int) *core.System {
	return Build([]string{"GLY", "LEU", "SER", "PRO", "LIG"}, map[int]bool{4: true}, frames)
}

// Atoms returns the names of residue name's atoms in fixture order.
func Atoms(name string) []string {
	var out []string
	for _, a := range residueAtoms[name] {
		out = append(out, a.name)
	}
	return out
}

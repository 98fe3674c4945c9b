package result

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// FrameEnergies is one frame's per-atom decomposition indexed by complex
// id. A nil vector stands for a term that was not computed.
type FrameEnergies struct {
	Elec, Vdw, PB, SA []float64
}

// Accumulator collects frame rows of one variant in chronological slots.
type Accumulator struct {
	meta              Meta
	elec, vdw, pb, sa *mat.Dense
	filled            []bool
}

// NewAccumulator allocates frames × atoms storage for sys.
func NewAccumulator(sys *core.System) *Accumulator {
	frames, atoms := len(sys.Times), sys.Atoms.Len()
	meta := Meta{
		Label:     sys.Label,
		AtomNames: sys.Atoms.Names(),
		ResOf:     sys.Atoms.ResidueOf(),
		Residues:  append([]core.Residue(nil), sys.Residues...),
		Ligand:    append([]int(nil), sys.Sets.Ligand...),
		Times:     append([]float64(nil), sys.Times...),
	}
	meta.Coords = make([][]core.Vec3, len(sys.Coords))
	for f, frame := range sys.Coords {
		meta.Coords[f] = append([]core.Vec3(nil), frame...)
	}
	return &Accumulator{
		meta:   meta,
		elec:   mat.NewDense(frames, atoms, nil),
		vdw:    mat.NewDense(frames, atoms, nil),
		pb:     mat.NewDense(frames, atoms, nil),
		sa:     mat.NewDense(frames, atoms, nil),
		filled: make([]bool, frames),
	}
}

// Set stores the energies of one frame. Non-finite values are rejected
// with a NumericError naming the term and atom.
func (a *Accumulator) Set(frame int, e FrameEnergies) error {
	if frame < 0 || frame >= len(a.filled) {
		return &core.TopologyError{Message: fmt.Sprintf("frame %d outside 0..%d", frame, len(a.filled)-1)}
	}
	_, atoms := a.elec.Dims()

	for _, t := range []struct {
		name string
		v    []float64
		dst  *mat.Dense
	}{
		{"elec", e.Elec, a.elec},
		{"vdw", e.Vdw, a.vdw},
		{"pb", e.PB, a.pb},
		{"sa", e.SA, a.sa},
	} {
		if t.v == nil {
			continue
		}
		if len(t.v) != atoms {
			return &core.TopologyError{Message: fmt.Sprintf("%s has %d atoms, want %d", t.name, len(t.v), atoms)}
		}
		for i, x := range t.v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return &core.NumericError{Quantity: t.name, Index: i, Value: x}
			}
		}
		t.dst.SetRow(frame, t.v)
	}
	a.filled[frame] = true
	return nil
}

// Results builds the Results value. Every frame must have been set.
func (a *Accumulator) Results() (*Results, error) {
	for f, ok := range a.filled {
		if !ok {
			return nil, fmt.Errorf("frame %d of %s was never computed", f, a.meta.Label)
		}
	}
	return New(a.meta, a.elec, a.vdw, a.pb, a.sa)
}

// Package result assembles per-frame, per-atom energy terms into the final
// decomposition of one system variant.
package result

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Term is one reported energy quantity.
type Term int

const (
	DH Term = iota
	MM
	PB
	SA
	Elec
	Vdw
)

// Terms lists every term in report order.
var Terms = []Term{DH, MM, PB, SA, Elec, Vdw}

func (t Term) String() string {
	switch t {
	case DH:
		return "ΔH"
	case MM:
		return "ΔMM"
	case PB:
		return "ΔPB"
	case SA:
		return "ΔSA"
	case Elec:
		return "Δelec"
	case Vdw:
		return "ΔvdW"
	}
	return fmt.Sprintf("Term(%d)", int(t))
}

// Meta describes the system a Results value belongs to.
type Meta struct {
	Label     string
	AtomNames []string
	ResOf     []int // residue id of every atom
	Residues  []core.Residue
	Ligand    []int
	Times     []float64     // ns
	Coords    [][]core.Vec3 // Å, one slice per frame
}

// Results is the decomposition of one variant. DH and MM are derived from
// the four base terms and are never stored independently.
type Results struct {
	Meta

	series [6][]float64
	atom   [6]*mat.Dense // frames × atoms
}

// New builds Results from frames × atoms matrices of the base terms:
// mm = elec + vdw and dh = mm + pb + sa, both per atom and per frame.
func New(meta Meta, elec, vdw, pb, sa *mat.Dense) (*Results, error) {
	frames, atoms := len(meta.Times), len(meta.ResOf)
	if frames == 0 || atoms == 0 {
		return nil, &core.ConfigError{Field: "Results", Message: "at least one frame and one atom are required"}
	}
	for _, m := range []struct {
		term Term
		d    *mat.Dense
	}{{Elec, elec}, {Vdw, vdw}, {PB, pb}, {SA, sa}} {
		if m.d == nil {
			return nil, &core.ConfigError{Field: m.term.String(), Message: "matrix is required"}
		}
		r, c := m.d.Dims()
		if r != frames || c != atoms {
			return nil, &core.TopologyError{
				Message: fmt.Sprintf("%s matrix is %d×%d, want %d×%d", m.term, r, c, frames, atoms),
			}
		}
	}
	if len(meta.AtomNames) != atoms {
		return nil, &core.TopologyError{Message: fmt.Sprintf("%d atom names for %d atoms", len(meta.AtomNames), atoms)}
	}
	for a, r := range meta.ResOf {
		if r < 0 || r >= len(meta.Residues) {
			return nil, &core.TopologyError{Message: fmt.Sprintf("atom %d references residue %d of %d", a, r, len(meta.Residues))}
		}
	}

	res := &Results{Meta: meta}
	res.atom[Elec] = elec
	res.atom[Vdw] = vdw
	res.atom[PB] = pb
	res.atom[SA] = sa

	mm := mat.NewDense(frames, atoms, nil)
	mm.Add(elec, vdw)
	dh := mat.NewDense(frames, atoms, nil)
	dh.Add(mm, pb)
	dh.Add(dh, sa)
	res.atom[MM] = mm
	res.atom[DH] = dh

	for _, t := range []Term{Elec, Vdw, PB, SA} {
		res.series[t] = rowSums(res.atom[t])
	}
	res.series[MM] = make([]float64, frames)
	res.series[DH] = make([]float64, frames)
	for f := 0; f < frames; f++ {
		res.series[MM][f] = res.series[Elec][f] + res.series[Vdw][f]
		res.series[DH][f] = res.series[MM][f] + res.series[PB][f] + res.series[SA][f]
	}

	return res, nil
}

func rowSums(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = mat.Sum(m.RowView(i))
	}
	return out
}

// Frames returns the number of frames.
func (r *Results) Frames() int { return len(r.Times) }

// Series returns the per-frame totals of a term.
func (r *Results) Series(t Term) []float64 { return r.series[t] }

// Atom returns the frames × atoms matrix of a term.
func (r *Results) Atom(t Term) *mat.Dense { return r.atom[t] }

// Mean returns the arithmetic mean of a term over frames.
func (r *Results) Mean(t Term) float64 {
	if r.Frames() == 0 {
		return 0
	}
	return stat.Mean(r.series[t], nil)
}

// membership returns the atoms × residues one-hot matrix.
func (r *Results) membership() *mat.Dense {
	m := mat.NewDense(len(r.ResOf), len(r.Residues), nil)
	for a, res := range r.ResOf {
		m.Set(a, res, 1)
	}
	return m
}

// Residue returns the frames × residues matrix of a term.
func (r *Results) Residue(t Term) *mat.Dense {
	var out mat.Dense
	out.Mul(r.atom[t], r.membership())
	return &out
}

// ResidueAt returns the per-residue values of a term at one frame.
func (r *Results) ResidueAt(t Term, frame int) []float64 {
	return mat.Row(nil, frame, r.Residue(t))
}

// ResidueMean returns the per-residue values of a term averaged over frames.
func (r *Results) ResidueMean(t Term) []float64 {
	m := r.Residue(t)
	_, n := m.Dims()
	out := make([]float64, n)
	for j := range out {
		out[j] = stat.Mean(mat.Col(nil, j, m), nil)
	}
	return out
}

// TimeIndex returns the frame whose time is closest to ns.
func (r *Results) TimeIndex(ns float64) int {
	best, bestDiff := 0, math.Inf(1)
	for i, t := range r.Times {
		if d := math.Abs(t - ns); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

// Summary holds the trajectory averages and the derived free energy.
type Summary struct {
	DH, MM, PB, SA, Elec, Vdw float64

	TdS float64 // interaction entropy, 0 when disabled
	DG  float64 // ΔH − TΔS
	Ki  float64 // nM, 0 when ΔG ≥ 0
}

// KiAvailable reports whether a dissociation constant could be estimated.
func (s Summary) KiAvailable() bool { return s.Ki != 0 }

// Summary averages every term and estimates ΔG at temperature (K). With
// useTS the interaction-entropy term −RT·ln⟨exp((mm−⟨mm⟩)/RT)⟩ is included.
func (r *Results) Summary(temperature float64, useTS bool) Summary {
	s := Summary{
		DH:   r.Mean(DH),
		MM:   r.Mean(MM),
		PB:   r.Mean(PB),
		SA:   r.Mean(SA),
		Elec: r.Mean(Elec),
		Vdw:  r.Mean(Vdw),
	}

	rt := core.GasConstant * temperature
	if useTS && r.Frames() > 0 {
		boltz := make([]float64, r.Frames())
		for i, mm := range r.series[MM] {
			boltz[i] = math.Exp((mm - s.MM) / rt)
		}
		s.TdS = -rt * math.Log(stat.Mean(boltz, nil))
	}
	s.DG = s.DH - s.TdS
	if s.DG < 0 {
		s.Ki = math.Exp(s.DG/rt) * 1e9
	}
	return s
}

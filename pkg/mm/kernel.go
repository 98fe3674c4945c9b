// Package mm computes the nonbonded (electrostatic and van der Waals)
// interaction energy between receptor and ligand atoms of one frame.
package mm

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Options controls the pair loop.
type Options struct {
	// Cutoff is the pair distance limit in Å. Zero or +Inf disables it.
	Cutoff float64
	// DebyeHuckel multiplies each Coulomb term by exp(-κr).
	DebyeHuckel bool
	// Workers is the number of goroutines splitting the receptor atoms.
	Workers int
}

// Kernel evaluates pairwise nonbonded energies.
type Kernel struct {
	coef core.Coefficients
	opts Options
}

// NewKernel creates a kernel for the given coefficients.
func NewKernel(coef core.Coefficients, opts Options) *Kernel {
	if opts.Cutoff <= 0 {
		opts.Cutoff = math.Inf(1)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Kernel{coef: coef, opts: opts}
}

// Energies holds one frame's decomposition in kJ/mol. Atom vectors are
// indexed by complex id, residue vectors by residue id. Each pair energy is
// split evenly between its two atoms, so both granularities sum to the same
// total.
type Energies struct {
	ElecAtom []float64
	VdwAtom  []float64
	ElecRes  []float64
	VdwRes   []float64
}

// Elec returns the total electrostatic energy.
func (e *Energies) Elec() float64 { return floats.Sum(e.ElecRes) }

// Vdw returns the total van der Waals energy.
func (e *Energies) Vdw() float64 { return floats.Sum(e.VdwRes) }

// Compute evaluates every receptor-ligand pair of one frame. When the
// ligand coincides with the receptor only pairs j > i are visited. A NaN
// distance is not skipped and shows up as NaN in the output.
func (k *Kernel) Compute(coords []core.Vec3, ap *core.AtomProperties, sets core.IndexSets, nres int) (*Energies, error) {
	n := ap.Len()
	if len(coords) != n {
		return nil, &core.TopologyError{Message: fmt.Sprintf("frame has %d coordinates for %d atoms", len(coords), n)}
	}
	for _, set := range [][]int{sets.Receptor, sets.Ligand} {
		for _, id := range set {
			if id < 0 || id >= n {
				return nil, &core.TopologyError{Message: fmt.Sprintf("atom id %d outside 0..%d", id, n-1)}
			}
		}
	}

	workers := k.opts.Workers
	if workers > len(sets.Receptor) {
		workers = len(sets.Receptor)
	}
	if workers < 1 {
		workers = 1
	}

	// Each worker owns its partial sums; merging in worker order keeps the
	// result independent of scheduling.
	elecParts := make([][]float64, workers)
	vdwParts := make([][]float64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		elecParts[w] = make([]float64, n)
		vdwParts[w] = make([]float64, n)
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			k.pairs(coords, ap, sets, w, workers, elecParts[w], vdwParts[w])
		}(w)
	}
	wg.Wait()

	e := &Energies{
		ElecAtom: make([]float64, n),
		VdwAtom:  make([]float64, n),
		ElecRes:  make([]float64, nres),
		VdwRes:   make([]float64, nres),
	}
	for w := 0; w < workers; w++ {
		for a := 0; a < n; a++ {
			e.ElecAtom[a] += elecParts[w][a]
			e.VdwAtom[a] += vdwParts[w][a]
		}
	}

	elecScale := k.coef.KJElec / (2 * k.coef.PDie)
	for a := 0; a < n; a++ {
		e.ElecAtom[a] *= elecScale
		e.VdwAtom[a] /= 2

		r := ap.Atoms[a].ResID
		if r < 0 || r >= nres {
			return nil, &core.TopologyError{Message: fmt.Sprintf("atom %d references residue %d of %d", a, r, nres)}
		}
		e.ElecRes[r] += e.ElecAtom[a]
		e.VdwRes[r] += e.VdwAtom[a]
	}

	return e, nil
}

// pairs accumulates the unscaled energies of receptor atoms w, w+stride, ...
// into elec and vdw.
func (k *Kernel) pairs(coords []core.Vec3, ap *core.AtomProperties, sets core.IndexSets, w, stride int, elec, vdw []float64) {
	self := sets.NoLigand()
	for ri := w; ri < len(sets.Receptor); ri += stride {
		i := sets.Receptor[ri]
		ai := ap.Atoms[i]
		for _, j := range sets.Ligand {
			if self && j <= i {
				continue
			}
			r := coords[i].Distance(coords[j])
			if r > k.opts.Cutoff {
				continue
			}
			aj := ap.Atoms[j]

			ee := k.coulomb(ai.Charge, aj.Charge, r)
			ev := lennardJones(ap, ai.TypeID, aj.TypeID, r/10)

			elec[i] += ee
			elec[j] += ee
			vdw[i] += ev
			vdw[j] += ev
		}
	}
}

func (k *Kernel) coulomb(qi, qj, r float64) float64 {
	e := qi * qj / r
	if k.opts.DebyeHuckel {
		e *= math.Exp(-k.coef.Kappa * r)
	}
	return e
}

// lennardJones returns the 12-6 or 12-10 energy at distance r (nm).
func lennardJones(ap *core.AtomProperties, ti, tj int, r float64) float64 {
	c12 := ap.C12.At(ti, tj)
	c10 := ap.C10.At(ti, tj)
	if c10 < core.HBondThreshold {
		r6 := r * r * r * r * r * r
		return (c12/r6 - ap.C6.At(ti, tj)) / r6
	}
	r2 := r * r
	r10 := r2 * r2 * r2 * r2 * r2
	return c12/(r10*r2) - c10/r10
}

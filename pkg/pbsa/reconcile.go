package pbsa

import (
	"fmt"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Region is one of the three structures handed to the solver.
type Region struct {
	Name   string // com, rec or lig
	Sol    Marker
	Vac    Marker
	SAS    Marker
	Length int // expected atom count
}

// Regions returns the solver regions of a variant. Without a distinct
// ligand only the receptor is solved.
func Regions(sets core.IndexSets) []Region {
	rec := Region{Name: "rec", Sol: RecSol, Vac: RecVac, SAS: RecSAS, Length: len(sets.Receptor)}
	if sets.NoLigand() {
		return []Region{rec}
	}
	return []Region{
		{Name: "com", Sol: ComSol, Vac: ComVac, SAS: ComSAS, Length: len(sets.Complex)},
		rec,
		{Name: "lig", Sol: LigSol, Vac: LigVac, SAS: LigSAS, Length: len(sets.Ligand)},
	}
}

// energies returns the per-atom PB (solvated minus vacuum) and SA energies
// of one region.
func (reg Region) energies(b *Blocks, pba PBASet) (pb, sa []float64, err error) {
	sol, err := b.Values(reg.Sol)
	if err != nil {
		return nil, nil, err
	}
	vac, err := b.Values(reg.Vac)
	if err != nil {
		return nil, nil, err
	}
	area, err := b.Values(reg.SAS)
	if err != nil {
		return nil, nil, err
	}

	for _, block := range []struct {
		m Marker
		v []float64
	}{{reg.Sol, sol}, {reg.Vac, vac}, {reg.SAS, area}} {
		if len(block.v) != reg.Length {
			return nil, nil, &core.SolverProtocolError{
				Marker:  string(block.m),
				Message: fmt.Sprintf("block has %d atoms, %s has %d", len(block.v), reg.Name, reg.Length),
			}
		}
	}

	pb = make([]float64, reg.Length)
	sa = make([]float64, reg.Length)
	share := 0.0
	if reg.Length > 0 {
		share = pba.Bias / float64(reg.Length)
	}
	for i := range pb {
		pb[i] = sol[i] - vac[i]
		sa[i] = pba.Gamma*area[i] + share
	}
	return pb, sa, nil
}

// Reconcile converts parsed solver blocks into per-atom ΔPB and ΔSA over
// the complex ids. Receptor atoms take complex minus standalone receptor,
// ligand atoms complex minus standalone ligand. Without a distinct ligand
// the result is the negated receptor solvation.
func Reconcile(b *Blocks, sets core.IndexSets, pba PBASet) (dpb, dsa []float64, err error) {
	n := len(sets.Complex)
	dpb = make([]float64, n)
	dsa = make([]float64, n)

	if sets.NoLigand() {
		recPB, recSA, err := Regions(sets)[0].energies(b, pba)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range sets.Complex {
			l := sets.LocalReceptor(a)
			dpb[a] = -recPB[l]
			dsa[a] = -recSA[l]
		}
		return dpb, dsa, nil
	}

	regions := Regions(sets)
	comPB, comSA, err := regions[0].energies(b, pba)
	if err != nil {
		return nil, nil, err
	}
	recPB, recSA, err := regions[1].energies(b, pba)
	if err != nil {
		return nil, nil, err
	}
	ligPB, ligSA, err := regions[2].energies(b, pba)
	if err != nil {
		return nil, nil, err
	}

	for _, a := range sets.Complex {
		switch {
		case sets.InReceptor(a):
			l := sets.LocalReceptor(a)
			dpb[a] = comPB[a] - recPB[l]
			dsa[a] = comSA[a] - recSA[l]
		case sets.InLigand(a):
			l := sets.LocalLigand(a)
			dpb[a] = comPB[a] - ligPB[l]
			dsa[a] = comSA[a] - ligSA[l]
		default:
			return nil, nil, &core.TopologyError{Message: fmt.Sprintf("complex atom %d is in neither receptor nor ligand", a)}
		}
	}

	return dpb, dsa, nil
}

// Package index renumbers receptor, ligand and complex atom selections into
// one dense id space.
package index

import (
	"fmt"
	"slices"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Normalize maps the global atom indices of a receptor and an optional
// ligand selection to dense ids. The selection with the smaller minimum
// index takes the low block. An empty ligand, or one identical to the
// receptor, yields the no-ligand layout where all three sets coincide.
func Normalize(receptor, ligand []int) (core.IndexSets, error) {
	if len(receptor) == 0 {
		return core.IndexSets{}, &core.ConfigError{Field: "receptor", Message: "receptor group is empty"}
	}

	rec, err := sortedUnique("receptor", receptor)
	if err != nil {
		return core.IndexSets{}, err
	}

	if len(ligand) == 0 {
		return single(rec), nil
	}

	lig, err := sortedUnique("ligand", ligand)
	if err != nil {
		return core.IndexSets{}, err
	}
	if slices.Equal(rec, lig) {
		return single(rec), nil
	}
	if overlap(rec, lig) {
		return core.IndexSets{}, &core.TopologyError{Message: "receptor and ligand groups share atoms"}
	}

	var sets core.IndexSets
	if lig[0] < rec[0] {
		sets.Ligand = dense(0, len(lig))
		sets.Receptor = dense(len(lig), len(rec))
		sets.Global = append(append([]int{}, lig...), rec...)
	} else {
		sets.Receptor = dense(0, len(rec))
		sets.Ligand = dense(len(rec), len(lig))
		sets.Global = append(append([]int{}, rec...), lig...)
	}
	sets.Complex = dense(0, len(rec)+len(lig))

	return sets, nil
}

// Rebuild renumbers sets after atom removal. keep is indexed by the current
// dense id. Survivors keep their relative order and block membership, and
// each block stays contiguous.
func Rebuild(sets core.IndexSets, keep []bool) (core.IndexSets, error) {
	if len(keep) != len(sets.Complex) {
		return core.IndexSets{}, &core.TopologyError{
			Message: fmt.Sprintf("keep mask has %d entries for %d atoms", len(keep), len(sets.Complex)),
		}
	}

	noLigand := sets.NoLigand()
	var out core.IndexSets
	next := 0
	for _, old := range sets.Complex {
		if !keep[old] {
			continue
		}
		out.Complex = append(out.Complex, next)
		if sets.Global != nil {
			out.Global = append(out.Global, sets.Global[old])
		}
		switch {
		case noLigand:
			out.Receptor = append(out.Receptor, next)
		case sets.InReceptor(old):
			out.Receptor = append(out.Receptor, next)
		case sets.InLigand(old):
			out.Ligand = append(out.Ligand, next)
		}
		next++
	}
	if noLigand {
		out.Ligand = append([]int(nil), out.Receptor...)
	}

	if len(out.Receptor) == 0 {
		return core.IndexSets{}, &core.TopologyError{Message: "no receptor atom survives the removal"}
	}
	if !noLigand && len(out.Ligand) == 0 {
		return core.IndexSets{}, &core.TopologyError{Message: "no ligand atom survives the removal"}
	}

	return out, nil
}

func single(rec []int) core.IndexSets {
	ids := dense(0, len(rec))
	return core.IndexSets{
		Complex:  ids,
		Receptor: append([]int(nil), ids...),
		Ligand:   append([]int(nil), ids...),
		Global:   rec,
	}
}

func sortedUnique(group string, ids []int) ([]int, error) {
	out := slices.Clone(ids)
	slices.Sort(out)
	for i, id := range out {
		if id < 0 {
			return nil, &core.TopologyError{Message: fmt.Sprintf("%s group has negative atom index %d", group, id)}
		}
		if i > 0 && id == out[i-1] {
			return nil, &core.TopologyError{Message: fmt.Sprintf("%s group lists atom %d twice", group, id)}
		}
	}
	return out, nil
}

func dense(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

// overlap reports whether two sorted lists share an element.
func overlap(a, b []int) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// Package filter selects the residues that take part in an alanine scan or
// a per-residue report.
package filter

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

// Config holds residue selection settings. All set criteria must hold.
type Config struct {
	Range   string  // residue numbers, e.g. "1-3, 5" (empty = all)
	Cutoff  float64 // CA within this distance (Å) of a ligand atom (0 = no limit)
	Protein bool    // keep only residues with a one-letter code
}

// Structure is the view of a system that selection needs.
type Structure struct {
	Residues []core.Residue
	ResOf    []int
	Names    []string
	Ligand   []int
	Coords   []core.Vec3 // the frame used for distance criteria
}

// FromSystem builds a Structure from the last frame of sys.
func FromSystem(sys *core.System) Structure {
	var coords []core.Vec3
	if len(sys.Coords) > 0 {
		coords = sys.Coords[len(sys.Coords)-1]
	}
	return Structure{
		Residues: sys.Residues,
		ResOf:    sys.Atoms.ResidueOf(),
		Names:    sys.Atoms.Names(),
		Ligand:   sys.Sets.Ligand,
		Coords:   coords,
	}
}

// Apply returns the ids of the residues matching every configured filter,
// in residue order.
func (c *Config) Apply(s Structure) ([]int, error) {
	keep := make([]bool, len(s.Residues))
	for i := range keep {
		keep[i] = true
	}

	if strings.TrimSpace(c.Range) != "" {
		nrs, err := ParseRange(c.Range)
		if err != nil {
			return nil, err
		}
		for i, r := range s.Residues {
			if _, found := slices.BinarySearch(nrs, r.Nr); !found {
				keep[i] = false
			}
		}
	}

	if c.Cutoff > 0 {
		near, err := WithinCutoff(s, c.Cutoff)
		if err != nil {
			return nil, err
		}
		inRange := make([]bool, len(s.Residues))
		for _, id := range near {
			inRange[id] = true
		}
		for i := range keep {
			keep[i] = keep[i] && inRange[i]
		}
	}

	if c.Protein {
		for i, r := range s.Residues {
			if _, ok := core.OneLetterCode(r.Name); !ok {
				keep[i] = false
			}
		}
	}

	var out []int
	for i, k := range keep {
		if k {
			out = append(out, s.Residues[i].ID)
		}
	}
	return out, nil
}

var rangePattern = regexp.MustCompile(`^(-?\d+)\s*-\s*(-?\d+)$`)

// ParseRange expands a residue number list such as "1-3, 5" into sorted,
// distinct numbers.
func ParseRange(s string) ([]int, error) {
	var out []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if m := rangePattern.FindStringSubmatch(item); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			if hi < lo {
				return nil, &core.ConfigError{Field: "range", Message: fmt.Sprintf("descending range %q", item)}
			}
			for nr := lo; nr <= hi; nr++ {
				out = append(out, nr)
			}
			continue
		}
		nr, err := strconv.Atoi(item)
		if err != nil {
			return nil, &core.ConfigError{Field: "range", Message: fmt.Sprintf("invalid residue number %q", item)}
		}
		out = append(out, nr)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// WithinCutoff returns the ids of the ligand residues and of every residue
// whose CA lies within cutoff Å of a ligand atom.
func WithinCutoff(s Structure, cutoff float64) ([]int, error) {
	if len(s.Coords) != len(s.ResOf) || len(s.Names) != len(s.ResOf) {
		return nil, &core.TopologyError{Message: fmt.Sprintf("%d coordinates and %d names for %d atoms", len(s.Coords), len(s.Names), len(s.ResOf))}
	}

	keep := make([]bool, len(s.Residues))
	for _, a := range s.Ligand {
		if a < 0 || a >= len(s.ResOf) {
			return nil, &core.TopologyError{Message: fmt.Sprintf("ligand atom %d outside 0..%d", a, len(s.ResOf)-1)}
		}
		keep[s.ResOf[a]] = true
	}

	for a, name := range s.Names {
		r := s.ResOf[a]
		if name != "CA" || keep[r] {
			continue
		}
		for _, l := range s.Ligand {
			if s.Coords[a].Distance(s.Coords[l]) <= cutoff {
				keep[r] = true
				break
			}
		}
	}

	var out []int
	for i, k := range keep {
		if k {
			out = append(out, s.Residues[i].ID)
		}
	}
	return out, nil
}

// FromResults builds a Structure from the last frame of a finished variant.
func FromResults(r *result.Results) Structure {
	var coords []core.Vec3
	if len(r.Coords) > 0 {
		coords = r.Coords[len(r.Coords)-1]
	}
	return Structure{
		Residues: r.Residues,
		ResOf:    r.ResOf,
		Names:    r.AtomNames,
		Ligand:   r.Ligand,
		Coords:   coords,
	}
}

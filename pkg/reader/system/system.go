// Package system reads a TOML system description (topology, force field,
// groups and trajectory frames) and prepares the wild-type core.System.
package system

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml"
	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/index"
	"github.com/Rufus-willy/s-mmpbsa/pkg/reader/ndx"
)

// Description is the decoded system file.
type Description struct {
	Name     string `toml:"name"`
	Index    string `toml:"index"`     // optional .ndx file, relative to the description
	Receptor string `toml:"receptor"`  // group name
	Ligand   string `toml:"ligand"`    // group name, empty for no ligand
	TimeUnit string `toml:"time_unit"` // "ps" (default) or "ns"

	ForceField ForceField `toml:"forcefield"`
	Groups     []Group    `toml:"groups"`
	Residues   []Residue  `toml:"residues"`
	Atoms      []Atom     `toml:"atoms"`
	Frames     []Frame    `toml:"frames"`
}

// ForceField holds the Lennard-Jones coefficients by type (kJ/mol·nm^n).
// C10 may be omitted.
type ForceField struct {
	Types []string    `toml:"types"`
	C6    [][]float64 `toml:"c6"`
	C10   [][]float64 `toml:"c10"`
	C12   [][]float64 `toml:"c12"`
}

// Group is an inline atom group with 1-based atom numbers.
type Group struct {
	Name  string `toml:"name"`
	Atoms []int  `toml:"atoms"`
}

type Residue struct {
	Nr   int    `toml:"nr"`
	Name string `toml:"name"`
}

// Atom is one topology atom. Residue is the 0-based position in the
// residue list.
type Atom struct {
	Name    string  `toml:"name"`
	Residue int     `toml:"residue"`
	Charge  float64 `toml:"charge"`
	Type    string  `toml:"type"`
	Radius  float64 `toml:"radius"`
}

// Frame is one trajectory snapshot. Coordinates are in Å.
type Frame struct {
	Time   float64     `toml:"time"`
	Coords [][]float64 `toml:"coords"`
}

// Decode parses a system description.
func Decode(r io.Reader) (*Description, error) {
	var d Description
	if err := toml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode system description: %w", err)
	}
	return &d, nil
}

// Load reads a description from path. A relative index path is resolved
// against the directory of path.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open system description: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if d.Index != "" && !filepath.IsAbs(d.Index) {
		d.Index = filepath.Join(filepath.Dir(path), d.Index)
	}
	return d, nil
}

// Window selects trajectory frames by time (ns). End ≤ 0 means the last
// frame; Step < 1 means every frame.
type Window struct {
	Begin float64
	End   float64
	Step  int
}

// Options controls system preparation.
type Options struct {
	Window Window
	// Radii overrides the topology radii. Nil keeps them ("ff" model).
	Radii *core.RadiusTable
}

// Build prepares the wild-type system: groups are normalized into dense
// ids, atoms and coordinates are reordered accordingly, the frame window is
// applied and times are converted to ns.
func (d *Description) Build(opts Options) (*core.System, error) {
	groups, err := d.groups()
	if err != nil {
		return nil, err
	}

	if d.Receptor == "" {
		return nil, &core.ConfigError{Field: "receptor", Message: "receptor group is required"}
	}
	rec, ok := ndx.Find(groups, d.Receptor)
	if !ok {
		return nil, &core.ConfigError{Field: "receptor", Message: fmt.Sprintf("group %q not found", d.Receptor)}
	}
	var ligAtoms []int
	if d.Ligand != "" {
		lig, ok := ndx.Find(groups, d.Ligand)
		if !ok {
			return nil, &core.ConfigError{Field: "ligand", Message: fmt.Sprintf("group %q not found", d.Ligand)}
		}
		ligAtoms = lig.Atoms
	}

	sets, err := index.Normalize(rec.Atoms, ligAtoms)
	if err != nil {
		return nil, err
	}
	for _, g := range sets.Global {
		if g >= len(d.Atoms) {
			return nil, &core.TopologyError{Message: fmt.Sprintf("group atom %d outside 1..%d", g+1, len(d.Atoms))}
		}
	}

	ap, residues, err := d.atoms(sets.Global)
	if err != nil {
		return nil, err
	}
	if opts.Radii != nil {
		ap.ApplyRadii(opts.Radii)
	}

	coords, times, err := d.frames(sets.Global, opts.Window)
	if err != nil {
		return nil, err
	}

	sys := &core.System{
		Label:    "WT",
		Atoms:    ap,
		Residues: residues,
		Sets:     sets,
		Coords:   coords,
		Times:    times,
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

// groups merges the index file groups with the inline ones. Inline groups
// come first and win on name clashes.
func (d *Description) groups() ([]ndx.Group, error) {
	var out []ndx.Group
	for _, g := range d.Groups {
		atoms := make([]int, len(g.Atoms))
		for i, n := range g.Atoms {
			if n < 1 {
				return nil, &core.ConfigError{Field: "groups", Message: fmt.Sprintf("group %q has atom number %d", g.Name, n)}
			}
			atoms[i] = n - 1
		}
		out = append(out, ndx.Group{Name: g.Name, Atoms: atoms})
	}

	if d.Index == "" {
		return out, nil
	}
	f, err := os.Open(d.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()
	fromFile, err := ndx.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", d.Index, err)
	}
	return append(out, fromFile...), nil
}

// atoms builds the atom table in dense order. Residues without a selected
// atom are dropped and the remaining ones renumbered in file order.
func (d *Description) atoms(global []int) (*core.AtomProperties, []core.Residue, error) {
	c6, c10, c12, err := d.ForceField.matrices()
	if err != nil {
		return nil, nil, err
	}
	typeMap := make(map[string]int, len(d.ForceField.Types))
	for i, t := range d.ForceField.Types {
		typeMap[t] = i
	}

	var used []int
	for _, g := range global {
		r := d.Atoms[g].Residue
		if r < 0 || r >= len(d.Residues) {
			return nil, nil, &core.TopologyError{Message: fmt.Sprintf("atom %d references residue %d of %d", g+1, r, len(d.Residues))}
		}
		used = append(used, r)
	}
	slices.Sort(used)
	used = slices.Compact(used)

	resID := make(map[int]int, len(used))
	residues := make([]core.Residue, len(used))
	for i, r := range used {
		resID[r] = i
		residues[i] = core.Residue{ID: i, Nr: d.Residues[r].Nr, Name: d.Residues[r].Name}
	}

	ap := &core.AtomProperties{
		Atoms: make([]core.AtomProperty, len(global)),
		C6:    c6, C10: c10, C12: c12,
		TypeMap:    typeMap,
		RadiusType: "ff",
	}
	for k, g := range global {
		a := d.Atoms[g]
		t, ok := typeMap[a.Type]
		if !ok {
			return nil, nil, &core.ConfigError{Field: "atoms", Message: fmt.Sprintf("atom %d has unknown LJ type %q", g+1, a.Type)}
		}
		ap.Atoms[k] = core.AtomProperty{
			ID:     k,
			Name:   a.Name,
			ResID:  resID[a.Residue],
			Charge: a.Charge,
			TypeID: t,
			Radius: a.Radius,
		}
	}
	return ap, residues, nil
}

func (ff ForceField) matrices() (c6, c10, c12 *mat.SymDense, err error) {
	n := len(ff.Types)
	if n == 0 {
		return nil, nil, nil, &core.ConfigError{Field: "forcefield", Message: "no LJ types defined"}
	}
	if c6, err = symmetric("c6", ff.C6, n); err != nil {
		return nil, nil, nil, err
	}
	if c12, err = symmetric("c12", ff.C12, n); err != nil {
		return nil, nil, nil, err
	}
	if ff.C10 == nil {
		return c6, mat.NewSymDense(n, nil), c12, nil
	}
	if c10, err = symmetric("c10", ff.C10, n); err != nil {
		return nil, nil, nil, err
	}
	return c6, c10, c12, nil
}

func symmetric(name string, rows [][]float64, n int) (*mat.SymDense, error) {
	if len(rows) != n {
		return nil, &core.ConfigError{Field: "forcefield." + name, Message: fmt.Sprintf("%d rows for %d types", len(rows), n)}
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, &core.ConfigError{Field: "forcefield." + name, Message: fmt.Sprintf("row %d has %d columns for %d types", i, len(row), n)}
		}
	}
	m := mat.NewSymDense(n, nil)
	for i, row := range rows {
		for j := i; j < n; j++ {
			if math.Abs(row[j]-rows[j][i]) > 1e-12*math.Max(1, math.Abs(row[j])) {
				return nil, &core.ConfigError{Field: "forcefield." + name, Message: fmt.Sprintf("not symmetric at %d,%d", i, j)}
			}
			m.SetSym(i, j, row[j])
		}
	}
	return m, nil
}

// frames selects the window and reorders coordinates into dense order.
func (d *Description) frames(global []int, w Window) ([][]core.Vec3, []float64, error) {
	scale := 1e-3
	switch d.TimeUnit {
	case "", "ps":
	case "ns":
		scale = 1
	default:
		return nil, nil, &core.ConfigError{Field: "time_unit", Message: fmt.Sprintf("unknown unit %q", d.TimeUnit)}
	}
	step := w.Step
	if step < 1 {
		step = 1
	}

	var coords [][]core.Vec3
	var times []float64
	seen := 0
	for f, fr := range d.Frames {
		t := fr.Time * scale
		if t < w.Begin || (w.End > 0 && t > w.End) {
			continue
		}
		seen++
		if (seen-1)%step != 0 {
			continue
		}
		if len(fr.Coords) != len(d.Atoms) {
			return nil, nil, &core.TopologyError{Message: fmt.Sprintf("frame %d has %d coordinates for %d atoms", f, len(fr.Coords), len(d.Atoms))}
		}
		sel := make([]core.Vec3, len(global))
		for k, g := range global {
			c := fr.Coords[g]
			if len(c) != 3 {
				return nil, nil, &core.TopologyError{Message: fmt.Sprintf("frame %d atom %d has %d components", f, g+1, len(c))}
			}
			sel[k] = core.Vec3{c[0], c[1], c[2]}
		}
		coords = append(coords, sel)
		times = append(times, t)
	}
	if len(coords) == 0 {
		return nil, nil, &core.ConfigError{Field: "frames", Message: fmt.Sprintf("no frame between %g and %g ns", w.Begin, w.End)}
	}
	return coords, times, nil
}

// Radii resolves a radius model: "ff" yields nil, a built-in model name its
// table, anything else is read as a .dat file. fallback > 0 replaces the
// radius of unlisted atoms.
func Radii(model string, fallback float64) (*core.RadiusTable, error) {
	if model == "ff" {
		return nil, nil
	}
	var t *core.RadiusTable
	if slices.Contains(core.RadiusTypes, model) {
		var err error
		if t, err = core.DefaultRadiusTable(model); err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(model)
		if err != nil {
			return nil, &core.ConfigError{Field: "radius_type", Message: fmt.Sprintf("unknown radius model %q", model)}
		}
		defer f.Close()
		t = core.NewRadiusTable(filepath.Base(model), 1.5)
		if err := t.LoadFromDat(f); err != nil {
			return nil, fmt.Errorf("failed to load radii from %s: %w", model, err)
		}
	}
	if fallback > 0 {
		t.Add("*", fallback)
	}
	return t, nil
}

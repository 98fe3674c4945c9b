// Package report writes the CSV and PDB reports of finished variants.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

func energy(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// Time formats a time in ns with the fewest digits that round-trip.
func Time(ns float64) string { return strconv.FormatFloat(ns, 'f', -1, 64) }

// sci formats v with three decimals and a compact exponent ("1.234e-5").
func sci(v float64) string {
	s := strconv.FormatFloat(v, 'e', 3, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := ""
	if exp[0] == '-' {
		sign = "-"
	}
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// Summary writes the averaged energy terms and the derived ΔG and Ki.
func Summary(w io.Writer, s result.Summary) error {
	ki := "Unavailable"
	if s.KiAvailable() {
		ki = sci(s.Ki)
	}
	records := [][]string{
		{"Energy Term", "value", "info"},
		{"ΔH", energy(s.DH), "ΔH=ΔMM+ΔPB+ΔSA (kJ/mol)"},
		{"ΔMM", energy(s.MM), "ΔMM=Δelec+ΔvdW (kJ/mol)"},
		{"ΔPB", energy(s.PB), "(kJ/mol)"},
		{"ΔSA", energy(s.SA), "(kJ/mol)"},
		{},
		{"Δelec", energy(s.Elec), "(kJ/mol)"},
		{"ΔvdW", energy(s.Vdw), "(kJ/mol)"},
		{},
		{"TΔS", energy(s.TdS), "(kJ/mol)"},
		{"ΔG", energy(s.DG), "ΔG=ΔH-TΔS (kJ/mol)"},
		{"Ki", ki, "Ki=exp(ΔG/RT) (nM)"},
	}
	return csv.NewWriter(w).WriteAll(records)
}

func termHeader(first ...string) []string {
	out := append([]string(nil), first...)
	for _, t := range result.Terms {
		out = append(out, t.String())
	}
	return out
}

// Trajectory writes every term per frame.
func Trajectory(w io.Writer, r *result.Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(termHeader("Time (ns)")); err != nil {
		return err
	}
	for f, t := range r.Times {
		rec := []string{Time(t)}
		for _, term := range result.Terms {
			rec = append(rec, energy(r.Series(term)[f]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Residues writes the per-residue terms of the selected residue ids at one
// frame, or averaged over frames when frame < 0.
func Residues(w io.Writer, r *result.Results, ids []int, frame int) error {
	if frame >= r.Frames() {
		return fmt.Errorf("frame %d outside 0..%d", frame, r.Frames()-1)
	}
	values := make([][]float64, len(result.Terms))
	for i, term := range result.Terms {
		if frame < 0 {
			values[i] = r.ResidueMean(term)
		} else {
			values[i] = r.ResidueAt(term, frame)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(termHeader("id", "name")); err != nil {
		return err
	}
	for _, id := range ids {
		if id < 0 || id >= len(r.Residues) {
			return fmt.Errorf("residue id %d outside 0..%d", id, len(r.Residues)-1)
		}
		res := r.Residues[id]
		rec := []string{strconv.Itoa(res.Nr), res.Name}
		for i := range result.Terms {
			rec = append(rec, energy(values[i][id]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ResidueTrajectory writes one term for every residue and frame.
func ResidueTrajectory(w io.Writer, r *result.Results, term result.Term) error {
	m := r.Residue(term)

	cw := csv.NewWriter(w)
	header := []string{"Time (ns)"}
	for _, res := range r.Residues {
		header = append(header, fmt.Sprintf("%d#%s", res.Nr, res.Name))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for f, t := range r.Times {
		rec := []string{Time(t)}
		for j := range r.Residues {
			rec = append(rec, energy(m.At(f, j)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PDB writes the given atoms with −ΔH in the B-factor column. Coordinates
// come from frame; the B-factor is taken at frame, or averaged over frames
// when average is set.
func PDB(w io.Writer, r *result.Results, atoms []int, frame int, average bool) error {
	if frame < 0 || frame >= r.Frames() {
		return fmt.Errorf("frame %d outside 0..%d", frame, r.Frames()-1)
	}
	if frame >= len(r.Coords) || len(r.Coords[frame]) != len(r.ResOf) {
		return fmt.Errorf("no coordinates stored for frame %d", frame)
	}

	dh := r.Atom(result.DH)
	bf := func(a int) float64 { return -dh.At(frame, a) }
	if average {
		mean := make([]float64, len(r.ResOf))
		for f := 0; f < r.Frames(); f++ {
			for a := range mean {
				mean[a] += dh.At(f, a)
			}
		}
		bf = func(a int) float64 { return -mean[a] / float64(r.Frames()) }
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "REMARK  Generated by s-mmpbsa")
	fmt.Fprintln(bw, "REMARK  B-factor column filled with INVERSED receptor-ligand interaction energy (kJ/mol)")
	for _, a := range atoms {
		if a < 0 || a >= len(r.ResOf) {
			return fmt.Errorf("atom %d outside 0..%d", a, len(r.ResOf)-1)
		}
		name := r.AtomNames[a]
		res := r.Residues[r.ResOf[a]]
		c := r.Coords[frame][a]
		fmt.Fprintf(bw, "ATOM  %5d %-4s %-3s A%4d    %8.3f%8.3f%8.3f  1.00%6.2f           %-2s\n",
			a+1, name, res.Name, res.Nr, c[0], c[1], c[2], bf(a), element(name))
	}
	fmt.Fprintln(bw, "END")
	return bw.Flush()
}

func element(name string) string {
	if name == "" {
		return ""
	}
	return name[:1]
}

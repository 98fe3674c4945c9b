package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

// SystemName joins the system name and the variant label ("complex-WT").
func SystemName(name, label string) string {
	return fmt.Sprintf("%s-%s", name, label)
}

func SummaryFile(sys string) string    { return fmt.Sprintf("MMPBSA_%s.csv", sys) }
func TrajectoryFile(sys string) string { return fmt.Sprintf("MMPBSA_%s_traj.csv", sys) }
func LigandFile(sys string) string     { return fmt.Sprintf("MMPBSA_%s_ligand.pdb", sys) }

// ResidueFile names a residue report. ns < 0 names the averaged report.
func ResidueFile(sys, rangeLabel string, ns float64) string {
	if ns < 0 {
		return fmt.Sprintf("MMPBSA_%s_res_%s.csv", sys, rangeLabel)
	}
	return fmt.Sprintf("MMPBSA_%s_res_%s_%sns.csv", sys, rangeLabel, Time(ns))
}

func ResidueTrajectoryFile(sys string, term result.Term) string {
	return fmt.Sprintf("MMPBSA_%s_res_%s.csv", sys, term)
}

// Options selects the reports Write produces for one variant.
type Options struct {
	Temperature float64 // K
	UseTS       bool

	// Residues are the ids for the residue report, labelled by Range.
	Residues []int
	Range    string
	// At picks the residue report frame by time (ns). Negative averages.
	At float64

	// Details adds one residue trajectory per term.
	Details bool
	// Ligand adds the ligand PDB with averaged B-factors.
	Ligand bool
}

// Write produces the reports of one variant in dir and returns the paths
// written, in order.
func Write(dir, sys string, r *result.Results, opts Options) ([]string, error) {
	var written []string
	emit := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	summary := r.Summary(opts.Temperature, opts.UseTS)
	if err := emit(SummaryFile(sys), func(w io.Writer) error { return Summary(w, summary) }); err != nil {
		return written, err
	}
	if err := emit(TrajectoryFile(sys), func(w io.Writer) error { return Trajectory(w, r) }); err != nil {
		return written, err
	}

	if len(opts.Residues) > 0 {
		frame, ns := -1, -1.0
		if opts.At >= 0 {
			frame = r.TimeIndex(opts.At)
			ns = r.Times[frame]
		}
		name := ResidueFile(sys, opts.Range, ns)
		if err := emit(name, func(w io.Writer) error { return Residues(w, r, opts.Residues, frame) }); err != nil {
			return written, err
		}
	}

	if opts.Details {
		for _, term := range result.Terms {
			if err := emit(ResidueTrajectoryFile(sys, term), func(w io.Writer) error {
				return ResidueTrajectory(w, r, term)
			}); err != nil {
				return written, err
			}
		}
	}

	if opts.Ligand && len(r.Ligand) > 0 {
		if err := emit(LigandFile(sys), func(w io.Writer) error { return PDB(w, r, r.Ligand, 0, true) }); err != nil {
			return written, err
		}
	}
	return written, nil
}

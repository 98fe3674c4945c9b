package pbsa

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Job is the solver input of one frame of one variant.
type Job struct {
	Name     string // file stem, e.g. "WT_1.5ns"
	Coords   []core.Vec3
	Atoms    *core.AtomProperties
	Residues []core.Residue
	Sets     core.IndexSets
}

// InputFile returns the name of the solver input file.
func (j *Job) InputFile() string {
	return j.Name + ".apbs"
}

// IDs returns the complex ids making up a region.
func (j *Job) IDs(reg Region) []int {
	switch reg.Name {
	case "com":
		return j.Sets.Complex
	case "lig":
		return j.Sets.Ligand
	}
	return j.Sets.Receptor
}

// Write creates one PQR file per region and the solver input in dir.
func (j *Job) Write(dir string, pbe PBESet, pba PBASet) error {
	regions := Regions(j.Sets)
	for _, reg := range regions {
		path := filepath.Join(dir, j.pqrName(reg))
		if err := writeFile(path, func(w io.Writer) error {
			return j.writePQR(w, j.IDs(reg))
		}); err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(dir, j.InputFile()), func(w io.Writer) error {
		return j.writeInput(w, regions, pbe, pba)
	})
}

func (j *Job) pqrName(reg Region) string {
	return fmt.Sprintf("%s_%s.pqr", j.Name, reg.Name)
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// writePQR writes the atoms ids in PQR format, numbered from 1.
func (j *Job) writePQR(w io.Writer, ids []int) error {
	for n, id := range ids {
		a := j.Atoms.Atoms[id]
		res := j.Residues[a.ResID]
		p := j.Coords[id]
		if _, err := fmt.Fprintf(w, "ATOM  %5d %-4s %-3s %5d    %8.3f%8.3f%8.3f %8.4f %7.4f\n",
			n+1, a.Name, res.Name, res.Nr, p[0], p[1], p[2], a.Charge, a.Radius); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "END")
	return err
}

// grid computes mg-auto grid dimensions and lengths for a set of atoms.
func grid(coords []core.Vec3, ids []int, pbe PBESet) (dime [3]int, cglen, fglen [3]float64) {
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, id := range ids {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], coords[id][k])
			hi[k] = math.Max(hi[k], coords[id][k])
		}
	}
	for k := 0; k < 3; k++ {
		extent := hi[k] - lo[k]
		fglen[k] = extent + pbe.Fadd
		cglen[k] = math.Max(extent*pbe.Cfac, fglen[k])
		// mg-auto needs 32c+1 points per axis
		c := math.Ceil((fglen[k]/pbe.Df - 1) / 32)
		if c < 1 {
			c = 1
		}
		dime[k] = 32*int(c) + 1
	}
	return dime, cglen, fglen
}

func (j *Job) writeInput(w io.Writer, regions []Region, pbe PBESet, pba PBASet) error {
	bw := &errWriter{w: w}

	bw.printf("read\n")
	for _, reg := range regions {
		bw.printf("  mol pqr %s\n", j.pqrName(reg))
	}
	bw.printf("end\n\n")

	for mol, reg := range regions {
		dime, cglen, fglen := grid(j.Coords, j.IDs(reg), pbe)
		j.writeElec(bw, string(reg.Sol), mol+1, dime, cglen, fglen, pbe, pbe.SDie, true)
		j.writeElec(bw, string(reg.Vac), mol+1, dime, cglen, fglen, pbe, 1, false)
		j.writeApolar(bw, string(reg.SAS), mol+1, pbe, pba)
	}

	bw.printf("quit\n")
	return bw.err
}

func (j *Job) writeElec(bw *errWriter, marker string, mol int, dime [3]int, cglen, fglen [3]float64,
	pbe PBESet, sdie float64, ions bool) {
	bw.printf("elec name %s%s\n", j.Name, marker)
	bw.printf("  mg-auto\n")
	bw.printf("  mol %d\n", mol)
	bw.printf("  dime %d %d %d\n", dime[0], dime[1], dime[2])
	bw.printf("  cglen %.3f %.3f %.3f\n", cglen[0], cglen[1], cglen[2])
	bw.printf("  fglen %.3f %.3f %.3f\n", fglen[0], fglen[1], fglen[2])
	bw.printf("  cgcent mol %d\n", mol)
	bw.printf("  fgcent mol %d\n", mol)
	if pbe.LPBE {
		bw.printf("  lpbe\n")
	} else {
		bw.printf("  npbe\n")
	}
	bw.printf("  bcfl %s\n", pbe.Bcfl)
	if ions {
		for _, ion := range pbe.Ions {
			bw.printf("  ion charge %g conc %g radius %g\n", ion.Charge, ion.Concentration, ion.Radius)
		}
	}
	bw.printf("  pdie %g\n", pbe.PDie)
	bw.printf("  sdie %g\n", sdie)
	bw.printf("  srfm %s\n", pbe.Srfm)
	bw.printf("  chgm %s\n", pbe.Chgm)
	bw.printf("  sdens %g\n", pbe.Sdens)
	bw.printf("  srad %g\n", pbe.Srad)
	bw.printf("  swin %g\n", pbe.Swin)
	bw.printf("  temp %g\n", pbe.Temperature)
	bw.printf("  calcenergy comps\n")
	bw.printf("  calcforce no\n")
	bw.printf("end\n\n")
}

func (j *Job) writeApolar(bw *errWriter, marker string, mol int, pbe PBESet, pba PBASet) {
	bw.printf("apolar name %s%s\n", j.Name, marker)
	bw.printf("  mol %d\n", mol)
	bw.printf("  srfm %s\n", pba.Srfm)
	bw.printf("  srad %g\n", pba.Srad)
	bw.printf("  swin %g\n", pba.Swin)
	bw.printf("  sdens %g\n", pba.Sdens)
	bw.printf("  dpos %g\n", pba.Dpos)
	bw.printf("  grid 0.5 0.5 0.5\n")
	bw.printf("  gamma 1\n")
	bw.printf("  press 0\n")
	bw.printf("  bconc 0\n")
	bw.printf("  temp %g\n", pbe.Temperature)
	bw.printf("  calcenergy comps\n")
	bw.printf("  calcforce no\n")
	bw.printf("end\n\n")
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Package pbsatest provides an in-memory PB/SA solver producing logs in the
// APBS layout.
package pbsatest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
)

// WriteBlock writes one calculation block.
func WriteBlock(w io.Writer, calc int, name string, m pbsa.Marker, values []float64) {
	fmt.Fprintln(w, "----------------------------------------")
	if m.Polar() {
		fmt.Fprintf(w, "CALCULATION #%d (%s%s): MULTIGRID\n", calc, name, m)
		fmt.Fprintln(w, "  Setting up problem...")
		fmt.Fprintln(w, "  Per-atom energies:")
		for i, v := range values {
			fmt.Fprintf(w, "      Atom %d:  %.10E kJ/mol\n", i, v)
		}
		return
	}
	fmt.Fprintf(w, "CALCULATION #%d (%s%s): APOLAR\n", calc, name, m)
	fmt.Fprintln(w, "  Solvent radius = 1.4")
	for i, v := range values {
		fmt.Fprintf(w, "  SASA for atom %d: %.10E\n", i, v)
	}
}

// Solver fabricates deterministic per-atom values from each job's charges
// and radii. It is safe for concurrent use.
type Solver struct {
	// Fail, when non-nil, may return an error for a job.
	Fail func(job *pbsa.Job) error
	// Omit drops the result block (second occurrence) of a marker.
	Omit pbsa.Marker

	mu    sync.Mutex
	calls int
}

// Calls returns the number of Solve calls.
func (s *Solver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Solve implements pbsa.Solver.
func (s *Solver) Solve(ctx context.Context, workDir string, job *pbsa.Job) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Fail != nil {
		if err := s.Fail(job); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	calc := 0
	fmt.Fprintln(&buf, "APBS -- Adaptive Poisson-Boltzmann Solver")
	for _, reg := range pbsa.Regions(job.Sets) {
		ids := job.IDs(reg)
		sol, vac, area := Values(job, ids, reg.Name)
		for _, b := range []struct {
			m pbsa.Marker
			v []float64
		}{{reg.Sol, sol}, {reg.Vac, vac}} {
			calc++
			// setup echo, discarded by the parser
			WriteBlock(&buf, calc, job.Name, b.m, nil)
			if b.m == s.Omit {
				continue
			}
			calc++
			WriteBlock(&buf, calc, job.Name, b.m, b.v)
		}
		if reg.SAS != s.Omit {
			calc++
			WriteBlock(&buf, calc, job.Name, reg.SAS, area)
		}
	}
	fmt.Fprintln(&buf, "Thanks for using APBS!")
	return buf.Bytes(), nil
}

// Values returns the solvated, vacuum and area values the fake solver
// reports for the atoms ids of a region. The complex region is more
// strongly solvated than the isolated parts so that Δ terms are non-zero.
func Values(job *pbsa.Job, ids []int, region string) (sol, vac, area []float64) {
	scale := 1.0
	if region == "com" {
		scale = 0.8
	}
	for _, id := range ids {
		a := job.Atoms.Atoms[id]
		p := job.Coords[id]
		q2 := a.Charge * a.Charge
		sol = append(sol, -scale*(40*q2+0.01*math.Abs(p[2])))
		vac = append(vac, -4*q2)
		area = append(area, scale*4*math.Pi*a.Radius*a.Radius)
	}
	return sol, vac, area
}

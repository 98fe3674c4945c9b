// Package mmpbsa runs the MM-PBSA decomposition of a wild-type system and
// its alanine mutants.
package mmpbsa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Rufus-willy/s-mmpbsa/pkg/alascan"
	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/logging"
	"github.com/Rufus-willy/s-mmpbsa/pkg/metrics"
	"github.com/Rufus-willy/s-mmpbsa/pkg/mm"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

// Config holds the engine settings.
type Config struct {
	Kernel mm.Options
	PBE    pbsa.PBESet
	PBA    pbsa.PBASet

	// Radii re-derives the radius of retyped mutant atoms. Nil keeps the
	// topology radius.
	Radii *core.RadiusTable

	// WorkDir holds one fresh subdirectory per variant run for solver
	// files, named "<label>-<random>". Empty means the system temp dir.
	WorkDir string
	// Debug keeps solver files after a variant finishes.
	Debug bool
	// MaxParallel bounds the number of variants computed at once.
	MaxParallel int
}

// Engine computes Results for system variants. It is safe for concurrent
// use when its Solver is.
type Engine struct {
	cfg     Config
	kernel  *mm.Kernel
	solver  pbsa.Solver
	log     logging.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. A nil solver skips the PB/SA terms, which are
// then reported as zero.
func New(cfg Config, solver pbsa.Solver, opts ...Option) (*Engine, error) {
	if err := cfg.PBE.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.PBA.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	e := &Engine{
		cfg:    cfg,
		kernel: mm.NewKernel(cfg.PBE.Coefficients(), cfg.Kernel),
		solver: solver,
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("engine")
	return e, nil
}

// Scan is the outcome of a wild-type run plus alanine scan.
type Scan struct {
	WT *result.Results
	// Mutants holds the completed mutants in scan order.
	Mutants []*result.Results
	// Failed holds a VariantError for every aborted variant, including
	// the wild type.
	Failed []error
	// Skipped holds an UnsupportedResidueError for every residue that
	// could not be mutated.
	Skipped []error
}

// Run computes the wild type and one alanine mutant per residue id in scan.
// Configuration and topology errors abort the whole run. A per-frame failure
// aborts only its variant; the remaining variants still complete.
func (e *Engine) Run(ctx context.Context, sys *core.System, scan []int) (*Scan, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	out := &Scan{}
	variants := []*core.System{sys}
	var mutants []*alascan.Variant
	seen := make(map[int]bool, len(scan))
	for _, resID := range scan {
		if seen[resID] {
			continue
		}
		seen[resID] = true
		v, err := alascan.Mutate(sys, resID, e.cfg.Radii)
		var unsupported *core.UnsupportedResidueError
		switch {
		case errors.As(err, &unsupported):
			e.log.Warn("residue skipped",
				logging.String("residue", fmt.Sprintf("%s%d", unsupported.Name, unsupported.Nr)),
				logging.String("reason", unsupported.Reason))
			e.metrics.Variant(metrics.Skipped)
			out.Skipped = append(out.Skipped, err)
			continue
		case err != nil:
			return nil, err
		}
		mutants = append(mutants, v)
	}
	uniqueLabels(mutants)
	for _, v := range mutants {
		variants = append(variants, v.System)
	}

	results := make([]*result.Results, len(variants))
	errs := make([]error, len(variants))

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxParallel)
	for i, v := range variants {
		g.Go(func() error {
			results[i], errs[i] = e.RunVariant(ctx, v)
			return nil
		})
	}
	_ = g.Wait()

	for i := range variants {
		if errs[i] != nil {
			out.Failed = append(out.Failed, errs[i])
			continue
		}
		if i == 0 {
			out.WT = results[i]
		} else {
			out.Mutants = append(out.Mutants, results[i])
		}
	}
	return out, nil
}

// uniqueLabels appends the residue id to mutation labels shared by several
// residues, as happens when chains restart their numbering.
func uniqueLabels(mutants []*alascan.Variant) {
	count := make(map[string]int, len(mutants))
	for _, v := range mutants {
		count[v.Label]++
	}
	for _, v := range mutants {
		if count[v.Label] > 1 {
			v.Label = fmt.Sprintf("%s_%d", v.Label, v.Residue.ID)
		}
	}
}

// RunVariant computes the Results of one variant over all its frames.
// Frames are processed in order. Any frame error aborts the variant with a
// VariantError naming the frame.
func (e *Engine) RunVariant(ctx context.Context, sys *core.System) (*result.Results, error) {
	log := e.log.With(logging.String("variant", sys.Label))
	start := time.Now()

	res, err := e.runVariant(ctx, sys, log)
	if err != nil {
		fields := []logging.Field{logging.Err(err)}
		var ve *core.VariantError
		if errors.As(err, &ve) {
			fields = append(fields, logging.Int("frame", ve.Frame), logging.Float64("time_ns", ve.Time))
		}
		var proto *core.SolverProtocolError
		if errors.As(err, &proto) {
			fields = append(fields, logging.String("marker", proto.Marker))
		}
		var num *core.NumericError
		if errors.As(err, &num) {
			fields = append(fields, logging.String("quantity", num.Quantity), logging.Int("index", num.Index))
		}
		log.Error("variant aborted", fields...)
		e.metrics.Variant(metrics.Aborted)
		return nil, err
	}

	log.Info("variant finished",
		logging.Int("frames", res.Frames()),
		logging.Duration("elapsed", time.Since(start)))
	e.metrics.Variant(metrics.Completed)
	return res, nil
}

func (e *Engine) runVariant(ctx context.Context, sys *core.System, log logging.Logger) (*result.Results, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	var dir string
	if e.solver != nil {
		var err error
		if dir, err = e.variantDir(sys.Label); err != nil {
			return nil, err
		}
		if !e.cfg.Debug {
			defer os.RemoveAll(dir)
		}
	}

	acc := result.NewAccumulator(sys)
	for f, coords := range sys.Coords {
		fe, err := e.frame(ctx, sys, coords, sys.Times[f], dir)
		if err == nil {
			err = acc.Set(f, fe)
		}
		if err != nil {
			return nil, &core.VariantError{Variant: sys.Label, Frame: f, Time: sys.Times[f], Err: err}
		}
		e.metrics.Frame(sys.Label)
		log.Debug("frame done", logging.Int("frame", f), logging.Float64("time_ns", sys.Times[f]))
	}
	return acc.Results()
}

// variantDir creates a fresh directory for the solver files of one variant
// run. Concurrent runs never share one, even under the same label.
func (e *Engine) variantDir(label string) (string, error) {
	prefix := label + "-"
	if e.cfg.WorkDir == "" {
		prefix = "smmpbsa-" + prefix
	} else if err := os.MkdirAll(e.cfg.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	dir, err := os.MkdirTemp(e.cfg.WorkDir, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	return dir, nil
}

// frame computes one frame. MM is skipped without a distinct ligand and
// PB/SA is skipped without a solver.
func (e *Engine) frame(ctx context.Context, sys *core.System, coords []core.Vec3, t float64, dir string) (result.FrameEnergies, error) {
	var fe result.FrameEnergies
	if err := ctx.Err(); err != nil {
		return fe, err
	}

	if !sys.Sets.NoLigand() {
		start := time.Now()
		mme, err := e.kernel.Compute(coords, sys.Atoms, sys.Sets, len(sys.Residues))
		if err != nil {
			return fe, err
		}
		e.metrics.Kernel(time.Since(start))
		fe.Elec, fe.Vdw = mme.ElecAtom, mme.VdwAtom
	}

	if e.solver == nil {
		return fe, nil
	}
	job := &pbsa.Job{
		Name:     fmt.Sprintf("%s_%gns", sys.Label, t),
		Coords:   coords,
		Atoms:    sys.Atoms,
		Residues: sys.Residues,
		Sets:     sys.Sets,
	}
	start := time.Now()
	out, err := e.solver.Solve(ctx, dir, job)
	if err != nil {
		return fe, err
	}
	e.metrics.Solver(time.Since(start))

	blocks, err := pbsa.ParseLog(bytes.NewReader(out))
	if err != nil {
		return fe, err
	}
	fe.PB, fe.SA, err = pbsa.Reconcile(blocks, sys.Sets, e.cfg.PBA)
	if err != nil {
		return fe, err
	}
	return fe, nil
}

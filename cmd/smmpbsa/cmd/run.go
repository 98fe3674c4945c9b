package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rufus-willy/s-mmpbsa/pkg/config"
	"github.com/Rufus-willy/s-mmpbsa/pkg/filter"
	"github.com/Rufus-willy/s-mmpbsa/pkg/logging"
	"github.com/Rufus-willy/s-mmpbsa/pkg/metrics"
	"github.com/Rufus-willy/s-mmpbsa/pkg/mmpbsa"
	"github.com/Rufus-willy/s-mmpbsa/pkg/reader/system"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
	"github.com/Rufus-willy/s-mmpbsa/pkg/writer/report"
	"github.com/Rufus-willy/s-mmpbsa/pkg/writer/sqlite"
)

var (
	// Flags for run command
	systemFile  string
	outputDir   string
	dbFile      string
	metricsFile string
	beginNs     float64
	endNs       float64
	frameStep   int
	scanRange   string
	scanCutoff  float64
)

// Report flags, shared by run and summarize
var (
	resRange  string
	resCutoff float64
	atNs      float64
	details   bool
	ligandPDB bool
)

func addReportFlags(c *cobra.Command) {
	c.Flags().StringVarP(&outputDir, "out", "o", ".", "Output directory for reports")
	c.Flags().StringVar(&resRange, "res-range", "", "Residue numbers for the residue report, e.g. '1-50,75'")
	c.Flags().Float64Var(&resCutoff, "res-cutoff", 4, "Residue report keeps residues with CA within this distance (Å) of the ligand (0 = no limit)")
	c.Flags().Float64Var(&atNs, "at", -1, "Time (ns) of the residue report (negative = average over frames)")
	c.Flags().BoolVar(&details, "details", false, "Write per-residue trajectories of every energy term")
	c.Flags().BoolVar(&ligandPDB, "ligand-pdb", false, "Write the ligand with per-atom binding energy as B-factor")
}

func init() {
	runCmd.Flags().StringVarP(&systemFile, "system", "s", "", "System description (TOML) (required)")
	runCmd.Flags().StringVar(&dbFile, "db", "", "Result snapshot database (default: <out>/MMPBSA_<name>.db)")
	runCmd.Flags().StringVar(&metricsFile, "metrics", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().Float64Var(&beginNs, "begin", 0, "First time (ns) to analyze")
	runCmd.Flags().Float64Var(&endNs, "end", 0, "Last time (ns) to analyze (0 = last frame)")
	runCmd.Flags().IntVar(&frameStep, "step", 1, "Analyze every n-th frame in the window")
	runCmd.Flags().StringVar(&scanRange, "scan", "", "Residue numbers to mutate to alanine, e.g. '10-20'")
	runCmd.Flags().Float64Var(&scanCutoff, "scan-cutoff", 0, "Mutate residues with CA within this distance (Å) of the ligand")
	addReportFlags(runCmd)

	runCmd.MarkFlagRequired("system")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute MM-PBSA binding energies for a trajectory",
	Long: `Compute the wild-type binding energy decomposition and, optionally, an
alanine scan over selected residues. Results are stored in an SQLite snapshot
and written as CSV reports.

Examples:
  # Wild type only, frames between 10 and 20 ns
  smmpbsa run --system complex.toml --begin 10 --end 20

  # Alanine scan of residues near the ligand, JSON logs
  smmpbsa run --system complex.toml --scan-cutoff 6 --log-format json`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer log.Sync()

	desc, err := system.Load(systemFile)
	if err != nil {
		return err
	}
	name := desc.Name
	if name == "" {
		name = trimExt(filepath.Base(systemFile))
	}

	radii, err := system.Radii(settings.RadiusModel(), settings.RadiusDefault)
	if err != nil {
		return err
	}
	sys, err := desc.Build(system.Options{
		Window: system.Window{Begin: beginNs, End: endNs, Step: frameStep},
		Radii:  radii,
	})
	if err != nil {
		return err
	}

	fmt.Printf("System: %s\n", name)
	fmt.Printf("Atoms: %d (receptor %d, ligand %d)\n", sys.Atoms.Len(), len(sys.Sets.Receptor), len(sys.Sets.Ligand))
	fmt.Printf("Frames: %d (%g - %g ns)\n", len(sys.Times), sys.Times[0], sys.Times[len(sys.Times)-1])
	fmt.Printf("Radius model: %s\n", settings.RadiusModel())
	if settings.Solver() == nil {
		fmt.Printf("PB/SA: skipped (apbs_path not set)\n")
	}

	var scan []int
	if scanRange != "" || scanCutoff > 0 {
		sel := &filter.Config{Range: scanRange, Cutoff: scanCutoff, Protein: true}
		if scan, err = sel.Apply(filter.FromSystem(sys)); err != nil {
			return err
		}
		fmt.Printf("Alanine scan: %d residues\n", len(scan))
	}

	m := metrics.New()
	engine, err := mmpbsa.New(settings.Engine(radii), settings.Solver(),
		mmpbsa.WithLogger(log), mmpbsa.WithMetrics(m))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	out, err := engine.Run(ctx, sys, scan)
	if err != nil {
		return err
	}
	for _, e := range out.Skipped {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
	}
	for _, e := range out.Failed {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
	}

	var all []*result.Results
	if out.WT != nil {
		all = append(all, out.WT)
	}
	all = append(all, out.Mutants...)
	fmt.Printf("\nComputed %d of %d variant(s) in %s\n", len(all), len(all)+len(out.Failed), time.Since(start).Round(time.Millisecond))
	if len(all) == 0 {
		return errors.New("every variant failed")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if dbFile == "" {
		dbFile = filepath.Join(outputDir, fmt.Sprintf("MMPBSA_%s.db", name))
	}
	if err := writeSnapshot(dbFile, name, all); err != nil {
		return err
	}
	fmt.Printf("Snapshot: %s\n", dbFile)

	if err := writeReports(settings, log, name, all); err != nil {
		return err
	}
	printScan(settings, out.WT, out.Mutants)

	if metricsFile != "" {
		if err := m.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if out.WT == nil {
		return fmt.Errorf("wild type failed: %w", out.Failed[0])
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func writeSnapshot(path, name string, all []*result.Results) error {
	w, err := sqlite.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	for _, r := range all {
		if _, err := w.WriteResults(name, r); err != nil {
			w.Close()
			return fmt.Errorf("failed to store %s: %w", r.Label, err)
		}
	}
	if err := w.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// writeReports writes the reports of every variant into outputDir.
func writeReports(settings *config.Settings, log logging.Logger, name string, all []*result.Results) error {
	label := resRange
	if label == "" {
		label = "all"
		if resCutoff > 0 {
			label = fmt.Sprintf("%gA", resCutoff)
		}
	}
	sel := &filter.Config{Range: resRange, Cutoff: resCutoff}

	for _, r := range all {
		ids, err := sel.Apply(filter.FromResults(r))
		if err != nil {
			return err
		}
		paths, err := report.Write(outputDir, report.SystemName(name, r.Label), r, report.Options{
			Temperature: settings.PBE.Temperature,
			UseTS:       settings.UseTS,
			Residues:    ids,
			Range:       label,
			At:          atNs,
			Details:     details,
			Ligand:      ligandPDB,
		})
		if err != nil {
			return err
		}
		log.Debug("reports written", logging.String("variant", r.Label), logging.Int("files", len(paths)))
	}
	fmt.Printf("Reports: %s\n", outputDir)
	return nil
}

// printScan prints the wild-type summary and the ΔΔG of every mutant.
func printScan(settings *config.Settings, wt *result.Results, mutants []*result.Results) {
	if wt == nil {
		return
	}
	s := wt.Summary(settings.PBE.Temperature, settings.UseTS)
	fmt.Printf("\nEnergy terms summary (%s):\n", wt.Label)
	fmt.Printf("ΔH: %.3f kJ/mol\n", s.DH)
	fmt.Printf("ΔMM: %.3f kJ/mol\n", s.MM)
	fmt.Printf("ΔPB: %.3f kJ/mol\n", s.PB)
	fmt.Printf("ΔSA: %.3f kJ/mol\n", s.SA)
	fmt.Printf("TΔS: %.3f kJ/mol\n", s.TdS)
	fmt.Printf("ΔG: %.3f kJ/mol\n", s.DG)
	if s.KiAvailable() {
		fmt.Printf("Ki: %.3e nM\n", s.Ki)
	} else {
		fmt.Printf("Ki: Unavailable\n")
	}

	if len(mutants) == 0 {
		return
	}
	fmt.Printf("\nAlanine scanning (ΔΔG = ΔG(mutant) - ΔG(WT)):\n")
	for _, m := range mutants {
		ms := m.Summary(settings.PBE.Temperature, settings.UseTS)
		fmt.Printf("%-8s ΔG: %9.3f  ΔΔG: %9.3f kJ/mol\n", m.Label, ms.DG, ms.DG-s.DG)
	}
}

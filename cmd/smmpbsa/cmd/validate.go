package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rufus-willy/s-mmpbsa/pkg/alascan"
	"github.com/Rufus-willy/s-mmpbsa/pkg/filter"
	"github.com/Rufus-willy/s-mmpbsa/pkg/reader/system"
)

var validateCmd = &cobra.Command{
	Use:   "validate [system.toml]",
	Short: "Validate settings and a system description",
	Long: `Check that the settings file and the system description are consistent
and list the residues an alanine scan would mutate, without computing any
energy.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&scanRange, "scan", "", "Residue numbers to mutate to alanine")
	validateCmd.Flags().Float64Var(&scanCutoff, "scan-cutoff", 0, "Mutate residues with CA within this distance (Å) of the ligand")
}

func runValidate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.Source != "" {
		fmt.Printf("Settings: %s\n", settings.Source)
	} else {
		fmt.Printf("Settings: built-in defaults\n")
	}

	desc, err := system.Load(args[0])
	if err != nil {
		return err
	}
	radii, err := system.Radii(settings.RadiusModel(), settings.RadiusDefault)
	if err != nil {
		return err
	}
	sys, err := desc.Build(system.Options{Radii: radii})
	if err != nil {
		return err
	}

	fmt.Printf("System: %s\n", desc.Name)
	fmt.Printf("Atoms: %d (receptor %d, ligand %d)\n", sys.Atoms.Len(), len(sys.Sets.Receptor), len(sys.Sets.Ligand))
	fmt.Printf("Residues: %d\n", len(sys.Residues))
	fmt.Printf("Frames: %d (%g - %g ns)\n", len(sys.Times), sys.Times[0], sys.Times[len(sys.Times)-1])
	if sys.Sets.NoLigand() {
		fmt.Printf("No ligand group: only the receptor is solvated\n")
	}

	if scanRange == "" && scanCutoff <= 0 {
		return nil
	}
	sel := &filter.Config{Range: scanRange, Cutoff: scanCutoff, Protein: true}
	ids, err := sel.Apply(filter.FromSystem(sys))
	if err != nil {
		return err
	}
	fmt.Printf("\nAlanine scan candidates:\n")
	for _, id := range ids {
		v, err := alascan.Mutate(sys, id, radii)
		if err != nil {
			fmt.Printf("  skip  %v\n", err)
			continue
		}
		fmt.Printf("  %-8s removes %d atom(s)\n", v.Label, len(v.Removed))
	}
	return nil
}

// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rufus-willy/s-mmpbsa/pkg/config"
	"github.com/Rufus-willy/s-mmpbsa/pkg/logging"
)

var (
	// Global flags
	settingsFile string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "smmpbsa",
	Short: "s-mmpbsa - MM-PBSA binding energy decomposition",
	Long: `s-mmpbsa estimates receptor-ligand binding free energies from an MD
trajectory with the MM-PBSA method and decomposes them per atom and residue.

Supports:
- Coulomb and Lennard-Jones terms with optional Debye-Hückel screening
- Polar and apolar solvation terms computed by APBS
- Interaction entropy and dissociation constant estimates
- Computational alanine scanning of selected residues`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Settings file (default: ./settings.ini, then next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format: console or json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadSettings reads the settings file and applies the global overrides.
func loadSettings() (*config.Settings, error) {
	var (
		s   *config.Settings
		err error
	)
	if settingsFile != "" {
		s, err = config.Load(settingsFile)
	} else {
		s, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		s.Log.Level = logLevel
	}
	if logFormat != "" {
		s.Log.Format = logFormat
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func newLogger(s *config.Settings) (logging.Logger, error) {
	log, err := logging.New(s.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rufus-willy/s-mmpbsa/pkg/writer/sqlite"
)

const toySystem = `
name = "toy"
receptor = "Protein"
ligand = "LIG"

[forcefield]
types = ["C", "N"]
c6 = [[0.002, 0.002], [0.002, 0.002]]
c12 = [[3.0e-6, 3.0e-6], [3.0e-6, 3.0e-6]]

[[groups]]
name = "Protein"
atoms = [1, 2, 3]

[[groups]]
name = "LIG"
atoms = [4, 5]

[[residues]]
nr = 10
name = "ALA"

[[residues]]
nr = 11
name = "GLY"

[[residues]]
nr = 99
name = "LIG"

[[atoms]]
name = "N"
residue = 0
charge = -0.4
type = "N"
radius = 1.55

[[atoms]]
name = "CA"
residue = 0
charge = 0.1
type = "C"
radius = 1.7

[[atoms]]
name = "CA"
residue = 1
charge = 0.3
type = "C"
radius = 1.7

[[atoms]]
name = "C1"
residue = 2
charge = 0.5
type = "C"
radius = 1.7

[[atoms]]
name = "N1"
residue = 2
charge = -0.5
type = "N"
radius = 1.55

[[frames]]
time = 0.0
coords = [[0.0, 0.0, 0.0], [1.5, 0.0, 0.0], [3.0, 0.0, 0.0], [3.0, 3.5, 0.0], [4.2, 3.5, 0.0]]

[[frames]]
time = 100.0
coords = [[0.0, 0.0, 0.1], [1.5, 0.0, 0.1], [3.0, 0.0, 0.1], [3.0, 3.6, 0.0], [4.2, 3.6, 0.0]]
`

func setup(t *testing.T) (dir, systemPath, settingsPath string) {
	t.Helper()
	dir = t.TempDir()
	systemPath = filepath.Join(dir, "toy.toml")
	settingsPath = filepath.Join(dir, "settings.ini")
	require.NoError(t, os.WriteFile(systemPath, []byte(toySystem), 0o644))
	require.NoError(t, os.WriteFile(settingsPath, []byte("log_level = \"error\"\nuse_ts = \"n\"\n"), 0o644))
	return dir, systemPath, settingsPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	// Flag variables outlive a single Execute.
	resRange, resCutoff, atNs, details, ligandPDB = "", 4, -1, false, false
	scanRange, scanCutoff, dbFile, metricsFile = "", 0, "", ""
	beginNs, endNs, frameStep, systemName = 0, 0, 1, ""
	logLevel, logFormat = "", ""
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRunAndSummarize(t *testing.T) {
	dir, systemPath, settingsPath := setup(t)
	out := filepath.Join(dir, "out")
	metricsPath := filepath.Join(dir, "run.prom")

	err := execute(t, "run",
		"--settings", settingsPath,
		"--system", systemPath,
		"--out", out,
		"--scan", "10-11",
		"--res-cutoff", "0",
		"--details",
		"--ligand-pdb",
		"--metrics", metricsPath,
	)
	require.NoError(t, err)

	for _, name := range []string{
		"MMPBSA_toy.db",
		"MMPBSA_toy-WT.csv",
		"MMPBSA_toy-WT_traj.csv",
		"MMPBSA_toy-WT_res_all.csv",
		"MMPBSA_toy-WT_res_ΔH.csv",
		"MMPBSA_toy-WT_ligand.pdb",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	// ALA and GLY cannot be scanned, so only the wild type is stored.
	runs, err := sqlite.ReadRuns(filepath.Join(out, "MMPBSA_toy.db"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "toy", runs[0].System)
	assert.Equal(t, "WT", runs[0].Results.Label)
	assert.Equal(t, []float64{0, 0.1}, runs[0].Results.Times)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `smmpbsa_variants_total{outcome="skipped"} 2`)

	again := filepath.Join(dir, "again")
	require.NoError(t, execute(t, "summarize", filepath.Join(out, "MMPBSA_toy.db"),
		"--settings", settingsPath,
		"--out", again,
		"--res-range", "10-11",
		"--at", "0.1",
	))
	assert.FileExists(t, filepath.Join(again, "MMPBSA_toy-WT_res_10-11_0.1ns.csv"))

	orig, err := os.ReadFile(filepath.Join(out, "MMPBSA_toy-WT.csv"))
	require.NoError(t, err)
	regen, err := os.ReadFile(filepath.Join(again, "MMPBSA_toy-WT.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(orig), string(regen))

	err = execute(t, "summarize", filepath.Join(out, "MMPBSA_toy.db"), "--settings", settingsPath, "--name", "other", "--out", again)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, systemPath, settingsPath := setup(t)
	require.NoError(t, execute(t, "validate", systemPath, "--settings", settingsPath, "--scan", "10-99"))

	assert.Error(t, execute(t, "validate", filepath.Join(t.TempDir(), "missing.toml"), "--settings", settingsPath))
}

func TestRunRejectsBadSettings(t *testing.T) {
	dir, systemPath, _ := setup(t)
	bad := filepath.Join(dir, "bad.ini")
	require.NoError(t, os.WriteFile(bad, []byte("n_kernels = 0\n"), 0o644))

	err := execute(t, "run", "--settings", bad, "--system", systemPath, "--out", filepath.Join(dir, "out"))
	assert.Error(t, err)
}

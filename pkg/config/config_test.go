package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 3, s.RadiusType)
	assert.Equal(t, "mBondi", s.RadiusModel())
	assert.Equal(t, 1.5, s.RadiusDefault)
	assert.Zero(t, s.RCutoff)
	assert.True(t, s.UseDH)
	assert.True(t, s.UseTS)
	assert.Equal(t, 1, s.NKernels)
	assert.Equal(t, 1, s.MaxParallel)
	assert.False(t, s.DebugMode)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, pbsa.DefaultPBESet(), s.PBE)
	assert.Equal(t, pbsa.DefaultPBASet(), s.PBA)
	assert.Empty(t, s.Source)
	assert.Nil(t, s.Solver())
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, `
radius_type = 0
radius_default = 1.8
r_cutoff = 12.0
n_kernels = 4
debug_mode = "y"
use_ts = "n"
apbs_path = "C:\apbs\bin\apbs.exe"
max_parallel_variants = 2
log_level = "debug"

[pbe]
temp = 310.0
pdie = 4.0

[[pbe.ions]]
charge = 2.0
concentration = 0.05
radius = 2.0

[pba]
gamma = 0.0227
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.Source)
	assert.Equal(t, "ff", s.RadiusModel())
	assert.Equal(t, 1.8, s.RadiusDefault)
	assert.Equal(t, 12.0, s.RCutoff)
	assert.Equal(t, 4, s.NKernels)
	assert.True(t, s.DebugMode)
	assert.False(t, s.UseTS)
	assert.True(t, s.UseDH)
	assert.Equal(t, "C:/apbs/bin/apbs.exe", s.APBSPath)
	assert.Equal(t, 2, s.MaxParallel)
	assert.Equal(t, "debug", s.Log.Level)

	// Unset keys of a section keep their defaults.
	assert.Equal(t, 310.0, s.PBE.Temperature)
	assert.Equal(t, 4.0, s.PBE.PDie)
	assert.Equal(t, pbsa.DefaultPBESet().SDie, s.PBE.SDie)
	assert.Equal(t, []pbsa.Ion{{Charge: 2, Concentration: 0.05, Radius: 2}}, s.PBE.Ions)
	assert.Equal(t, 0.0227, s.PBA.Gamma)
	assert.Equal(t, pbsa.DefaultPBASet().Srfm, s.PBA.Srfm)

	cfg := s.Engine(nil)
	assert.Equal(t, 12.0, cfg.Kernel.Cutoff)
	assert.True(t, cfg.Kernel.DebyeHuckel)
	assert.Equal(t, 4, cfg.Kernel.Workers)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, s.PBE, cfg.PBE)

	runner, ok := s.Solver().(*pbsa.Runner)
	require.True(t, ok)
	assert.Equal(t, "C:/apbs/bin/apbs.exe", runner.Exec)
	assert.True(t, runner.Debug)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SMMPBSA_N_KERNELS", "8")
	t.Setenv("SMMPBSA_PBE_TEMP", "300")
	t.Setenv("SMMPBSA_USE_DH", "no")

	path := writeSettings(t, "n_kernels = 2\n")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, s.NKernels)
	assert.Equal(t, 300.0, s.PBE.Temperature)
	assert.False(t, s.UseDH)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"radius type", "radius_type = 9\n", "radius_type"},
		{"radius default", "radius_default = 0.0\n", "radius_default"},
		{"negative cutoff", "r_cutoff = -1.0\n", "r_cutoff"},
		{"kernels", "n_kernels = 0\n", "n_kernels"},
		{"parallel", "max_parallel_variants = 0\n", "max_parallel_variants"},
		{"log level", "log_level = \"loud\"\n", "log_level"},
		{"pbe", "[pbe]\ntemp = -1.0\n", "pbe"},
		{"pba", "[pba]\ngamma = -1.0\n", "pba"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSettings(t, tt.content))
			var cfgErr *core.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	_, err := Load(writeSettings(t, "radius_type = = 3\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestFindInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("n_kernels = 3\n"), 0o644))
	t.Chdir(dir)

	p, ok := Find()
	require.True(t, ok)
	assert.Equal(t, FileName, p)

	s, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, 3, s.NKernels)
}

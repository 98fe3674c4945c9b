package pbsa_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/core/coretest"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa/pbsatest"
)

func fixtureJob(sys *core.System) *pbsa.Job {
	return &pbsa.Job{
		Name:     "WT_0ns",
		Coords:   sys.Coords[0],
		Atoms:    sys.Atoms,
		Residues: sys.Residues,
		Sets:     sys.Sets,
	}
}

func TestJobWrite(t *testing.T) {
	dir := t.TempDir()
	sys := coretest.Complex(1)
	job := fixtureJob(sys)

	require.NoError(t, job.Write(dir, pbsa.DefaultPBESet(), pbsa.DefaultPBASet()))

	for _, region := range []struct {
		name  string
		atoms int
	}{
		{"com", len(sys.Sets.Complex)},
		{"rec", len(sys.Sets.Receptor)},
		{"lig", len(sys.Sets.Ligand)},
	} {
		data, err := os.ReadFile(filepath.Join(dir, "WT_0ns_"+region.name+".pqr"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, region.atoms+1, region.name)
		assert.Equal(t, "END", lines[len(lines)-1])
	}

	input, err := os.ReadFile(filepath.Join(dir, job.InputFile()))
	require.NoError(t, err)
	text := string(input)
	for _, m := range []pbsa.Marker{pbsa.ComSol, pbsa.ComVac, pbsa.RecSol, pbsa.RecVac, pbsa.LigSol, pbsa.LigVac} {
		assert.Contains(t, text, "elec name WT_0ns"+string(m)+"\n")
	}
	for _, m := range []pbsa.Marker{pbsa.ComSAS, pbsa.RecSAS, pbsa.LigSAS} {
		assert.Contains(t, text, "apolar name WT_0ns"+string(m)+"\n")
	}
	assert.Contains(t, text, "calcenergy comps")
	assert.Contains(t, text, "mol pqr WT_0ns_lig.pqr")
	assert.True(t, strings.HasSuffix(text, "quit\n"))

	// every grid dimension has the 32c+1 form
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "dime ") {
			continue
		}
		for _, f := range strings.Fields(line)[1:] {
			n, err := strconv.Atoi(f)
			require.NoError(t, err)
			assert.Equal(t, 1, n%32, line)
		}
	}
}

func TestJobWriteNoLigand(t *testing.T) {
	dir := t.TempDir()
	sys := coretest.Build([]string{"GLY", "SER"}, nil, 1)
	job := fixtureJob(sys)

	require.NoError(t, job.Write(dir, pbsa.DefaultPBESet(), pbsa.DefaultPBASet()))

	input, err := os.ReadFile(filepath.Join(dir, job.InputFile()))
	require.NoError(t, err)
	assert.Contains(t, string(input), "elec name WT_0ns_rec_SOL")
	assert.NotContains(t, string(input), "_com_")
	assert.NoFileExists(t, filepath.Join(dir, "WT_0ns_lig.pqr"))
}

func TestFakeSolverRoundTrip(t *testing.T) {
	sys := coretest.Complex(1)
	job := fixtureJob(sys)
	solver := &pbsatest.Solver{}

	log, err := solver.Solve(context.Background(), t.TempDir(), job)
	require.NoError(t, err)

	b, err := pbsa.ParseLog(strings.NewReader(string(log)))
	require.NoError(t, err)
	dpb, dsa, err := pbsa.Reconcile(b, sys.Sets, pbsa.DefaultPBASet())
	require.NoError(t, err)
	assert.Len(t, dpb, len(sys.Sets.Complex))
	assert.Len(t, dsa, len(sys.Sets.Complex))
	assert.Equal(t, 1, solver.Calls())
}

func TestRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for the solver")
	}

	sys := coretest.Complex(1)
	job := fixtureJob(sys)

	tests := []struct {
		name    string
		script  string
		debug   bool
		wantErr string
		wantLog string
	}{
		{
			name:    "success",
			script:  "#!/bin/sh\ntest -f \"$1\" || exit 3\necho \"CALCULATION #1 (WT_0ns_com_SAS): APOLAR\"\necho warn >&2\n",
			wantLog: "CALCULATION #1 (WT_0ns_com_SAS): APOLAR\n",
		},
		{
			name:    "debug keeps output",
			script:  "#!/bin/sh\necho out\necho err >&2\n",
			debug:   true,
			wantLog: "out\n",
		},
		{
			name:    "failure",
			script:  "#!/bin/sh\necho first >&2\necho 'grid too small' >&2\nexit 2\n",
			wantErr: "grid too small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			exe := filepath.Join(t.TempDir(), "fake-apbs")
			require.NoError(t, os.WriteFile(exe, []byte(tt.script), 0o755))

			r := &pbsa.Runner{Exec: exe, PBE: pbsa.DefaultPBESet(), PBA: pbsa.DefaultPBASet(), Debug: tt.debug}
			log, err := r.Solve(context.Background(), dir, job)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLog, string(log))
			assert.FileExists(t, filepath.Join(dir, job.InputFile()))

			if tt.debug {
				assert.FileExists(t, filepath.Join(dir, "WT_0ns.out"))
				errOut, err := os.ReadFile(filepath.Join(dir, "WT_0ns.err"))
				require.NoError(t, err)
				assert.Equal(t, "err\n", string(errOut))
			} else {
				assert.NoFileExists(t, filepath.Join(dir, "WT_0ns.out"))
			}
		})
	}
}

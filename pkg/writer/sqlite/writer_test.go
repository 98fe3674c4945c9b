package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core/coretest"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

func sample(t *testing.T, label string, frames int, scale float64) *result.Results {
	t.Helper()
	sys := coretest.Complex(frames)
	sys.Label = label
	acc := result.NewAccumulator(sys)
	n := sys.Atoms.Len()
	for f := 0; f < frames; f++ {
		e := result.FrameEnergies{
			Elec: make([]float64, n),
			Vdw:  make([]float64, n),
			PB:   make([]float64, n),
			SA:   make([]float64, n),
		}
		for i := 0; i < n; i++ {
			e.Elec[i] = -scale * float64(i+f) / 7
			e.Vdw[i] = scale * float64(i%4) / 3
			e.PB[i] = 0.1 * float64(f-i%5)
			e.SA[i] = -0.013 * float64(i%3)
		}
		require.NoError(t, acc.Set(f, e))
	}
	r, err := acc.Results()
	require.NoError(t, err)
	return r
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	wt := sample(t, "WT", 3, 1)
	mut := sample(t, "L2A", 3, 0.5)

	w, err := NewWriter(path)
	require.NoError(t, err)
	wtID, err := w.WriteResults("complex", wt)
	require.NoError(t, err)
	mutID, err := w.WriteResults("complex", mut)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = uuid.Parse(wtID)
	assert.NoError(t, err)
	assert.NotEqual(t, wtID, mutID)

	runs, err := ReadRuns(path)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	for i, want := range []*result.Results{wt, mut} {
		got := runs[i]
		assert.Equal(t, "complex", got.System)
		assert.WithinDuration(t, time.Now(), got.Created, time.Minute)

		r := got.Results
		assert.Equal(t, want.Meta, r.Meta)
		for _, term := range result.Terms {
			assert.True(t, mat.Equal(want.Atom(term), r.Atom(term)), "%s atoms", term)
			assert.Equal(t, want.Series(term), r.Series(term), "%s series", term)
		}
		assert.Equal(t, want.Summary(298.15, true), r.Summary(298.15, true))
	}
	assert.Equal(t, wtID, runs[0].ID)
	assert.Equal(t, mutID, runs[1].ID)
}

func TestFinalizeWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	w, err := NewWriter(path)
	require.NoError(t, err)
	_, err = w.WriteResults("complex", sample(t, "WT", 1, 1))
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var version, runs int
	require.NoError(t, db.QueryRow(`SELECT version, RunCount FROM HeaderTable`).Scan(&version, &runs))
	assert.Equal(t, schemaVersion, version)
	assert.Equal(t, 1, runs)
}

func TestReadRunsMissingFile(t *testing.T) {
	_, err := ReadRuns(filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}

func TestDecodeFloat64(t *testing.T) {
	values := []float64{0, -1.5, 3.25e-7, 42}
	got, err := decodeFloat64(encodeFloat64(values), len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = decodeFloat64(encodeFloat64(values), 3)
	assert.Error(t, err)

	coords, err := decodeCoords(nil, 5)
	require.NoError(t, err)
	assert.Nil(t, coords)
}

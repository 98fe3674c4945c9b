package result

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/core/coretest"
)

// filled returns an accumulator over sys with deterministic energies.
func filled(t *testing.T, sys *core.System, mm func(frame int) float64) *Results {
	t.Helper()
	acc := NewAccumulator(sys)
	n := sys.Atoms.Len()
	for f := range sys.Times {
		e := FrameEnergies{
			Elec: make([]float64, n),
			Vdw:  make([]float64, n),
			PB:   make([]float64, n),
			SA:   make([]float64, n),
		}
		for i := 0; i < n; i++ {
			e.Elec[i] = mm(f) / float64(n) * 0.75
			e.Vdw[i] = mm(f) / float64(n) * 0.25
			e.PB[i] = 0.1 * float64(i%5)
			e.SA[i] = -0.01 * float64(i%3)
		}
		require.NoError(t, acc.Set(f, e))
	}
	res, err := acc.Results()
	require.NoError(t, err)
	return res
}

func TestResultsIdentities(t *testing.T) {
	sys := coretest.Complex(4)
	res := filled(t, sys, func(f int) float64 { return -40 - 3*float64(f) })

	require.Equal(t, 4, res.Frames())
	assert.Equal(t, "WT", res.Label)
	assert.Equal(t, sys.Coords, res.Coords)
	assert.Equal(t, sys.Sets.Ligand, res.Ligand)

	for f := 0; f < res.Frames(); f++ {
		mm := res.Series(MM)[f]
		assert.InDelta(t, res.Series(Elec)[f]+res.Series(Vdw)[f], mm, 1e-9)
		assert.InDelta(t, mm+res.Series(PB)[f]+res.Series(SA)[f], res.Series(DH)[f], 1e-9)
		assert.InDelta(t, -40-3*float64(f), mm, 1e-9)
	}

	for _, term := range Terms {
		t.Run(term.String(), func(t *testing.T) {
			atom := res.Atom(term)
			residue := res.Residue(term)
			for f := 0; f < res.Frames(); f++ {
				assert.InDelta(t, res.Series(term)[f], floats.Sum(mat.Row(nil, f, atom)), 1e-9)
				assert.InDelta(t, res.Series(term)[f], floats.Sum(mat.Row(nil, f, residue)), 1e-9)
				assert.Equal(t, mat.Row(nil, f, residue), res.ResidueAt(term, f))
			}
			assert.InDelta(t, res.Mean(term), floats.Sum(res.ResidueMean(term)), 1e-9)
		})
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		mm      func(int) float64
		useTS   bool
		wantTdS func(s Summary, res *Results) float64
	}{
		{
			name:    "constant mm has no entropy",
			mm:      func(int) float64 { return -50 },
			useTS:   true,
			wantTdS: func(Summary, *Results) float64 { return 0 },
		},
		{
			name:  "interaction entropy",
			mm:    func(f int) float64 { return -50 + 4*float64(f) },
			useTS: true,
			wantTdS: func(s Summary, res *Results) float64 {
				rt := core.GasConstant * 300
				var sum float64
				for _, mm := range res.Series(MM) {
					sum += math.Exp((mm - s.MM) / rt)
				}
				return -rt * math.Log(sum/float64(res.Frames()))
			},
		},
		{
			name:    "entropy disabled",
			mm:      func(f int) float64 { return -50 + 4*float64(f) },
			useTS:   false,
			wantTdS: func(Summary, *Results) float64 { return 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := filled(t, coretest.Complex(5), tt.mm)
			s := res.Summary(300, tt.useTS)

			assert.InDelta(t, res.Mean(DH), s.DH, 1e-12)
			assert.InDelta(t, s.Elec+s.Vdw, s.MM, 1e-9)
			assert.InDelta(t, tt.wantTdS(s, res), s.TdS, 1e-9)
			assert.InDelta(t, s.DH-s.TdS, s.DG, 1e-12)
			if tt.useTS {
				// Jensen: ⟨exp(x)⟩ ≥ exp(⟨x⟩) so −TΔS is never positive
				assert.LessOrEqual(t, s.TdS, 1e-12)
			}

			require.True(t, s.KiAvailable())
			assert.InEpsilon(t, math.Exp(s.DG/(core.GasConstant*300))*1e9, s.Ki, 1e-12)
		})
	}
}

func TestSummaryKiUnavailable(t *testing.T) {
	res := filled(t, coretest.Complex(2), func(int) float64 { return 500 })
	s := res.Summary(298.15, false)
	assert.Greater(t, s.DG, 0.0)
	assert.False(t, s.KiAvailable())
	assert.Zero(t, s.Ki)
}

func TestTimeIndex(t *testing.T) {
	res := filled(t, coretest.Complex(4), func(int) float64 { return -1 })

	tests := []struct {
		ns   float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{0.14, 1},
		{0.16, 2},
		{99, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, res.TimeIndex(tt.ns), "t=%g", tt.ns)
	}
}

func TestNewShapeErrors(t *testing.T) {
	sys := coretest.Complex(2)
	meta := NewAccumulator(sys).meta
	n := sys.Atoms.Len()
	ok := func() *mat.Dense { return mat.NewDense(2, n, nil) }

	tests := []struct {
		name string
		meta Meta
		mats [4]*mat.Dense
	}{
		{"wrong frame count", meta, [4]*mat.Dense{mat.NewDense(3, n, nil), ok(), ok(), ok()}},
		{"wrong atom count", meta, [4]*mat.Dense{ok(), ok(), ok(), mat.NewDense(2, n-1, nil)}},
		{"dangling residue", func() Meta {
			m := meta
			m.ResOf = append([]int(nil), meta.ResOf...)
			m.ResOf[0] = len(meta.Residues)
			return m
		}(), [4]*mat.Dense{ok(), ok(), ok(), ok()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.meta, tt.mats[0], tt.mats[1], tt.mats[2], tt.mats[3])
			var topo *core.TopologyError
			require.ErrorAs(t, err, &topo)
		})
	}

	_, err := New(meta, ok(), nil, ok(), ok())
	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAccumulator(t *testing.T) {
	sys := coretest.Complex(2)
	n := sys.Atoms.Len()

	t.Run("nil terms are zero", func(t *testing.T) {
		acc := NewAccumulator(sys)
		require.NoError(t, acc.Set(0, FrameEnergies{PB: make([]float64, n)}))
		require.NoError(t, acc.Set(1, FrameEnergies{}))
		res, err := acc.Results()
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, res.Series(DH))
	})

	t.Run("non-finite value", func(t *testing.T) {
		acc := NewAccumulator(sys)
		vdw := make([]float64, n)
		vdw[7] = math.Inf(1)
		err := acc.Set(0, FrameEnergies{Vdw: vdw})

		var num *core.NumericError
		require.ErrorAs(t, err, &num)
		assert.Equal(t, "vdw", num.Quantity)
		assert.Equal(t, 7, num.Index)
		assert.ErrorIs(t, err, core.ErrNotFinite)
	})

	t.Run("length mismatch", func(t *testing.T) {
		acc := NewAccumulator(sys)
		var topo *core.TopologyError
		require.ErrorAs(t, acc.Set(0, FrameEnergies{Elec: make([]float64, n+1)}), &topo)
		require.ErrorAs(t, acc.Set(2, FrameEnergies{}), &topo)
	})

	t.Run("missing frame", func(t *testing.T) {
		acc := NewAccumulator(sys)
		require.NoError(t, acc.Set(1, FrameEnergies{}))
		_, err := acc.Results()
		assert.ErrorContains(t, err, "frame 0")
	})
}

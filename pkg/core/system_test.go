package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestIndexSetsBlocks(t *testing.T) {
	tests := []struct {
		name        string
		sets        IndexSets
		noLigand    bool
		ligandFirst bool
		id          int
		inRec       bool
		inLig       bool
	}{
		{
			name:  "receptor first",
			sets:  IndexSets{Complex: seq(0, 5), Receptor: seq(0, 3), Ligand: seq(3, 2)},
			id:    3,
			inLig: true,
		},
		{
			name:        "ligand first",
			sets:        IndexSets{Complex: seq(0, 5), Receptor: seq(2, 3), Ligand: seq(0, 2)},
			ligandFirst: true,
			id:          2,
			inRec:       true,
		},
		{
			name:     "no ligand",
			sets:     IndexSets{Complex: seq(0, 4), Receptor: seq(0, 4), Ligand: seq(0, 4)},
			noLigand: true,
			id:       1,
			inRec:    true,
			inLig:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.noLigand, tt.sets.NoLigand())
			assert.Equal(t, tt.ligandFirst, tt.sets.LigandFirst())
			assert.Equal(t, tt.inRec, tt.sets.InReceptor(tt.id))
			assert.Equal(t, tt.inLig, tt.sets.InLigand(tt.id))
			require.NoError(t, tt.sets.Validate(len(tt.sets.Complex)))
		})
	}
}

func TestIndexSetsLocal(t *testing.T) {
	s := IndexSets{Complex: seq(0, 5), Receptor: seq(2, 3), Ligand: seq(0, 2)}
	assert.Equal(t, 0, s.LocalReceptor(2))
	assert.Equal(t, 2, s.LocalReceptor(4))
	assert.Equal(t, 1, s.LocalLigand(1))
}

func TestIndexSetsValidate(t *testing.T) {
	tests := []struct {
		name string
		sets IndexSets
		n    int
	}{
		{"empty receptor", IndexSets{Complex: seq(0, 2)}, 2},
		{"complex too short", IndexSets{Complex: seq(0, 2), Receptor: seq(0, 2), Ligand: seq(0, 2)}, 3},
		{"out of range", IndexSets{Complex: seq(0, 3), Receptor: seq(0, 2), Ligand: []int{5}}, 3},
		{"gap in block", IndexSets{Complex: seq(0, 3), Receptor: []int{0, 2}, Ligand: []int{1}}, 3},
		{"not a partition", IndexSets{Complex: seq(0, 4), Receptor: seq(0, 2), Ligand: seq(2, 1)}, 4},
		{"bad global map", IndexSets{Complex: seq(0, 2), Receptor: seq(0, 1), Ligand: seq(1, 1), Global: []int{7}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var topoErr *TopologyError
			require.ErrorAs(t, tt.sets.Validate(tt.n), &topoErr)
		})
	}
}

func TestVec3Distance(t *testing.T) {
	assert.InDelta(t, 5.0, Vec3{0, 0, 0}.Distance(Vec3{3, 4, 0}), 1e-12)
	assert.True(t, math.IsNaN(Vec3{math.NaN(), 0, 0}.Distance(Vec3{})))
}

func TestAtomPropertiesRetype(t *testing.T) {
	ap := &AtomProperties{
		Atoms:   []AtomProperty{{ID: 0, Name: "CG", TypeID: 0, Charge: 0.1, Radius: 1.7}},
		TypeMap: map[string]int{"C": 0, "HC": 1},
	}
	radii, err := DefaultRadiusTable("mBondi")
	require.NoError(t, err)

	clone := ap.Clone()
	require.NoError(t, clone.Retype(0, "HC", "HB", radii))
	assert.Equal(t, 1, clone.Atoms[0].TypeID)
	assert.Equal(t, "HB", clone.Atoms[0].Name)
	assert.Equal(t, 1.2, clone.Atoms[0].Radius)
	assert.Equal(t, 0.1, clone.Atoms[0].Charge)

	assert.Equal(t, "CG", ap.Atoms[0].Name, "original must be untouched")

	var cfgErr *ConfigError
	require.ErrorAs(t, clone.Retype(0, "XX", "HB", nil), &cfgErr)
}

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadiusLookup(t *testing.T) {
	table, err := DefaultRadiusTable("mBondi")
	require.NoError(t, err)

	tests := []struct {
		name string
		atom string
		want float64
	}{
		{"two character prefix", "HN", 1.3},
		{"one character prefix", "HA", 1.2},
		{"carbon", "CA", 1.7},
		{"lower case", "cl1", 1.7},
		{"fallback", "ZN", 1.5},
		{"single character name", "N", 1.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Lookup(tt.atom))
		})
	}
}

func TestLoadFromDat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		prefix  string
		want    float64
		wantErr bool
	}{
		{
			name:   "with comments",
			input:  "// radii\nH: 1.1\nC: 1.9\n\n*: 1.4\n",
			prefix: "C",
			want:   1.9,
		},
		{
			name:   "fallback overridden",
			input:  "*: 1.4\n",
			prefix: "X",
			want:   1.4,
		},
		{
			name:    "missing separator",
			input:   "H 1.1\n",
			wantErr: true,
		},
		{
			name:    "bad value",
			input:   "H: abc\n",
			wantErr: true,
		},
		{
			name:    "negative radius",
			input:   "H: -1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewRadiusTable("custom", 1.5)
			err := table.LoadFromDat(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Lookup(tt.prefix))
		})
	}
}

func TestDefaultRadiusTableUnknown(t *testing.T) {
	_, err := DefaultRadiusTable("nope")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "radius_type", cfgErr.Field)
}

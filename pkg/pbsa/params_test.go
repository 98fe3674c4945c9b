package pbsa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
)

func TestPBESetCoefficients(t *testing.T) {
	pbe := pbsa.DefaultPBESet()
	assert.InDelta(t, 0.15, pbe.IonicStrength(), 1e-12)

	coef := pbe.Coefficients()
	assert.Equal(t, pbe.PDie, coef.PDie)
	assert.Greater(t, coef.Kappa, 0.0)

	pbe.Ions = []pbsa.Ion{{Charge: 2, Concentration: 0.1, Radius: 2}, {Charge: -1, Concentration: 0.2, Radius: 1.8}}
	assert.InDelta(t, 0.3, pbe.IonicStrength(), 1e-12)

	pbe.Ions = nil
	assert.Zero(t, pbe.Coefficients().Kappa)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, pbsa.DefaultPBESet().Validate())
	require.NoError(t, pbsa.DefaultPBASet().Validate())

	tests := []struct {
		name string
		err  error
	}{
		{"zero temperature", func() error { p := pbsa.DefaultPBESet(); p.Temperature = 0; return p.Validate() }()},
		{"pdie below one", func() error { p := pbsa.DefaultPBESet(); p.PDie = 0.5; return p.Validate() }()},
		{"zero grid spacing", func() error { p := pbsa.DefaultPBESet(); p.Df = 0; return p.Validate() }()},
		{"bad ion", func() error { p := pbsa.DefaultPBESet(); p.Ions[0].Radius = 0; return p.Validate() }()},
		{"negative gamma", func() error { p := pbsa.DefaultPBASet(); p.Gamma = -1; return p.Validate() }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *core.ConfigError
			require.ErrorAs(t, tt.err, &cfgErr)
		})
	}
}

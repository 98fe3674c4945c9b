package pbsa

import (
	"fmt"
	"strings"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Ion is one mobile ion species of the solvent.
type Ion struct {
	Charge        float64 `mapstructure:"charge"`        // e
	Concentration float64 `mapstructure:"concentration"` // mol/L
	Radius        float64 `mapstructure:"radius"`        // Å
}

// PBESet holds the polar (Poisson-Boltzmann) solver parameters.
type PBESet struct {
	Temperature float64 `mapstructure:"temp"` // K
	PDie        float64 `mapstructure:"pdie"`
	SDie        float64 `mapstructure:"sdie"`
	Ions        []Ion   `mapstructure:"ions"`
	LPBE        bool    `mapstructure:"lpbe"` // linearized PBE instead of the full nonlinear form
	Bcfl        string  `mapstructure:"bcfl"`
	Chgm        string  `mapstructure:"chgm"`
	Srfm        string  `mapstructure:"srfm"`
	Srad        float64 `mapstructure:"srad"`
	Swin        float64 `mapstructure:"swin"`
	Sdens       float64 `mapstructure:"sdens"`

	// Grid sizing: coarse length = cfac × molecule extent, fine length =
	// extent + fadd, grid spacing df.
	Cfac float64 `mapstructure:"cfac"`
	Fadd float64 `mapstructure:"fadd"`
	Df   float64 `mapstructure:"df"`
}

// PBASet holds the apolar (surface area) parameters.
type PBASet struct {
	Srfm  string  `mapstructure:"srfm"`
	Srad  float64 `mapstructure:"srad"`
	Swin  float64 `mapstructure:"swin"`
	Sdens float64 `mapstructure:"sdens"`
	Dpos  float64 `mapstructure:"dpos"`

	// Gamma converts area (Å²) to energy (kJ/mol); the solver itself runs
	// with unit surface tension and reports raw area.
	Gamma float64 `mapstructure:"gamma"`
	// Bias is split evenly over the atoms of every region.
	Bias float64 `mapstructure:"bias"`
}

// DefaultPBESet returns the parameters used when the settings file has no
// [pbe] section: 0.15 M monovalent salt at 298.15 K.
func DefaultPBESet() PBESet {
	return PBESet{
		Temperature: 298.15,
		PDie:        2,
		SDie:        78.54,
		Ions: []Ion{
			{Charge: 1, Concentration: 0.15, Radius: 2.0},
			{Charge: -1, Concentration: 0.15, Radius: 1.8},
		},
		Bcfl:  "mdh",
		Chgm:  "spl2",
		Srfm:  "smol",
		Srad:  1.4,
		Swin:  0.3,
		Sdens: 10,
		Cfac:  3,
		Fadd:  10,
		Df:    0.5,
	}
}

// DefaultPBASet returns the AMBER-PB4 surface-tension model.
func DefaultPBASet() PBASet {
	return PBASet{
		Srfm:  "sacc",
		Srad:  1.4,
		Swin:  0.3,
		Sdens: 10,
		Dpos:  0.2,
		Gamma: core.SurfaceTension,
	}
}

// IonicStrength returns ½·Σ cᵢzᵢ² in mol/L.
func (p PBESet) IonicStrength() float64 {
	s := 0.0
	for _, ion := range p.Ions {
		s += ion.Concentration * ion.Charge * ion.Charge
	}
	return s / 2
}

// Coefficients derives the electrostatic constants used by the MM kernel.
func (p PBESet) Coefficients() core.Coefficients {
	return core.NewCoefficients(p.Temperature, p.IonicStrength(), p.PDie, p.SDie)
}

// Validate checks the parameters.
func (p PBESet) Validate() error {
	var errs []string
	if p.Temperature <= 0 {
		errs = append(errs, "temperature must be positive")
	}
	if p.PDie < 1 {
		errs = append(errs, "pdie must be at least 1")
	}
	if p.SDie < 1 {
		errs = append(errs, "sdie must be at least 1")
	}
	if p.Cfac <= 0 || p.Df <= 0 || p.Fadd < 0 {
		errs = append(errs, "grid factors cfac and df must be positive, fadd non-negative")
	}
	for i, ion := range p.Ions {
		if ion.Concentration < 0 || ion.Radius <= 0 {
			errs = append(errs, fmt.Sprintf("ion %d needs a non-negative concentration and a positive radius", i))
		}
	}
	if len(errs) > 0 {
		return &core.ConfigError{Field: "pbe", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// Validate checks the parameters.
func (p PBASet) Validate() error {
	var errs []string
	if p.Gamma < 0 {
		errs = append(errs, "gamma must not be negative")
	}
	if p.Srad < 0 || p.Sdens <= 0 {
		errs = append(errs, "srad must not be negative and sdens must be positive")
	}
	if len(errs) > 0 {
		return &core.ConfigError{Field: "pba", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// Package core provides the physical constants and residue tables used by the
// MM-PBSA decomposition
package core

import (
	"math"
	"strings"
)

// Physical constants (CODATA 2018)
const (
	ElementaryCharge   = 1.602176634e-19  // C
	Avogadro           = 6.02214076e23    // 1/mol
	Boltzmann          = 1.380649e-23     // J/K
	VacuumPermittivity = 8.8541878128e-12 // F/m

	// Gas constant in kJ/(mol·K)
	GasConstant = 8.314462618e-3

	// SurfaceTension is the AMBER-PB4 nonpolar γ: 0.0072 kcal/(mol·Å²)
	SurfaceTension = 0.030125 // kJ/(mol·Å²)
)

// CoulombConstant is e²·N_A/(4πε₀) expressed in kJ·Å/mol, so that q_i·q_j/r
// with charges in e and r in Å yields kJ/mol.
var CoulombConstant = ElementaryCharge * ElementaryCharge * Avogadro /
	(4 * math.Pi * VacuumPermittivity) / 1e-10 / 1e3

// ResidueCodes maps three-letter residue names to one-letter codes,
// including the common protonation-state variants.
var ResidueCodes = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"HID": 'H', "HIE": 'H', "HIP": 'H', "HSD": 'H', "HSE": 'H', "HSP": 'H',
	"CYX": 'C', "CYM": 'C', "ASH": 'D', "GLH": 'E', "LYN": 'K',
}

// OneLetterCode returns the one-letter code of a residue name.
func OneLetterCode(name string) (byte, bool) {
	c, ok := ResidueCodes[strings.ToUpper(strings.TrimSpace(name))]
	return c, ok
}

// Coefficients holds the derived electrostatic constants of one run.
type Coefficients struct {
	KJElec float64 // Coulomb prefactor, kJ·Å/(mol·e²)
	Kappa  float64 // Debye screening parameter, 1/Å
	PDie   float64 // solute relative permittivity
}

// NewCoefficients derives the Coulomb prefactor and the Debye–Hückel κ for
// an ionic strength (mol/L) in a solvent of relative permittivity sdie at
// the given temperature (K).
func NewCoefficients(temperature, ionicStrength, pdie, sdie float64) Coefficients {
	kap := 0.0
	if ionicStrength > 0 && temperature > 0 && sdie > 0 {
		// κ² = 2·N_A·e²·I / (ε₀·ε_s·k_B·T), I converted to mol/m³
		k2 := 2 * Avogadro * ElementaryCharge * ElementaryCharge * ionicStrength * 1e3 /
			(VacuumPermittivity * sdie * Boltzmann * temperature)
		kap = math.Sqrt(k2) * 1e-10
	}
	return Coefficients{
		KJElec: CoulombConstant,
		Kappa:  kap,
		PDie:   pdie,
	}
}

package core

import (
	"errors"
	"fmt"
)

// ErrNotFinite is wrapped by every NumericError.
var ErrNotFinite = errors.New("non-finite value")

// ConfigError represents missing or invalid run inputs.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// TopologyError reports index sets that do not fit the atom-id space.
type TopologyError struct {
	Message string
}

func (e *TopologyError) Error() string {
	return "topology mismatch: " + e.Message
}

// SolverProtocolError reports a PB/SA solver log that does not follow the
// expected marker layout.
type SolverProtocolError struct {
	Marker  string
	Message string
}

func (e *SolverProtocolError) Error() string {
	if e.Marker == "" {
		return "solver protocol error: " + e.Message
	}
	return fmt.Sprintf("solver protocol error at %s: %s", e.Marker, e.Message)
}

// NumericError reports a non-finite distance, energy or solvation value.
type NumericError struct {
	Quantity string
	Index    int // residue or atom index, -1 when not applicable
	Value    float64
}

func (e *NumericError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s is %v", e.Quantity, e.Value)
	}
	return fmt.Sprintf("%s[%d] is %v", e.Quantity, e.Index, e.Value)
}

func (e *NumericError) Unwrap() error { return ErrNotFinite }

// UnsupportedResidueError marks an alanine-scan target that cannot be
// mutated. It is recoverable: the residue is skipped.
type UnsupportedResidueError struct {
	Name   string
	Nr     int
	Reason string
}

func (e *UnsupportedResidueError) Error() string {
	return fmt.Sprintf("residue %s%d skipped: %s", e.Name, e.Nr, e.Reason)
}

// VariantError ties a per-frame failure to the system variant it aborted.
type VariantError struct {
	Variant string
	Frame   int
	Time    float64 // ns
	Err     error
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("variant %s aborted at frame %d (%g ns): %v", e.Variant, e.Frame, e.Time, e.Err)
}

func (e *VariantError) Unwrap() error { return e.Err }

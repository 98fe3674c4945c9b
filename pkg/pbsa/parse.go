// Package pbsa drives the external Poisson-Boltzmann / surface-area solver
// and reconciles its per-atom output into binding-style ΔPB and ΔSA terms.
package pbsa

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
)

// Marker identifies one calculation block of the solver log by the suffix
// of its calculation name.
type Marker string

// Log markers. Polar markers are echoed once during setup before the block
// that carries the results.
const (
	ComSol Marker = "_com_SOL"
	ComVac Marker = "_com_VAC"
	RecSol Marker = "_rec_SOL"
	RecVac Marker = "_rec_VAC"
	LigSol Marker = "_lig_SOL"
	LigVac Marker = "_lig_VAC"
	ComSAS Marker = "_com_SAS"
	RecSAS Marker = "_rec_SAS"
	LigSAS Marker = "_lig_SAS"
)

var markers = []Marker{ComSol, ComVac, RecSol, RecVac, LigSol, LigVac, ComSAS, RecSAS, LigSAS}

// Polar reports whether m names a solvated or vacuum PB block.
func (m Marker) Polar() bool {
	return strings.HasSuffix(string(m), "_SOL") || strings.HasSuffix(string(m), "_VAC")
}

// State is the position of one marker in its capture protocol.
type State int

const (
	// AwaitingFirst: the marker has not been seen.
	AwaitingFirst State = iota
	// AwaitingSecond: the setup echo of a polar marker has been discarded.
	AwaitingSecond
	// Captured: the result block has been read.
	Captured
)

func (s State) String() string {
	switch s {
	case AwaitingFirst:
		return "awaiting first occurrence"
	case AwaitingSecond:
		return "awaiting second occurrence"
	case Captured:
		return "captured"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Blocks holds the captured per-atom values of one solver log.
type Blocks struct {
	states map[Marker]State
	values map[Marker][]float64
}

func newBlocks() *Blocks {
	b := &Blocks{
		states: make(map[Marker]State, len(markers)),
		values: make(map[Marker][]float64, len(markers)),
	}
	for _, m := range markers {
		b.states[m] = AwaitingFirst
	}
	return b
}

// State returns the protocol state of a marker.
func (b *Blocks) State(m Marker) State {
	return b.states[m]
}

// Values returns the captured per-atom values of a marker. A marker that
// never reached Captured is a SolverProtocolError.
func (b *Blocks) Values(m Marker) ([]float64, error) {
	switch b.states[m] {
	case Captured:
		return b.values[m], nil
	case AwaitingSecond:
		return nil, &core.SolverProtocolError{
			Marker:  string(m),
			Message: "only the setup echo was found, the result block is missing",
		}
	default:
		return nil, &core.SolverProtocolError{Marker: string(m), Message: "marker not found in solver output"}
	}
}

// advance moves m to its next state and reports whether the block that
// follows should be captured.
func (b *Blocks) advance(m Marker) (bool, error) {
	switch b.states[m] {
	case AwaitingFirst:
		if m.Polar() {
			b.states[m] = AwaitingSecond
			return false, nil
		}
		b.states[m] = Captured
		return true, nil
	case AwaitingSecond:
		b.states[m] = Captured
		return true, nil
	default:
		return false, &core.SolverProtocolError{Marker: string(m), Message: "marker appears more often than expected"}
	}
}

// ParseLog reads a solver log. Only CALCULATION, Atom and SASA lines are
// considered; every CALCULATION header starts a block that lasts until the
// next header.
func ParseLog(r io.Reader) (*Blocks, error) {
	b := newBlocks()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var current Marker
	capturing := false
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "CALCULATION"):
			current, capturing = "", false
			m, ok := matchMarker(line)
			if !ok {
				continue
			}
			capture, err := b.advance(m)
			if err != nil {
				return nil, err
			}
			current, capturing = m, capture
			if capture {
				b.values[m] = b.values[m][:0]
			}

		case strings.HasPrefix(line, "Atom"), strings.HasPrefix(line, "SASA"):
			if !capturing {
				continue
			}
			v, err := parseValue(line)
			if err != nil {
				return nil, &core.SolverProtocolError{
					Marker:  string(current),
					Message: fmt.Sprintf("line %d: %v", lineNum, err),
				}
			}
			b.values[current] = append(b.values[current], v)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading solver output: %w", err)
	}

	return b, nil
}

func matchMarker(header string) (Marker, bool) {
	for _, m := range markers {
		if strings.Contains(header, string(m)) {
			return m, true
		}
	}
	return "", false
}

// parseValue takes the first space-separated token after the first colon,
// e.g. "Atom 12:  -1.234E+01 kJ/mol" or "SASA for atom 3: 12.5".
func parseValue(line string) (float64, error) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("no value in %q", line)
	}
	field := strings.TrimLeft(parts[1], " \t")
	if i := strings.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", field, err)
	}
	return v, nil
}

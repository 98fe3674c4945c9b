// Package core provides atom radius tables for the PB/SA solver
package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// RadiusTypes lists the radius models in settings order. "ff" takes radii
// from the topology instead of a table.
var RadiusTypes = []string{"ff", "amber", "Bondi", "mBondi", "mBondi2", "mBondi3"}

// RadiusTable maps atom-name prefixes to radii (Å).
type RadiusTable struct {
	Name  string
	radii map[string]float64 // prefix -> radius, "*" is the fallback
}

// NewRadiusTable creates an empty table with a fallback radius.
func NewRadiusTable(name string, fallback float64) *RadiusTable {
	return &RadiusTable{
		Name:  name,
		radii: map[string]float64{"*": fallback},
	}
}

// LoadFromDat loads radii from a "prefix: radius" file. Lines starting with
// "//" are comments.
func (t *RadiusTable) LoadFromDat(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: expected 'prefix: radius', got %q", lineNum, line)
		}

		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		valStr := strings.TrimSpace(parts[1])

		radius, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid radius '%s': %w", lineNum, valStr, err)
		}
		if radius <= 0 {
			return fmt.Errorf("line %d: radius must be positive, got %g", lineNum, radius)
		}

		t.radii[key] = radius
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading radius table: %w", err)
	}

	return nil
}

// Add adds or updates a prefix.
func (t *RadiusTable) Add(prefix string, radius float64) {
	t.radii[strings.ToUpper(prefix)] = radius
}

// Lookup returns the radius of an atom name: the first two characters are
// tried, then the first one, then the fallback.
func (t *RadiusTable) Lookup(atomName string) float64 {
	name := strings.ToUpper(strings.TrimSpace(atomName))
	if len(name) >= 2 {
		if r, ok := t.radii[name[:2]]; ok {
			return r
		}
	}
	if len(name) >= 1 {
		if r, ok := t.radii[name[:1]]; ok {
			return r
		}
	}
	return t.radii["*"]
}

// Prefixes returns the defined prefixes in sorted order.
func (t *RadiusTable) Prefixes() []string {
	out := make([]string, 0, len(t.radii))
	for k := range t.radii {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRadiusTable returns a built-in radius table by model name.
func DefaultRadiusTable(name string) (*RadiusTable, error) {
	var t *RadiusTable

	switch name {
	case "amber":
		t = NewRadiusTable(name, 1.5)
		t.Add("H", 1.2)
		t.Add("C", 1.7)
		t.Add("N", 1.55)
		t.Add("O", 1.5)
		t.Add("S", 1.8)
		t.Add("P", 1.85)
	case "Bondi":
		t = NewRadiusTable(name, 1.5)
		t.Add("H", 1.2)
		t.Add("C", 1.7)
		t.Add("N", 1.55)
		t.Add("O", 1.52)
		t.Add("F", 1.47)
		t.Add("P", 1.8)
		t.Add("S", 1.8)
		t.Add("CL", 1.75)
		t.Add("BR", 1.85)
	case "mBondi", "mBondi2", "mBondi3":
		t = NewRadiusTable(name, 1.5)
		t.Add("H", 1.2)
		t.Add("HN", 1.3)
		t.Add("C", 1.7)
		t.Add("N", 1.55)
		t.Add("O", 1.5)
		t.Add("F", 1.5)
		t.Add("P", 1.85)
		t.Add("S", 1.8)
		t.Add("CL", 1.7)
		t.Add("BR", 1.85)
		if name == "mBondi2" {
			t.Add("HN", 1.2)
		}
		if name == "mBondi3" {
			t.Add("HH", 1.17)
			t.Add("HE", 1.17)
			t.Add("OD", 1.4)
			t.Add("OE", 1.4)
		}
	default:
		return nil, &ConfigError{Field: "radius_type", Message: fmt.Sprintf("no built-in radius table %q", name)}
	}

	return t, nil
}

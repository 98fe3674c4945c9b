// Package ndx provides a streaming reader for GROMACS index (.ndx) files
package ndx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Group is one named atom group. Atoms are 0-based.
type Group struct {
	Name  string
	Atoms []int
}

// Reader provides streaming access to the groups of an index file
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	pending string // header of the next group, already consumed
	started bool
	current *Group
	err     error
}

// NewReader creates a new index reader
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: s}
}

// Next advances to the next group. Returns false at the end or on error.
func (r *Reader) Next() bool {
	r.current = nil
	g, err := r.readGroup()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}
	r.current = g
	return true
}

// Group returns the current group
func (r *Reader) Group() *Group {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readGroup() (*Group, error) {
	var g *Group
	if r.started {
		if r.pending == "" {
			return nil, io.EOF
		}
		g = &Group{Name: r.pending}
		r.pending = ""
	}

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if name, ok := header(line); ok {
			if name == "" {
				return nil, fmt.Errorf("line %d: empty group name", r.lineNum)
			}
			if g == nil {
				r.started = true
				g = &Group{Name: name}
				continue
			}
			r.pending = name
			return g, nil
		}

		if g == nil {
			return nil, fmt.Errorf("line %d: atom numbers before the first group header", r.lineNum)
		}
		for _, f := range strings.Fields(line) {
			n, err := strconv.Atoi(f)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: invalid atom number %q", r.lineNum, f)
			}
			g.Atoms = append(g.Atoms, n-1)
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
	}
	if g == nil {
		return nil, io.EOF
	}
	r.started = true
	return g, nil
}

func header(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return "", false
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true
}

// ReadAll reads every group in file order.
func ReadAll(r io.Reader) ([]Group, error) {
	rd := NewReader(r)
	var out []Group
	for rd.Next() {
		out = append(out, *rd.Group())
	}
	return out, rd.Err()
}

// Find returns the first group called name. Matching ignores case, as
// GROMACS tools do.
func Find(groups []Group, name string) (*Group, bool) {
	for i := range groups {
		if strings.EqualFold(groups[i].Name, name) {
			return &groups[i], true
		}
	}
	return nil, false
}

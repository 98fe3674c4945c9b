package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

// Run is one stored variant.
type Run struct {
	ID      string
	System  string
	Created time.Time
	Results *result.Results
}

// ReadRuns loads every run of a snapshot in insertion order.
func ReadRuns(path string) ([]Run, error) {
	// sql.Open would silently create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT RunId, System, Label, CreationDate, FrameCount, AtomCount FROM RunTable ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	type header struct {
		run           Run
		label         string
		frames, atoms int
	}
	var headers []header
	for rows.Next() {
		var h header
		var created string
		if err := rows.Scan(&h.run.ID, &h.run.System, &h.label, &created, &h.frames, &h.atoms); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if h.run.Created, err = time.Parse(runDateFormat, created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("run %s: invalid creation date %q", h.run.ID, created)
		}
		headers = append(headers, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	out := make([]Run, 0, len(headers))
	for _, h := range headers {
		r, err := readResults(db, h.run.ID, h.label, h.frames, h.atoms)
		if err != nil {
			return nil, fmt.Errorf("run %s (%s): %w", h.run.ID, h.label, err)
		}
		h.run.Results = r
		out = append(out, h.run)
	}
	return out, nil
}

func readResults(db *sql.DB, runID, label string, frames, atoms int) (*result.Results, error) {
	if frames < 1 || atoms < 1 {
		return nil, &core.TopologyError{Message: fmt.Sprintf("run holds %d frames of %d atoms", frames, atoms)}
	}
	meta := result.Meta{Label: label}

	resRows, err := db.Query(`SELECT ResidueId, Nr, Name FROM ResidueTable WHERE RunId = ? ORDER BY ResidueId`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query residues: %w", err)
	}
	for resRows.Next() {
		var res core.Residue
		if err := resRows.Scan(&res.ID, &res.Nr, &res.Name); err != nil {
			resRows.Close()
			return nil, fmt.Errorf("failed to scan residue: %w", err)
		}
		meta.Residues = append(meta.Residues, res)
	}
	resRows.Close()
	if err := resRows.Err(); err != nil {
		return nil, err
	}

	atomRows, err := db.Query(`SELECT Name, ResidueId, InLigand FROM AtomTable WHERE RunId = ? ORDER BY AtomId`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query atoms: %w", err)
	}
	for a := 0; atomRows.Next(); a++ {
		var name string
		var resID int
		var inLigand bool
		if err := atomRows.Scan(&name, &resID, &inLigand); err != nil {
			atomRows.Close()
			return nil, fmt.Errorf("failed to scan atom: %w", err)
		}
		meta.AtomNames = append(meta.AtomNames, name)
		meta.ResOf = append(meta.ResOf, resID)
		if inLigand {
			meta.Ligand = append(meta.Ligand, a)
		}
	}
	atomRows.Close()
	if err := atomRows.Err(); err != nil {
		return nil, err
	}
	if len(meta.ResOf) != atoms {
		return nil, &core.TopologyError{Message: fmt.Sprintf("%d atoms stored, header says %d", len(meta.ResOf), atoms)}
	}

	elec := mat.NewDense(frames, atoms, nil)
	vdw := mat.NewDense(frames, atoms, nil)
	pb := mat.NewDense(frames, atoms, nil)
	sa := mat.NewDense(frames, atoms, nil)

	frameRows, err := db.Query(`
		SELECT Frame, Time, blobElec, blobVdw, blobPB, blobSA, blobCoords
		FROM FrameTable WHERE RunId = ? ORDER BY Frame
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer frameRows.Close()
	for frameRows.Next() {
		var f int
		var t float64
		var be, bv, bp, bs, bc []byte
		if err := frameRows.Scan(&f, &t, &be, &bv, &bp, &bs, &bc); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		if f != len(meta.Times) || f >= frames {
			return nil, &core.TopologyError{Message: fmt.Sprintf("unexpected frame %d", f)}
		}
		for _, m := range []struct {
			dst  *mat.Dense
			blob []byte
		}{{elec, be}, {vdw, bv}, {pb, bp}, {sa, bs}} {
			row, err := decodeFloat64(m.blob, atoms)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", f, err)
			}
			m.dst.SetRow(f, row)
		}
		coords, err := decodeCoords(bc, atoms)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f, err)
		}
		meta.Times = append(meta.Times, t)
		meta.Coords = append(meta.Coords, coords)
	}
	if err := frameRows.Err(); err != nil {
		return nil, err
	}
	if len(meta.Times) != frames {
		return nil, &core.TopologyError{Message: fmt.Sprintf("%d frames stored, header says %d", len(meta.Times), frames)}
	}

	return result.New(meta, elec, vdw, pb, sa)
}

// decodeFloat64 decodes a little-endian float64 blob of n values
func decodeFloat64(blob []byte, n int) ([]float64, error) {
	if len(blob) != n*8 {
		return nil, fmt.Errorf("blob of %d bytes, want %d values", len(blob), n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

func decodeCoords(blob []byte, atoms int) ([]core.Vec3, error) {
	if blob == nil {
		return nil, nil
	}
	flat, err := decodeFloat64(blob, atoms*3)
	if err != nil {
		return nil, err
	}
	out := make([]core.Vec3, atoms)
	for i := range out {
		out[i] = core.Vec3{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out, nil
}

// Package sqlite stores finished variant decompositions in an SQLite
// snapshot so reports can be regenerated without recomputing energies.
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for RunTable
	runDateFormat = time.RFC3339

	schemaVersion = 1
)

// Writer handles writing variant results to an SQLite file
type Writer struct {
	db         *sql.DB
	outputPath string
	runs       int
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		System TEXT,
		Label TEXT,
		CreationDate TEXT,
		FrameCount INTEGER,
		AtomCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS ResidueTable (
		RunId TEXT REFERENCES RunTable(RunId),
		ResidueId INTEGER,
		Nr INTEGER,
		Name TEXT,
		PRIMARY KEY (RunId, ResidueId)
	);

	CREATE TABLE IF NOT EXISTS AtomTable (
		RunId TEXT REFERENCES RunTable(RunId),
		AtomId INTEGER,
		Name TEXT,
		ResidueId INTEGER,
		InLigand BOOL,
		PRIMARY KEY (RunId, AtomId)
	);

	CREATE TABLE IF NOT EXISTS FrameTable (
		RunId TEXT REFERENCES RunTable(RunId),
		Frame INTEGER,
		Time DOUBLE,
		blobElec BLOB,
		blobVdw BLOB,
		blobPB BLOB,
		blobSA BLOB,
		blobCoords BLOB,
		PRIMARY KEY (RunId, Frame)
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		RunCount INTEGER,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// WriteResults stores one variant under a fresh run id and returns it.
// system names the simulated complex the variant belongs to.
func (w *Writer) WriteResults(system string, r *result.Results) (string, error) {
	tx, err := w.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO RunTable (RunId, System, Label, CreationDate, FrameCount, AtomCount)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, system, r.Label, time.Now().UTC().Format(runDateFormat), r.Frames(), len(r.ResOf))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	resStmt, err := tx.Prepare(`INSERT INTO ResidueTable (RunId, ResidueId, Nr, Name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare residue statement: %w", err)
	}
	defer resStmt.Close()
	for _, res := range r.Residues {
		if _, err := resStmt.Exec(runID, res.ID, res.Nr, res.Name); err != nil {
			return "", fmt.Errorf("failed to insert residue %d: %w", res.ID, err)
		}
	}

	inLigand := make([]bool, len(r.ResOf))
	for _, a := range r.Ligand {
		inLigand[a] = true
	}
	atomStmt, err := tx.Prepare(`INSERT INTO AtomTable (RunId, AtomId, Name, ResidueId, InLigand) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare atom statement: %w", err)
	}
	defer atomStmt.Close()
	for a, name := range r.AtomNames {
		if _, err := atomStmt.Exec(runID, a, name, r.ResOf[a], inLigand[a]); err != nil {
			return "", fmt.Errorf("failed to insert atom %d: %w", a, err)
		}
	}

	frameStmt, err := tx.Prepare(`
		INSERT INTO FrameTable (RunId, Frame, Time, blobElec, blobVdw, blobPB, blobSA, blobCoords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare frame statement: %w", err)
	}
	defer frameStmt.Close()
	for f, t := range r.Times {
		var coords []byte
		if f < len(r.Coords) {
			coords = encodeCoords(r.Coords[f])
		}
		_, err := frameStmt.Exec(
			runID,
			f,
			t,
			encodeFloat64(r.Atom(result.Elec).RawRowView(f)),
			encodeFloat64(r.Atom(result.Vdw).RawRowView(f)),
			encodeFloat64(r.Atom(result.PB).RawRowView(f)),
			encodeFloat64(r.Atom(result.SA).RawRowView(f)),
			coords,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert frame %d: %w", f, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	w.runs++
	return runID, nil
}

// encodeFloat64 encodes values as a little-endian float64 blob
func encodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func encodeCoords(coords []core.Vec3) []byte {
	flat := make([]float64, 0, len(coords)*3)
	for _, c := range coords {
		flat = append(flat, c[0], c[1], c[2])
	}
	return encodeFloat64(flat)
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, RunCount, Description)
		VALUES (?, ?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), w.runs, "MM-PBSA decomposition")
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}

package pbsa

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Solver produces the textual log of one frame's PB/SA calculation.
type Solver interface {
	Solve(ctx context.Context, workDir string, job *Job) ([]byte, error)
}

// Runner runs an APBS executable as a blocking subprocess.
type Runner struct {
	Exec string
	PBE  PBESet
	PBA  PBASet

	// When true, stdout and stderr are kept next to the input as
	// <name>.out and <name>.err.
	Debug bool
}

// Solve writes the job's input files into workDir and runs the solver there.
func (r *Runner) Solve(ctx context.Context, workDir string, job *Job) ([]byte, error) {
	if err := job.Write(workDir, r.PBE, r.PBA); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, r.Exec, job.InputFile())
	c.Dir = workDir
	c.Stdout = &stdout
	c.Stderr = &stderr
	runErr := c.Run()

	if r.Debug {
		if err := os.WriteFile(filepath.Join(workDir, job.Name+".out"), stdout.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to save solver output: %w", err)
		}
		if err := os.WriteFile(filepath.Join(workDir, job.Name+".err"), stderr.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to save solver errors: %w", err)
		}
	}

	if runErr != nil {
		return nil, fmt.Errorf("%s %s failed: %w: %s", filepath.Base(r.Exec), job.InputFile(), runErr, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Package design proposes candidate primer pairs for a genomic interval
// using an external design engine.
package design

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// Request is a single design job.
type Request struct {
	ID       string
	Template string
	// OKRegions is the left region and the right region, each as
	// (start, length), where the left and right primers may be placed.
	OKRegions [4]int
	Params    map[string]string
}

// Oracle designs primers for a template and returns its raw report.
type Oracle interface {
	Design(ctx context.Context, req Request) (Record, error)
}

// Primer3 runs primer3_core over Boulder-IO.
type Primer3 struct {
	Path   string
	Logger *slog.Logger

	run func(ctx context.Context, name string, stdin io.Reader, stdout, stderr io.Writer) error
}

// NewPrimer3 returns an oracle backed by the given primer3_core binary.
func NewPrimer3(path string) *Primer3 {
	if path == "" {
		path = "primer3_core"
	}
	return &Primer3{Path: path, Logger: slog.Default()}
}

// Input builds the Boulder-IO record sent to primer3.
func (req Request) Input() Record {
	rec := Record{
		"PRIMER_EXPLAIN_FLAG": "1",
	}
	for k, v := range req.Params {
		rec[k] = v
	}
	rec["SEQUENCE_ID"] = req.ID
	rec["SEQUENCE_TEMPLATE"] = req.Template
	r := req.OKRegions
	rec["SEQUENCE_PRIMER_PAIR_OK_REGION_LIST"] = fmt.Sprintf("%d,%d,%d,%d", r[0], r[1], r[2], r[3])
	return rec
}

// Design implements Oracle.
func (p *Primer3) Design(ctx context.Context, req Request) (Record, error) {
	var in, out, stderr bytes.Buffer
	if err := WriteRecord(&in, req.Input()); err != nil {
		return nil, err
	}
	run := p.run
	if run == nil {
		run = execRun
	}
	p.Logger.Debug("running primer3", "id", req.ID, "template", len(req.Template))
	if err := run(ctx, p.Path, &in, &out, &stderr); err != nil {
		return nil, fmt.Errorf("primer3 %s: %w: %s", req.ID, err, bytes.TrimSpace(stderr.Bytes()))
	}
	rec, err := ReadRecord(&out)
	if err != nil {
		return nil, fmt.Errorf("primer3 %s: %w", req.ID, err)
	}
	if msg, ok := rec["PRIMER_ERROR"]; ok {
		return nil, fmt.Errorf("primer3 %s: %s", req.ID, msg)
	}
	return rec, nil
}

func execRun(ctx context.Context, name string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Package aligner maps candidate primers against the reference genome
// with an external short-read aligner and decodes its SAM report.
package aligner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jacklau/zippy/internal/primer"
	"github.com/jacklau/zippy/internal/specificity"
)

// Aligner maps primers and returns one alignment per reported hit.
type Aligner interface {
	Align(ctx context.Context, primers []*primer.Primer) ([]specificity.Alignment, error)
}

// Bowtie2 runs bowtie2 in end-to-end mode, reporting up to MaxHits
// alignments per primer.
type Bowtie2 struct {
	Path    string
	Index   string
	MaxHits int
	// KeepSAM leaves the query FASTA and SAM report in WorkDir.
	KeepSAM bool
	WorkDir string
	Logger  *slog.Logger

	run func(ctx context.Context, name string, args []string, stderr io.Writer) error
}

// NewBowtie2 returns a runner for the given executable and genome index.
func NewBowtie2(path, index string) *Bowtie2 {
	if path == "" {
		path = "bowtie2"
	}
	return &Bowtie2{Path: path, Index: index, MaxHits: 50, Logger: slog.Default()}
}

// Args returns the command line for aligning fastaPath into samPath.
func (b *Bowtie2) Args(fastaPath, samPath string) []string {
	hits := b.MaxHits
	if hits <= 0 {
		hits = 50
	}
	return []string{
		"-f", "--end-to-end",
		"-k", fmt.Sprint(hits),
		"-L", "10", "-N", "1", "-D", "20", "-R", "3",
		"-x", b.Index,
		"-U", fastaPath,
		"-S", samPath,
	}
}

// Align writes the primers as FASTA, runs bowtie2 and decodes the report.
func (b *Bowtie2) Align(ctx context.Context, primers []*primer.Primer) ([]specificity.Alignment, error) {
	if b.Index == "" {
		return nil, fmt.Errorf("bowtie2: no genome index configured")
	}
	dir, err := os.MkdirTemp(b.WorkDir, "zippy-align-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	if !b.KeepSAM {
		defer os.RemoveAll(dir)
	}

	fastaPath := filepath.Join(dir, "query.fa")
	samPath := filepath.Join(dir, "query.sam")
	if err := writeQuery(fastaPath, primers); err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	run := b.run
	if run == nil {
		run = execRun
	}
	b.Logger.Debug("running aligner", "path", b.Path, "primers", len(primers), "dir", dir)
	if err := run(ctx, b.Path, b.Args(fastaPath, samPath), &stderr); err != nil {
		return nil, fmt.Errorf("bowtie2: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	fh, err := os.Open(samPath)
	if err != nil {
		return nil, fmt.Errorf("opening sam report: %w", err)
	}
	defer fh.Close()
	alignments, err := ReadAll(fh)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", samPath, err)
	}
	if b.KeepSAM {
		b.Logger.Info("kept alignment report", "path", samPath)
	}
	return alignments, nil
}

func writeQuery(path string, primers []*primer.Primer) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating query fasta: %w", err)
	}
	for _, p := range primers {
		if _, err := fmt.Fprintln(fh, p.Fasta("")); err != nil {
			fh.Close()
			return fmt.Errorf("writing query fasta: %w", err)
		}
	}
	return fh.Close()
}

func execRun(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

package fasta

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/biogo/hts/fai"
)

// Indexed gives random access to an uncompressed FASTA file through its
// samtools-style .fai index.
type Indexed struct {
	path  string
	index fai.Index
}

// OpenIndexed loads path+".fai", building it first when absent.
func OpenIndexed(path string) (*Indexed, error) {
	fh, err := os.Open(path + ".fai")
	if errors.Is(err, fs.ErrNotExist) {
		if err := WriteIndex(path); err != nil {
			return nil, err
		}
		fh, err = os.Open(path + ".fai")
	}
	if err != nil {
		return nil, fmt.Errorf("opening fasta index: %w", err)
	}
	defer fh.Close()

	idx, err := fai.ReadFrom(fh)
	if err != nil {
		return nil, fmt.Errorf("%s.fai: %w", path, err)
	}
	return &Indexed{path: path, index: idx}, nil
}

// WriteIndex scans an uncompressed FASTA file and writes path+".fai".
func WriteIndex(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening fasta: %w", err)
	}
	defer fh.Close()

	idx, err := fai.NewIndex(fh)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	out, err := os.Create(path + ".fai")
	if err != nil {
		return fmt.Errorf("creating fasta index: %w", err)
	}
	if err := fai.WriteTo(out, idx); err != nil {
		out.Close()
		return fmt.Errorf("writing %s.fai: %w", path, err)
	}
	return out.Close()
}

// Length returns the length of a reference sequence.
func (x *Indexed) Length(name string) (int, bool) {
	rec, ok := x.index[name]
	return rec.Length, ok
}

// Fetch returns the upper-case bases in [start, end) of name. The range is
// clipped to the sequence bounds.
func (x *Indexed) Fetch(name string, start, end int) (string, error) {
	rec, ok := x.index[name]
	if !ok {
		return "", fmt.Errorf("sequence %q not in %s", name, x.path)
	}
	start = max(start, 0)
	end = min(end, rec.Length)
	if end <= start {
		return "", nil
	}

	fh, err := os.Open(x.path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", x.path, err)
	}
	defer fh.Close()

	seq, err := fai.NewFile(fh, x.index).SeqRange(name, start, end)
	if err != nil {
		return "", fmt.Errorf("seeking %s:%d-%d: %w", name, start, end, err)
	}
	b, err := io.ReadAll(seq)
	if err != nil {
		return "", fmt.Errorf("reading %s:%d-%d: %w", name, start, end, err)
	}
	return strings.ToUpper(string(b)), nil
}

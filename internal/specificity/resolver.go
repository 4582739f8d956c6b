// Package specificity turns an alignment report into observed binding
// sites on primers.
package specificity

import (
	"errors"
	"fmt"
	"io"

	"github.com/jacklau/zippy/internal/primer"
)

// Alignment is one mapping of a primer against the reference. Match holds
// one entry per aligned column: true for a matching base, false for a
// mismatch, insertion, deletion or clipped base.
type Alignment struct {
	Name     string
	Chrom    string
	Pos      int
	Reverse  bool
	Unmapped bool
	Match    []bool
}

// Exact reports a full-length gapless match over n bases.
func (a Alignment) Exact(n int) bool {
	if len(a.Match) != n {
		return false
	}
	for _, m := range a.Match {
		if !m {
			return false
		}
	}
	return true
}

// Matches counts matching bases.
func (a Alignment) Matches() int {
	n := 0
	for _, m := range a.Match {
		if m {
			n++
		}
	}
	return n
}

// Source yields alignments one at a time. Next returns io.EOF when the
// report is exhausted.
type Source interface {
	Next() (Alignment, error)
}

// Stats summarises a resolver run.
type Stats struct {
	Records  int
	Unmapped int
	Loci     int
	Near     int
	Weak     int
}

// Resolve applies alignments to the primers they name. Exact matches add a
// locus, near matches (at most one mismatching or gapped base) bump
// SigMatch, and weaker hits are counted but otherwise ignored. A record
// naming an unknown primer fails with *primer.NamingMismatchError. Loci are
// left sorted by chromosome and offset.
func Resolve(primers map[string]*primer.Primer, src Source) (Stats, error) {
	var st Stats
	for {
		a, err := src.Next()
		if errors.Is(err, io.EOF) {
			for _, p := range primers {
				primer.SortLoci(p.Loci)
			}
			return st, nil
		}
		if err != nil {
			return st, fmt.Errorf("reading alignment %d: %w", st.Records+1, err)
		}
		st.Records++
		if err := apply(primers, a, &st); err != nil {
			return st, err
		}
	}
}

// ResolveAll is Resolve over an in-memory slice.
func ResolveAll(primers map[string]*primer.Primer, alignments []Alignment) (Stats, error) {
	return Resolve(primers, &sliceSource{items: alignments})
}

func apply(primers map[string]*primer.Primer, a Alignment, st *Stats) error {
	if a.Unmapped {
		st.Unmapped++
		return nil
	}
	p, ok := primers[a.Name]
	if !ok {
		return &primer.NamingMismatchError{Name: a.Name, Reason: "alignment for unknown primer"}
	}
	switch {
	case a.Exact(p.Len()):
		p.AddLocus(a.Chrom, a.Pos, a.Reverse)
		st.Loci++
	case a.Matches() >= p.Len()-1:
		p.SigMatch++
		st.Near++
	default:
		st.Weak++
	}
	return nil
}

type sliceSource struct {
	items []Alignment
	i     int
}

func (s *sliceSource) Next() (Alignment, error) {
	if s.i >= len(s.items) {
		return Alignment{}, io.EOF
	}
	a := s.items[s.i]
	s.i++
	return a, nil
}

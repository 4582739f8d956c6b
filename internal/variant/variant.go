// Package variant finds known variants overlapping primer footprints.
package variant

import (
	"errors"
	"fmt"

	"github.com/jacklau/zippy/internal/primer"
)

// ErrUnknownContig is returned by a Source that holds no data for a
// contig.
var ErrUnknownContig = errors.New("contig not in variant source")

// Record is a raw variant. Pos is 0-based.
type Record struct {
	Contig string
	Pos    int
	ID     string
	Ref    string
	Alts   []string
}

// Len is the longest allele length.
func (r Record) Len() int {
	n := len(r.Ref)
	for _, a := range r.Alts {
		n = max(n, len(a))
	}
	return n
}

// Source returns the variants whose reference allele overlaps
// [start, end) on contig.
type Source interface {
	Fetch(contig string, start, end int) ([]Record, error)
}

// Check returns the variants overlapping l in coordinates relative to
// l.Offset. A contig the source does not know yields no variants.
func Check(l primer.Locus, src Source) ([]primer.SNP, error) {
	recs, err := src.Fetch(l.Chrom, l.Offset, l.End())
	if errors.Is(err, ErrUnknownContig) {
		return []primer.SNP{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching variants at %s: %w", l, err)
	}
	snps := make([]primer.SNP, 0, len(recs))
	for _, r := range recs {
		snps = append(snps, primer.SNP{
			Contig: r.Contig,
			Offset: r.Pos - l.Offset,
			Length: r.Len(),
			ID:     r.ID,
		})
	}
	return snps, nil
}

// Annotate sets SNPs on every primer with a known target. Primers without
// a target are left untouched.
func Annotate(src Source, primers ...*primer.Primer) error {
	for _, p := range primers {
		if p.Target == nil {
			continue
		}
		snps, err := Check(*p.Target, src)
		if err != nil {
			return fmt.Errorf("primer %s: %w", p.Name, err)
		}
		p.SNPs = snps
	}
	return nil
}

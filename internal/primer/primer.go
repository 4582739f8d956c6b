// Package primer holds the primer, locus and primer pair model together
// with the scoring used to rank candidate pairs.
package primer

import (
	"fmt"
	"strings"

	"github.com/jacklau/zippy/internal/thermo"
)

// NoRank marks a primer without a design rank.
const NoRank = -1

// SNP is a known variant overlapping a primer footprint, in coordinates
// relative to the primer's target start. Offset may be negative or reach
// past the primer end for partially overlapping variants.
type SNP struct {
	Contig string
	Offset int
	Length int
	ID     string
}

// Primer is a designed oligonucleotide. Tm and GC are computed once from
// the sequence at construction.
type Primer struct {
	Name     string
	Tag      string
	Target   *Locus
	Loci     []Locus
	SNPs     []SNP
	SigMatch int
	Rank     int
	Location *Location

	seq string
	tm  float64
	gc  float64
}

// Option configures a Primer at construction.
type Option func(*Primer)

// WithTarget sets the intended target locus.
func WithTarget(l Locus) Option {
	return func(p *Primer) { p.Target = &l }
}

// WithTag sets the primer tag (e.g. an adapter name).
func WithTag(tag string) Option {
	return func(p *Primer) { p.Tag = tag }
}

// WithRank sets the design rank.
func WithRank(rank int) Option {
	return func(p *Primer) { p.Rank = rank }
}

// WithLocation sets the storage location.
func WithLocation(loc *Location) Option {
	return func(p *Primer) { p.Location = loc }
}

// New creates a primer from a name and sequence. The sequence is
// upper-cased and must not be empty.
func New(name, seq string, opts ...Option) (*Primer, error) {
	seq = strings.ToUpper(strings.TrimSpace(seq))
	if seq == "" {
		return nil, fmt.Errorf("primer %q: empty sequence", name)
	}
	p := &Primer{
		Name: name,
		Rank: NoRank,
		Loci: []Locus{},
		SNPs: []SNP{},
		seq:  seq,
		tm:   thermo.Tm(seq),
		gc:   float64(strings.Count(seq, "G")+strings.Count(seq, "C")) / float64(len(seq)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Seq returns the upper-case sequence.
func (p *Primer) Seq() string { return p.seq }

// Len returns the sequence length.
func (p *Primer) Len() int { return len(p.seq) }

// Tm returns the melting temperature in degrees Celsius.
func (p *Primer) Tm() float64 { return p.tm }

// GC returns the G+C fraction in [0, 1].
func (p *Primer) GC() float64 { return p.gc }

// AddLocus records an observed full-length binding site.
func (p *Primer) AddLocus(chrom string, pos int, reverse bool) {
	p.Loci = append(p.Loci, Locus{Chrom: chrom, Offset: pos, Length: len(p.seq), Reverse: reverse})
}

// OnTarget reports whether any observed locus sits on the intended target.
func (p *Primer) OnTarget() bool {
	if p.Target == nil {
		return false
	}
	for _, l := range p.Loci {
		if l.SamePosition(*p.Target) {
			return true
		}
	}
	return false
}

// CriticalSNPs counts variants in the 3'-proximal third of the primer.
// For forward primers this is offset >= 2/3 of the length; for reverse
// primers the variant must end within the first third of the target span.
func (p *Primer) CriticalSNPs(reverse bool) int {
	n := 0
	for _, s := range p.SNPs {
		if reverse {
			if s.Offset+s.Length <= p.Len()/3 {
				n++
			}
		} else if s.Offset >= 2*p.Len()/3 {
			n++
		}
	}
	return n
}

// Fasta renders the primer as a FASTA record. The header carries the
// target locus as name|chrom:start-end when a target is known.
func (p *Primer) Fasta(seqname string) string {
	if seqname == "" {
		seqname = p.Name
	}
	if p.Target != nil {
		seqname = fmt.Sprintf("%s|%s:%d-%d", seqname, p.Target.Chrom, p.Target.Offset, p.Target.End())
	}
	return ">" + seqname + "\n" + p.seq
}

func (p *Primer) String() string {
	loc := ""
	if p.Location != nil {
		loc = p.Location.String()
	}
	target := "NA"
	if p.Target != nil {
		target = p.Target.String()
	}
	return fmt.Sprintf("%-20s\t%s-%s\t%s\t%.2f\t%.2f\t%s", p.Name, p.Tag, p.seq, loc, p.tm, p.gc, target)
}

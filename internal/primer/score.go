package primer

import (
	"fmt"
	"sort"
	"strings"
)

// SizeRange bounds amplicon length, inclusive on both ends.
type SizeRange struct {
	Min int
	Max int
}

// DefaultSizeRange accepts every amplicon a PCR can realistically produce.
var DefaultSizeRange = SizeRange{Min: 0, Max: 10000}

// Amplicon is the span amplified between a left and a right binding site.
type Amplicon struct {
	Left  Locus
	Right Locus
	Chrom string
	Start int
	End   int
	Name  string
}

// Len returns the amplicon length.
func (a Amplicon) Len() int { return a.End - a.Start }

// Amplicons enumerates left x right loci on the same chromosome whose
// span [left.Offset, right.End) falls within r.
func (p *Pair) Amplicons(r SizeRange) []Amplicon {
	var out []Amplicon
	for _, m := range p.Left.Loci {
		for _, n := range p.Right.Loci {
			if m.Chrom != n.Chrom {
				continue
			}
			size := n.End() - m.Offset
			if size < r.Min || size > r.Max {
				continue
			}
			out = append(out, Amplicon{
				Left: m, Right: n,
				Chrom: m.Chrom, Start: m.Offset, End: n.End(),
				Name: p.Name,
			})
		}
	}
	return out
}

// SNPCount is the number of variants overlapping either primer.
func (p *Pair) SNPCount() int {
	return len(p.Left.SNPs) + len(p.Right.SNPs)
}

// Mispriming is one less than the larger number of observed loci of the
// two primers, never negative.
func (p *Pair) Mispriming() int {
	return max(max(len(p.Left.Loci), len(p.Right.Loci))-1, 0)
}

// CriticalSNP counts variants in the 3'-proximal third of each primer.
func (p *Pair) CriticalSNP() int {
	return p.Left.CriticalSNPs(false) + p.Right.CriticalSNPs(true)
}

// DesignRank returns the shared design rank of both primers.
func (p *Pair) DesignRank() (int, error) {
	if p.Left.Rank != p.Right.Rank {
		return 0, &NamingMismatchError{
			Name:   p.Name,
			Reason: fmt.Sprintf("left rank %d differs from right rank %d", p.Left.Rank, p.Right.Rank),
		}
	}
	return p.Left.Rank, nil
}

// ScoreKind names one pair quality measure. Lower scores are better.
type ScoreKind int

const (
	ScoreAmplicons ScoreKind = iota
	ScoreCriticalSNP
	ScoreMispriming
	ScoreSNPCount
	ScoreDesignRank
)

var scoreNames = [...]string{
	ScoreAmplicons:   "amplicons",
	ScoreCriticalSNP: "criticalsnp",
	ScoreMispriming:  "mispriming",
	ScoreSNPCount:    "snpcount",
	ScoreDesignRank:  "designrank",
}

func (k ScoreKind) String() string {
	if k < 0 || int(k) >= len(scoreNames) {
		return fmt.Sprintf("ScoreKind(%d)", int(k))
	}
	return scoreNames[k]
}

// ParseScoreKind maps a score name to its kind.
func ParseScoreKind(s string) (ScoreKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range scoreNames {
		if n == name {
			return ScoreKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown score %q (valid: %s)", s, strings.Join(scoreNames[:], ", "))
}

// Score evaluates one measure.
func (p *Pair) Score(k ScoreKind) (int, error) {
	switch k {
	case ScoreAmplicons:
		return len(p.Amplicons(DefaultSizeRange)), nil
	case ScoreCriticalSNP:
		return p.CriticalSNP(), nil
	case ScoreMispriming:
		return p.Mispriming(), nil
	case ScoreSNPCount:
		return p.SNPCount(), nil
	case ScoreDesignRank:
		return p.DesignRank()
	}
	return 0, fmt.Errorf("unknown score %v", k)
}

// Limits maps a score to its maximum acceptable value.
type Limits map[ScoreKind]int

// Check reports whether no limited score exceeds its threshold.
func (p *Pair) Check(limits Limits) (bool, error) {
	for k, limit := range limits {
		v, err := p.Score(k)
		if err != nil {
			return false, err
		}
		if v > limit {
			return false, nil
		}
	}
	return true, nil
}

// SortKey orders pairs; lexicographically smaller keys are better:
// amplicon excess, critical SNPs, mispriming, SNP count, design rank.
type SortKey [5]int

// Less compares two keys lexicographically.
func (k SortKey) Less(o SortKey) bool {
	for i := range k {
		if k[i] != o[i] {
			return k[i] < o[i]
		}
	}
	return false
}

// SortValues computes the ranking key. Pairs without a single valid
// amplicon fail with ErrNoAmplicon.
func (p *Pair) SortValues() (SortKey, error) {
	n := len(p.Amplicons(DefaultSizeRange))
	if n == 0 {
		return SortKey{}, fmt.Errorf("%w: %s", ErrNoAmplicon, p.Name)
	}
	rank, err := p.DesignRank()
	if err != nil {
		return SortKey{}, err
	}
	return SortKey{n - 1, p.CriticalSNP(), p.Mispriming(), p.SNPCount(), rank}, nil
}

// SortPairs stably sorts pairs best first. It fails without reordering if
// any pair cannot be scored.
func SortPairs(pairs []*Pair) error {
	keys := make(map[*Pair]SortKey, len(pairs))
	for _, p := range pairs {
		k, err := p.SortValues()
		if err != nil {
			return err
		}
		keys[p] = k
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return keys[pairs[i]].Less(keys[pairs[j]])
	})
	return nil
}

package primer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Locus is a stranded genomic span. It is used both as the intended
// target of a primer and as an observed mapping location.
type Locus struct {
	Chrom   string
	Offset  int
	Length  int
	Reverse bool
}

// NewLocus validates and returns a Locus.
func NewLocus(chrom string, offset, length int, reverse bool) (Locus, error) {
	if chrom == "" {
		return Locus{}, fmt.Errorf("locus: empty chromosome")
	}
	if offset < 0 {
		return Locus{}, fmt.Errorf("locus %s: negative offset %d", chrom, offset)
	}
	if length <= 0 {
		return Locus{}, fmt.Errorf("locus %s:%d: length must be positive, got %d", chrom, offset, length)
	}
	return Locus{Chrom: chrom, Offset: offset, Length: length, Reverse: reverse}, nil
}

// End is the exclusive end coordinate.
func (l Locus) End() int {
	return l.Offset + l.Length
}

// Less orders loci by chromosome name, then offset.
func (l Locus) Less(o Locus) bool {
	if l.Chrom != o.Chrom {
		return l.Chrom < o.Chrom
	}
	return l.Offset < o.Offset
}

// SamePosition reports whether both loci start at the same base of the
// same chromosome. Length and strand are ignored.
func (l Locus) SamePosition(o Locus) bool {
	return l.Chrom == o.Chrom && l.Offset == o.Offset
}

func (l Locus) String() string {
	strand := "+"
	if l.Reverse {
		strand = "-"
	}
	return fmt.Sprintf("%s:%d:%s", l.Chrom, l.Offset, strand)
}

// SortLoci sorts loci in place by (chrom, offset).
func SortLoci(loci []Locus) {
	sort.SliceStable(loci, func(i, j int) bool { return loci[i].Less(loci[j]) })
}

// Interval is a 0-based half-open genomic interval.
type Interval struct {
	Chrom string
	Start int
	End   int
}

var intervalPattern = regexp.MustCompile(`^([\w.]+):(\d+)-(\d+)$`)

// ParseInterval parses "chrom:start-end".
func ParseInterval(s string) (Interval, error) {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return Interval{}, fmt.Errorf("invalid interval %q: expected chrom:start-end", s)
	}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return Interval{}, fmt.Errorf("invalid interval %q: start: %w", s, err)
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return Interval{}, fmt.Errorf("invalid interval %q: end: %w", s, err)
	}
	if end < start {
		return Interval{}, fmt.Errorf("invalid interval %q: end before start", s)
	}
	return Interval{Chrom: m[1], Start: start, End: end}, nil
}

// Midpoint returns the interval centre.
func (iv Interval) Midpoint() float64 {
	return float64(iv.Start) + float64(iv.End-iv.Start)/2
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

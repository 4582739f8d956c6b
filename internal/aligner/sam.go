package aligner

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"

	"github.com/jacklau/zippy/internal/specificity"
)

var (
	tagMD = sam.NewTag("MD")
	tagNM = sam.NewTag("NM")
)

// SAMSource decodes a SAM report into alignments. It implements
// specificity.Source.
type SAMSource struct {
	r *sam.Reader
}

// NewSAMSource reads the SAM header from r.
func NewSAMSource(r io.Reader) (*SAMSource, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading sam header: %w", err)
	}
	return &SAMSource{r: sr}, nil
}

// Next returns the next alignment or io.EOF.
func (s *SAMSource) Next() (specificity.Alignment, error) {
	rec, err := s.r.Read()
	if err != nil {
		return specificity.Alignment{}, err
	}
	return FromRecord(rec)
}

// ReadAll decodes every record of a SAM report.
func ReadAll(r io.Reader) ([]specificity.Alignment, error) {
	src, err := NewSAMSource(r)
	if err != nil {
		return nil, err
	}
	var out []specificity.Alignment
	for {
		a, err := src.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
}

// QueryName strips the target annotation from a read name written as
// name|chrom:start-end.
func QueryName(read string) string {
	name, _, _ := strings.Cut(read, "|")
	return name
}

// FromRecord converts a SAM record to an alignment. The per-column match
// vector is built from the CIGAR and, when present, the MD tag; without MD
// the NM edit distance marks the leading aligned columns as mismatches.
func FromRecord(rec *sam.Record) (specificity.Alignment, error) {
	a := specificity.Alignment{
		Name:     QueryName(rec.Name),
		Pos:      rec.Pos,
		Reverse:  rec.Flags&sam.Reverse != 0,
		Unmapped: rec.Flags&sam.Unmapped != 0 || rec.Ref == nil,
	}
	if a.Unmapped {
		return a, nil
	}
	a.Chrom = rec.Ref.Name()

	var ref []mdState
	if aux := rec.AuxFields.Get(tagMD); aux != nil {
		md, ok := aux.Value().(string)
		if !ok {
			return a, fmt.Errorf("read %s: MD tag is not a string", rec.Name)
		}
		var err error
		if ref, err = parseMD(md); err != nil {
			return a, fmt.Errorf("read %s: %w", rec.Name, err)
		}
	}

	r, indels := 0, 0
	for _, op := range rec.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				ok := op.Type() != sam.CigarMismatch
				if ref != nil {
					ok = r < len(ref) && ref[r] == mdMatch
				}
				a.Match = append(a.Match, ok)
				r++
			}
		case sam.CigarInsertion, sam.CigarSoftClipped:
			for i := 0; i < n; i++ {
				a.Match = append(a.Match, false)
			}
			if op.Type() == sam.CigarInsertion {
				indels += n
			}
		case sam.CigarDeletion, sam.CigarSkipped:
			for i := 0; i < n; i++ {
				a.Match = append(a.Match, false)
			}
			if op.Type() == sam.CigarDeletion {
				indels += n
			}
			r += n
		}
	}

	if ref == nil {
		if nm, ok := intAux(rec.AuxFields.Get(tagNM)); ok {
			markEdits(a.Match, nm-indels)
		}
	}
	return a, nil
}

type mdState byte

const (
	mdMatch mdState = iota
	mdMismatch
	mdDeleted
)

// parseMD expands an MD string into one state per reference base.
func parseMD(md string) ([]mdState, error) {
	var out []mdState
	for i := 0; i < len(md); {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < len(md) && md[j] >= '0' && md[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(md[i:j])
			if err != nil {
				return nil, fmt.Errorf("bad MD %q: %w", md, err)
			}
			for k := 0; k < n; k++ {
				out = append(out, mdMatch)
			}
			i = j
		case c == '^':
			i++
			for i < len(md) && isBase(md[i]) {
				out = append(out, mdDeleted)
				i++
			}
		case isBase(c):
			out = append(out, mdMismatch)
			i++
		default:
			return nil, fmt.Errorf("bad MD %q at %d", md, i)
		}
	}
	return out, nil
}

func isBase(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// markEdits flips up to n matching columns to mismatches.
func markEdits(match []bool, n int) {
	for i := 0; i < len(match) && n > 0; i++ {
		if match[i] {
			match[i] = false
			n--
		}
	}
}

func intAux(aux sam.Aux) (int, bool) {
	if aux == nil {
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	}
	return 0, false
}

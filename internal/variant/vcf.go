package variant

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// VCF is an in-memory Source holding records per contig sorted by
// position. It backs small panels and test fixtures; genome-wide
// variant files are read through Tabix.
type VCF struct {
	contigs map[string][]Record
	// longest reference allele seen, bounds the backward search in Fetch
	maxRef int
}

// ReadVCF parses VCF text into memory.
func ReadVCF(r io.Reader) (*VCF, error) {
	v := &VCF{contigs: make(map[string][]Record)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		rec, ok, err := parseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln, err)
		}
		if ok {
			v.Add(rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading vcf: %w", err)
	}
	return v, nil
}

// parseLine reads the first five columns of a VCF data line. Header and
// blank lines report ok == false.
func parseLine(line string) (rec Record, ok bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || line[0] == '#' {
		return Record{}, false, nil
	}
	f := strings.SplitN(line, "\t", 6)
	if len(f) < 5 {
		return Record{}, false, fmt.Errorf("expected at least 5 columns")
	}
	pos, err := strconv.Atoi(f[1])
	if err != nil || pos < 1 {
		return Record{}, false, fmt.Errorf("bad position %q", f[1])
	}
	rec = Record{Contig: f[0], Pos: pos - 1, ID: f[2], Ref: f[3]}
	if rec.ID == "." {
		rec.ID = ""
	}
	if f[4] != "." {
		rec.Alts = strings.Split(f[4], ",")
	}
	return rec, true, nil
}

// overlaps reports whether the reference allele of r touches [start, end).
func (r Record) overlaps(start, end int) bool {
	return r.Pos < end && r.Pos+max(len(r.Ref), 1) > start
}

// Add inserts a record, keeping its contig sorted by position.
func (v *VCF) Add(rec Record) {
	recs := v.contigs[rec.Contig]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Pos > rec.Pos })
	recs = append(recs, Record{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	v.contigs[rec.Contig] = recs
	v.maxRef = max(v.maxRef, len(rec.Ref))
}

// Fetch implements Source.
func (v *VCF) Fetch(contig string, start, end int) ([]Record, error) {
	recs, ok := v.contigs[contig]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContig, contig)
	}
	from := sort.Search(len(recs), func(i int) bool { return recs[i].Pos >= start-v.maxRef })
	var out []Record
	for _, r := range recs[from:] {
		if r.Pos >= end {
			break
		}
		if r.overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len returns the number of loaded records.
func (v *VCF) Len() int {
	n := 0
	for _, recs := range v.contigs {
		n += len(recs)
	}
	return n
}

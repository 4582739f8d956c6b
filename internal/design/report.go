package design

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jacklau/zippy/internal/primer"
)

var primerKey = regexp.MustCompile(`^PRIMER_(LEFT|RIGHT)_(\d+)(.*)$`)

// Result holds the candidate pairs of one design job, ordered by rank.
type Result struct {
	Pairs []*primer.Pair
	// Explain holds the engine's per-category summaries.
	Explain []string
	// Meta holds the remaining report fields per primer name.
	Meta map[string]map[string]string
}

type candidate struct {
	name   string
	side   string
	rank   int
	seq    string
	target *primer.Locus
	meta   map[string]string
}

// ParseReport turns a design report into named pairs with absolute
// genomic targets. region is the template's genomic span. Primers are
// named <name>_<rank>_<LEFT|RIGHT>.
func ParseReport(name string, region primer.Interval, rec Record) (*Result, error) {
	res := &Result{Meta: make(map[string]map[string]string)}
	cands := make(map[string]*candidate)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := rec[k]
		m := primerKey.FindStringSubmatch(k)
		if m == nil {
			if strings.HasSuffix(k, "EXPLAIN") {
				res.Explain = append(res.Explain, v)
			}
			continue
		}
		side, suffix := m[1], m[3]
		rank, _ := strconv.Atoi(m[2])
		pname := fmt.Sprintf("%s_%d_%s", name, rank, side)
		c, ok := cands[pname]
		if !ok {
			c = &candidate{name: pname, side: side, rank: rank, meta: make(map[string]string)}
			cands[pname] = c
		}
		switch suffix {
		case "":
			l, err := translate(side, region, v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			c.target = &l
		case "_SEQUENCE":
			c.seq = v
		default:
			c.meta[strings.TrimPrefix(suffix, "_")] = v
		}
	}

	byRank := make(map[int]*[2]*primer.Primer)
	for _, c := range cands {
		if c.seq == "" {
			return nil, &primer.NamingMismatchError{Name: c.name, Reason: "no sequence in design report"}
		}
		opts := []primer.Option{primer.WithRank(c.rank)}
		if c.target != nil {
			opts = append(opts, primer.WithTarget(*c.target))
		}
		p, err := primer.New(c.name, c.seq, opts...)
		if err != nil {
			return nil, err
		}
		res.Meta[c.name] = c.meta
		slot, ok := byRank[c.rank]
		if !ok {
			slot = new([2]*primer.Primer)
			byRank[c.rank] = slot
		}
		if c.side == "LEFT" {
			slot[0] = p
		} else {
			slot[1] = p
		}
	}

	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	for _, r := range ranks {
		slot := byRank[r]
		pair, err := primer.PairOf(slot[:], "")
		if err != nil {
			return nil, fmt.Errorf("rank %d: %w", r, err)
		}
		res.Pairs = append(res.Pairs, pair)
	}
	return res, nil
}

// translate converts a "start,length" template coordinate into an
// absolute locus. Right primer positions name their 3'-most base.
func translate(side string, region primer.Interval, v string) (primer.Locus, error) {
	a, b, ok := strings.Cut(v, ",")
	if !ok {
		return primer.Locus{}, fmt.Errorf("bad position %q", v)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return primer.Locus{}, fmt.Errorf("bad position %q: %w", v, err)
	}
	length, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return primer.Locus{}, fmt.Errorf("bad position %q: %w", v, err)
	}
	if side == "RIGHT" {
		return primer.NewLocus(region.Chrom, region.Start+start-(length-1), length, true)
	}
	return primer.NewLocus(region.Chrom, region.Start+start, length, false)
}

package design

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacklau/zippy/internal/primer"
)

// Genome returns reference bases for a half-open region.
type Genome interface {
	Fetch(chrom string, start, end int) (string, error)
}

// Designer cuts a template around an interval and asks the oracle for
// primers flanking it.
type Designer struct {
	Genome Genome
	Oracle Oracle
	Flank  int
	Params map[string]string
	Logger *slog.Logger
}

// DefaultFlank is the template padding on each side of a target.
const DefaultFlank = 200

// Design designs candidate pairs for iv named name.
func (d *Designer) Design(ctx context.Context, name string, iv primer.Interval) (*Result, error) {
	flank := d.Flank
	if flank <= 0 {
		flank = DefaultFlank
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := max(iv.Start-flank, 0)
	template, err := d.Genome.Fetch(iv.Chrom, start, iv.End+flank)
	if err != nil {
		return nil, fmt.Errorf("fetching template for %s: %w", iv, err)
	}
	region := primer.Interval{Chrom: iv.Chrom, Start: start, End: start + len(template)}
	left, right := iv.Start-region.Start, region.End-iv.End
	if right < 0 || len(template) < left {
		return nil, fmt.Errorf("interval %s lies outside the reference", iv)
	}

	req := Request{
		ID:        name,
		Template:  template,
		OKRegions: [4]int{0, left, len(template) - right, right},
		Params:    d.Params,
	}
	rec, err := d.Oracle.Design(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := ParseReport(name, region, rec)
	if err != nil {
		return nil, fmt.Errorf("parsing design for %s: %w", name, err)
	}
	logger.Debug("designed primers", "name", name, "region", region.String(), "pairs", len(res.Pairs))
	return res, nil
}

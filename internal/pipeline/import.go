package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jacklau/zippy/internal/fasta"
	"github.com/jacklau/zippy/internal/primer"
	"github.com/jacklau/zippy/internal/pubsub"
)

// ImportResult summarises an import.
type ImportResult struct {
	Primers  int
	Pairs    []*primer.Pair
	Unpaired []*primer.Primer
	Rejected int
	Skipped  map[string]error
}

// PrimersFromFasta builds primers from records named name|chrom:start-end.
// The target strand follows the direction encoded in the primer name, and
// tags are looked up by primer name.
func PrimersFromFasta(records []fasta.Record, tags map[string]string) ([]*primer.Primer, error) {
	primers := make([]*primer.Primer, 0, len(records))
	for _, rec := range records {
		name, pos, hasPos := strings.Cut(rec.ID, "|")
		var opts []primer.Option
		if hasPos {
			iv, err := primer.ParseInterval(pos)
			if err != nil {
				return nil, fmt.Errorf("primer %s: %w", name, err)
			}
			_, dir := primer.ParseDirection(name)
			target, err := primer.NewLocus(iv.Chrom, iv.Start, iv.End-iv.Start, dir == primer.Reverse)
			if err != nil {
				return nil, fmt.Errorf("primer %s: %w", name, err)
			}
			opts = append(opts, primer.WithTarget(target))
		}
		if tag, ok := tags[name]; ok {
			opts = append(opts, primer.WithTag(tag))
		}
		p, err := primer.New(name, rec.Seq, opts...)
		if err != nil {
			return nil, err
		}
		primers = append(primers, p)
	}
	return primers, nil
}

// GroupPairs pairs primers sharing a base name, forward primer left.
// Groups that cannot form exactly one forward and one reverse primer are
// returned in skipped keyed by base name; primers without a direction
// are returned as unpaired.
func GroupPairs(primers []*primer.Primer) (pairs []*primer.Pair, unpaired []*primer.Primer, skipped map[string]error) {
	skipped = make(map[string]error)
	groups := make(map[string][]*primer.Primer)
	var order []string
	for _, p := range primers {
		base, dir := primer.ParseDirection(p.Name)
		if dir == primer.Unknown {
			unpaired = append(unpaired, p)
			continue
		}
		if _, ok := groups[base]; !ok {
			order = append(order, base)
		}
		groups[base] = append(groups[base], p)
	}

	for _, base := range order {
		group := groups[base]
		if len(group) == 1 {
			unpaired = append(unpaired, group[0])
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			_, di := primer.ParseDirection(group[i].Name)
			_, dj := primer.ParseDirection(group[j].Name)
			return di > dj
		})
		pair, err := primer.PairOf(group, base)
		if err != nil {
			skipped[base] = err
			continue
		}
		_, dl := primer.ParseDirection(pair.Left.Name)
		_, dr := primer.ParseDirection(pair.Right.Name)
		if dl != primer.Forward || dr != primer.Reverse {
			skipped[base] = &primer.NamingMismatchError{Name: base, Reason: "pair needs one forward and one reverse primer"}
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, unpaired, skipped
}

// Import resolves, scores and stores primers read from a FASTA file.
// Pairs failing the limits are not stored; their primers are still
// recorded. The store write is a single call per kind.
func (p *Pipeline) Import(ctx context.Context, records []fasta.Record, tags map[string]string) (*ImportResult, error) {
	logger := p.deps.Logger.With("records", len(records))
	primers, err := PrimersFromFasta(records, tags)
	if err != nil {
		return nil, err
	}
	if err := p.resolve(ctx, primers, logger); err != nil {
		return nil, err
	}

	pairs, unpaired, skipped := GroupPairs(primers)
	res := &ImportResult{Primers: len(primers), Unpaired: unpaired, Skipped: skipped}
	for base, err := range skipped {
		if errors.Is(err, primer.ErrBoundExceeded) {
			logger.Error("too many primers share a name", "name", base, "error", err)
		} else {
			logger.Warn("skipping primer group", "name", base, "error", err)
		}
	}

	for _, pair := range pairs {
		logPair(logger, pair)
		if pair.Left.Target == nil || pair.Right.Target == nil {
			skipped[pair.Name] = fmt.Errorf("pair %s: primers have no target position", pair.Name)
			res.Unpaired = append(res.Unpaired, pair.Left, pair.Right)
			continue
		}
		ok, err := pair.Check(p.deps.Limits)
		if err != nil || !ok {
			logger.Info("pair rejected", "pair", pair.Name, "error", err)
			res.Rejected++
			res.Unpaired = append(res.Unpaired, pair.Left, pair.Right)
			continue
		}
		res.Pairs = append(res.Pairs, pair)
	}

	if p.deps.Store != nil {
		if len(res.Unpaired) > 0 {
			if err := p.deps.Store.AddPrimer(ctx, res.Unpaired...); err != nil {
				return nil, fmt.Errorf("storing primers: %w", err)
			}
		}
		if len(res.Pairs) > 0 {
			if err := p.deps.Store.AddPair(ctx, res.Pairs...); err != nil {
				return nil, fmt.Errorf("storing pairs: %w", err)
			}
		}
	}
	if p.deps.Events != nil {
		p.deps.Events.Publish(pubsub.Stored, Outcome{Name: "import", Stored: res.Pairs, Rejected: res.Rejected})
	}
	logger.Info("primers imported",
		"primers", res.Primers,
		"pairs", len(res.Pairs),
		"unpaired", len(res.Unpaired),
		"rejected", res.Rejected,
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Package pipeline wires design, specificity, variant annotation, scoring
// and storage into the import and design workflows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jacklau/zippy/internal/aligner"
	"github.com/jacklau/zippy/internal/design"
	"github.com/jacklau/zippy/internal/primer"
	"github.com/jacklau/zippy/internal/pubsub"
	"github.com/jacklau/zippy/internal/specificity"
	"github.com/jacklau/zippy/internal/store"
	"github.com/jacklau/zippy/internal/variant"
)

// ErrNoAligner is returned by Design when no aligner is configured. Designed
// primers are only scored from their aligned loci.
var ErrNoAligner = errors.New("no aligner configured: designed primers need a specificity check")

// PipelineDeps holds the dependencies for the Pipeline.
type PipelineDeps struct {
	Store    store.Store
	Aligner  aligner.Aligner
	Variants variant.Source
	Designer *design.Designer
	Limits   primer.Limits
	// Keep is the number of accepted pairs stored per designed interval.
	Keep   int
	Events *pubsub.Broker[Outcome]
	Logger *slog.Logger
}

// Pipeline orchestrates designing, scoring and storing primer pairs.
type Pipeline struct {
	deps PipelineDeps
}

// New creates a new Pipeline with the given dependencies.
func New(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Keep <= 0 {
		deps.Keep = 1
	}
	return &Pipeline{deps: deps}
}

// Target is a named interval to design primers for.
type Target struct {
	Name     string
	Interval primer.Interval
}

// Outcome reports what happened to one design target or import group.
type Outcome struct {
	Name     string
	Interval primer.Interval
	Stored   []*primer.Pair
	Rejected int
	Explain  []string
	Err      error
}

// resolve maps every primer with the aligner and annotates variants on
// those with a target.
func (p *Pipeline) resolve(ctx context.Context, primers []*primer.Primer, logger *slog.Logger) error {
	if p.deps.Aligner != nil && len(primers) > 0 {
		alignments, err := p.deps.Aligner.Align(ctx, primers)
		if err != nil {
			return fmt.Errorf("aligning primers: %w", err)
		}
		byName := make(map[string]*primer.Primer, len(primers))
		for _, pr := range primers {
			byName[pr.Name] = pr
		}
		st, err := specificity.ResolveAll(byName, alignments)
		if err != nil {
			return fmt.Errorf("resolving specificity: %w", err)
		}
		logger.Debug("resolved specificity",
			"records", st.Records, "loci", st.Loci, "near", st.Near, "unmapped", st.Unmapped)
	}
	if p.deps.Variants != nil {
		if err := variant.Annotate(p.deps.Variants, primers...); err != nil {
			return fmt.Errorf("annotating variants: %w", err)
		}
	}
	return nil
}

// Design designs, scores and stores pairs for a single interval.
func (p *Pipeline) Design(ctx context.Context, t Target) (*Outcome, error) {
	if p.deps.Designer == nil {
		return nil, errors.New("no primer designer configured")
	}
	if p.deps.Aligner == nil {
		return nil, ErrNoAligner
	}
	logger := p.deps.Logger.With("target", t.Name, "interval", t.Interval.String())
	start := time.Now()
	out := &Outcome{Name: t.Name, Interval: t.Interval}

	res, err := p.deps.Designer.Design(ctx, t.Name, t.Interval)
	if err != nil {
		return nil, err
	}
	out.Explain = res.Explain

	var primers []*primer.Primer
	for _, pair := range res.Pairs {
		primers = append(primers, pair.Left, pair.Right)
	}
	if err := p.resolve(ctx, primers, logger); err != nil {
		return nil, err
	}

	var ranked []*primer.Pair
	for _, pair := range res.Pairs {
		if err := pair.PruneRanks(); err != nil {
			logger.Warn("skipping pair", "pair", pair.Name, "error", err)
			out.Rejected++
			continue
		}
		if _, err := pair.SortValues(); err != nil {
			logger.Warn("skipping pair", "pair", pair.Name, "error", err)
			out.Rejected++
			continue
		}
		ranked = append(ranked, pair)
	}
	if err := primer.SortPairs(ranked); err != nil {
		return nil, err
	}

	for _, pair := range ranked {
		logPair(logger, pair)
		if len(out.Stored) >= p.deps.Keep {
			break
		}
		ok, err := pair.Check(p.deps.Limits)
		if err != nil {
			logger.Warn("skipping pair", "pair", pair.Name, "error", err)
			out.Rejected++
			continue
		}
		if !ok {
			out.Rejected++
			continue
		}
		out.Stored = append(out.Stored, pair)
	}

	if len(out.Stored) > 0 && p.deps.Store != nil {
		if err := p.deps.Store.AddPair(ctx, out.Stored...); err != nil {
			return nil, fmt.Errorf("storing pairs for %s: %w", t.Name, err)
		}
	}
	logger.Info("interval designed",
		"candidates", len(res.Pairs),
		"stored", len(out.Stored),
		"rejected", out.Rejected,
		"duration", time.Since(start),
	)
	return out, nil
}

// DesignAll designs every target with at most workers running at once.
// Failures are reported per target; only a store schema failure or a
// cancelled context aborts the run. Outcomes keep the order of targets.
func (p *Pipeline) DesignAll(ctx context.Context, targets []Target, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]Outcome, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.Design(gctx, t)
			if err != nil {
				var se *store.SchemaError
				if errors.As(err, &se) {
					return err
				}
				p.deps.Logger.Error("design failed", "target", t.Name, "error", err)
				out = &Outcome{Name: t.Name, Interval: t.Interval, Err: err}
			}
			outcomes[i] = *out
			p.publish(*out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (p *Pipeline) publish(out Outcome) {
	if p.deps.Events == nil {
		return
	}
	switch {
	case out.Err != nil:
		p.deps.Events.Publish(pubsub.Failed, out)
	case len(out.Stored) == 0:
		p.deps.Events.Publish(pubsub.Rejected, out)
	default:
		p.deps.Events.Publish(pubsub.Stored, out)
	}
}

// logPair writes a one-line design summary per primer: rank, strand,
// sequence, SNPs as <elsewhere>+<3' end> and off-target sites.
func logPair(logger *slog.Logger, pair *primer.Pair) {
	for i, pr := range []*primer.Primer{pair.Left, pair.Right} {
		strand := "+"
		if i == 1 {
			strand = "-"
		}
		critical := pr.CriticalSNPs(i == 1)
		logger.Debug("candidate primer",
			"pair", pair.Name,
			"primer", pr.Name,
			"rank", pr.Rank,
			"strand", strand,
			"seq", pr.Seq(),
			"tm", fmt.Sprintf("%.1f", pr.Tm()),
			"snps", fmt.Sprintf("%d+%d", len(pr.SNPs)-critical, critical),
			"misprime", max(len(pr.Loci)-1, 0),
			"sigmatch", pr.SigMatch,
		)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/pipeline"
	"github.com/jacklau/zippy/internal/primer"
	"github.com/jacklau/zippy/internal/pubsub"
)

var (
	designName    string
	designWorkers int
	designKeep    int
	designFlank   int
)

var designCmd = &cobra.Command{
	Use:   "design <chrom:start-end>...",
	Short: "Design primer pairs around genomic intervals",
	Long: `Design cuts a template around each interval from the reference genome,
runs primer3 on it, checks every candidate pair for off-target binding and
known variants, and stores the best pairs passing the configured limits.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDesign,
}

func init() {
	designCmd.Flags().StringVar(&designName, "name", "", "name of the design (single interval only)")
	designCmd.Flags().IntVar(&designWorkers, "workers", 0, "number of intervals designed concurrently (default from config)")
	designCmd.Flags().IntVar(&designKeep, "keep", 0, "number of pairs stored per interval (default from config)")
	designCmd.Flags().IntVar(&designFlank, "flank", 0, "template padding around each interval (default from config)")
	rootCmd.AddCommand(designCmd)
}

// parseTargets turns interval arguments into design targets. name is only
// allowed with a single interval; otherwise targets are named after their
// coordinates.
func parseTargets(args []string, name string) ([]pipeline.Target, error) {
	if name != "" && len(args) > 1 {
		return nil, fmt.Errorf("--name requires exactly one interval, got %d", len(args))
	}
	targets := make([]pipeline.Target, 0, len(args))
	for _, arg := range args {
		iv, err := primer.ParseInterval(arg)
		if err != nil {
			return nil, err
		}
		n := name
		if n == "" {
			n = fmt.Sprintf("%s_%d_%d", strings.TrimPrefix(iv.Chrom, "chr"), iv.Start, iv.End)
		}
		targets = append(targets, pipeline.Target{Name: n, Interval: iv})
	}
	return targets, nil
}

func runDesign(cmd *cobra.Command, args []string) error {
	targets, err := parseTargets(args, designName)
	if err != nil {
		return err
	}

	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if designKeep > 0 {
		cfg.Design.Keep = designKeep
	}
	if designFlank > 0 {
		cfg.Design.Flank = designFlank
	}
	if cfg.Genome.Fasta == "" {
		return fmt.Errorf("no reference genome configured (set genome.fasta in config)")
	}
	if cfg.Genome.Index == "" {
		return fmt.Errorf("no aligner index configured (set genome.index in config)")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}

	events := pubsub.NewBroker[pipeline.Outcome]()
	p, err := createPipeline(c, events)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	workers := designWorkers
	if workers <= 0 {
		workers = cfg.Defaults.Workers
	}

	bar := newProgressBar(len(targets), "designing")
	done := trackProgress(ctx, events, bar)

	outcomes, runErr := p.DesignAll(ctx, targets, workers)
	events.Close()
	<-done
	if n := events.Dropped(); n > 0 {
		logger.Debug("progress events dropped", "count", n)
	}
	bar.SetCurrent(int64(len(targets)))
	bar.Finish()
	if runErr != nil {
		return fmt.Errorf("designing primers: %w", runErr)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			fmt.Fprintf(w, "%s\t%s\tfailed: %v\n", out.Name, out.Interval, out.Err)
		case len(out.Stored) == 0:
			fmt.Fprintf(w, "%s\t%s\tno pair passed (%d rejected)\n", out.Name, out.Interval, out.Rejected)
		default:
			for _, pair := range out.Stored {
				fmt.Fprintln(w, pair.String())
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts := tallyOutcomes(outcomes)
	logger.Info("design finished",
		"intervals", len(targets),
		"stored", counts.Stored,
		"rejected", counts.Rejected,
		"failed", counts.Failed,
	)
	if counts.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d intervals failed\n", counts.Failed, len(targets))
	}
	return nil
}

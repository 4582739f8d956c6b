package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/primer"
)

var queryCmd = &cobra.Command{
	Use:   "query <chrom:start-end>...",
	Short: "Find stored pairs amplifying an interval",
	Long: `Query lists stored, non-blacklisted primer pairs whose amplicon covers
each interval, closest to the interval centre first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	intervals := make([]primer.Interval, 0, len(args))
	for _, arg := range args {
		iv, err := primer.ParseInterval(arg)
		if err != nil {
			return err
		}
		intervals = append(intervals, iv)
	}

	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tLEFT LOC\tRIGHT LOC\tLEFT\tTM\tGC\tRIGHT\tTM\tGC\tCHROM\tLEFT END\tRIGHT START")
	total := 0
	for _, iv := range intervals {
		pairs, err := c.Store.Query(ctx, iv)
		if err != nil {
			return fmt.Errorf("querying %s: %w", iv, err)
		}
		logger.Debug("queried interval", "interval", iv.String(), "pairs", len(pairs))
		for _, pair := range pairs {
			fmt.Fprintln(w, pair.String())
		}
		total += len(pairs)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s pairs for %d intervals\n", humanize.Comma(int64(total)), len(intervals))
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store health overview",
	Long: `Display statistics about the primer store including primer, target and
pair counts, blacklisted pairs, the schema version and database size.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	stats, err := c.Store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("querying stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if stats.Primers == 0 {
		fmt.Fprintln(out, "No primers stored yet.")
		fmt.Fprintln(out, "Run 'zippy add <primers.fa>' or 'zippy design <chrom:start-end>' to get started.")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIMERS\tTARGETS\tPAIRS\tBLACKLISTED")
	fmt.Fprintln(w, "-------\t-------\t-----\t-----------")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		humanize.Comma(int64(stats.Primers)),
		humanize.Comma(int64(stats.Targets)),
		humanize.Comma(int64(stats.Pairs)),
		humanize.Comma(int64(stats.Blacklisted)))
	w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Schema: v%d\n", stats.Schema)
	dbSize, err := dbFileSize(c.Store.Path())
	if err != nil {
		fmt.Fprintf(out, "Database: %s (size unknown)\n", c.Store.Path())
	} else {
		fmt.Fprintf(out, "Database: %s (%s)\n", c.Store.Path(), humanize.Bytes(uint64(dbSize)))
	}

	return nil
}

// dbFileSize returns the size in bytes of the database file.
func dbFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

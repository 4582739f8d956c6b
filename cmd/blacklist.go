package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/store"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist [<pairid> <uniqueid>]",
	Short: "Blacklist a stored pair or list blacklisted pairs",
	Long: `With a pair name and unique id, marks that pair as blacklisted so it is
no longer returned by query. Without arguments, lists blacklisted pairs.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <pairid> <uniqueid>, got %d arguments", len(args))
		}
		return nil
	},
	RunE: runBlacklist,
}

func init() {
	rootCmd.AddCommand(blacklistCmd)
}

func runBlacklist(cmd *cobra.Command, args []string) error {
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

	if len(args) == 2 {
		err := c.Store.Blacklist(ctx, args[0], args[1])
		if errors.Is(err, store.ErrPairNotFound) {
			return fmt.Errorf("no stored pair %s with unique id %s", args[0], args[1])
		}
		if err != nil {
			return err
		}
		logger.Info("pair blacklisted", "pair", args[0], "uniqueid", args[1])
		fmt.Fprintf(cmd.OutOrStdout(), "Blacklisted %s\n", args[0])
		return nil
	}

	records, err := c.Store.Blacklisted(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No blacklisted pairs.")
		return nil
	}
	return printPairRecords(cmd.OutOrStdout(), records)
}

// printPairRecords writes stored pair rows as an aligned table.
func printPairRecords(out io.Writer, records []store.PairRecord) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tUNIQUE ID\tLEFT\tRIGHT\tAMPLICON\tADDED")
	for _, r := range records {
		added := "unknown"
		if !r.DateAdded.IsZero() {
			added = humanize.Time(r.DateAdded)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s:%d-%d\t%s\n",
			r.PairID, r.UniqueID, r.Left, r.Right, r.Chrom, r.Start, r.End, added)
	}
	return w.Flush()
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/fasta"
)

var addTags map[string]string

var addCmd = &cobra.Command{
	Use:   "add <primers.fa>",
	Short: "Import primers from a FASTA file",
	Long: `Add reads primers named name|chrom:start-end from a (optionally gzipped)
FASTA file, checks them against the reference and known variants, pairs
forward and reverse primers by name and stores them. Pairs failing the
configured limits are stored as single primers only.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringToStringVar(&addTags, "tag", nil, "tag a primer by name (name=tag, repeatable)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	records, err := fasta.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := initComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	p, err := createPipeline(c, nil)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	res, err := p.Import(ctx, records, addTags)
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d primers read, %d pairs stored, %d primers stored unpaired, %d pairs rejected\n",
		res.Primers, len(res.Pairs), len(res.Unpaired), res.Rejected)
	for name, err := range res.Skipped {
		fmt.Fprintf(out, "skipped %s: %v\n", name, err)
	}
	return nil
}

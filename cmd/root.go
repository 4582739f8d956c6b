package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/aligner"
	"github.com/jacklau/zippy/internal/config"
	"github.com/jacklau/zippy/internal/design"
	"github.com/jacklau/zippy/internal/fasta"
	"github.com/jacklau/zippy/internal/pipeline"
	"github.com/jacklau/zippy/internal/pubsub"
	"github.com/jacklau/zippy/internal/store"
	"github.com/jacklau/zippy/internal/variant"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zippy",
	Short: "Design, validate and store PCR primer pairs",
	Long: `Zippy designs PCR primer pairs around genomic intervals, checks them for
off-target binding and known variants, and keeps accepted pairs in a
local SQLite database for later lookup.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zippy/config.yaml"
	}
	return home + "/.zippy/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// loadConfig reads the config file. A missing default config falls back to
// built-in defaults; a missing explicit --config is an error.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// components holds initialized components for use by subcommands.
type components struct {
	Config *config.Config
	Store  *store.DB
	Logger *slog.Logger
}

// initComponents opens the store, creating it if needed.
func initComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return &components{Config: cfg, Store: db, Logger: logger}, nil
}

// createPipeline builds a Pipeline from components. Collaborators whose
// config is empty are left out: design needs both genome and index, import
// without an index stores primers at their named targets only, and no VCF
// means no variant annotation.
func createPipeline(c *components, events *pubsub.Broker[pipeline.Outcome]) (*pipeline.Pipeline, error) {
	cfg := c.Config
	limits, err := cfg.ScoreLimits()
	if err != nil {
		return nil, err
	}

	deps := pipeline.PipelineDeps{
		Store:  c.Store,
		Limits: limits,
		Keep:   cfg.Design.Keep,
		Events: events,
		Logger: c.Logger,
	}

	if cfg.Genome.Index != "" {
		bt := aligner.NewBowtie2(cfg.Aligner.Path, cfg.Genome.Index)
		bt.MaxHits = cfg.Aligner.MaxHits
		bt.KeepSAM = cfg.Aligner.KeepSAM
		bt.Logger = c.Logger
		deps.Aligner = bt
	} else {
		c.Logger.Warn("no genome index configured, imported primers get no off-target check and designs cannot run")
	}

	if cfg.Variants.VCF != "" {
		vcf, err := variant.OpenTabix(cfg.Variants.VCF)
		if err != nil {
			return nil, fmt.Errorf("loading variants: %w", err)
		}
		c.Logger.Debug("variants indexed", "path", cfg.Variants.VCF, "contigs", len(vcf.Contigs()))
		deps.Variants = vcf
	}

	if cfg.Genome.Fasta != "" {
		genome, err := fasta.OpenIndexed(cfg.Genome.Fasta)
		if err != nil {
			return nil, fmt.Errorf("opening genome: %w", err)
		}
		p3 := design.NewPrimer3(cfg.Design.Primer3)
		p3.Logger = c.Logger
		deps.Designer = &design.Designer{
			Genome: genome,
			Oracle: p3,
			Flank:  cfg.Design.Flank,
			Params: cfg.Design.DesignParams(),
			Logger: c.Logger,
		}
	}

	return pipeline.New(deps), nil
}

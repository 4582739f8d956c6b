package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacklau/zippy/internal/config"
	"github.com/jacklau/zippy/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for Zippy configuration",
	Long: `Creates a default configuration file with guided prompts and initializes
the primer database it points to.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// setupAnswers are the values gathered by init.
type setupAnswers struct {
	Fasta     string
	Index     string
	VCF       string
	StorePath string
}

func prompt(r *bufio.Reader, w io.Writer, question string) string {
	fmt.Fprint(w, question)
	answer, _ := r.ReadString('\n')
	return strings.TrimSpace(answer)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Welcome to Zippy setup!")
	fmt.Fprintln(out, "This will create a configuration file for you.")
	fmt.Fprintln(out)

	configPath := cfgFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configPath)
		answer := strings.ToLower(prompt(reader, out, "Overwrite? [y/N]: "))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	a := setupAnswers{
		Fasta:     prompt(reader, out, "Reference genome FASTA, indexed with samtools faidx (or press Enter to skip): "),
		Index:     prompt(reader, out, "Bowtie2 index prefix (or press Enter to skip): "),
		VCF:       prompt(reader, out, "Known variants VCF, bgzipped with a .tbi index (or press Enter to skip): "),
		StorePath: prompt(reader, out, "Primer database path [~/.zippy/zippy.db]: "),
	}

	data := buildConfigYAML(a)
	cfg, err := config.Parse([]byte(data))
	if err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(data), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Fprintf(out, "\nConfig written to %s\n", configPath)

	if err := initStore(cmd.Context(), cfg.Store.Path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database initialized at %s\n", cfg.Store.Path)
	return nil
}

// initStore creates the database file and its schema.
func initStore(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	if _, err := store.Open(ctx, path); err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	return nil
}

func buildConfigYAML(a setupAnswers) string {
	var b strings.Builder

	b.WriteString("# Zippy configuration\n")
	b.WriteString("# See documentation for all available options.\n\n")

	b.WriteString("genome:\n")
	if a.Fasta != "" {
		b.WriteString(fmt.Sprintf("  fasta: %s\n", a.Fasta))
	} else {
		b.WriteString("  # fasta: /path/to/genome.fa\n")
	}
	if a.Index != "" {
		b.WriteString(fmt.Sprintf("  index: %s\n", a.Index))
	} else {
		b.WriteString("  # index: /path/to/bowtie2/genome\n")
	}
	b.WriteString("\n")

	b.WriteString("aligner:\n")
	b.WriteString("  path: bowtie2\n")
	b.WriteString("  max_hits: 50\n")
	b.WriteString("  keep_sam: false\n")
	b.WriteString("\n")

	b.WriteString("design:\n")
	b.WriteString("  primer3: primer3_core\n")
	b.WriteString("  flank: 200\n")
	b.WriteString("  keep: 1\n")
	b.WriteString("  size_min: 150\n")
	b.WriteString("  size_max: 600\n")
	b.WriteString("  params:\n")
	b.WriteString("    PRIMER_NUM_RETURN: \"5\"\n")
	b.WriteString("    PRIMER_OPT_SIZE: \"20\"\n")
	b.WriteString("    PRIMER_MIN_SIZE: \"18\"\n")
	b.WriteString("    PRIMER_MAX_SIZE: \"25\"\n")
	b.WriteString("\n")

	b.WriteString("variants:\n")
	if a.VCF != "" {
		b.WriteString(fmt.Sprintf("  vcf: %s\n", a.VCF))
	} else {
		b.WriteString("  # vcf: /path/to/common_snps.vcf.gz\n")
	}
	b.WriteString("\n")

	b.WriteString("limits:\n")
	b.WriteString("  criticalsnp: 0\n")
	b.WriteString("  mispriming: 0\n")
	b.WriteString("  snpcount: 2\n")
	b.WriteString("\n")

	b.WriteString("defaults:\n")
	b.WriteString("  workers: 4\n")
	b.WriteString("\n")

	storePath := a.StorePath
	if storePath == "" {
		storePath = "~/.zippy/zippy.db"
	}
	b.WriteString("store:\n")
	b.WriteString(fmt.Sprintf("  path: %s\n", storePath))

	return b.String()
}

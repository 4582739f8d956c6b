package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jacklau/zippy/internal/primer"
)

func TestParseBasicConfig(t *testing.T) {
	yaml := `
store:
  path: /tmp/zippy.db
genome:
  fasta: /ref/hg38.fa
  index: /ref/hg38
aligner:
  path: /opt/bowtie2/bowtie2
  max_hits: 20
  keep_sam: true
design:
  primer3: /opt/primer3/primer3_core
  flank: 150
  keep: 2
  size_min: 200
  size_max: 450
  params:
    PRIMER_OPT_SIZE: "20"
    PRIMER_NUM_RETURN: "5"
variants:
  vcf: /data/common.vcf.gz
limits:
  mispriming: 2
  criticalsnp: 0
defaults:
  workers: 8
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Path != "/tmp/zippy.db" {
		t.Errorf("expected store path '/tmp/zippy.db', got %q", cfg.Store.Path)
	}
	if cfg.Genome.Index != "/ref/hg38" {
		t.Errorf("expected genome index '/ref/hg38', got %q", cfg.Genome.Index)
	}
	if !cfg.Aligner.KeepSAM || cfg.Aligner.MaxHits != 20 {
		t.Errorf("unexpected aligner config %+v", cfg.Aligner)
	}
	if cfg.Design.Flank != 150 || cfg.Design.Keep != 2 {
		t.Errorf("unexpected design config %+v", cfg.Design)
	}
	if cfg.Design.Params["PRIMER_NUM_RETURN"] != "5" {
		t.Errorf("expected PRIMER_NUM_RETURN 5, got %q", cfg.Design.Params["PRIMER_NUM_RETURN"])
	}
	if cfg.Variants.VCF != "/data/common.vcf.gz" {
		t.Errorf("unexpected vcf %q", cfg.Variants.VCF)
	}
	if cfg.Defaults.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Defaults.Workers)
	}

	limits, err := cfg.ScoreLimits()
	if err != nil {
		t.Fatalf("ScoreLimits failed: %v", err)
	}
	if limits[primer.ScoreMispriming] != 2 || limits[primer.ScoreCriticalSNP] != 0 || len(limits) != 2 {
		t.Errorf("unexpected limits %v", limits)
	}

	params := cfg.Design.DesignParams()
	if params["PRIMER_PRODUCT_SIZE_RANGE"] != "200-450" {
		t.Errorf("expected size range 200-450, got %q", params["PRIMER_PRODUCT_SIZE_RANGE"])
	}
	if _, ok := cfg.Design.Params["PRIMER_PRODUCT_SIZE_RANGE"]; ok {
		t.Error("DesignParams must not modify the configured params")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.Store.Path != filepath.Join(home, ".zippy/zippy.db") {
		t.Errorf("unexpected default store path %q", cfg.Store.Path)
	}
	if cfg.Aligner.Path != "bowtie2" || cfg.Aligner.MaxHits != 50 {
		t.Errorf("unexpected aligner defaults %+v", cfg.Aligner)
	}
	if cfg.Design.Primer3 != "primer3_core" || cfg.Design.Flank != 200 || cfg.Design.Keep != 1 {
		t.Errorf("unexpected design defaults %+v", cfg.Design)
	}
	if cfg.Design.SizeMin != 150 || cfg.Design.SizeMax != 600 {
		t.Errorf("unexpected size defaults %d-%d", cfg.Design.SizeMin, cfg.Design.SizeMax)
	}
	if cfg.Defaults.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Defaults.Workers)
	}

	if d := Default(); d.Design.Flank != 200 {
		t.Errorf("Default() should apply defaults, got flank %d", d.Design.Flank)
	}
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("ZIPPY_TEST_GENOME", "/mnt/ref/genome.fa")

	cfg, err := Parse([]byte("genome:\n  fasta: ${ZIPPY_TEST_GENOME}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Genome.Fasta != "/mnt/ref/genome.fa" {
		t.Errorf("expected expanded path, got %q", cfg.Genome.Fasta)
	}
}

func TestEnvVarMissing(t *testing.T) {
	_, err := Parse([]byte("genome:\n  fasta: ${ZIPPY_TEST_DEFINITELY_UNSET}\n"))
	if err == nil {
		t.Fatal("expected error for missing env var, got nil")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown limit", "limits:\n  tm: 3\n"},
		{"negative limit", "limits:\n  snpcount: -1\n"},
		{"negative flank", "design:\n  flank: -5\n"},
		{"inverted size range", "design:\n  size_min: 500\n  size_max: 100\n"},
		{"negative workers", "defaults:\n  workers: -2\n"},
		{"bad yaml", "design: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde prefix", "~/.zippy/zippy.db", home + "/.zippy/zippy.db"},
		{"tilde only", "~", home},
		{"absolute path unchanged", "/tmp/zippy.db", "/tmp/zippy.db"},
		{"relative path unchanged", "data/zippy.db", "data/zippy.db"},
		{"tilde in middle unchanged", "/some/~/path", "/some/~/path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := expandTilde(tc.input); got != tc.expected {
				t.Errorf("expandTilde(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  workers: 2\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Defaults.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Defaults.Workers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

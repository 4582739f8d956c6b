package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jacklau/zippy/internal/config"
)

func TestBuildConfigYAMLDefaults(t *testing.T) {
	result := buildConfigYAML(setupAnswers{})

	if !strings.Contains(result, "# fasta: /path/to/genome.fa") {
		t.Error("expected commented genome fasta placeholder")
	}
	if !strings.Contains(result, "path: ~/.zippy/zippy.db") {
		t.Error("expected default store path")
	}

	cfg, err := config.Parse([]byte(result))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if cfg.Genome.Fasta != "" || cfg.Variants.VCF != "" {
		t.Errorf("skipped answers should stay empty, got %+v", cfg.Genome)
	}
	if _, err := cfg.ScoreLimits(); err != nil {
		t.Errorf("generated limits are invalid: %v", err)
	}
}

func TestBuildConfigYAMLWithAnswers(t *testing.T) {
	result := buildConfigYAML(setupAnswers{
		Fasta:     "/ref/hg38.fa",
		Index:     "/ref/hg38",
		VCF:       "/ref/common.vcf.gz",
		StorePath: "/data/primers.db",
	})

	cfg, err := config.Parse([]byte(result))
	if err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
	if cfg.Genome.Fasta != "/ref/hg38.fa" || cfg.Genome.Index != "/ref/hg38" {
		t.Errorf("unexpected genome config %+v", cfg.Genome)
	}
	if cfg.Variants.VCF != "/ref/common.vcf.gz" {
		t.Errorf("unexpected vcf %q", cfg.Variants.VCF)
	}
	if cfg.Store.Path != "/data/primers.db" {
		t.Errorf("unexpected store path %q", cfg.Store.Path)
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "conf", "config.yaml")
	dbPath := filepath.Join(dir, "db", "zippy.db")

	rootCmd.SetIn(strings.NewReader("\n\n\n" + dbPath + "\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "--config", cfgPath, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Database initialized at "+dbPath) {
		t.Errorf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Store.Path != dbPath {
		t.Errorf("expected store path %q, got %q", dbPath, cfg.Store.Path)
	}

	// Declining the overwrite prompt leaves the file alone.
	before, _ := os.ReadFile(cfgPath)
	rootCmd.SetIn(bytes.NewBufferString("n\n"))
	out, err = execute(t, "--config", cfgPath, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Aborted.") {
		t.Errorf("expected abort, got:\n%s", out)
	}
	after, _ := os.ReadFile(cfgPath)
	if !bytes.Equal(before, after) {
		t.Error("config changed after declining overwrite")
	}
}

// Package config loads the zippy YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacklau/zippy/internal/primer"
)

// Config is the top-level configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Genome   GenomeConfig   `yaml:"genome"`
	Aligner  AlignerConfig  `yaml:"aligner"`
	Design   DesignConfig   `yaml:"design"`
	Variants VariantsConfig `yaml:"variants"`
	Limits   map[string]int `yaml:"limits"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// StoreConfig holds storage settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// GenomeConfig locates the reference. Fasta must be indexed (.fai);
// Index is the aligner's index prefix.
type GenomeConfig struct {
	Fasta string `yaml:"fasta"`
	Index string `yaml:"index"`
}

// AlignerConfig holds aligner settings.
type AlignerConfig struct {
	Path    string `yaml:"path"`
	MaxHits int    `yaml:"max_hits"`
	KeepSAM bool   `yaml:"keep_sam"`
}

// DesignConfig holds design engine settings.
type DesignConfig struct {
	Primer3 string            `yaml:"primer3"`
	Flank   int               `yaml:"flank"`
	Keep    int               `yaml:"keep"`
	SizeMin int               `yaml:"size_min"`
	SizeMax int               `yaml:"size_max"`
	Params  map[string]string `yaml:"params"`
}

// VariantsConfig points at known variants.
type VariantsConfig struct {
	VCF string `yaml:"vcf"`
}

// DefaultsConfig holds default operational parameters.
type DefaultsConfig struct {
	Workers int `yaml:"workers"`
}

// ScoreLimits converts the configured limits to score kinds.
func (c *Config) ScoreLimits() (primer.Limits, error) {
	limits := make(primer.Limits, len(c.Limits))
	for name, v := range c.Limits {
		k, err := primer.ParseScoreKind(name)
		if err != nil {
			return nil, err
		}
		limits[k] = v
	}
	return limits, nil
}

// DesignParams returns the design engine parameters with the product size
// range filled in from size_min and size_max unless set explicitly.
func (d DesignConfig) DesignParams() map[string]string {
	params := make(map[string]string, len(d.Params)+1)
	for k, v := range d.Params {
		params[k] = v
	}
	if _, ok := params["PRIMER_PRODUCT_SIZE_RANGE"]; !ok {
		params["PRIMER_PRODUCT_SIZE_RANGE"] = fmt.Sprintf("%d-%d", d.SizeMin, d.SizeMax)
	}
	return params
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.zippy/zippy.db"
	}
	if cfg.Aligner.Path == "" {
		cfg.Aligner.Path = "bowtie2"
	}
	if cfg.Aligner.MaxHits == 0 {
		cfg.Aligner.MaxHits = 50
	}
	if cfg.Design.Primer3 == "" {
		cfg.Design.Primer3 = "primer3_core"
	}
	if cfg.Design.Flank == 0 {
		cfg.Design.Flank = 200
	}
	if cfg.Design.Keep == 0 {
		cfg.Design.Keep = 1
	}
	if cfg.Design.SizeMax == 0 {
		cfg.Design.SizeMax = 600
	}
	if cfg.Design.SizeMin == 0 {
		cfg.Design.SizeMin = 150
	}
	if cfg.Defaults.Workers == 0 {
		cfg.Defaults.Workers = 4
	}
	cfg.Store.Path = expandTilde(cfg.Store.Path)
	cfg.Genome.Fasta = expandTilde(cfg.Genome.Fasta)
	cfg.Genome.Index = expandTilde(cfg.Genome.Index)
	cfg.Variants.VCF = expandTilde(cfg.Variants.VCF)
}

func validate(cfg *Config) error {
	if cfg.Design.Flank < 0 {
		return fmt.Errorf("design.flank must be positive, got %d", cfg.Design.Flank)
	}
	if cfg.Design.SizeMin < 0 || cfg.Design.SizeMin > cfg.Design.SizeMax {
		return fmt.Errorf("design size range %d-%d is invalid", cfg.Design.SizeMin, cfg.Design.SizeMax)
	}
	if cfg.Design.Keep < 0 {
		return fmt.Errorf("design.keep must be positive, got %d", cfg.Design.Keep)
	}
	if cfg.Defaults.Workers < 1 {
		return fmt.Errorf("defaults.workers must be at least 1, got %d", cfg.Defaults.Workers)
	}
	if cfg.Aligner.MaxHits < 1 {
		return fmt.Errorf("aligner.max_hits must be at least 1, got %d", cfg.Aligner.MaxHits)
	}

	for name, v := range cfg.Limits {
		if _, err := primer.ParseScoreKind(name); err != nil {
			return fmt.Errorf("limits: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("limits.%s must not be negative, got %d", name, v)
		}
	}

	return nil
}

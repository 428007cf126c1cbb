package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Analysis   Analysis   `yaml:"analysis"`
	Validation Validation `yaml:"validation"`
	Input      Input      `yaml:"input"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

type Analysis struct {
	MinSupport            int     `yaml:"min_support"`
	ImpactThreshold       float64 `yaml:"impact_threshold"`
	MinCategoryConfidence float64 `yaml:"min_category_confidence"`
	MaxEntities           int     `yaml:"max_entities"`
	ClusterThreshold      float64 `yaml:"cluster_threshold"`
}

type Validation struct {
	MinLength     int     `yaml:"min_length"`
	MaxLength     int     `yaml:"max_length"`
	MinAlnumRatio float64 `yaml:"min_alnum_ratio"`
}

type Input struct {
	Feeds           []Feed `yaml:"feeds"`
	MaxPerFeed      int    `yaml:"max_per_feed"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Output struct {
	DataDir   string   `yaml:"data_dir"`
	ReportDir string   `yaml:"report_dir"`
	Formats   []string `yaml:"formats"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for feedbacklens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "feedbacklens")
}

// DataDir returns the XDG data directory for feedbacklens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "feedbacklens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/feedbacklens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedbacklens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Analysis: Analysis{
			MinSupport:            3,
			ImpactThreshold:       0.3,
			MinCategoryConfidence: 0.3,
			MaxEntities:           50,
			ClusterThreshold:      1.0,
		},
		Validation: Validation{
			MinLength:     10,
			MaxLength:     1_000_000,
			MinAlnumRatio: 0.1,
		},
		Input: Input{
			MaxPerFeed:      50,
			FetchTimeoutSec: 15,
		},
		Output: Output{
			Formats: []string{"json", "html"},
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.MinSupport < 1 {
		return fmt.Errorf("analysis.min_support must be at least 1, got %d", c.Analysis.MinSupport)
	}
	if c.Analysis.MinCategoryConfidence < 0 || c.Analysis.MinCategoryConfidence > 1 {
		return fmt.Errorf("analysis.min_category_confidence must be in [0,1], got %v", c.Analysis.MinCategoryConfidence)
	}
	if c.Analysis.ClusterThreshold <= 0 {
		return fmt.Errorf("analysis.cluster_threshold must be positive, got %v", c.Analysis.ClusterThreshold)
	}
	if c.Validation.MinLength > c.Validation.MaxLength {
		return fmt.Errorf("validation.min_length %d exceeds max_length %d", c.Validation.MinLength, c.Validation.MaxLength)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetReportDir returns where report files are written.
func (c *Config) GetReportDir() string {
	if c.Output.ReportDir != "" {
		return c.Output.ReportDir
	}
	return filepath.Join(c.GetDataDir(), "reports")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

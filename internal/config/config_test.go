package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Input.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}

	if cfg.Analysis.MinSupport != 3 {
		t.Errorf("expected min_support 3, got %d", cfg.Analysis.MinSupport)
	}

	if cfg.Analysis.ImpactThreshold != 0.3 {
		t.Errorf("expected impact_threshold 0.3, got %v", cfg.Analysis.ImpactThreshold)
	}

	if cfg.Validation.MaxLength != 1000000 {
		t.Errorf("expected max_length 1000000, got %d", cfg.Validation.MaxLength)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
analysis:
  min_support: 5
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Analysis.MinSupport != 5 {
		t.Errorf("expected min_support 5, got %d", cfg.Analysis.MinSupport)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Analysis.MinCategoryConfidence != 0.3 {
		t.Errorf("expected default min_category_confidence, got %v", cfg.Analysis.MinCategoryConfidence)
	}
	if len(cfg.Output.Formats) != 2 {
		t.Errorf("expected default formats, got %v", cfg.Output.Formats)
	}
}

func TestParseRejectsInvalidThresholds(t *testing.T) {
	cases := map[string]string{
		"zero support":      "analysis:\n  min_support: 0\n",
		"confidence over 1": "analysis:\n  min_category_confidence: 1.5\n",
		"inverted lengths":  "validation:\n  min_length: 100\n  max_length: 10\n",
		"negative cluster":  "analysis:\n  cluster_threshold: -1\n",
	}
	for name, data := range cases {
		if _, err := parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Input.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.GetReportDir() != filepath.Join("/custom/path", "reports") {
		t.Errorf("unexpected report dir %q", cfg.GetReportDir())
	}
}

package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Layout.MaxTextureSize != 4096 {
		t.Errorf("expected max texture size 4096, got %d", cfg.Layout.MaxTextureSize)
	}
	if cfg.Layout.TrimBorder != 1 {
		t.Errorf("expected trim border 1, got %d", cfg.Layout.TrimBorder)
	}
	if cfg.Render.Backend != "cpu" {
		t.Errorf("expected cpu backend, got %s", cfg.Render.Backend)
	}
	if !cfg.Render.SeparatePasses {
		t.Error("expected separate passes by default")
	}
	if cfg.Worker.HighlightDebounce != 16*time.Millisecond {
		t.Errorf("expected 16ms debounce, got %v", cfg.Worker.HighlightDebounce)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
layout:
  lod: 2
  max_texture_size: 2048
  surface_area_threshold: 0.001
  trim_texel_size: 0.1
  format_version: "0.0.26"

render:
  backend: gl
  separate_passes: false

worker:
  concurrency: 8
  highlight_debounce: 50ms

logging:
  level: "debug"
  log_file: "cad.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Layout.LOD != 2 {
		t.Errorf("expected lod 2, got %d", cfg.Layout.LOD)
	}
	if cfg.Layout.MaxTextureSize != 2048 {
		t.Errorf("expected max texture size 2048, got %d", cfg.Layout.MaxTextureSize)
	}
	if cfg.Layout.FormatVersion != "0.0.26" {
		t.Errorf("expected format version 0.0.26, got %s", cfg.Layout.FormatVersion)
	}
	// Unset keys keep their defaults.
	if cfg.Layout.TrimBorder != 1 {
		t.Errorf("expected default trim border, got %d", cfg.Layout.TrimBorder)
	}
	if cfg.Render.Backend != "gl" || cfg.Render.SeparatePasses {
		t.Errorf("unexpected render config %+v", cfg.Render)
	}
	if cfg.Worker.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.HighlightDebounce != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %v", cfg.Worker.HighlightDebounce)
	}
	if cfg.Logging.LogFile != "cad.log" {
		t.Errorf("expected log file 'cad.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
layout:
  lod: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
layout:
  lod: 1
  max_texture_size: 1024
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	var flags Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Register(fs)
	if err := fs.Parse([]string{"-config", configPath, "-lod", "3", "-debug", "-backend", "gl"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(&flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Layout.LOD != 3 {
		t.Errorf("expected lod 3 from flag, got %d", cfg.Layout.LOD)
	}
	if cfg.Layout.MaxTextureSize != 1024 {
		t.Errorf("expected max texture size 1024 from file, got %d", cfg.Layout.MaxTextureSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Render.Backend != "gl" {
		t.Errorf("expected gl backend, got %s", cfg.Render.Backend)
	}
}

func TestUnsetLODFlagKeepsFileValue(t *testing.T) {
	var flags Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Register(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg := Default()
	cfg.Layout.LOD = 2
	flags.apply(cfg)
	if cfg.Layout.LOD != 2 {
		t.Errorf("expected lod to stay 2, got %d", cfg.Layout.LOD)
	}
}

func TestTrimTexelSizeFor(t *testing.T) {
	c := LayoutConfig{TrimTexelSize: 0.5}
	if got := c.TrimTexelSizeFor(0); got != 0.5 {
		t.Errorf("expected 0.5 for no assets, got %v", got)
	}
	if got := c.TrimTexelSizeFor(4); got != 1 {
		t.Errorf("expected 1 for four assets, got %v", got)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Layout.LOD = 4
	cfg.Worker.HighlightDebounce = time.Second

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Layout.LOD != 4 || loaded.Worker.HighlightDebounce != time.Second {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative lod", func(c *Config) { c.Layout.LOD = -1 }},
		{"texture too large", func(c *Config) { c.Layout.MaxTextureSize = 8192 }},
		{"threshold of one", func(c *Config) { c.Layout.SurfaceAreaThreshold = 1 }},
		{"zero texel size", func(c *Config) { c.Layout.TrimTexelSize = 0 }},
		{"negative border", func(c *Config) { c.Layout.TrimBorder = -1 }},
		{"zero strip width", func(c *Config) { c.Layout.StripWidth = 0 }},
		{"bad format version", func(c *Config) { c.Layout.FormatVersion = "zero" }},
		{"unknown backend", func(c *Config) { c.Render.Backend = "vulkan" }},
		{"empty render size", func(c *Config) { c.Render.Width = 0 }},
		{"no workers", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"negative debounce", func(c *Config) { c.Worker.HighlightDebounce = -time.Second }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  backend: metal\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(&Flags{Config: configPath, LOD: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// Package config handles tessellation pipeline configuration.
package config

import (
	"time"

	"github.com/chewxy/math32"
)

// Config holds all pipeline settings.
type Config struct {
	Layout  LayoutConfig  `yaml:"layout"`
	Render  RenderConfig  `yaml:"render"`
	Worker  WorkerConfig  `yaml:"worker"`
	Logging LoggingConfig `yaml:"logging"`
}

// LayoutConfig holds the scalar inputs of a layout pass.
type LayoutConfig struct {
	LOD            int `yaml:"lod"`
	MaxTextureSize int `yaml:"max_texture_size"`
	// SurfaceAreaThreshold culls surfaces whose area is below this
	// fraction of the asset's total surface area.
	SurfaceAreaThreshold float32 `yaml:"surface_area_threshold"`
	// TrimTexelSize is the world size of one trim-mask texel for a scene
	// with a single asset.
	TrimTexelSize float32 `yaml:"trim_texel_size"`
	TrimBorder    int     `yaml:"trim_border"`
	StripWidth    float32 `yaml:"strip_width"`
	// FormatVersion overrides the version declared by asset files.
	FormatVersion string `yaml:"format_version"`
}

// RenderConfig holds evaluation backend settings.
type RenderConfig struct {
	Backend        string `yaml:"backend"` // "cpu" or "gl"
	SeparatePasses bool   `yaml:"separate_passes"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
}

// WorkerConfig holds background layout settings.
type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	HighlightDebounce time.Duration `yaml:"highlight_debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			LOD:                  0,
			MaxTextureSize:       4096,
			SurfaceAreaThreshold: 0,
			TrimTexelSize:        0.05,
			TrimBorder:           1,
			StripWidth:           1.5,
		},
		Render: RenderConfig{
			Backend:        "cpu",
			SeparatePasses: true,
			Width:          64,
			Height:         64,
		},
		Worker: WorkerConfig{
			Concurrency:       4,
			HighlightDebounce: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TrimTexelSizeFor coarsens the trim texel size as more assets share the
// scene, so total trim-mask memory stays bounded.
func (c LayoutConfig) TrimTexelSizeFor(numAssets int) float32 {
	return c.TrimTexelSize * math32.Sqrt(float32(max(numAssets, 1)))
}

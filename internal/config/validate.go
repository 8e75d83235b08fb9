package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Backends are the accepted render.backend values.
var Backends = []string{"cpu", "gl"}

// Validate checks value ranges the pipeline relies on.
func (c *Config) Validate() error {
	l := c.Layout
	switch {
	case l.LOD < 0:
		return fmt.Errorf("%w: layout.lod %d is negative", ErrInvalidConfig, l.LOD)
	case l.MaxTextureSize < 1 || l.MaxTextureSize > cadfmt.MaxTextureWidth:
		return fmt.Errorf("%w: layout.max_texture_size %d outside 1..%d", ErrInvalidConfig, l.MaxTextureSize, cadfmt.MaxTextureWidth)
	case l.SurfaceAreaThreshold < 0 || l.SurfaceAreaThreshold >= 1:
		return fmt.Errorf("%w: layout.surface_area_threshold %g outside [0,1)", ErrInvalidConfig, l.SurfaceAreaThreshold)
	case l.TrimTexelSize <= 0:
		return fmt.Errorf("%w: layout.trim_texel_size must be positive", ErrInvalidConfig)
	case l.TrimBorder < 0:
		return fmt.Errorf("%w: layout.trim_border %d is negative", ErrInvalidConfig, l.TrimBorder)
	case l.StripWidth <= 0:
		return fmt.Errorf("%w: layout.strip_width must be positive", ErrInvalidConfig)
	}
	if l.FormatVersion != "" {
		if _, err := cadfmt.ParseVersion(l.FormatVersion); err != nil {
			return fmt.Errorf("%w: layout.format_version: %v", ErrInvalidConfig, err)
		}
	}

	valid := false
	for _, b := range Backends {
		valid = valid || c.Render.Backend == b
	}
	if !valid {
		return fmt.Errorf("%w: render.backend %q (want one of %v)", ErrInvalidConfig, c.Render.Backend, Backends)
	}
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, c.Render.Width, c.Render.Height)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("%w: worker.concurrency %d", ErrInvalidConfig, c.Worker.Concurrency)
	}
	if c.Worker.HighlightDebounce < 0 {
		return fmt.Errorf("%w: worker.highlight_debounce is negative", ErrInvalidConfig)
	}
	return nil
}

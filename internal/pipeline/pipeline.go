// Package pipeline runs the evaluation passes of a layout result in their
// dependency order on a rendering backend.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/trim"
)

// Stage names one pass of the pipeline.
type Stage string

const (
	StageCurves          Stage = "curves"
	StageTrims           Stage = "trims"
	StageSurfaces        Stage = "surfaces"
	StageSurfaceNormals  Stage = "surfaceNormals"
	StageSurfaceCombined Stage = "surfacesCombined"
)

// Atlases are the read-back pass outputs. Trims is nil when the asset has
// no trim sets.
type Atlases struct {
	Curves   *eval.CurveAtlas
	Surfaces *eval.SurfaceAtlas
	Trims    *trim.Mask
}

// Backend executes individual passes. Each pass reads the outputs of the
// passes before it, so the pipeline calls Barrier between passes.
type Backend interface {
	Name() string
	EvaluateCurves(ctx context.Context, res *layout.Result) error
	RasterizeTrims(ctx context.Context, res *layout.Result) error
	EvaluateSurfaces(ctx context.Context, res *layout.Result, pass eval.Pass) error
	// Barrier blocks until every submitted pass has completed.
	Barrier() error
	// Readback copies the current outputs to host memory.
	Readback(res *layout.Result) (*Atlases, error)
}

// Options configure a pipeline.
type Options struct {
	// SeparatePasses evaluates surface positions and normals in two passes
	// instead of one pass with two outputs.
	SeparatePasses bool
}

// Pipeline orders passes on a backend.
type Pipeline struct {
	backend Backend
	opts    Options
	log     *zap.Logger
}

// New returns a pipeline over backend.
func New(backend Backend, opts Options) *Pipeline {
	return &Pipeline{backend: backend, opts: opts, log: logger.Named("pipeline")}
}

// Timing is the duration of one stage.
type Timing struct {
	Stage    Stage
	Duration time.Duration
}

// Run executes curves, then trims, then surfaces, waiting for each pass
// before the next starts, and returns the read-back atlases.
func (p *Pipeline) Run(ctx context.Context, res *layout.Result) (*Atlases, []Timing, error) {
	var timings []Timing
	step := func(stage Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := fn(); err != nil {
			return fmt.Errorf("%s pass on %s: %w", stage, p.backend.Name(), err)
		}
		if err := p.backend.Barrier(); err != nil {
			return fmt.Errorf("%s barrier on %s: %w", stage, p.backend.Name(), err)
		}
		d := time.Since(start)
		timings = append(timings, Timing{Stage: stage, Duration: d})
		p.log.Debug("pass complete", zap.String("stage", string(stage)),
			zap.String("backend", p.backend.Name()), zap.Duration("elapsed", d))
		return nil
	}

	if err := step(StageCurves, func() error { return p.backend.EvaluateCurves(ctx, res) }); err != nil {
		return nil, timings, err
	}
	if len(res.TrimSets.Cells) > 0 {
		if err := step(StageTrims, func() error { return p.backend.RasterizeTrims(ctx, res) }); err != nil {
			return nil, timings, err
		}
	}
	if p.opts.SeparatePasses {
		if err := step(StageSurfaces, func() error { return p.backend.EvaluateSurfaces(ctx, res, eval.PassPositions) }); err != nil {
			return nil, timings, err
		}
		if err := step(StageSurfaceNormals, func() error { return p.backend.EvaluateSurfaces(ctx, res, eval.PassNormals) }); err != nil {
			return nil, timings, err
		}
	} else {
		if err := step(StageSurfaceCombined, func() error { return p.backend.EvaluateSurfaces(ctx, res, eval.PassAll) }); err != nil {
			return nil, timings, err
		}
	}

	out, err := p.backend.Readback(res)
	if err != nil {
		return nil, timings, fmt.Errorf("readback on %s: %w", p.backend.Name(), err)
	}
	return out, timings, nil
}

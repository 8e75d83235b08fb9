package pipeline

import (
	"context"
	"errors"

	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/trim"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

// ErrCurvesNotEvaluated is returned when trims run before curves.
var ErrCurvesNotEvaluated = errors.New("curve atlas has not been evaluated")

// CPUBackend runs every pass on the host.
type CPUBackend struct {
	eval   *eval.Evaluator
	raster *trim.Rasterizer

	curves   *eval.CurveAtlas
	surfaces *eval.SurfaceAtlas
	trims    *trim.Mask
}

// NewCPUBackend returns a host backend for one asset.
func NewCPUBackend(libs *cadfmt.Libraries, concurrency int, stripWidth float32) *CPUBackend {
	return &CPUBackend{
		eval:   eval.NewEvaluator(libs, concurrency),
		raster: trim.NewRasterizer(stripWidth),
	}
}

func (b *CPUBackend) Name() string { return "cpu" }

func (b *CPUBackend) EvaluateCurves(ctx context.Context, res *layout.Result) error {
	a, err := b.eval.EvaluateCurves(ctx, &res.Curves)
	if err != nil {
		return err
	}
	b.curves = a
	return nil
}

func (b *CPUBackend) RasterizeTrims(ctx context.Context, res *layout.Result) error {
	if b.curves == nil {
		return ErrCurvesNotEvaluated
	}
	m, err := b.raster.Rasterize(ctx, res, b.curves)
	if err != nil {
		return err
	}
	b.trims = m
	return nil
}

// EvaluateSurfaces merges the pass into the current surface atlas so a
// normals pass keeps the positions of an earlier positions pass.
func (b *CPUBackend) EvaluateSurfaces(ctx context.Context, res *layout.Result, pass eval.Pass) error {
	a, err := b.eval.EvaluateSurfaces(ctx, &res.Surfaces, pass)
	if err != nil {
		return err
	}
	if b.surfaces == nil || pass == eval.PassAll {
		b.surfaces = a
		return nil
	}
	if a.Positions != nil {
		b.surfaces.Positions = a.Positions
	}
	if a.Normals != nil {
		b.surfaces.Normals = a.Normals
	}
	b.surfaces.Fallbacks = max(b.surfaces.Fallbacks, a.Fallbacks)
	b.surfaces.Skipped = max(b.surfaces.Skipped, a.Skipped)
	return nil
}

// Barrier is a no-op: host passes complete before they return.
func (b *CPUBackend) Barrier() error { return nil }

func (b *CPUBackend) Readback(*layout.Result) (*Atlases, error) {
	return &Atlases{Curves: b.curves, Surfaces: b.surfaces, Trims: b.trims}, nil
}

// Evaluator exposes the host evaluator for point queries.
func (b *CPUBackend) Evaluator() *eval.Evaluator {
	return b.eval
}

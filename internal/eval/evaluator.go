// Package eval fills the curve and surface atlases on the CPU.
//
// It mirrors the GPU evaluation shaders texel for texel and backs the cpu
// render backend, the sample command and the tests.
package eval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// ErrNotLaidOut is returned when sampling a primitive without a cell.
var ErrNotLaidOut = errors.New("primitive has no atlas cell")

// Pass selects the surface outputs to compute.
type Pass uint8

const (
	PassPositions Pass = 1 << iota
	PassNormals

	PassAll = PassPositions | PassNormals
)

// CurveAtlas holds evaluated curve positions and tangents.
type CurveAtlas struct {
	Positions *Image
	Tangents  *Image
	// Skipped counts curves that failed to evaluate and were left blank.
	Skipped int
}

// SurfaceAtlas holds evaluated surface positions and normals. An image is
// nil when its pass was not run.
type SurfaceAtlas struct {
	Positions *Image
	Normals   *Image
	// Fallbacks counts NURBS samples that used control-polygon tangents
	// or a zero-weight substitution.
	Fallbacks int
	// Skipped counts surfaces that failed to evaluate and were left blank.
	Skipped int
}

// Evaluator evaluates the primitives of one asset.
type Evaluator struct {
	libs        *cadfmt.Libraries
	log         *zap.Logger
	concurrency int

	mu     sync.Mutex
	curves map[int]*cadfmt.Curve
}

// NewEvaluator returns an evaluator over libs. Concurrency bounds the
// number of cells evaluated in parallel; values below 1 mean 1.
func NewEvaluator(libs *cadfmt.Libraries, concurrency int) *Evaluator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Evaluator{
		libs:        libs,
		log:         logger.Named("eval"),
		concurrency: concurrency,
		curves:      make(map[int]*cadfmt.Curve),
	}
}

// curve decodes and caches curve id.
func (e *Evaluator) curve(id int) (*cadfmt.Curve, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.curves[id]; ok {
		return c, nil
	}
	c, err := e.libs.Curves.CurveData(id)
	if err != nil {
		return nil, err
	}
	e.curves[id] = c
	return c, nil
}

// EvaluateCurves writes every laid-out curve into a fresh curve atlas.
func (e *Evaluator) EvaluateCurves(ctx context.Context, l *layout.CurveLayout) (*CurveAtlas, error) {
	out := &CurveAtlas{
		Positions: NewImage(l.Width, l.Height),
		Tangents:  NewImage(l.Width, l.Height),
	}
	var skipped atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for id, cell := range l.Cells {
		if !cell.Valid() {
			continue
		}
		detail := l.Details[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.evaluateCurve(id, cell, detail, out); err != nil {
				e.log.Warn("skipping curve", zap.Int("curve", id), zap.Error(err))
				skipped.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Skipped = int(skipped.Load())
	return out, nil
}

func (e *Evaluator) evaluateCurve(id int, cell layout.Cell, detail int, out *CurveAtlas) error {
	c, err := e.curve(id)
	if err != nil {
		return err
	}
	for x := 0; x <= detail; x++ {
		pos, tan, err := curvePoint(c, curveParam(c, CurveParam(x, detail)))
		if err != nil {
			return err
		}
		out.Positions.SetVec3(cell.X+x, cell.Y, pos)
		out.Tangents.SetVec3(cell.X+x, cell.Y, tan)
	}
	return nil
}

// EvaluateSurfaces writes every laid-out surface into a fresh surface
// atlas, category by category.
func (e *Evaluator) EvaluateSurfaces(ctx context.Context, l *layout.SurfaceLayout, pass Pass) (*SurfaceAtlas, error) {
	out := &SurfaceAtlas{}
	if pass&PassPositions != 0 {
		out.Positions = NewImage(l.Width, l.Height)
	}
	if pass&PassNormals != 0 {
		out.Normals = NewImage(l.Width, l.Height)
	}

	var fallbacks sync.Map
	var skipped atomic.Int32
	for cat, attrs := range l.EvalAttrs {
		if len(attrs) == 0 {
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)
		for _, attr := range attrs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, err := e.evaluateCell(attr, out)
				if n > 0 {
					fallbacks.Store(attr.Surface, n)
				}
				if err != nil {
					e.log.Warn("skipping surface", zap.Int("surface", attr.Surface), zap.Error(err))
					skipped.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		e.log.Debug("evaluated surface category",
			zap.Stringer("category", cadfmt.EvalCategory(cat)), zap.Int("surfaces", len(attrs)))
	}
	fallbacks.Range(func(_, v any) bool {
		out.Fallbacks += v.(int)
		return true
	})
	out.Skipped = int(skipped.Load())
	if out.Fallbacks > 0 {
		e.log.Warn("surface samples used fallback", zap.Int("samples", out.Fallbacks))
	}
	return out, nil
}

func (e *Evaluator) evaluateCell(attr layout.EvalAttr, out *SurfaceAtlas) (int, error) {
	s, err := e.libs.Surfaces.SurfaceData(attr.Surface)
	if err != nil {
		return 0, err
	}
	fallbacks := 0
	c := attr.Cell
	for y := 0; y <= attr.Detail.V; y++ {
		for x := 0; x <= attr.Detail.U; x++ {
			sample, fb, err := surfacePoint(s, CellUV(x, y, attr.Detail), e.curve)
			if err != nil {
				return fallbacks, err
			}
			if fb != 0 {
				fallbacks++
			}
			if out.Positions != nil {
				out.Positions.SetVec3(c.X+x, c.Y+y, sample.Position)
			}
			if out.Normals != nil {
				out.Normals.SetVec3(c.X+x, c.Y+y, sample.Normal)
			}
		}
	}
	return fallbacks, nil
}

// SurfacePoint evaluates surface id at normalized uv, independent of any
// layout.
func (e *Evaluator) SurfacePoint(id int, uv math.Vec2) (Sample, error) {
	s, err := e.libs.Surfaces.SurfaceData(id)
	if err != nil {
		return Sample{}, err
	}
	sample, fb, err := surfacePoint(s, uv, e.curve)
	if err != nil {
		return Sample{}, err
	}
	if fb != 0 {
		e.log.Warn("surface sample used fallback",
			zap.Int("surface", id), zap.Uint8("fallback", uint8(fb)))
	}
	return sample, nil
}

// CurvePoint evaluates curve id at normalized t.
func (e *Evaluator) CurvePoint(id int, t float32) (pos, tangent math.Vec3, err error) {
	c, err := e.curve(id)
	if err != nil {
		return math.Vec3{}, math.Vec3{}, err
	}
	return curvePoint(c, curveParam(c, t))
}

// CellSample reads back the evaluated texel (x, y) of surface id.
func (a *SurfaceAtlas) CellSample(l *layout.SurfaceLayout, id, x, y int) (Sample, error) {
	if id < 0 || id >= len(l.Cells) || !l.Cells[id].Valid() {
		return Sample{}, ErrNotLaidOut
	}
	c := l.Cells[id]
	var s Sample
	if a.Positions != nil {
		s.Position = a.Positions.At(c.X+x, c.Y+y).XYZ()
	}
	if a.Normals != nil {
		s.Normal = a.Normals.At(c.X+x, c.Y+y).XYZ()
	}
	return s, nil
}

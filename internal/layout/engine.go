// Package layout computes atlas layouts and draw sets for a CAD asset.
//
// A layout pass reads the geometry libraries once, estimates the detail of
// every curve, surface and trim set, packs their evaluation cells into
// atlases and groups the scene's body references into instanced draw sets.
// Inputs are read-only and the Result is freshly allocated, so a pass can
// run on any goroutine and hand its Result to the render thread.
package layout

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/pkg/atlas"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Defaults applied to zero-valued request fields.
const (
	DefaultMaxTextureSize = cadfmt.MaxTextureWidth
	DefaultTrimTexelSize  = 0.05
	DefaultTrimBorder     = 1
)

// BodyInstance is one placement of a library body in the scene.
type BodyInstance struct {
	BodyID int
	// Shader is the id of the material shader the body is drawn with.
	Shader int
	// Xfo is the global transform of the owning entity. The zero value
	// means identity.
	Xfo math.Xfo
	// Color tints the body's reference colors. The zero value means white.
	Color math.Vec4
}

// Transform returns the placement transform.
func (b BodyInstance) Transform() math.Xfo {
	if b.Xfo == (math.Xfo{}) {
		return math.IdentityXfo()
	}
	return b.Xfo
}

// Tint returns the placement color.
func (b BodyInstance) Tint() math.Vec4 {
	if b.Color == (math.Vec4{}) {
		return math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}
	return b.Color
}

// Request is the input of one layout pass.
type Request struct {
	Libraries *cadfmt.Libraries

	LOD            int
	MaxTextureSize int
	// ErrorTolerance overrides the tolerance derived from the bodies'
	// bounding sphere and LOD when positive.
	ErrorTolerance float32
	// SurfaceAreaThreshold culls surfaces smaller than this fraction of
	// the total surface area.
	SurfaceAreaThreshold float32
	TrimTexelSize        float32
	TrimBorder           int

	// Bodies are the scene placements. Nil places every library body
	// once with shader 0.
	Bodies      []BodyInstance
	Highlighted []int
}

// Cell is the atlas placement of one primitive.
type Cell struct {
	atlas.Rect
	// DataX, DataY address the primitive's record in the data raster.
	DataX, DataY int
}

// Valid reports whether the primitive was laid out.
func (c Cell) Valid() bool {
	return c.W > 0
}

// CurveLayout is the curve atlas.
type CurveLayout struct {
	AtlasLayout
	// Cells and Details are indexed by curve id.
	Cells   []Cell
	Details []int
}

// EvalAttr is the per-instance input of a surface evaluation draw.
type EvalAttr struct {
	Surface int
	Cell    Cell
	Detail  SurfaceDetail
}

// SurfaceLayout is the surface atlas.
type SurfaceLayout struct {
	AtlasLayout
	// Cells, Details and TrimSets are indexed by surface id.
	Cells    []Cell
	Details  []SurfaceDetail
	TrimSets []int
	// EvalAttrs groups the laid-out surfaces by evaluation category.
	EvalAttrs [cadfmt.NumCategories][]EvalAttr
}

// TrimLayout is the trim-mask atlas.
type TrimLayout struct {
	AtlasLayout
	// Cells is indexed by trim-set id and includes the border.
	Cells  []Cell
	Border int
	// CurveDrawSets groups every trim-loop curve by its detail.
	CurveDrawSets map[int]*TrimCurveDrawSet
}

// Interior returns the cell of trim set id without its border.
func (l *TrimLayout) Interior(id int) atlas.Rect {
	c := l.Cells[id]
	return atlas.Rect{X: c.X + l.Border, Y: c.Y + l.Border, W: c.W - 2*l.Border, H: c.H - 2*l.Border}
}

// RecordError is a record that was skipped.
type RecordError struct {
	Library string
	ID      int
	Err     error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Library, e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Result is the output of one layout pass.
type Result struct {
	NumCurves, NumSurfaces int
	ErrorTolerance         float32

	Curves   CurveLayout
	Surfaces SurfaceLayout
	TrimSets TrimLayout

	SurfaceDrawSets DrawSets
	CurveDrawSets   DrawSets

	// Bodies echoes the request placements; draw instance Body fields
	// index it.
	Bodies      []BodyInstance
	highlighted map[int]bool

	Errors []RecordError
	Stats  Stats
}

// Engine runs layout passes.
type Engine struct {
	log *zap.Logger
}

// NewEngine returns an engine logging through the global logger.
func NewEngine() *Engine {
	return &Engine{log: logger.Named("layout")}
}

// NewEngineWithLogger returns an engine with an explicit logger.
func NewEngineWithLogger(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// pass holds the working state of one Run.
type pass struct {
	req    Request
	libs   *cadfmt.Libraries
	log    *zap.Logger
	est    *DetailEstimator
	result *Result
	bodies map[int]*cadfmt.Body
}

// Run computes the layout. Malformed records are logged, recorded in
// Result.Errors and skipped; an atlas that cannot fit MaxTextureSize fails
// the pass with ErrPackOverflow.
func (e *Engine) Run(req Request) (*Result, error) {
	if req.Libraries == nil || req.Libraries.Curves == nil || req.Libraries.Surfaces == nil || req.Libraries.Bodies == nil {
		return nil, fmt.Errorf("layout: incomplete libraries")
	}
	req = withDefaults(req)
	start := time.Now()

	p := &pass{
		req:  req,
		libs: req.Libraries,
		log:  e.log,
		result: &Result{
			NumCurves:   req.Libraries.Curves.Count(),
			NumSurfaces: req.Libraries.Surfaces.Count(),
			Bodies:      req.Bodies,
			highlighted: make(map[int]bool, len(req.Highlighted)),
		},
		bodies: make(map[int]*cadfmt.Body),
	}
	for _, b := range req.Highlighted {
		p.result.highlighted[b] = true
	}
	if p.result.Bodies == nil {
		n := req.Libraries.Bodies.Count()
		p.result.Bodies = make([]BodyInstance, n)
		for i := range p.result.Bodies {
			p.result.Bodies[i] = BodyInstance{BodyID: i}
		}
	}

	tol := req.ErrorTolerance
	if tol <= 0 {
		tol = ErrorTolerance(p.sceneRadius(), req.LOD)
	}
	p.result.ErrorTolerance = tol
	p.est = NewDetailEstimator(tol, e.log)

	if err := p.layoutCurves(); err != nil {
		return nil, err
	}
	if err := p.layoutSurfaces(); err != nil {
		return nil, err
	}
	if err := p.layoutTrimSets(); err != nil {
		return nil, err
	}
	p.buildDrawSets()

	p.result.Stats.DetailClamped = p.est.Clamped()
	p.result.Stats.DetailNonFinite = p.est.NonFinite()
	p.result.Stats.Elapsed = time.Since(start)
	e.log.Debug("layout pass complete",
		zap.Int("curves", p.result.Stats.Curves.Packed),
		zap.Int("surfaces", p.result.Stats.Surfaces.Packed),
		zap.Int("trimSets", p.result.Stats.TrimSets.Packed),
		zap.Int("errors", len(p.result.Errors)),
		zap.Duration("elapsed", p.result.Stats.Elapsed))
	return p.result, nil
}

func withDefaults(req Request) Request {
	if req.MaxTextureSize <= 0 {
		req.MaxTextureSize = DefaultMaxTextureSize
	}
	if req.TrimTexelSize <= 0 {
		req.TrimTexelSize = DefaultTrimTexelSize
	}
	if req.TrimBorder < 0 {
		req.TrimBorder = 0
	} else if req.TrimBorder == 0 {
		req.TrimBorder = DefaultTrimBorder
	}
	return req
}

// skip records and logs a malformed record.
func (p *pass) skip(library string, id int, err error) {
	p.log.Warn("skipping malformed record",
		zap.String("library", library), zap.Int("id", id), zap.Error(err))
	p.result.Errors = append(p.result.Errors, RecordError{Library: library, ID: id, Err: err})
}

// body returns the decoded body, caching it for the draw-set pass.
func (p *pass) body(id int) (*cadfmt.Body, error) {
	if b, ok := p.bodies[id]; ok {
		return b, nil
	}
	b, err := p.libs.Bodies.BodyData(id)
	if err != nil {
		return nil, err
	}
	p.bodies[id] = b
	return b, nil
}

// sceneRadius returns the bounding-sphere radius of all placed bodies.
func (p *pass) sceneRadius() float32 {
	box := math.EmptyBox3()
	for _, inst := range p.result.Bodies {
		b, err := p.body(inst.BodyID)
		if err != nil || !b.BBox.Valid() {
			continue
		}
		box = box.Union(b.BBox.Transform(inst.Transform()))
	}
	if !box.Valid() || box.Radius() == 0 {
		return 1
	}
	return box.Radius()
}

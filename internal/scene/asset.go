package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/config"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/worker"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// ErrStale is returned by Relayout when a newer layout was requested
// while this one ran; its result was discarded.
var ErrStale = errors.New("layout superseded by a newer request")

// Options configure an Asset.
type Options struct {
	Layout config.LayoutConfig
	// NumAssets is the number of assets sharing the scene; it coarsens the
	// trim texel size.
	NumAssets         int
	HighlightDebounce time.Duration
}

// OptionsFrom derives asset options from the loaded config.
func OptionsFrom(cfg *config.Config, numAssets int) Options {
	return Options{
		Layout:            cfg.Layout,
		NumAssets:         numAssets,
		HighlightDebounce: cfg.Worker.HighlightDebounce,
	}
}

// Asset is a loaded CAD asset placed in a scene.
type Asset struct {
	Name string

	libs *cadfmt.Libraries
	pool *worker.Pool
	opts Options
	log  *zap.Logger
	gen  worker.Generation

	debounced func(func())

	mu          sync.Mutex
	bodies      []placed
	highlighted map[int]bool
	pendingOn   map[int]bool
	pendingOff  map[int]bool
	result      *layout.Result
	// placement maps entity index to body instance index in result, -1
	// for entities left out of it.
	placement []int
	onChange  func(keys []layout.DrawSetKey)
}

// NewAsset opens the libraries of a parsed asset. A configured format
// version overrides the one stored in the file.
func NewAsset(a *cadfmt.Asset, pool *worker.Pool, opts Options) (*Asset, error) {
	if opts.Layout.FormatVersion != "" {
		v, err := cadfmt.ParseVersion(opts.Layout.FormatVersion)
		if err != nil {
			return nil, err
		}
		copied := *a
		copied.Version = v
		a = &copied
	}
	libs, err := a.Open()
	if err != nil {
		return nil, fmt.Errorf("opening asset %s: %w", a.Name, err)
	}

	as := &Asset{
		Name:        a.Name,
		libs:        libs,
		pool:        pool,
		opts:        opts,
		log:         logger.Named("scene").With(zap.String("asset", a.Name)),
		highlighted: make(map[int]bool),
		pendingOn:   make(map[int]bool),
		pendingOff:  make(map[int]bool),
	}
	if opts.HighlightDebounce > 0 {
		as.debounced = debounce.New(opts.HighlightDebounce)
	} else {
		as.debounced = func(f func()) { f() }
	}
	return as, nil
}

// Libraries returns the opened geometry libraries.
func (a *Asset) Libraries() *cadfmt.Libraries {
	return a.libs
}

// AddBody places library body bodyID through entity e and returns the
// entity index. The placement takes effect on the next Relayout.
func (a *Asset) AddBody(e Entity, bodyID int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bodies = append(a.bodies, placed{bodyID: bodyID, entity: e})
	return len(a.bodies) - 1
}

// PlaceAllBodies places every library body once through a default body
// entity with shader 0.
func (a *Asset) PlaceAllBodies() {
	for id := 0; id < a.libs.Bodies.Count(); id++ {
		a.AddBody(NewBody(id, 0), id)
	}
}

// OnDrawSetsChanged registers a callback receiving the keys of draw sets
// whose instances changed after a highlight flush.
func (a *Asset) OnDrawSetsChanged(fn func(keys []layout.DrawSetKey)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Result returns the current layout, or nil before the first Relayout.
func (a *Asset) Result() *layout.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// request snapshots the visible entities into a layout request.
func (a *Asset) request() (layout.Request, []int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	l := a.opts.Layout
	req := layout.Request{
		Libraries:            a.libs,
		LOD:                  l.LOD,
		MaxTextureSize:       l.MaxTextureSize,
		SurfaceAreaThreshold: l.SurfaceAreaThreshold,
		TrimTexelSize:        l.TrimTexelSizeFor(a.opts.NumAssets),
		TrimBorder:           l.TrimBorder,
		Bodies:               []layout.BodyInstance{},
	}
	placement := make([]int, len(a.bodies))
	for i, p := range a.bodies {
		placement[i] = -1
		if !p.entity.Visible() {
			continue
		}
		placement[i] = len(req.Bodies)
		if a.highlighted[i] {
			req.Highlighted = append(req.Highlighted, placement[i])
		}
		mat := p.entity.Material()
		req.Bodies = append(req.Bodies, layout.BodyInstance{
			BodyID: p.bodyID,
			Shader: mat.Shader,
			Xfo:    p.entity.Transform(),
			Color:  mat.Color,
		})
	}
	return req, placement
}

// Bounds returns the world bounding box of every body instance of the
// current layout, indexed like Result().Bodies. An entity without a valid
// BoundingBox gets its library body box moved by its transform.
func (a *Asset) Bounds() []math.Box3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return nil
	}
	boxes := make([]math.Box3, len(a.result.Bodies))
	for i := range boxes {
		boxes[i] = math.EmptyBox3()
	}
	for i, p := range a.bodies {
		if i >= len(a.placement) || a.placement[i] < 0 {
			continue
		}
		box := p.entity.BoundingBox()
		if !box.Valid() {
			if b, err := a.libs.Bodies.BodyData(p.bodyID); err == nil {
				box = b.BBox.Transform(p.entity.Transform())
			}
		}
		boxes[a.placement[i]] = box
	}
	return boxes
}

// Relayout lays out the visible entities on the worker pool. When another
// Relayout starts before this one finishes, only the newest result is
// kept and this call returns ErrStale.
func (a *Asset) Relayout(ctx context.Context) (*layout.Result, error) {
	req, placement := a.request()
	tag := a.gen.Next()
	res, err := a.pool.Submit(ctx, req).Wait(ctx)
	if err != nil {
		return nil, err
	}
	return a.apply(tag, res, placement)
}

func (a *Asset) apply(tag uint64, res *layout.Result, placement []int) (*layout.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gen.Current(tag) {
		a.log.Debug("discarding stale layout", zap.Uint64("generation", tag))
		return nil, ErrStale
	}
	a.result = res
	a.placement = placement
	// The request carried the current highlight state.
	clear(a.pendingOn)
	clear(a.pendingOff)
	if len(res.Errors) > 0 {
		a.log.Warn("layout skipped malformed records", zap.Int("count", len(res.Errors)))
	}
	return res, nil
}

// SetHighlighted changes the highlight state of entity i. Changes are
// coalesced and applied to the current draw sets after the debounce
// interval.
func (a *Asset) SetHighlighted(i int, on bool) {
	a.mu.Lock()
	if a.highlighted[i] == on {
		a.mu.Unlock()
		return
	}
	if on {
		a.highlighted[i] = true
		a.pendingOn[i] = true
		delete(a.pendingOff, i)
	} else {
		delete(a.highlighted, i)
		a.pendingOff[i] = true
		delete(a.pendingOn, i)
	}
	a.mu.Unlock()

	a.debounced(func() { a.FlushHighlight() })
}

// FlushHighlight applies pending highlight changes now and returns the
// keys of the draw sets that changed.
func (a *Asset) FlushHighlight() []layout.DrawSetKey {
	a.mu.Lock()
	if a.result == nil || (len(a.pendingOn) == 0 && len(a.pendingOff) == 0) {
		a.mu.Unlock()
		return nil
	}
	var on, off []int
	for i := range a.pendingOn {
		if i < len(a.placement) && a.placement[i] >= 0 {
			on = append(on, a.placement[i])
		}
	}
	for i := range a.pendingOff {
		if i < len(a.placement) && a.placement[i] >= 0 {
			off = append(off, a.placement[i])
		}
	}
	clear(a.pendingOn)
	clear(a.pendingOff)
	keys := a.result.ApplyHighlight(on, off)
	fn := a.onChange
	a.mu.Unlock()

	if len(keys) > 0 && fn != nil {
		fn(keys)
	}
	return keys
}

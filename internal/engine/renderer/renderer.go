// Package renderer draws the tessellated draw sets of a layout: every draw
// set is one instanced draw of its shared grid mesh, displaced in the
// vertex shader by the evaluated surface or curve atlas and trimmed per
// fragment by the trim mask.
//
// Every call must come from the thread owning the current GL context.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/engine/gpu"
	"github.com/Faultbox/midgard-cad/internal/engine/shader"
	"github.com/Faultbox/midgard-cad/internal/engine/shaders"
	"github.com/Faultbox/midgard-cad/internal/engine/texture"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/scene"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// grid is the GL copy of one cached grid mesh.
type grid struct {
	vbo, ebo uint32
	count    int32
	lines    bool
}

// batch is one draw set ready to draw.
type batch struct {
	key       layout.DrawSetKey
	curves    bool
	grid      *grid
	vao, ivbo uint32
	instances int32
}

// Renderer draws layout results.
type Renderer struct {
	config Config
	meshes *scene.MeshCache
	log    *zap.Logger

	surfaceProg *shader.Program
	lineProg    *shader.Program

	grids   map[layout.Shape]*grid
	batches []*batch

	// LightDir is the world-space light direction. Shading is two-sided.
	LightDir math.Vec3
}

// New creates a renderer drawing grid meshes from meshes.
// Must be called after the GL context is created.
func New(cfg Config, meshes *scene.MeshCache) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		meshes:   meshes,
		log:      logger.Named("renderer"),
		grids:    make(map[layout.Shape]*grid),
		LightDir: math.Vec3{X: 0.3, Y: 0.5, Z: 1},
	}

	var err error
	r.surfaceProg, err = shader.NewProgram("mesh",
		shaders.Stage(shaders.MeshVertexShader, false),
		shaders.Stage(shaders.MeshFragmentShader, false))
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh program: %w", err)
	}
	r.lineProg, err = shader.NewProgram("line",
		shaders.Stage(shaders.LineVertexShader, false),
		shaders.Stage(shaders.LineFragmentShader, false))
	if err != nil {
		r.surfaceProg.Delete()
		return nil, fmt.Errorf("failed to create line program: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.93, 0.94, 0.96, 1.0)
	return r, nil
}

// Close releases every GL object.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.clearBatches()
	for shape, g := range r.grids {
		gl.DeleteBuffers(1, &g.vbo)
		gl.DeleteBuffers(1, &g.ebo)
		delete(r.grids, shape)
	}
	r.surfaceProg.Delete()
	r.lineProg.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the viewport size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.config.Width, r.config.Height
}

// ReadPixels reads the default framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() []byte {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// SetResult rebuilds the instance buffers of every draw set of res. libs
// supplies the body records the draw instances reference.
func (r *Renderer) SetResult(libs *cadfmt.Libraries, res *layout.Result) {
	r.clearBatches()
	refs := newBodyRefs(libs, res)
	for _, key := range res.SurfaceDrawSets.Keys() {
		set := res.SurfaceDrawSets[key]
		r.addBatch(key, false, surfaceInstances(res, set, refs.placement))
	}
	for _, key := range res.CurveDrawSets.Keys() {
		set := res.CurveDrawSets[key]
		r.addBatch(key, true, curveInstances(res, set, refs.placement))
	}
	hits, misses := r.meshes.Stats()
	r.log.Debug("draw sets uploaded",
		zap.Int("batches", len(r.batches)),
		zap.Int("meshes", r.meshes.Len()),
		zap.Int("meshHits", hits),
		zap.Int("meshMisses", misses))
}

func (r *Renderer) addBatch(key layout.DrawSetKey, curves bool, inst []float32) {
	if len(inst) == 0 {
		return
	}
	b := &batch{
		key:       key,
		curves:    curves,
		grid:      r.grid(key.Shape),
		instances: int32(len(inst) / instanceStride),
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.grid.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 8, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.grid.ebo)

	gl.GenBuffers(1, &b.ivbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.ivbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(inst)*4, gl.Ptr(inst), gl.STATIC_DRAW)
	offset := 0
	for i, size := range instanceAttribs {
		loc := uint32(i + 1)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, int32(size), gl.FLOAT, false, instanceStride*4, uintptr(offset*4))
		gl.VertexAttribDivisor(loc, 1)
		offset += size
	}

	gl.BindVertexArray(0)
	r.batches = append(r.batches, b)
}

// grid returns the GL buffers of shape, uploading the cached mesh once.
func (r *Renderer) grid(shape layout.Shape) *grid {
	if g, ok := r.grids[shape]; ok {
		return g
	}
	m := r.meshes.Get(shape)
	g := &grid{count: int32(len(m.Indices)), lines: m.Lines()}

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*4, gl.Ptr(m.Vertices), gl.STATIC_DRAW)
	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	r.grids[shape] = g
	return g
}

func (r *Renderer) clearBatches() {
	for _, b := range r.batches {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.ivbo)
	}
	r.batches = r.batches[:0]
}

// Draw renders every batch from the given camera matrices, sampling the
// atlases in targets.
func (r *Renderer) Draw(view, proj math.Mat4, targets gpu.Targets) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	viewProj := proj.Mul(view)

	r.surfaceProg.Use()
	r.surfaceProg.SetMat4("uViewProj", viewProj)
	r.surfaceProg.SetVec3("uLightDir", r.LightDir)
	r.surfaceProg.SetInt("uPositions", 0)
	r.surfaceProg.SetInt("uNormals", 1)
	r.surfaceProg.SetInt("uTrimMask", 2)
	texture.BindID(0, targets.SurfacePositions)
	texture.BindID(1, targets.SurfaceNormals)
	texture.BindID(2, targets.TrimMask)
	for _, b := range r.batches {
		if b.curves {
			continue
		}
		r.surfaceProg.SetVec3("uColor", drawColor(b.key, false))
		r.surfaceProg.SetBool("uHighlighted", b.key.Highlighted)
		gl.BindVertexArray(b.vao)
		gl.DrawElementsInstanced(gl.TRIANGLES, b.grid.count, gl.UNSIGNED_INT, nil, b.instances)
	}

	r.lineProg.Use()
	r.lineProg.SetMat4("uViewProj", viewProj)
	r.lineProg.SetInt("uPositions", 0)
	texture.BindID(0, targets.CurvePositions)
	for _, b := range r.batches {
		if !b.curves {
			continue
		}
		r.lineProg.SetVec3("uColor", drawColor(b.key, true))
		gl.BindVertexArray(b.vao)
		gl.DrawElementsInstanced(gl.LINE_STRIP, b.grid.count, gl.UNSIGNED_INT, nil, b.instances)
	}
	gl.BindVertexArray(0)
}

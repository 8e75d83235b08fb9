// Package gpu evaluates layout results with OpenGL: curve and surface
// atlases are rendered as one instanced quad per cell into float render
// targets, and trim masks are rasterized with a counting fan pass followed
// by boundary strips.
//
// Every call must come from the thread owning the current GL context.
package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-cad/internal/engine/shader"
	"github.com/Faultbox/midgard-cad/internal/engine/shaders"
	"github.com/Faultbox/midgard-cad/internal/engine/texture"
	"github.com/Faultbox/midgard-cad/internal/eval"
	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/pipeline"
	"github.com/Faultbox/midgard-cad/internal/trim"
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

var (
	// ErrGL wraps a GL error raised while a pass ran.
	ErrGL = errors.New("gl error")
	// ErrCurvesNotEvaluated is returned when trims or compound surfaces
	// run before curves.
	ErrCurvesNotEvaluated = pipeline.ErrCurvesNotEvaluated
)

// Texture units.
const (
	unitSurfaces = iota
	unitCurves
	unitCurvePositions
	unitCounts
)

// Backend implements pipeline.Backend on the current GL context.
type Backend struct {
	libs       *cadfmt.Libraries
	stripWidth float32
	knotDeltas bool
	log        *zap.Logger

	curveData   *texture.Data
	surfaceData *texture.Data

	curveProg   *shader.Program
	surfProgs   [cadfmt.NumCategories]*shader.Program
	fanProg     *shader.Program
	flattenProg *shader.Program
	stripProg   *shader.Program

	cellVAO, cellVBO uint32
	segVAO, segVBO   uint32
	quadVAO          uint32

	curves   *framebuffer.Framebuffer
	surfaces *framebuffer.Framebuffer
	counts   *framebuffer.Framebuffer
	mask     *framebuffer.Framebuffer

	curvesDone bool
	trimsDone  bool
	surfPasses eval.Pass
}

// New uploads the asset's data rasters and compiles the evaluation
// programs.
func New(libs *cadfmt.Libraries, stripWidth float32) (*Backend, error) {
	if stripWidth <= 0 {
		stripWidth = trim.DefaultStripWidth
	}
	b := &Backend{
		libs:       libs,
		stripWidth: stripWidth,
		knotDeltas: libs.Curves.Decoders().KnotDeltas,
		log:        logger.Named("gpu"),
	}
	if err := b.init(); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

func (b *Backend) init() error {
	var err error
	if b.curveData, err = texture.NewData(b.libs.Curves.TextureWidth(), b.libs.Curves.Raster()); err != nil {
		return fmt.Errorf("curve raster: %w", err)
	}
	if b.surfaceData, err = texture.NewData(b.libs.Surfaces.TextureWidth(), b.libs.Surfaces.Raster()); err != nil {
		return fmt.Errorf("surface raster: %w", err)
	}

	cellVS := shaders.Stage(shaders.CellVertexShader, false)
	if b.curveProg, err = shader.NewProgram("curve", cellVS, shaders.Stage(shaders.CurveFragmentShader, true)); err != nil {
		return err
	}
	surfaceFS := [cadfmt.NumCategories]string{
		cadfmt.CategorySimple:   shaders.SurfaceSimpleFragmentShader,
		cadfmt.CategoryCompound: shaders.SurfaceCompoundFragmentShader,
		cadfmt.CategoryNurbs:    shaders.SurfaceNurbsFragmentShader,
	}
	for cat, fs := range surfaceFS {
		name := "surface." + cadfmt.EvalCategory(cat).String()
		if b.surfProgs[cat], err = shader.NewProgram(name, cellVS, shaders.Stage(fs, true)); err != nil {
			return err
		}
	}
	trimVS := shaders.Stage(shaders.TrimVertexShader, false)
	if b.fanProg, err = shader.NewProgram("trim.fan", trimVS, shaders.Stage(shaders.TrimFanFragmentShader, false)); err != nil {
		return err
	}
	if b.stripProg, err = shader.NewProgram("trim.strip", trimVS, shaders.Stage(shaders.TrimStripFragmentShader, false)); err != nil {
		return err
	}
	quadVS := shaders.Stage(shaders.QuadVertexShader, false)
	if b.flattenProg, err = shader.NewProgram("trim.flatten", quadVS, shaders.Stage(shaders.TrimFlattenFragmentShader, false)); err != nil {
		return err
	}

	b.cellVAO, b.cellVBO = newInstanceVAO([]int{4, 2, 3, 2})
	b.segVAO, b.segVBO = newInstanceVAO([]int{4, 4, 4, 4, 4})
	gl.GenVertexArrays(1, &b.quadVAO)

	if b.curves, err = framebuffer.New(1, 1, framebuffer.RGBA32F, framebuffer.RGBA32F); err != nil {
		return err
	}
	if b.surfaces, err = framebuffer.New(1, 1, framebuffer.RGBA32F, framebuffer.RGBA32F); err != nil {
		return err
	}
	if b.counts, err = framebuffer.New(1, 1, framebuffer.R8); err != nil {
		return err
	}
	if b.mask, err = framebuffer.New(1, 1, framebuffer.R16F); err != nil {
		return err
	}

	b.log.Info("gpu backend ready",
		zap.Int("curveRaster", b.libs.Curves.TextureWidth()),
		zap.Int("surfaceRaster", b.libs.Surfaces.TextureWidth()),
		zap.Bool("knotDeltas", b.knotDeltas))
	return checkGL("init")
}

// newInstanceVAO creates a VAO whose attributes 0..n-1 are per-instance
// float vectors of the given sizes, interleaved in one buffer.
func newInstanceVAO(sizes []int) (vao, vbo uint32) {
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)

	stride := 0
	for _, s := range sizes {
		stride += s
	}
	offset := 0
	for i, s := range sizes {
		loc := uint32(i)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, int32(s), gl.FLOAT, false, int32(stride*4), uintptr(offset*4))
		gl.VertexAttribDivisor(loc, 1)
		offset += s
	}
	gl.BindVertexArray(0)
	return vao, vbo
}

func upload(vbo uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STREAM_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STREAM_DRAW)
}

func (b *Backend) Name() string { return "gl" }

// EvaluateCurves renders curve positions and tangents into the curve
// atlas.
func (b *Backend) EvaluateCurves(ctx context.Context, res *layout.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := &res.Curves
	b.curves.Resize(int32(l.Width), int32(l.Height))
	b.curves.Bind()
	b.curves.Clear()

	inst := curveInstances(l)
	if n := len(inst) / cellStride; n > 0 {
		b.curveProg.Use()
		b.curveData.Bind(unitCurves)
		b.curveProg.SetInt("uCurves", unitCurves)
		b.curveProg.SetBool("uKnotDeltas", b.knotDeltas)
		b.curveProg.SetVec2("uAtlasSize", float32(l.Width), float32(l.Height))
		b.drawCells(inst, n)
	}
	b.curves.Unbind()
	b.curvesDone = true
	b.trimsDone = false
	b.surfPasses = 0
	return checkGL("curves")
}

// RasterizeTrims renders the trim mask atlas from the evaluated curves.
func (b *Backend) RasterizeTrims(ctx context.Context, res *layout.Result) error {
	if !b.curvesDone {
		return ErrCurvesNotEvaluated
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tl := &res.TrimSets
	w, h := int32(tl.Width), int32(tl.Height)
	b.counts.Resize(w, h)
	b.mask.Resize(w, h)

	inst := trimInstances(res)
	n := int32(len(inst) / segmentStride)
	upload(b.segVBO, inst)
	size := [2]float32{float32(tl.Width), float32(tl.Height)}

	// Stage one: count fan coverage per texel.
	b.counts.Bind()
	b.counts.Clear()
	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.ONE, gl.ONE)
	if n > 0 {
		b.fanProg.Use()
		b.bindSegmentInputs(b.fanProg, size, false)
		gl.BindVertexArray(b.segVAO)
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, 3, n)
	}

	// Stage two: flatten parity, then add and min the boundary strips.
	b.mask.Bind()
	b.mask.Clear()
	gl.Disable(gl.BLEND)
	b.flattenProg.Use()
	texture.BindID(unitCounts, b.counts.ColorTexture(0))
	b.flattenProg.SetInt("uCounts", unitCounts)
	gl.BindVertexArray(b.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

	if n > 0 {
		gl.Enable(gl.BLEND)
		b.stripProg.Use()
		b.bindSegmentInputs(b.stripProg, size, true)
		gl.BindVertexArray(b.segVAO)
		gl.BlendEquation(gl.FUNC_ADD)
		gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, n)
		gl.BlendEquation(gl.MIN)
		gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, n)
	}

	gl.BlendEquation(gl.FUNC_ADD)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
	b.mask.Unbind()
	b.trimsDone = true
	b.log.Debug("rasterized trim sets", zap.Int32("segments", n))
	return checkGL("trims")
}

func (b *Backend) bindSegmentInputs(p *shader.Program, size [2]float32, strip bool) {
	texture.BindID(unitCurvePositions, b.curves.ColorTexture(0))
	p.SetInt("uCurvePositions", unitCurvePositions)
	p.SetVec2("uAtlasSize", size[0], size[1])
	p.SetBool("uStrip", strip)
	p.SetFloat("uStripWidth", b.stripWidth)
}

// EvaluateSurfaces renders the requested surface outputs, one draw per
// evaluation category. Positions go to attachment 0 and normals to
// attachment 1; a separate pass routes its single output accordingly.
func (b *Backend) EvaluateSurfaces(ctx context.Context, res *layout.Result, pass eval.Pass) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := &res.Surfaces
	if b.surfaces.Resize(int32(l.Width), int32(l.Height)) {
		b.surfPasses = 0
	}

	var attachments []int
	var mode int32
	switch pass {
	case eval.PassPositions:
		attachments, mode = []int{0}, 1
	case eval.PassNormals:
		attachments, mode = []int{1}, 2
	default:
		attachments, mode = []int{0, 1}, 3
	}
	b.surfaces.Bind(attachments...)
	b.surfaces.Clear()

	for cat := cadfmt.EvalCategory(0); cat < cadfmt.NumCategories; cat++ {
		if len(l.EvalAttrs[cat]) == 0 {
			continue
		}
		if cat == cadfmt.CategoryCompound && !b.curvesDone {
			return ErrCurvesNotEvaluated
		}
		inst, err := surfaceInstances(l, cat, b.sweptCurveAddress)
		if err != nil {
			return err
		}
		p := b.surfProgs[cat]
		p.Use()
		b.surfaceData.Bind(unitSurfaces)
		b.curveData.Bind(unitCurves)
		p.SetInt("uSurfaces", unitSurfaces)
		p.SetInt("uCurves", unitCurves)
		p.SetBool("uKnotDeltas", b.knotDeltas)
		p.SetInt("uPass", mode)
		p.SetVec2("uAtlasSize", float32(l.Width), float32(l.Height))
		b.drawCells(inst, len(inst)/cellStride)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	b.surfaces.Unbind()
	b.surfPasses |= pass
	return checkGL("surfaces")
}

func (b *Backend) sweptCurveAddress(surfaceID int) (int, int, error) {
	s, err := b.libs.Surfaces.SurfaceData(surfaceID)
	if err != nil {
		return 0, 0, err
	}
	return b.libs.Curves.TexelAddress(s.CurveID)
}

func (b *Backend) drawCells(inst []float32, n int) {
	upload(b.cellVBO, inst)
	gl.BindVertexArray(b.cellVAO)
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, int32(n))
	gl.BindVertexArray(0)
}

// Barrier waits for the GPU to finish the submitted passes.
func (b *Backend) Barrier() error {
	gl.Finish()
	return checkGL("barrier")
}

// Targets are the GL textures holding the evaluated atlases. They stay
// valid until the next pass resizes them or Destroy.
type Targets struct {
	CurvePositions   uint32
	SurfacePositions uint32
	SurfaceNormals   uint32
	// TrimMask is the flattened R16F trim mask.
	TrimMask uint32
}

// Targets returns the render target textures.
func (b *Backend) Targets() Targets {
	return Targets{
		CurvePositions:   b.curves.ColorTexture(0),
		SurfacePositions: b.surfaces.ColorTexture(0),
		SurfaceNormals:   b.surfaces.ColorTexture(1),
		TrimMask:         b.mask.ColorTexture(0),
	}
}

// Readback copies the render targets into host atlases.
func (b *Backend) Readback(res *layout.Result) (*pipeline.Atlases, error) {
	out := &pipeline.Atlases{}
	if b.curvesDone {
		out.Curves = &eval.CurveAtlas{
			Positions: readImage(b.curves, 0, res.Curves.Width, res.Curves.Height),
			Tangents:  readImage(b.curves, 1, res.Curves.Width, res.Curves.Height),
		}
	}
	if b.surfPasses != 0 {
		out.Surfaces = &eval.SurfaceAtlas{}
		if b.surfPasses&eval.PassPositions != 0 {
			out.Surfaces.Positions = readImage(b.surfaces, 0, res.Surfaces.Width, res.Surfaces.Height)
		}
		if b.surfPasses&eval.PassNormals != 0 {
			out.Surfaces.Normals = readImage(b.surfaces, 1, res.Surfaces.Width, res.Surfaces.Height)
		}
	}
	if b.trimsDone {
		m := trim.NewMask(&res.TrimSets)
		if len(m.Pix) > 0 {
			copy(m.Counts, b.counts.ReadRed(0))
			for i, v := range b.mask.ReadRedFloat(0) {
				m.Pix[i] = min(max(v, 0), 1)
			}
		}
		out.Trims = m
	}
	return out, checkGL("readback")
}

func readImage(fb *framebuffer.Framebuffer, attachment, width, height int) *eval.Image {
	img := eval.NewImage(width, height)
	if width == 0 || height == 0 {
		return img
	}
	copy(img.Pix, fb.ReadFloat(attachment))
	return img
}

// Destroy releases every GL object.
func (b *Backend) Destroy() {
	for _, d := range []*texture.Data{b.curveData, b.surfaceData} {
		if d != nil {
			d.Delete()
		}
	}
	progs := append([]*shader.Program{b.curveProg, b.fanProg, b.flattenProg, b.stripProg}, b.surfProgs[:]...)
	for _, p := range progs {
		if p != nil {
			p.Delete()
		}
	}
	for _, fb := range []*framebuffer.Framebuffer{b.curves, b.surfaces, b.counts, b.mask} {
		if fb != nil {
			fb.Destroy()
		}
	}
	for _, vao := range []*uint32{&b.cellVAO, &b.segVAO, &b.quadVAO} {
		if *vao != 0 {
			gl.DeleteVertexArrays(1, vao)
			*vao = 0
		}
	}
	for _, vbo := range []*uint32{&b.cellVBO, &b.segVBO} {
		if *vbo != 0 {
			gl.DeleteBuffers(1, vbo)
			*vbo = 0
		}
	}
}

func checkGL(stage string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: %s: 0x%x", ErrGL, stage, code)
	}
	return nil
}

var _ pipeline.Backend = (*Backend)(nil)

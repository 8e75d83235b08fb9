// Package framebuffer provides OpenGL framebuffer utilities for offscreen
// evaluation targets.
package framebuffer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Format describes one color attachment.
type Format struct {
	Internal int32
	Format   uint32
	Type     uint32
}

var (
	// RGBA32F holds evaluated positions, normals and tangents.
	RGBA32F = Format{Internal: gl.RGBA32F, Format: gl.RGBA, Type: gl.FLOAT}
	// R8 holds trim fan counters.
	R8 = Format{Internal: gl.R8, Format: gl.RED, Type: gl.UNSIGNED_BYTE}
	// R16F holds the filtered trim mask.
	R16F = Format{Internal: gl.R16F, Format: gl.RED, Type: gl.FLOAT}
)

// Framebuffer manages an offscreen render target with one or more color
// attachments and no depth buffer.
type Framebuffer struct {
	fbo      uint32
	textures []uint32
	formats  []Format
	bound    int
	width    int32
	height   int32
}

// New creates a framebuffer with one color attachment per format.
func New(width, height int32, formats ...Format) (*Framebuffer, error) {
	if len(formats) == 0 {
		formats = []Format{RGBA32F}
	}
	fb := &Framebuffer{
		width:   max(width, 1),
		height:  max(height, 1),
		formats: formats,
	}

	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	fb.textures = make([]uint32, len(fb.formats))
	gl.GenTextures(int32(len(fb.textures)), &fb.textures[0])
	for i, f := range fb.formats {
		gl.BindTexture(gl.TEXTURE_2D, fb.textures[i])
		gl.TexImage2D(gl.TEXTURE_2D, 0, f.Internal, fb.width, fb.height, 0, f.Format, f.Type, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, fb.textures[i], 0)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Bind makes this framebuffer the current render target with the given
// attachments enabled as draw buffers 0..n-1. No indices enables all.
func (fb *Framebuffer) Bind(attachments ...int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
	if len(attachments) == 0 {
		attachments = make([]int, len(fb.textures))
		for i := range attachments {
			attachments[i] = i
		}
	}
	bufs := make([]uint32, len(attachments))
	for i, a := range attachments {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(a)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	fb.bound = len(bufs)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Clear clears the draw buffers enabled by the last Bind to zero.
func (fb *Framebuffer) Clear() {
	zero := [4]float32{}
	for i := 0; i < fb.bound; i++ {
		gl.ClearBufferfv(gl.COLOR, int32(i), &zero[0])
	}
}

// ColorTexture returns the texture of attachment i.
func (fb *Framebuffer) ColorTexture(i int) uint32 {
	return fb.textures[i]
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// Resize reallocates the attachments when the dimensions changed and
// reports whether it did. Contents are undefined afterwards.
func (fb *Framebuffer) Resize(width, height int32) bool {
	width, height = max(width, 1), max(height, 1)
	if width == fb.width && height == fb.height {
		return false
	}
	fb.width = width
	fb.height = height
	for i, f := range fb.formats {
		gl.BindTexture(gl.TEXTURE_2D, fb.textures[i])
		gl.TexImage2D(gl.TEXTURE_2D, 0, f.Internal, fb.width, fb.height, 0, f.Format, f.Type, nil)
	}
	return true
}

// ReadFloat reads attachment i as RGBA float32, row 0 first.
func (fb *Framebuffer) ReadFloat(i int) []float32 {
	pixels := make([]float32, fb.width*fb.height*4)
	fb.read(i, gl.RGBA, gl.FLOAT, gl.Ptr(pixels))
	return pixels
}

// ReadRed reads the red channel of attachment i as bytes, row 0 first.
func (fb *Framebuffer) ReadRed(i int) []byte {
	pixels := make([]byte, fb.width*fb.height)
	fb.read(i, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// ReadRedFloat reads the red channel of attachment i as float32, row 0
// first.
func (fb *Framebuffer) ReadRedFloat(i int) []float32 {
	pixels := make([]float32, fb.width*fb.height)
	fb.read(i, gl.RED, gl.FLOAT, gl.Ptr(pixels))
	return pixels
}

func (fb *Framebuffer) read(i int, format, xtype uint32, dst unsafe.Pointer) {
	var prevFBO int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(i))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, fb.width, fb.height, format, xtype, dst)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFBO))
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if len(fb.textures) > 0 {
		gl.DeleteTextures(int32(len(fb.textures)), &fb.textures[0])
		fb.textures = nil
	}
}

// Package texture uploads record rasters and converts evaluated atlases to
// images.
package texture

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// halfTexelBytes is the size of one RGBA16F texel.
const halfTexelBytes = 8

// ErrRasterSize is returned when a raster does not fill its texture.
var ErrRasterSize = errors.New("raster size mismatch")

// Data is a square RGBA16F texture holding a record raster. Records are
// read with texelFetch so filtering is nearest.
type Data struct {
	ID    uint32
	Width int32
}

// CheckRaster verifies raster is width x width RGBA16F texels.
func CheckRaster(width int, raster []byte) error {
	if width < 1 {
		return fmt.Errorf("%w: width %d", ErrRasterSize, width)
	}
	if want := width * width * halfTexelBytes; len(raster) != want {
		return fmt.Errorf("%w: %d bytes for width %d, want %d", ErrRasterSize, len(raster), width, want)
	}
	return nil
}

// NewData uploads raster as a width x width RGBA16F texture.
func NewData(width int, raster []byte) (*Data, error) {
	if err := CheckRaster(width, raster); err != nil {
		return nil, err
	}
	d := &Data{Width: int32(width)}
	gl.GenTextures(1, &d.ID)
	gl.BindTexture(gl.TEXTURE_2D, d.ID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, d.Width, d.Width, 0, gl.RGBA, gl.HALF_FLOAT, gl.Ptr(raster))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return d, nil
}

// Bind binds the texture to the given unit.
func (d *Data) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, d.ID)
}

// Delete releases the texture.
func (d *Data) Delete() {
	if d.ID != 0 {
		gl.DeleteTextures(1, &d.ID)
		d.ID = 0
	}
}

// BindID binds a raw texture id to the given unit.
func BindID(unit, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, id)
}

package cadfmt

import (
	"fmt"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
)

// Bytes per texel of the RGBA16F record rasters.
const halfTexelBytes = 8

// tocStride is the size of one TOC entry: two unsigned halves (x, y).
const tocStride = 4

// rasterLibrary is the shared header + table of contents of the curve,
// surface and trim-set libraries.
type rasterLibrary struct {
	name       string
	data       []byte
	dec        Decoders
	count      int
	texWidth   int
	headerSize int
	dataOffset int

	storedArea    float32
	hasStoredArea bool
}

func openRasterLibrary(name string, data []byte, dec Decoders, withArea bool) (rasterLibrary, error) {
	lib := rasterLibrary{name: name, data: data, dec: dec}

	r := binrec.NewReader(data)
	lib.count = int(r.U32())
	lib.texWidth = int(r.U32())
	if withArea {
		lib.storedArea = r.F32()
		lib.hasStoredArea = true
	}
	if err := r.Err(); err != nil {
		return rasterLibrary{}, fmt.Errorf("%w: %s: %v", ErrTruncatedHeader, name, err)
	}
	if lib.texWidth > MaxTextureWidth {
		return rasterLibrary{}, fmt.Errorf("%w: %s width %d", ErrTextureTooLarge, name, lib.texWidth)
	}
	lib.headerSize = r.Pos()

	tocEnd := lib.headerSize + lib.count*tocStride
	if tocEnd > len(data) {
		return rasterLibrary{}, fmt.Errorf("%w: %s TOC needs %d bytes, have %d", ErrTruncatedHeader, name, tocEnd, len(data))
	}
	lib.dataOffset = alignUp(tocEnd, halfTexelBytes)

	return lib, nil
}

func alignUp(n, alignment int) int {
	return (n + alignment - 1) / alignment * alignment
}

// Count returns the number of records.
func (l *rasterLibrary) Count() int {
	return l.count
}

// TextureWidth returns the width (and height) of the record raster.
func (l *rasterLibrary) TextureWidth() int {
	return l.texWidth
}

// Decoders returns the version-resolved codecs.
func (l *rasterLibrary) Decoders() Decoders {
	return l.dec
}

// Raster returns the record raster bytes, zero-padded to a full
// TextureWidth x TextureWidth RGBA16F image, ready for texture upload.
func (l *rasterLibrary) Raster() []byte {
	size := l.texWidth * l.texWidth * halfTexelBytes
	end := min(l.dataOffset+size, len(l.data))
	raster := make([]byte, size)
	if l.dataOffset < end {
		copy(raster, l.data[l.dataOffset:end])
	}
	return raster
}

// TexelAddress returns the raster address of record id.
func (l *rasterLibrary) TexelAddress(id int) (x, y int, err error) {
	if id < 0 || id >= l.count {
		return 0, 0, fmt.Errorf("%w: %s id %d of %d", ErrInvalidRecordID, l.name, id, l.count)
	}
	r := binrec.NewReader(l.data)
	r.SetPos(l.headerSize + id*tocStride)
	x = int(r.UnsignedF16())
	y = int(r.UnsignedF16())
	return x, y, r.Err()
}

// recordReader returns a reader positioned at the start of record id.
func (l *rasterLibrary) recordReader(id int) (*binrec.Reader, error) {
	x, y, err := l.TexelAddress(id)
	if err != nil {
		return nil, err
	}
	r := binrec.NewReader(l.data)
	r.SetPos(l.dataOffset + (x+y*l.texWidth)*halfTexelBytes)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s record %d at (%d,%d): %w", l.name, id, x, y, err)
	}
	return r, nil
}

// alignTexel moves r to the next texel boundary. The raster starts on a
// texel boundary so absolute alignment is texel alignment.
func alignTexel(r *binrec.Reader) {
	r.Align(halfTexelBytes)
}

// Package binrec implements the seekable cursor over flat byte buffers that
// every CAD library decoder is built on, plus the matching writer.
package binrec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfBounds is reported when a read or seek leaves the buffer.
var ErrOutOfBounds = errors.New("read out of bounds")

// Reader is a little-endian cursor over a byte buffer. It never copies or
// mutates the buffer. The first failed access sets a sticky error; later
// reads return zero values, so decoders can read a whole record and check
// Err once.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a reader positioned at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bytes after the cursor.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// SetPos moves the cursor to an absolute byte offset.
func (r *Reader) SetPos(offset int) {
	if offset < 0 || offset > len(r.data) {
		r.fail(offset, 0)
		return
	}
	r.pos = offset
}

// Advance moves the cursor relative to its current position.
func (r *Reader) Advance(n int) {
	r.SetPos(r.pos + n)
}

// Align skips padding so the cursor is a multiple of n.
func (r *Reader) Align(n int) {
	if rem := r.pos % n; rem != 0 {
		r.Advance(n - rem)
	}
}

func (r *Reader) fail(offset, size int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %d bytes at offset %d (buffer %d bytes)", ErrOutOfBounds, size, offset, len(r.data))
	}
}

// take returns the next n bytes and advances, or nil after an error.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.fail(r.pos, n)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// U8 reads an unsigned byte.
func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32 reads a little-endian int32.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// F32 reads an IEEE 754 binary32 value.
func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// F16 reads an IEEE 754 binary16 value and widens it.
func (r *Reader) F16() float32 {
	return Float16ToFloat32(r.U16())
}

// UnsignedF16 reads a half float holding an unsigned quantity up to 4095;
// see UnsignedFromHalf.
func (r *Reader) UnsignedF16() float32 {
	return UnsignedFromHalf(r.U16())
}

// UIntFromTwoF16 reconstructs an unsigned integer stored as two consecutive
// unsigned halves a, b as a + b*scale.
func (r *Reader) UIntFromTwoF16(scale int) int {
	a := r.UnsignedF16()
	b := r.UnsignedF16()
	return int(a) + int(b)*scale
}

// IntFromTwoF16 reconstructs a signed integer stored as an unsigned low
// half a and a signed high half b, as a + b*scale.
func (r *Reader) IntFromTwoF16(scale int) int {
	a := r.UnsignedF16()
	b := r.F16()
	return int(a) + int(b)*scale
}

// F16x4 reads one RGBA16F texel.
func (r *Reader) F16x4() [4]float32 {
	return [4]float32{r.F16(), r.F16(), r.F16(), r.F16()}
}

// F32x4 reads one RGBA32F texel.
func (r *Reader) F32x4() [4]float32 {
	return [4]float32{r.F32(), r.F32(), r.F32(), r.F32()}
}

// count reads a u32 element count and validates that count*elemSize bytes
// remain, so corrupt counts fail fast instead of allocating.
func (r *Reader) count(elemSize int) int {
	n := int(r.U32())
	if r.err != nil {
		return 0
	}
	if elemSize > 0 {
		r.Align(elemSize)
	}
	if n < 0 || n*max(elemSize, 1) > r.Remaining() {
		r.fail(r.pos, n*elemSize)
		return 0
	}
	return n
}

// Bytes reads a u32 length-prefixed byte array. The returned slice aliases
// the buffer.
func (r *Reader) Bytes() []byte {
	n := r.count(1)
	if r.err != nil {
		return nil
	}
	return r.take(n)
}

// Text reads a u32 length-prefixed UTF-8 string.
func (r *Reader) Text() string {
	return string(r.Bytes())
}

// U32Array reads a u32 count followed by that many uint32 values, aligned to
// 4 bytes.
func (r *Reader) U32Array() []uint32 {
	n := r.count(4)
	if r.err != nil {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = r.U32()
	}
	return out
}

// F32Array reads a u32 count followed by that many float32 values, aligned
// to 4 bytes.
func (r *Reader) F32Array() []float32 {
	n := r.count(4)
	if r.err != nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.F32()
	}
	return out
}

// F16Array reads a u32 count followed by that many half floats, aligned to
// 2 bytes.
func (r *Reader) F16Array() []float32 {
	n := r.count(2)
	if r.err != nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.F16()
	}
	return out
}

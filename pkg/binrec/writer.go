package binrec

import (
	"encoding/binary"
	"math"
)

// Writer builds a little-endian buffer. It mirrors Reader: every read
// operation has a matching put, and SetPos allows patching tables of contents
// after the records they point to have been written.
type Writer struct {
	data []byte
	pos  int
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written buffer.
func (w *Writer) Bytes() []byte {
	return w.data
}

// Len returns the buffer size.
func (w *Writer) Len() int {
	return len(w.data)
}

// Pos returns the current byte offset.
func (w *Writer) Pos() int {
	return w.pos
}

// SetPos moves the cursor to an absolute offset, zero-extending the buffer if
// needed.
func (w *Writer) SetPos(offset int) {
	w.grow(offset)
	w.pos = offset
}

// Pad zero-extends the buffer up to the given size.
func (w *Writer) Pad(size int) {
	w.grow(size)
}

// Align writes zero padding so the cursor is a multiple of n.
func (w *Writer) Align(n int) {
	if rem := w.pos % n; rem != 0 {
		w.SetPos(w.pos + n - rem)
	}
}

func (w *Writer) grow(size int) {
	if size > len(w.data) {
		w.data = append(w.data, make([]byte, size-len(w.data))...)
	}
}

func (w *Writer) put(n int) []byte {
	w.grow(w.pos + n)
	b := w.data[w.pos : w.pos+n]
	w.pos += n
	return b
}

// U8 writes a byte.
func (w *Writer) U8(v uint8) {
	w.put(1)[0] = v
}

// U16 writes a uint16.
func (w *Writer) U16(v uint16) {
	binary.LittleEndian.PutUint16(w.put(2), v)
}

// U32 writes a uint32.
func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.put(4), v)
}

// I32 writes an int32.
func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

// F32 writes a binary32 value.
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// F16 writes v narrowed to binary16.
func (w *Writer) F16(v float32) {
	w.U16(Float32ToFloat16(v))
}

// UnsignedF16 writes a value in [0, 4096) using the unsigned half encoding.
func (w *Writer) UnsignedF16(v float32) {
	w.U16(HalfFromUnsigned(v))
}

// UIntFromTwoF16 splits a non-negative integer into v%scale and v/scale.
func (w *Writer) UIntFromTwoF16(v, scale int) {
	w.UnsignedF16(float32(v % scale))
	w.UnsignedF16(float32(v / scale))
}

// IntFromTwoF16 splits a signed integer into an unsigned low part in
// [0, scale) and a signed high part.
func (w *Writer) IntFromTwoF16(v, scale int) {
	hi := v / scale
	lo := v % scale
	if lo < 0 {
		lo += scale
		hi--
	}
	w.UnsignedF16(float32(lo))
	w.F16(float32(hi))
}

// F16x4 writes one RGBA16F texel.
func (w *Writer) F16x4(a, b, c, d float32) {
	w.F16(a)
	w.F16(b)
	w.F16(c)
	w.F16(d)
}

// F32x4 writes one RGBA32F texel.
func (w *Writer) F32x4(a, b, c, d float32) {
	w.F32(a)
	w.F32(b)
	w.F32(c)
	w.F32(d)
}

// ByteArray writes a u32 length-prefixed byte array.
func (w *Writer) ByteArray(b []byte) {
	w.U32(uint32(len(b)))
	copy(w.put(len(b)), b)
}

// Text writes a u32 length-prefixed string.
func (w *Writer) Text(s string) {
	w.ByteArray([]byte(s))
}

// U32Array writes a count and 4-byte aligned uint32 payload.
func (w *Writer) U32Array(vs []uint32) {
	w.U32(uint32(len(vs)))
	w.Align(4)
	for _, v := range vs {
		w.U32(v)
	}
}

// F32Array writes a count and 4-byte aligned float32 payload.
func (w *Writer) F32Array(vs []float32) {
	w.U32(uint32(len(vs)))
	w.Align(4)
	for _, v := range vs {
		w.F32(v)
	}
}

// F16Array writes a count and 2-byte aligned half payload.
func (w *Writer) F16Array(vs []float32) {
	w.U32(uint32(len(vs)))
	w.Align(2)
	for _, v := range vs {
		w.F16(v)
	}
}

package cadfmt

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Bytes per texel of the RGBA32F body raster.
const floatTexelBytes = 16

// texels per body reference: id+tr, ori, sc, color.
const bodyRefTexels = 4

// BodyLibrary gives random access to body records. Unlike the other
// libraries its table of contents lives in a separate buffer and uses plain
// u32 addresses.
type BodyLibrary struct {
	data     []byte
	toc      []byte
	dec      Decoders
	count    int
	texWidth int
}

// NewBodyLibrary opens the body raster and its TOC buffer.
func NewBodyLibrary(data, toc []byte, version *semver.Version) (*BodyLibrary, error) {
	r := binrec.NewReader(toc)
	count := int(r.U32())
	texWidth := int(r.U32())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: bodies: %v", ErrTruncatedHeader, err)
	}
	if need := 8 + count*8; need > len(toc) {
		return nil, fmt.Errorf("%w: bodies TOC needs %d bytes, have %d", ErrTruncatedHeader, need, len(toc))
	}
	return &BodyLibrary{
		data:     data,
		toc:      toc,
		dec:      DecodersFor(version),
		count:    count,
		texWidth: texWidth,
	}, nil
}

// Count returns the number of bodies.
func (l *BodyLibrary) Count() int {
	return l.count
}

// TexelAddress returns the raster address of body id.
func (l *BodyLibrary) TexelAddress(id int) (x, y int, err error) {
	if id < 0 || id >= l.count {
		return 0, 0, fmt.Errorf("%w: bodies id %d of %d", ErrInvalidRecordID, id, l.count)
	}
	r := binrec.NewReader(l.toc)
	r.SetPos(8 + id*8)
	x, y = int(r.U32()), int(r.U32())
	return x, y, r.Err()
}

// BodyData decodes body id. Curve references are only present in files
// new enough to carry them.
func (l *BodyLibrary) BodyData(id int) (*Body, error) {
	x, y, err := l.TexelAddress(id)
	if err != nil {
		return nil, err
	}
	r := binrec.NewReader(l.data)
	r.SetPos((x + y*l.texWidth) * floatTexelBytes)

	t0 := r.F32x4()
	numSurfaces := int(t0[0])
	numCurves := 0
	if l.dec.BodyCurveRefs {
		numCurves = int(t0[1])
	}
	if numSurfaces < 0 || numCurves < 0 ||
		(numSurfaces+numCurves)*bodyRefTexels*floatTexelBytes > r.Remaining() {
		return nil, fmt.Errorf("body %d: invalid ref counts %d/%d", id, numSurfaces, numCurves)
	}

	minT := r.F32x4()
	maxT := r.F32x4()
	b := &Body{
		BBox: math.Box3{
			Min: math.Vec3{X: minT[0], Y: minT[1], Z: minT[2]},
			Max: math.Vec3{X: maxT[0], Y: maxT[1], Z: maxT[2]},
		},
		Surfaces: readBodyRefs(r, numSurfaces),
		Curves:   readBodyRefs(r, numCurves),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("body %d: %w", id, err)
	}
	return b, nil
}

func readBodyRefs(r *binrec.Reader, n int) []BodyRef {
	refs := make([]BodyRef, n)
	for i := range refs {
		t0 := r.F32x4()
		ori := r.F32x4()
		sc := r.F32x4()
		col := r.F32x4()
		refs[i] = BodyRef{
			ID: int(t0[0]),
			Xfo: math.Xfo{
				Tr:  math.Vec3{X: t0[1], Y: t0[2], Z: t0[3]},
				Ori: math.Quat{X: ori[0], Y: ori[1], Z: ori[2], W: ori[3]},
				Sc:  math.Vec3{X: sc[0], Y: sc[1], Z: sc[2]},
			},
			Color: math.Vec4{X: col[0], Y: col[1], Z: col[2], W: col[3]},
		}
	}
	return refs
}

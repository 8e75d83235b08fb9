package cadfmt

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
	"github.com/Faultbox/midgard-cad/pkg/math"
)

// maxLoopRefs bounds loop sizes so corrupt counts fail instead of
// allocating.
const maxLoopRefs = 1 << 16

// TrimSetLibrary gives random access to the trim-set records of an asset.
type TrimSetLibrary struct {
	rasterLibrary
}

// NewTrimSetLibrary opens a trim-set library buffer.
func NewTrimSetLibrary(data []byte, version *semver.Version) (*TrimSetLibrary, error) {
	lib, err := openRasterLibrary("trimSets", data, DecodersFor(version), false)
	if err != nil {
		return nil, err
	}
	return &TrimSetLibrary{rasterLibrary: lib}, nil
}

// TrimSetDims reads only the trim-set size.
func (l *TrimSetLibrary) TrimSetDims(id int) (TrimSetDims, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return TrimSetDims{}, err
	}
	t0 := r.F16x4()
	if err := r.Err(); err != nil {
		return TrimSetDims{}, fmt.Errorf("trim set %d: %w", id, err)
	}
	return TrimSetDims{SizeU: t0[2], SizeV: t0[3]}, nil
}

// TrimSetData fully decodes trim set id.
func (l *TrimSetLibrary) TrimSetData(id int) (*TrimSet, error) {
	r, err := l.recordReader(id)
	if err != nil {
		return nil, err
	}
	t0 := r.F16x4()
	numPerimeter, numHoles := int(t0[0]), int(t0[1])
	if numPerimeter < 0 || numPerimeter > maxLoopRefs || numHoles < 0 || numHoles > maxLoopRefs {
		return nil, fmt.Errorf("trim set %d: invalid loop counts %d/%d", id, numPerimeter, numHoles)
	}

	ts := &TrimSet{TrimSetDims: TrimSetDims{SizeU: t0[2], SizeV: t0[3]}}
	ts.Perimeter = readCurveRefs(r, l.dec, numPerimeter)
	for h := 0; h < numHoles && r.Err() == nil; h++ {
		n := int(r.F16x4()[0])
		if n < 0 || n > maxLoopRefs {
			return nil, fmt.Errorf("trim set %d: hole %d has invalid size %d", id, h, n)
		}
		ts.Holes = append(ts.Holes, readCurveRefs(r, l.dec, n))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("trim set %d: %w", id, err)
	}
	return ts, nil
}

func readCurveRefs(r *binrec.Reader, dec Decoders, n int) []CurveRef {
	refs := make([]CurveRef, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		var ref CurveRef
		ref.CurveID = dec.CurveID.Decode(r)
		ref.Flags = CurveRefFlags(r.F16())
		r.F16()
		tr := r.F16x4()
		m := r.F16x4()
		ref.Xfo = math.Xfo2D{Tr: math.Vec2{X: tr[0], Y: tr[1]}, M: m}
		refs = append(refs, ref)
	}
	return refs
}

package cadfmt

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/midgard-cad/pkg/binrec"
)

// Format versions at which the encoding of a field changed.
var (
	versionKnotDeltas     = semver.MustParse("0.0.20")
	versionWideCurveIDs   = semver.MustParse("0.0.24")
	versionBodyCurveRefs  = semver.MustParse("0.0.25")
	versionSignedTrimIDs  = semver.MustParse("0.0.27")
	versionStoredAreaSize = semver.MustParse("0.0.28")
	versionOrigin         = semver.MustParse("0.0.0")
)

// CurrentVersion is the version written by the encoder when none is given.
var CurrentVersion = semver.MustParse("0.0.28")

// NewVersion builds a format version from its components.
func NewVersion(major, minor, patch uint64) *semver.Version {
	return semver.New(major, minor, patch, "", "")
}

// ParseVersion parses a "major.minor.patch" format version.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, s, err)
	}
	if v.LessThan(minSupportedVersion) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return v, nil
}

// IntCodec reads and writes one integer field.
type IntCodec struct {
	Decode func(r *binrec.Reader) int
	Encode func(w *binrec.Writer, v int)
}

// KnotCodec reads and writes a knot vector of known length.
type KnotCodec struct {
	Decode func(r *binrec.Reader, n int) []float32
	Encode func(w *binrec.Writer, knots []float32)
}

// Decoders holds every version-dependent codec, resolved once per asset.
type Decoders struct {
	Version *semver.Version

	// TrimSetID is the surface record's trim-set reference; -1 means
	// untrimmed.
	TrimSetID IntCodec
	// CurveID is a curve reference inside trim sets and compound surfaces.
	CurveID IntCodec
	Knots   KnotCodec

	// KnotDeltas is set when knots are stored as successive differences.
	KnotDeltas        bool
	BodyCurveRefs     bool
	StoredSurfaceArea bool
}

type strategy[T any] struct {
	min *semver.Version
	fn  T
}

// resolve returns the entry with the highest min version not above v.
// Tables are ordered by min version.
func resolve[T any](v *semver.Version, table []strategy[T]) T {
	fn := table[0].fn
	for _, s := range table[1:] {
		if !v.LessThan(s.min) {
			fn = s.fn
		}
	}
	return fn
}

var trimSetIDStrategies = []strategy[IntCodec]{
	{versionOrigin, IntCodec{
		// Legacy files store id+1 across two unsigned halves.
		Decode: func(r *binrec.Reader) int { return r.UIntFromTwoF16(2048) - 1 },
		Encode: func(w *binrec.Writer, v int) { w.UIntFromTwoF16(v+1, 2048) },
	}},
	{versionSignedTrimIDs, IntCodec{
		Decode: func(r *binrec.Reader) int { return r.IntFromTwoF16(4096) },
		Encode: func(w *binrec.Writer, v int) { w.IntFromTwoF16(v, 4096) },
	}},
}

var curveIDStrategies = []strategy[IntCodec]{
	{versionOrigin, IntCodec{
		Decode: func(r *binrec.Reader) int { return r.UIntFromTwoF16(256) },
		Encode: func(w *binrec.Writer, v int) { w.UIntFromTwoF16(v, 256) },
	}},
	{versionWideCurveIDs, IntCodec{
		Decode: func(r *binrec.Reader) int { return r.UIntFromTwoF16(4096) },
		Encode: func(w *binrec.Writer, v int) { w.UIntFromTwoF16(v, 4096) },
	}},
}

var knotStrategies = []strategy[KnotCodec]{
	{versionOrigin, KnotCodec{Decode: decodeAbsoluteKnots, Encode: encodeAbsoluteKnots}},
	{versionKnotDeltas, KnotCodec{Decode: decodeDeltaKnots, Encode: encodeDeltaKnots}},
}

// DecodersFor resolves the codec set for a format version.
func DecodersFor(v *semver.Version) Decoders {
	if v == nil {
		v = CurrentVersion
	}
	return Decoders{
		Version:           v,
		TrimSetID:         resolve(v, trimSetIDStrategies),
		CurveID:           resolve(v, curveIDStrategies),
		Knots:             resolve(v, knotStrategies),
		KnotDeltas:        !v.LessThan(versionKnotDeltas),
		BodyCurveRefs:     !v.LessThan(versionBodyCurveRefs),
		StoredSurfaceArea: !v.LessThan(versionStoredAreaSize),
	}
}

func decodeAbsoluteKnots(r *binrec.Reader, n int) []float32 {
	knots := make([]float32, n)
	for i := range knots {
		knots[i] = r.F16()
	}
	return knots
}

func encodeAbsoluteKnots(w *binrec.Writer, knots []float32) {
	for _, k := range knots {
		w.F16(k)
	}
}

// Delta-encoded knots store the first knot followed by successive
// differences, which keeps precision on long domains.
func decodeDeltaKnots(r *binrec.Reader, n int) []float32 {
	knots := make([]float32, n)
	var acc float32
	for i := range knots {
		acc += r.F16()
		knots[i] = acc
	}
	return knots
}

func encodeDeltaKnots(w *binrec.Writer, knots []float32) {
	// Track the value the decoder will reconstruct so rounding errors do
	// not accumulate along the vector.
	var acc float32
	for _, k := range knots {
		h := binrec.Float32ToFloat16(k - acc)
		w.U16(h)
		acc += binrec.Float16ToFloat32(h)
	}
}

package layout

import (
	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

// Shape is the tessellation grid of a draw set: U x V quads for surfaces,
// U segments (V = 0) for curves. All instances of one draw set share a
// base mesh.
type Shape struct {
	U, V uint16
}

// DrawSetKey selects the draw call an instance belongs to.
type DrawSetKey struct {
	Shader      int
	Shape       Shape
	Highlighted bool
}

// DrawInstance is one surface or curve placed by one scene body.
type DrawInstance struct {
	// Body is the index of the body instance in the request.
	Body int32
	// Item is the index of the reference inside the body record.
	Item      int32
	Primitive int32
	TrimSet   int32 // -1 when untrimmed
}

// DrawSet is the instance buffer of one draw call.
type DrawSet struct {
	Key       DrawSetKey
	Instances []DrawInstance
}

// DrawSets maps keys to their instance buffers.
type DrawSets map[DrawSetKey]*DrawSet

func (s DrawSets) add(key DrawSetKey, inst DrawInstance) {
	set, ok := s[key]
	if !ok {
		set = &DrawSet{Key: key}
		s[key] = set
	}
	set.Instances = append(set.Instances, inst)
}

// Len returns the total instance count.
func (s DrawSets) Len() int {
	n := 0
	for _, set := range s {
		n += len(set.Instances)
	}
	return n
}

// TrimCurveInstance draws one curve of a trim loop into a trim-set cell.
type TrimCurveInstance struct {
	TrimSet int32
	Curve   int32
	// Loop is 0 for the perimeter and 1+h for hole h.
	Loop int32
	Ref  cadfmt.CurveRef
}

// TrimCurveDrawSet groups trim curves of equal detail.
type TrimCurveDrawSet struct {
	Detail    int
	Instances []TrimCurveInstance
}

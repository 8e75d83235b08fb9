// Package picking casts view rays against body bounding boxes.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-cad/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := unproject(invViewProj, math.Vec4{X: ndcX, Y: ndcY, Z: -1, W: 1})
	far := unproject(invViewProj, math.Vec4{X: ndcX, Y: ndcY, Z: 1, W: 1})
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, p math.Vec4) math.Vec3 {
	w := inv.MulVec4(p)
	if w.W != 0 {
		return w.XYZ().Scale(1 / w.W)
	}
	return w.XYZ()
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectBox tests the ray against an axis-aligned box with the slab
// method. It returns the entry distance, or the exit distance when the
// ray starts inside.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if !box.Valid() {
		return 0, false
	}
	tmin := math32.Inf(-1)
	tmax := math32.Inf(1)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Pick returns the index of the nearest box hit by the ray, or -1.
func (r Ray) Pick(boxes []math.Box3) int {
	best, bestT := -1, math32.Inf(1)
	for i, b := range boxes {
		if t, hit := r.IntersectBox(b); hit && t < bestT {
			best, bestT = i, t
		}
	}
	return best
}

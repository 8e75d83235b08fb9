package math

// Xfo is a translation/orientation/scale transform as stored in body
// reference records.
type Xfo struct {
	Tr  Vec3
	Ori Quat
	Sc  Vec3
}

// IdentityXfo returns the identity transform.
func IdentityXfo() Xfo {
	return Xfo{Ori: QuatIdentity(), Sc: Vec3{1, 1, 1}}
}

// TransformPoint applies scale, then rotation, then translation.
func (x Xfo) TransformPoint(p Vec3) Vec3 {
	return x.Ori.Rotate(p.Mul(x.Sc)).Add(x.Tr)
}

// TransformDirection rotates and scales a direction without translating it.
func (x Xfo) TransformDirection(d Vec3) Vec3 {
	return x.Ori.Rotate(d.Mul(x.Sc))
}

// Mul composes two transforms: the result applies other first, then x.
// Non-uniform scale combined with rotation is approximated component-wise.
func (x Xfo) Mul(other Xfo) Xfo {
	return Xfo{
		Tr:  x.TransformPoint(other.Tr),
		Ori: x.Ori.Mul(other.Ori).Normalize(),
		Sc:  x.Sc.Mul(other.Sc),
	}
}

// ToMat4 returns the column-major matrix for GPU upload.
func (x Xfo) ToMat4() Mat4 {
	return Translate(x.Tr).Mul(x.Ori.ToMat4()).Mul(Scale(x.Sc))
}

// Xfo2D maps trim-curve local coordinates into a surface's normalized
// parameter domain: p' = M*p + Tr, with M stored row-major.
type Xfo2D struct {
	Tr Vec2
	M  [4]float32
}

// IdentityXfo2D returns the identity 2D transform.
func IdentityXfo2D() Xfo2D {
	return Xfo2D{M: [4]float32{1, 0, 0, 1}}
}

// TransformPoint applies the transform to p.
func (x Xfo2D) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		x.M[0]*p.X + x.M[1]*p.Y + x.Tr.X,
		x.M[2]*p.X + x.M[3]*p.Y + x.Tr.Y,
	}
}

package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestOrthoMapsCorners(t *testing.T) {
	m := Ortho(0, 8, 0, 4, -1, 1)
	lo := m.TransformPoint(Vec3{0, 0, 0})
	hi := m.TransformPoint(Vec3{8, 4, 0})
	if lo.X != -1 || lo.Y != -1 {
		t.Errorf("Ortho lower corner = %v, want (-1,-1)", lo)
	}
	if hi.X != 1 || hi.Y != 1 {
		t.Errorf("Ortho upper corner = %v, want (1,1)", hi)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math32.Pi/4, 1, 0.1, 100)
	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero scale")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] = %f, want 0", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] = %f, want -1", m[11])
	}
}

func TestLookAt(t *testing.T) {
	m := LookAt(Vec3{0, 0, 5}, Vec3{}, Vec3{0, 1, 0})
	p := m.TransformPoint(Vec3{})
	if math32.Abs(p.X) > 1e-6 || math32.Abs(p.Y) > 1e-6 || math32.Abs(p.Z+5) > 1e-6 {
		t.Errorf("LookAt center = %v, want (0,0,-5)", p)
	}
	if m[15] != 1 {
		t.Errorf("LookAt [15] = %f, want 1", m[15])
	}
}

func TestMulTranslateScale(t *testing.T) {
	m := Translate(Vec3{1, 2, 3}).Mul(Scale(Vec3{2, 2, 2}))
	got := m.TransformPoint(Vec3{1, 1, 1})
	want := Vec3{3, 4, 5}
	if got != want {
		t.Errorf("TransformPoint() = %v, want %v", got, want)
	}
}

func TestInverse(t *testing.T) {
	m := Perspective(math32.Pi/3, 1.5, 0.1, 50).Mul(LookAt(Vec3{3, -4, 2}, Vec3{}, Vec3{0, 0, 1}))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse() reported a singular matrix")
	}
	id := m.Mul(inv)
	want := Identity()
	for i := range id {
		if math32.Abs(id[i]-want[i]) > 1e-4 {
			t.Fatalf("m * m^-1 [%d] = %f, want %f", i, id[i], want[i])
		}
	}

	if _, ok := (Mat4{}).Inverse(); ok {
		t.Error("Inverse() of the zero matrix should fail")
	}
}

func TestMulVec4(t *testing.T) {
	got := Translate(Vec3{1, 2, 3}).MulVec4(Vec4{1, 1, 1, 1})
	if got != (Vec4{2, 3, 4, 1}) {
		t.Errorf("MulVec4() = %v, want (2,3,4,1)", got)
	}
	got = Translate(Vec3{1, 2, 3}).MulVec4(Vec4{1, 1, 1, 0})
	if got != (Vec4{1, 1, 1, 0}) {
		t.Errorf("MulVec4() direction = %v, want (1,1,1,0)", got)
	}
}

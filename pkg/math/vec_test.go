package math

import (
	"testing"
)

func TestVec2Cross(t *testing.T) {
	a := Vec2{1, 0}
	b := Vec2{0, 1}
	if got := a.Cross(b); got != 1 {
		t.Errorf("Vec2.Cross() = %v, want 1", got)
	}
	if got := b.Cross(a); got != -1 {
		t.Errorf("Vec2.Cross() reversed = %v, want -1", got)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector normalized to %v", got)
	}
}

func TestBox2Lerp(t *testing.T) {
	b := Box2{Min: Vec2{-1, 2}, Max: Vec2{3, 6}}
	got := b.Lerp(Vec2{0.5, 0.25})
	want := Vec2{1, 3}
	if got != want {
		t.Errorf("Box2.Lerp() = %v, want %v", got, want)
	}
}

func TestBox3Radius(t *testing.T) {
	b := EmptyBox3()
	if b.Valid() {
		t.Fatal("empty box should be invalid")
	}
	b = b.AddPoint(Vec3{-3, 0, 0}).AddPoint(Vec3{3, 8, 0})
	if got := b.Radius(); got != 5 {
		t.Errorf("Box3.Radius() = %v, want 5", got)
	}
}

func TestBox3Transform(t *testing.T) {
	b := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{2, 1, 1}}
	x := IdentityXfo()
	x.Tr = Vec3{10, 0, 0}
	x.Sc = Vec3{2, 2, 2}
	got := b.Transform(x)
	if got.Min != (Vec3{10, 0, 0}) || got.Max != (Vec3{14, 2, 2}) {
		t.Errorf("Box3.Transform() = %+v", got)
	}
	if EmptyBox3().Transform(x).Valid() {
		t.Error("empty box should stay empty")
	}
}

func TestXfo2DTransformPoint(t *testing.T) {
	x := Xfo2D{Tr: Vec2{0.5, 0.5}, M: [4]float32{0, -1, 1, 0}}
	got := x.TransformPoint(Vec2{1, 0})
	want := Vec2{0.5, 1.5}
	if got != want {
		t.Errorf("Xfo2D.TransformPoint() = %v, want %v", got, want)
	}
}

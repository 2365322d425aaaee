package game

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLength(t *testing.T) {
	v := NewVec2(3, 4)
	if !almostEqual(v.Length(), 5) {
		t.Errorf("Length of (3,4) = %v, want 5", v.Length())
	}
	if !almostEqual(Vec2{}.Length(), 0) {
		t.Errorf("Length of zero vector should be 0")
	}
}

func TestNormalize(t *testing.T) {
	v := NewVec2(10, 0).Normalize()
	if !almostEqual(v.X, 1) || !almostEqual(v.Y, 0) {
		t.Errorf("Normalize(10,0) = %+v, want (1,0)", v)
	}

	v = NewVec2(3, 4).Normalize()
	if !almostEqual(v.Length(), 1) {
		t.Errorf("Normalized length = %v, want 1", v.Length())
	}
}

func TestNormalizeZeroVectorFallback(t *testing.T) {
	// A zero-length vector must yield the zero vector, never NaN.
	v := Vec2{}.Normalize()
	if math.IsNaN(v.X) || math.IsNaN(v.Y) {
		t.Fatalf("Normalize of zero vector produced NaN: %+v", v)
	}
	if !v.IsZero() {
		t.Errorf("Normalize of zero vector = %+v, want zero vector", v)
	}
}

func TestInvert(t *testing.T) {
	v := NewVec2(2, -3)

	ix := v.InvertX()
	if !almostEqual(ix.X, -2) || !almostEqual(ix.Y, -3) {
		t.Errorf("InvertX(2,-3) = %+v, want (-2,-3)", ix)
	}

	iy := v.InvertY()
	if !almostEqual(iy.X, 2) || !almostEqual(iy.Y, 3) {
		t.Errorf("InvertY(2,-3) = %+v, want (2,3)", iy)
	}
}

func TestDotAndArithmetic(t *testing.T) {
	a := NewVec2(1, 2)
	b := NewVec2(3, -4)

	if !almostEqual(a.Dot(b), -5) {
		t.Errorf("Dot = %v, want -5", a.Dot(b))
	}
	if sum := a.Plus(b); !almostEqual(sum.X, 4) || !almostEqual(sum.Y, -2) {
		t.Errorf("Plus = %+v, want (4,-2)", sum)
	}
	if diff := a.Minus(b); !almostEqual(diff.X, -2) || !almostEqual(diff.Y, 6) {
		t.Errorf("Minus = %+v, want (-2,6)", diff)
	}
	if scaled := a.Times(2.5); !almostEqual(scaled.X, 2.5) || !almostEqual(scaled.Y, 5) {
		t.Errorf("Times = %+v, want (2.5,5)", scaled)
	}
}

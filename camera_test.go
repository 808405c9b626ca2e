package mica

import (
	"errors"
	"math"
	"testing"
)

func TestCameraCentersOnPosition(t *testing.T) {
	cam := NewCamera(Vec2{X: 800, Y: 600})
	cam.PanBy(50, -30)

	got := cam.WorldToScreen(StorageCoord{X: 50, Y: -30})
	if math.Abs(got.X-400) > coordTol || math.Abs(got.Y-300) > coordTol {
		t.Errorf("camera position maps to %v, want viewport center", got)
	}
}

func TestCameraRoundTrip(t *testing.T) {
	cam := NewCamera(Vec2{X: 800, Y: 600})
	cam.PanBy(123.5, -42.25)
	cam.applyLevel(Zoom8)
	cam.SetRotation(0.7)

	points := []StorageCoord{{0, 0}, {123.5, -42.25}, {-500, 1000}}
	for _, p := range points {
		screen := cam.WorldToScreen(p)
		back := cam.ScreenToWorld(screen)
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %v -> %v -> %v", p, screen, back)
		}
	}
}

func TestCameraSetScaleRejectsOffLevelValues(t *testing.T) {
	cam := NewCamera(Vec2{X: 800, Y: 600})

	if err := cam.SetScale(1); err != nil {
		t.Fatalf("scale 1 at level 1: %v", err)
	}
	if err := cam.SetScale(2); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("scale 2 at level 1: got %v", err)
	}
	if err := cam.SetScale(1.5); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("fractional scale: got %v", err)
	}

	cam.applyLevel(Zoom4)
	if cam.Scale != 4 {
		t.Fatalf("scale after level change = %v", cam.Scale)
	}
	if err := cam.SetScale(4); err != nil {
		t.Errorf("scale 4 at level 4: %v", err)
	}
	if err := cam.SetScale(1); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("scale 1 at level 4: got %v", err)
	}
}

func TestCameraVisibleBounds(t *testing.T) {
	cam := NewCamera(Vec2{X: 800, Y: 600})

	b := cam.VisibleBounds()
	if b.Width() != 800 || b.Height() != 600 {
		t.Errorf("zoom 1 bounds %vx%v, want 800x600", b.Width(), b.Height())
	}
	if b.MinX != -400 || b.MinY != -300 {
		t.Errorf("zoom 1 min corner (%v, %v), want (-400, -300)", b.MinX, b.MinY)
	}

	// Doubling the zoom halves the covered storage area.
	cam.applyLevel(Zoom2)
	b = cam.VisibleBounds()
	if math.Abs(b.Width()-400) > coordTol || math.Abs(b.Height()-300) > coordTol {
		t.Errorf("zoom 2 bounds %vx%v, want 400x300", b.Width(), b.Height())
	}

	// A quarter turn swaps the covered width and height.
	cam.applyLevel(Zoom1)
	cam.SetRotation(math.Pi / 2)
	b = cam.VisibleBounds()
	if math.Abs(b.Width()-600) > coordTol || math.Abs(b.Height()-800) > coordTol {
		t.Errorf("rotated bounds %vx%v, want 600x800", b.Width(), b.Height())
	}
}

func TestCameraPanShiftsBounds(t *testing.T) {
	cam := NewCamera(Vec2{X: 100, Y: 100})
	before := cam.VisibleBounds()
	cam.PanBy(25, -10)
	after := cam.VisibleBounds()

	if math.Abs((after.MinX-before.MinX)-25) > coordTol ||
		math.Abs((after.MinY-before.MinY)+10) > coordTol {
		t.Errorf("bounds moved by (%v, %v), want (25, -10)",
			after.MinX-before.MinX, after.MinY-before.MinY)
	}
}

func TestInvertAffine(t *testing.T) {
	m := [6]float64{2, 0.5, -1, 3, 10, -7}
	inv := invertAffine(m)

	x, y := transformPoint(m, 3.5, -2)
	bx, by := transformPoint(inv, x, y)
	if math.Abs(bx-3.5) > 1e-9 || math.Abs(by+2) > 1e-9 {
		t.Errorf("inverse round trip: (%v, %v)", bx, by)
	}

	// Singular matrices fall back to identity.
	if got := invertAffine([6]float64{0, 0, 0, 0, 1, 2}); got != identityTransform {
		t.Errorf("singular inverse = %v", got)
	}
}

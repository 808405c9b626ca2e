package mica

import (
	"errors"
	"math"
	"testing"
)

const coordTol = 1e-6

func TestStorageRenderRoundTrip(t *testing.T) {
	coords := []StorageCoord{
		{0, 0}, {10, 10}, {-3.25, 7.5}, {12345.678, -9876.543}, {0.001, -0.001},
	}
	offsets := []Vec2{{0, 0}, {100, 50}, {-33.5, 17.25}}

	for _, c := range coords {
		for _, off := range offsets {
			r, err := ToRender(c, off)
			if err != nil {
				t.Fatalf("ToRender(%v, %v): %v", c, off, err)
			}
			back, err := ToStorage(r, off)
			if err != nil {
				t.Fatalf("ToStorage(%v, %v): %v", r, off, err)
			}
			if math.Abs(back.X-c.X) > coordTol || math.Abs(back.Y-c.Y) > coordTol {
				t.Errorf("round trip %v -> %v -> %v", c, r, back)
			}
		}
	}
}

func TestRenderDeviceRoundTrip(t *testing.T) {
	coords := []RenderCoord{{0, 0}, {13.5, -2.25}, {640, 480}}
	scales := []float64{1, 2, 4, 8, 16, 32, 64, 128}

	for _, c := range coords {
		for _, s := range scales {
			d, err := ToDevice(c, s)
			if err != nil {
				t.Fatalf("ToDevice(%v, %v): %v", c, s, err)
			}
			back, err := ToRenderFromDevice(d, s)
			if err != nil {
				t.Fatalf("ToRenderFromDevice(%v, %v): %v", d, s, err)
			}
			if math.Abs(back.X-c.X) > coordTol || math.Abs(back.Y-c.Y) > coordTol {
				t.Errorf("round trip %v at scale %v -> %v", c, s, back)
			}
		}
	}
}

func TestToDeviceDirect(t *testing.T) {
	c := StorageCoord{X: 50, Y: 30}
	off := Vec2{X: 10, Y: 5}

	direct, err := ToDeviceDirect(c, 4, off)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := ToRender(c, off)
	twoStep, _ := ToDevice(r, 4)
	if direct != twoStep {
		t.Errorf("direct %v != two-step %v", direct, twoStep)
	}

	back, err := ToStorageDirect(direct, 4, off)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.X-c.X) > coordTol || math.Abs(back.Y-c.Y) > coordTol {
		t.Errorf("inverse %v != original %v", back, c)
	}
}

func TestConversionRejectsNonFinite(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	if _, err := ToRender(StorageCoord{X: nan}, Vec2{}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("NaN storage X: got %v", err)
	}
	if _, err := ToRender(StorageCoord{}, Vec2{Y: inf}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("Inf offset Y: got %v", err)
	}
	if _, err := ToDevice(RenderCoord{}, nan); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("NaN scale: got %v", err)
	}
	if _, err := ToDeviceDirect(StorageCoord{Y: inf}, 2, Vec2{}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("Inf storage Y: got %v", err)
	}
}

func TestConversionRejectsNonPositiveScale(t *testing.T) {
	if _, err := ToDevice(RenderCoord{X: 1, Y: 1}, 0); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("zero scale: got %v", err)
	}
	if _, err := ToRenderFromDevice(DeviceCoord{X: 1, Y: 1}, -2); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("negative scale: got %v", err)
	}
}

func TestSnapToPixel(t *testing.T) {
	got := SnapToPixel(DeviceCoord{X: 3.4, Y: 7.6})
	if got.X != 3 || got.Y != 8 {
		t.Errorf("snap: got %v", got)
	}
	// Conversions themselves never round; only the snap does.
	d, _ := ToDevice(RenderCoord{X: 1.25, Y: 0}, 2)
	if d.X != 2.5 {
		t.Errorf("conversion rounded: got %v", d.X)
	}
}

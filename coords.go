package mica

import "math"

// The engine works in three coordinate spaces:
//
//   - Storage space: where geometry permanently lives, independent of zoom.
//   - Render space: storage translated by the sampling offset, still scale 1.
//   - Device space: render multiplied by the zoom scale; final pixel space.
//
// The three kinds are distinct types on purpose. Coordinates of different
// kinds must never be combined arithmetically without an explicit conversion.

// StorageCoord is a point in storage space.
type StorageCoord struct {
	X, Y float64
}

// RenderCoord is a point in render space.
type RenderCoord struct {
	X, Y float64
}

// DeviceCoord is a point in device (pixel) space.
type DeviceCoord struct {
	X, Y float64
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToRender converts a storage coordinate to render space by subtracting the
// sampling offset. The conversion is exact; no rounding occurs before the
// final device-pixel snap.
func ToRender(c StorageCoord, offset Vec2) (RenderCoord, error) {
	if !finite(c.X, c.Y, offset.X, offset.Y) {
		return RenderCoord{}, ErrInvalidCoordinate
	}
	return RenderCoord{X: c.X - offset.X, Y: c.Y - offset.Y}, nil
}

// ToStorage is the exact inverse of ToRender.
func ToStorage(c RenderCoord, offset Vec2) (StorageCoord, error) {
	if !finite(c.X, c.Y, offset.X, offset.Y) {
		return StorageCoord{}, ErrInvalidCoordinate
	}
	return StorageCoord{X: c.X + offset.X, Y: c.Y + offset.Y}, nil
}

// ToDevice converts a render coordinate to device space at the given scale.
// Scale must be finite and positive.
func ToDevice(c RenderCoord, scale float64) (DeviceCoord, error) {
	if !finite(c.X, c.Y, scale) {
		return DeviceCoord{}, ErrInvalidCoordinate
	}
	if scale <= 0 {
		return DeviceCoord{}, ErrInvalidScale
	}
	return DeviceCoord{X: c.X * scale, Y: c.Y * scale}, nil
}

// ToRenderFromDevice is the exact inverse of ToDevice.
func ToRenderFromDevice(c DeviceCoord, scale float64) (RenderCoord, error) {
	if !finite(c.X, c.Y, scale) {
		return RenderCoord{}, ErrInvalidCoordinate
	}
	if scale <= 0 {
		return RenderCoord{}, ErrInvalidScale
	}
	return RenderCoord{X: c.X / scale, Y: c.Y / scale}, nil
}

// ToDeviceDirect converts storage straight to device space, equivalent to
// ToDevice(ToRender(c, offset), scale).
func ToDeviceDirect(c StorageCoord, scale float64, offset Vec2) (DeviceCoord, error) {
	r, err := ToRender(c, offset)
	if err != nil {
		return DeviceCoord{}, err
	}
	return ToDevice(r, scale)
}

// ToStorageDirect is the exact inverse of ToDeviceDirect.
func ToStorageDirect(c DeviceCoord, scale float64, offset Vec2) (StorageCoord, error) {
	r, err := ToRenderFromDevice(c, scale)
	if err != nil {
		return StorageCoord{}, err
	}
	return ToStorage(r, offset)
}

// SnapToPixel rounds a device coordinate to the nearest integer pixel. This is
// the only place rounding happens in the coordinate model.
func SnapToPixel(c DeviceCoord) DeviceCoord {
	return DeviceCoord{X: math.Round(c.X), Y: math.Round(c.Y)}
}

// Package camera provides the orbit camera used by the mesh viewer.
package camera

import (
	gomath "math"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

// OrbitCamera orbits around a center point. Angles are in radians.
type OrbitCamera struct {
	Center math.Vec3

	Distance float64
	Pitch    float64 // Angle above the XZ plane
	Yaw      float64 // Angle around the Y axis

	// Constraints
	MinDistance float64
	MaxDistance float64
	MaxPitch    float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64
}

// NewOrbitCamera creates an orbit camera framing a model scaled to a unit
// diagonal around the origin.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		MinDistance:     0.05,
		MaxDistance:     50,
		MaxPitch:        1.5,
		DragSensitivity: 0.01,
		ZoomSensitivity: 0.1,
	}
	c.Reset()
	return c
}

// Reset restores the default viewpoint.
func (c *OrbitCamera) Reset() {
	c.Center = math.Vec3{}
	c.Distance = 1.5
	c.Pitch = 0.3
	c.Yaw = 0.5
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cosP, sinP := gomath.Cos(c.Pitch), gomath.Sin(c.Pitch)
	cosY, sinY := gomath.Cos(c.Yaw), gomath.Sin(c.Yaw)
	offset := math.Vec3{
		X: c.Distance * cosP * sinY,
		Y: c.Distance * sinP,
		Z: c.Distance * cosP * cosY,
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// HandleDrag updates rotation based on mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float64) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch short of the poles, where the up vector degenerates
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
	if c.Pitch < -c.MaxPitch {
		c.Pitch = -c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// Focus moves the orbit center to the center of box, given in model space.
func (c *OrbitCamera) Focus(model math.Mat4, box math.Box3) {
	if box.IsEmpty() {
		return
	}
	c.Center = model.TransformVec3(box.Center())
}

package camera

import (
	gomath "math"
	"testing"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

func TestPositionKeepsDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Yaw = 1.2
	c.Pitch = -0.4
	c.Distance = 3

	got := c.Position().Distance(c.Center)
	if gomath.Abs(got-3) > 1e-12 {
		t.Errorf("distance to center = %v, want 3", got)
	}
}

func TestPositionFrontView(t *testing.T) {
	c := NewOrbitCamera()
	c.Yaw, c.Pitch, c.Distance = 0, 0, 2

	p := c.Position()
	if gomath.Abs(p.X) > 1e-12 || gomath.Abs(p.Y) > 1e-12 || gomath.Abs(p.Z-2) > 1e-12 {
		t.Errorf("Position() = %+v, want (0, 0, 2)", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != -c.MaxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, -c.MaxPitch)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	for range 200 {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("Distance = %v, want %v", c.Distance, c.MinDistance)
	}
	for range 200 {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("Distance = %v, want %v", c.Distance, c.MaxDistance)
	}
}

func TestReset(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(40, 25)
	c.HandleZoom(3)
	c.Reset()

	d := NewOrbitCamera()
	if c.Yaw != d.Yaw || c.Pitch != d.Pitch || c.Distance != d.Distance {
		t.Errorf("Reset() = %+v, want %+v", c, d)
	}
}

func TestViewMatrixMapsCenterInFront(t *testing.T) {
	c := NewOrbitCamera()
	view := c.ViewMatrix()

	p := view.TransformPoint(c.Center.Float32())
	if gomath.Abs(float64(p[0])) > 1e-5 || gomath.Abs(float64(p[1])) > 1e-5 {
		t.Errorf("center in view space = %v, want on the -z axis", p)
	}
	if gomath.Abs(float64(p[2])+float64(c.Distance)) > 1e-5 {
		t.Errorf("center depth = %v, want %v", p[2], -c.Distance)
	}
}

func TestFocus(t *testing.T) {
	c := NewOrbitCamera()
	box := math.Box3{Min: math.Vec3{X: 1, Y: 1, Z: 1}, Max: math.Vec3{X: 3, Y: 5, Z: 1}}
	c.Focus(math.Translate(-2, 0, 1), box)

	want := math.Vec3{X: 0, Y: 3, Z: 2}
	if c.Center.Distance(want) > 1e-6 {
		t.Errorf("Center = %v, want %v", c.Center, want)
	}

	c.Focus(math.Identity(), math.EmptyBox())
	if c.Center.Distance(want) > 1e-6 {
		t.Errorf("Focus on an empty box moved the center to %v", c.Center)
	}
}

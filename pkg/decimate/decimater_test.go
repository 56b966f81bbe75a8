package decimate

import (
	"context"
	"errors"
	stdmath "math"
	"testing"

	"github.com/ttzck/gm-meshproc/pkg/math"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

func newInitialized(t *testing.T, m *mesh.Mesh, opts Options) *Decimater {
	t.Helper()
	d := New(m, opts)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return d
}

func checkManifold(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for v := range m.Vertices() {
		if !m.IsManifold(v) {
			t.Errorf("vertex %d is not manifold", v)
		}
	}
	for e := range m.Edges() {
		h := m.EdgeHalfedge(e, 0)
		if m.IsBoundaryHalfedge(h) && m.IsBoundaryHalfedge(h^1) {
			t.Errorf("edge %d has no incident face", e)
		}
	}
}

// tent returns a flat fan around vertex 0 whose rim is not convex as seen
// from vertex 1: moving vertex 0 onto vertex 1 turns face (0, 2, 3) over.
func tent(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build(
		[]math.Vec3{
			{},             // 0 center
			{X: 3},         // 1
			{X: 1, Y: 1},   // 2
			{X: 0.2, Y: 2}, // 3
			{X: -2},        // 4
			{Y: -2},        // 5
		},
		[][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 5}, {0, 5, 1}},
	)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestInitializeZeroError(t *testing.T) {
	for _, m := range []*mesh.Mesh{mesh.Icosahedron(), mesh.Icosphere(2), mesh.Grid(4)} {
		d := newInitialized(t, m, Options{Workers: 3})
		if e := d.QuadricError(); stdmath.Abs(e) > 1e-9 {
			t.Errorf("QuadricError() after Initialize = %v, want 0", e)
		}
		for v := range m.Vertices() {
			if d.Quadric(v).IsZero() {
				t.Errorf("vertex %d has a zero quadric", v)
			}
		}
	}
}

func TestInitializeTwiceDoubles(t *testing.T) {
	m := mesh.Icosahedron()
	d := newInitialized(t, m, Options{})
	once := d.Quadric(0)
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	p := math.Vec3{X: 0.3, Y: 0.2, Z: 0.1}
	if got, want := d.Quadric(0).Evaluate(p), 2*once.Evaluate(p); stdmath.Abs(got-want) > 1e-12 {
		t.Errorf("Quadric after second Initialize evaluates to %v, want %v", got, want)
	}
	d.Reset()
	if err := d.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := d.Quadric(0); got != once {
		t.Errorf("Quadric after Reset = %v, want %v", got, once)
	}
}

func TestInitializeSkipsDegenerateFaces(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(math.Vec3{})
	b := m.AddVertex(math.Vec3{X: 1})
	c := m.AddVertex(math.Vec3{X: 2})
	if _, err := m.AddTriangle(a, b, c); err != nil {
		t.Fatal(err)
	}
	d := newInitialized(t, m, Options{})
	for v := range m.Vertices() {
		if !d.Quadric(v).IsZero() {
			t.Errorf("vertex %d of a collinear face got quadric %v", v, d.Quadric(v))
		}
	}
}

func TestDecimateIcosahedron(t *testing.T) {
	m := mesh.Icosahedron()
	d := newInitialized(t, m, Options{KeepPositions: true})

	stats, err := d.Decimate(context.Background(), 4)
	if err != nil {
		t.Fatalf("Decimate failed: %v", err)
	}
	if n := m.NumVertices(); n < 4 || n > 12 {
		t.Errorf("NumVertices() = %d, want in [4, 12]", n)
	}
	if m.NumFaces() >= 20 {
		t.Errorf("NumFaces() = %d, want < 20", m.NumFaces())
	}
	if stats.ErrorAfter < stats.ErrorBefore-1e-12 {
		t.Errorf("error decreased from %v to %v", stats.ErrorBefore, stats.ErrorAfter)
	}
	if stats.Collapses != stats.InitialVertices-stats.FinalVertices {
		t.Errorf("Collapses = %d, vertex delta = %d", stats.Collapses, stats.InitialVertices-stats.FinalVertices)
	}
	if m.NumVertices() != 4 && stats.Reason != StopExhausted {
		t.Errorf("stopped at %d vertices with reason %v", m.NumVertices(), stats.Reason)
	}
	checkManifold(t, m)
}

func TestDecimateErrorNeverDecreases(t *testing.T) {
	m := mesh.Icosahedron()
	d := newInitialized(t, m, Options{KeepPositions: true})
	ctx := context.Background()

	prev := d.QuadricError()
	for n := m.NumVertices(); n > 4; n-- {
		stats, err := d.Decimate(ctx, n-1)
		if err != nil {
			t.Fatalf("Decimate(%d) failed: %v", n-1, err)
		}
		if stats.Collapses != 1 {
			t.Fatalf("Decimate(%d) made %d collapses, want 1", n-1, stats.Collapses)
		}
		got := d.QuadricError()
		if got < prev-1e-12 {
			t.Errorf("error went from %v to %v at %d vertices", prev, got, n-1)
		}
		prev = got
	}
}

func TestDecimateClosedMeshStopsAtTetrahedron(t *testing.T) {
	for name, m := range map[string]*mesh.Mesh{
		"tetrahedron": mesh.Tetrahedron(),
		"icosahedron": mesh.Icosahedron(),
	} {
		t.Run(name, func(t *testing.T) {
			d := newInitialized(t, m, Options{KeepPositions: true})
			stats, err := d.Decimate(context.Background(), 0)
			if err != nil {
				t.Fatalf("Decimate failed: %v", err)
			}
			if m.NumVertices() != 4 || m.NumFaces() != 4 {
				t.Errorf("got %d vertices, %d faces, want 4, 4", m.NumVertices(), m.NumFaces())
			}
			if stats.Reason != StopExhausted {
				t.Errorf("Reason = %v, want %v", stats.Reason, StopExhausted)
			}
			for v := range m.Vertices() {
				if n := m.Valence(v); n != 3 {
					t.Errorf("Valence(%d) = %d, want 3", v, n)
				}
			}
			checkManifold(t, m)
		})
	}
}

func TestDecimateSingleTriangle(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(math.Vec3{})
	b := m.AddVertex(math.Vec3{X: 1})
	c := m.AddVertex(math.Vec3{Y: 1})
	if _, err := m.AddTriangle(a, b, c); err != nil {
		t.Fatal(err)
	}
	d := newInitialized(t, m, Options{})

	stats, err := d.Decimate(context.Background(), 0)
	if err != nil {
		t.Fatalf("Decimate failed: %v", err)
	}
	if m.NumVertices() != 3 || stats.Collapses != 0 {
		t.Errorf("got %d vertices after %d collapses, want 3 after 0", m.NumVertices(), stats.Collapses)
	}
	if stats.Reason != StopExhausted {
		t.Errorf("Reason = %v, want %v", stats.Reason, StopExhausted)
	}
}

func TestFlippingCollapseIsIllegal(t *testing.T) {
	m := tent(t)
	d := newInitialized(t, m, Options{KeepPositions: true})

	h := m.FindHalfedge(0, 1)
	if h != 0 {
		t.Fatalf("FindHalfedge(0, 1) = %d, want 0", h)
	}
	if !m.IsCollapseOK(h) {
		t.Fatal("collapse is topologically legal and should fail on orientation only")
	}
	if d.IsCollapseLegal(h) {
		t.Error("IsCollapseLegal() = true for a flipping collapse")
	}
	if c := d.CollapseCost(h); !stdmath.IsInf(c, 1) {
		t.Errorf("CollapseCost() = %v, want +Inf", c)
	}

	// Every legal collapse of the flat fan costs zero and halfedge 0 comes
	// first in enumeration order, so it would win any tie if it were legal.
	if _, err := d.Decimate(context.Background(), m.NumVertices()-1); err != nil {
		t.Fatalf("Decimate failed: %v", err)
	}
	if m.IsDeletedVertex(0) {
		t.Error("center vertex was collapsed")
	}
	if !stdmath.IsInf(d.Priority(h), 1) {
		t.Errorf("Priority(%d) = %v, want +Inf", h, d.Priority(h))
	}
	for f := range m.Faces() {
		if n := m.FaceNormal(f); n.Z < 0 {
			t.Errorf("face %d flipped: normal %v", f, n)
		}
	}
	checkManifold(t, m)
}

func TestDecimateKeepsBoundaryVerticesOnBoundary(t *testing.T) {
	m := mesh.Grid(6)
	boundary := make(map[math.Vec3]bool)
	for v := range m.Vertices() {
		boundary[m.Position(v)] = m.IsBoundaryVertex(v)
	}
	d := newInitialized(t, m, Options{KeepPositions: true})
	if _, err := d.Decimate(context.Background(), 12); err != nil {
		t.Fatal(err)
	}
	for v := range m.Vertices() {
		if boundary[m.Position(v)] && !m.IsBoundaryVertex(v) {
			t.Errorf("boundary vertex at %v moved into the interior", m.Position(v))
		}
	}
	for f := range m.Faces() {
		if n := m.FaceNormal(f); n.Z < 0 {
			t.Errorf("face %d flipped: normal %v", f, n)
		}
	}
	checkManifold(t, m)
}

func TestDecimateIdempotentAtTarget(t *testing.T) {
	m := mesh.Icosphere(1)
	before := make([]math.Vec3, 0, m.NumVertices())
	for v := range m.Vertices() {
		before = append(before, m.Position(v))
	}
	d := newInitialized(t, m, Options{})

	stats, err := d.Decimate(context.Background(), m.NumVertices())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Collapses != 0 || stats.Reason != StopNone {
		t.Errorf("Collapses = %d, Reason = %v, want 0, none", stats.Collapses, stats.Reason)
	}
	for v := range m.Vertices() {
		if m.Position(v) != before[v] {
			t.Errorf("vertex %d moved", v)
		}
	}
	if m.HasGarbage() {
		t.Error("no-op decimation left garbage")
	}
}

func TestDecimateEmptyMesh(t *testing.T) {
	d := New(mesh.New(), Options{})
	stats, err := d.Decimate(context.Background(), 0)
	if err != nil || stats.Collapses != 0 {
		t.Errorf("Decimate(empty) = %+v, %v", stats, err)
	}
}

func TestDecimateNotInitialized(t *testing.T) {
	d := New(mesh.Icosahedron(), Options{})
	if _, err := d.Decimate(context.Background(), 6); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Decimate() error = %v, want ErrNotInitialized", err)
	}
}

func TestDecimateSphere(t *testing.T) {
	for _, mode := range []CostMode{CostAtTarget, CostAtMinimizer} {
		t.Run(mode.String(), func(t *testing.T) {
			m := mesh.Icosphere(3)
			stats, err := Simplify(context.Background(), m, 100, Options{CostMode: mode, Workers: 4})
			if err != nil {
				t.Fatalf("Simplify failed: %v", err)
			}
			if m.NumVertices() != 100 {
				t.Errorf("NumVertices() = %d, want 100", m.NumVertices())
			}
			if stats.Reason != StopTarget {
				t.Errorf("Reason = %v, want %v", stats.Reason, StopTarget)
			}
			if m.HasGarbage() {
				t.Error("Simplify left garbage")
			}
			checkManifold(t, m)
			if chi := m.NumVertices() - m.NumEdges() + m.NumFaces(); chi != 2 {
				t.Errorf("Euler characteristic = %d, want 2", chi)
			}
			for v := range m.Vertices() {
				p := m.Position(v)
				if r := p.Length(); !p.IsFinite() || r < 0.5 || r > 1.5 {
					t.Errorf("vertex %d at %v left the sphere", v, p)
				}
			}
		})
	}
}

func TestVertexCountNeverIncreases(t *testing.T) {
	m := mesh.Icosphere(2)
	d := newInitialized(t, m, Options{KeepPositions: true})
	prev := m.NumVertices()
	for _, target := range []int{150, 120, 130, 80, 40, 40, 10} {
		stats, err := d.Decimate(context.Background(), target)
		if err != nil {
			t.Fatal(err)
		}
		n := m.NumVertices()
		if n > prev {
			t.Fatalf("vertex count grew from %d to %d", prev, n)
		}
		if stats.Reason == StopTarget && n != target {
			t.Errorf("reported target %d reached at %d vertices", target, n)
		}
		prev = n
	}
	checkManifold(t, m)
}

func TestPositionPassLowersError(t *testing.T) {
	keep := mesh.Icosphere(2)
	moved := keep.Clone()

	dk := newInitialized(t, keep, Options{KeepPositions: true})
	sk, err := dk.Decimate(context.Background(), 60)
	if err != nil {
		t.Fatal(err)
	}
	dm := newInitialized(t, moved, Options{})
	sm, err := dm.Decimate(context.Background(), 60)
	if err != nil {
		t.Fatal(err)
	}
	if sm.ErrorAfter > sk.ErrorAfter+1e-9 {
		t.Errorf("error with position pass = %v, without = %v", sm.ErrorAfter, sk.ErrorAfter)
	}
}

func TestDecimateMaxError(t *testing.T) {
	m := mesh.Icosphere(2)
	d := newInitialized(t, m, Options{MaxError: 1e-9})
	stats, err := d.Decimate(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reason != StopMaxError {
		t.Errorf("Reason = %v, want %v", stats.Reason, StopMaxError)
	}
	if stats.Collapses != 0 {
		t.Errorf("Collapses = %d, want 0", stats.Collapses)
	}
}

func TestDecimateCancelled(t *testing.T) {
	m := mesh.Icosphere(2)
	d := newInitialized(t, m, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Decimate(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Decimate() error = %v, want context.Canceled", err)
	}
	if m.NumVertices() != 162 {
		t.Errorf("NumVertices() = %d, want 162", m.NumVertices())
	}
	checkManifold(t, m)
}

func TestTargetFromPercent(t *testing.T) {
	tests := []struct {
		n       int
		percent float64
		want    int
	}{
		{642, 10, 64},
		{100, 50, 50},
		{100, 0, 0},
		{100, 150, 100},
		{100, -5, 0},
	}
	for _, tt := range tests {
		if got := TargetFromPercent(tt.n, tt.percent); got != tt.want {
			t.Errorf("TargetFromPercent(%d, %v) = %d, want %d", tt.n, tt.percent, got, tt.want)
		}
	}
}

func TestParseCostMode(t *testing.T) {
	for _, mode := range []CostMode{CostAtTarget, CostAtMinimizer} {
		got, err := ParseCostMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseCostMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseCostMode("midpoint"); !errors.Is(err, ErrUnknownCostMode) {
		t.Errorf("ParseCostMode(midpoint) error = %v, want ErrUnknownCostMode", err)
	}
}

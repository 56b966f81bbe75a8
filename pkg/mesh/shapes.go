package mesh

import (
	"fmt"
	stdmath "math"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

// Build creates a mesh from a point list and faces given as index lists.
func Build(points []math.Vec3, faces [][]int) (*Mesh, error) {
	m := New()
	for _, p := range points {
		m.AddVertex(p)
	}
	vs := make([]Vertex, 0, 4)
	for i, face := range faces {
		vs = vs[:0]
		for _, idx := range face {
			if idx < 0 || idx >= len(points) {
				return nil, fmt.Errorf("face %d: index %d: %w", i, idx, ErrInvalidVertex)
			}
			vs = append(vs, Vertex(idx))
		}
		if _, err := m.AddFace(vs...); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
	}
	return m, nil
}

func mustBuild(points []math.Vec3, faces [][]int) *Mesh {
	m, err := Build(points, faces)
	if err != nil {
		panic(err)
	}
	return m
}

// Tetrahedron returns a closed tetrahedron with outward normals.
func Tetrahedron() *Mesh {
	a := 1 / stdmath.Sqrt(3)
	return mustBuild(
		[]math.Vec3{{X: a, Y: a, Z: a}, {X: a, Y: -a, Z: -a}, {X: -a, Y: a, Z: -a}, {X: -a, Y: -a, Z: a}},
		[][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {3, 2, 1}},
	)
}

// Icosahedron returns a regular icosahedron inscribed in the unit sphere.
func Icosahedron() *Mesh {
	points, faces := icosahedron()
	return mustBuild(points, faces)
}

func icosahedron() ([]math.Vec3, [][]int) {
	phi := (1 + stdmath.Sqrt(5)) / 2
	raw := []math.Vec3{
		{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
		{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
		{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
	}
	points := make([]math.Vec3, len(raw))
	for i, p := range raw {
		points[i] = p.Normalize()
	}
	faces := [][]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return points, faces
}

// Icosphere returns an icosahedron subdivided level times, with every vertex
// projected onto the unit sphere. Level n has 10*4^n+2 vertices.
func Icosphere(level int) *Mesh {
	points, faces := icosahedron()
	for ; level > 0; level-- {
		mid := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mid[key]; ok {
				return i
			}
			points = append(points, points[a].Add(points[b]).Normalize())
			mid[key] = len(points) - 1
			return len(points) - 1
		}
		next := make([][]int, 0, 4*len(faces))
		for _, f := range faces {
			ab, bc, ca := midpoint(f[0], f[1]), midpoint(f[1], f[2]), midpoint(f[2], f[0])
			next = append(next,
				[]int{f[0], ab, ca},
				[]int{f[1], bc, ab},
				[]int{f[2], ca, bc},
				[]int{ab, bc, ca},
			)
		}
		faces = next
	}
	return mustBuild(points, faces)
}

// Grid returns a flat n x n quad grid in the z=0 plane, split into triangles.
// It has (n+1)^2 vertices and an open boundary.
func Grid(n int) *Mesh {
	var points []math.Vec3
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			points = append(points, math.Vec3{X: float64(i), Y: float64(j)})
		}
	}
	idx := func(i, j int) int { return j*(n+1) + i }
	var faces [][]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			faces = append(faces,
				[]int{idx(i, j), idx(i+1, j), idx(i+1, j+1)},
				[]int{idx(i, j), idx(i+1, j+1), idx(i, j+1)},
			)
		}
	}
	return mustBuild(points, faces)
}

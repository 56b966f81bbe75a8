package mesh

import "github.com/ttzck/gm-meshproc/pkg/math"

// FaceNormal returns the unit normal of f, or the zero vector if f is
// degenerate.
func (m *Mesh) FaceNormal(f Face) math.Vec3 {
	return m.FaceNormalWith(f, NoVertex, math.Vec3{})
}

// FaceNormalWith returns the unit normal f would have if v were at p. The
// mesh is not modified. Passing NoVertex yields the current normal.
func (m *Mesh) FaceNormalWith(f Face, v Vertex, p math.Vec3) math.Vec3 {
	pos := func(u Vertex) math.Vec3 {
		if u == v {
			return p
		}
		return m.positions[u]
	}

	h := m.fconn[f].halfedge
	p0 := pos(m.ToVertex(h))
	h = m.Next(h)
	p1 := pos(m.ToVertex(h))
	h = m.Next(h)
	p2 := pos(m.ToVertex(h))

	if m.Next(h) == m.fconn[f].halfedge {
		return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
	}

	// Newell's method for general polygons.
	var n math.Vec3
	for hh := range m.HalfedgesOf(f) {
		a := pos(m.ToVertex(hh))
		b := pos(m.ToVertex(m.Next(hh)))
		n = n.Add(a.Cross(b))
	}
	return n.Normalize()
}

// FaceArea returns the area of a triangle face. Other polygons are fanned
// from their first vertex.
func (m *Mesh) FaceArea(f Face) float64 {
	var pts []math.Vec3
	for v := range m.VerticesOf(f) {
		pts = append(pts, m.positions[v])
	}
	var area float64
	for i := 1; i+1 < len(pts); i++ {
		area += pts[i].Sub(pts[0]).Cross(pts[i+1].Sub(pts[0])).Length() / 2
	}
	return area
}

// Bounds returns the bounding box of the live vertices.
func (m *Mesh) Bounds() math.Box3 {
	b := math.EmptyBox()
	for v := range m.Vertices() {
		b = b.Extend(m.positions[v])
	}
	return b
}

// IsTriangleMesh reports whether every live face is a triangle.
func (m *Mesh) IsTriangleMesh() bool {
	for f := range m.Faces() {
		h := m.fconn[f].halfedge
		if m.Next(m.Next(m.Next(h))) != h {
			return false
		}
	}
	return true
}

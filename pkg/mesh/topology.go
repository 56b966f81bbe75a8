package mesh

import "iter"

// ToVertex returns the vertex h points to.
func (m *Mesh) ToVertex(h Halfedge) Vertex { return m.hconn[h].to }

// FromVertex returns the vertex h emanates from.
func (m *Mesh) FromVertex(h Halfedge) Vertex { return m.hconn[h^1].to }

// Opposite returns the other halfedge of h's edge.
func (m *Mesh) Opposite(h Halfedge) Halfedge { return h ^ 1 }

// Next returns the next halfedge in h's face or boundary loop.
func (m *Mesh) Next(h Halfedge) Halfedge { return m.hconn[h].next }

// Prev returns the previous halfedge in h's face or boundary loop.
func (m *Mesh) Prev(h Halfedge) Halfedge { return m.hconn[h].prev }

// Face returns the face of h, or NoFace for a boundary halfedge.
func (m *Mesh) Face(h Halfedge) Face { return m.hconn[h].face }

// EdgeOf returns the edge h belongs to.
func (m *Mesh) EdgeOf(h Halfedge) Edge { return Edge(h >> 1) }

// EdgeHalfedge returns halfedge i (0 or 1) of e.
func (m *Mesh) EdgeHalfedge(e Edge, i int) Halfedge { return Halfedge(int(e)<<1 + i) }

// VertexHalfedge returns an outgoing halfedge of v, or NoHalfedge if v is
// isolated. For boundary vertices it is a boundary halfedge.
func (m *Mesh) VertexHalfedge(v Vertex) Halfedge { return m.vconn[v].halfedge }

// FaceHalfedge returns a halfedge of f.
func (m *Mesh) FaceHalfedge(f Face) Halfedge { return m.fconn[f].halfedge }

func (m *Mesh) cwRotated(h Halfedge) Halfedge  { return m.Next(h ^ 1) }
func (m *Mesh) ccwRotated(h Halfedge) Halfedge { return m.Prev(h) ^ 1 }

// IsBoundaryHalfedge reports whether h has no face.
func (m *Mesh) IsBoundaryHalfedge(h Halfedge) bool { return !m.hconn[h].face.IsValid() }

// IsBoundaryEdge reports whether either halfedge of e is a boundary halfedge.
func (m *Mesh) IsBoundaryEdge(e Edge) bool {
	h := m.EdgeHalfedge(e, 0)
	return m.IsBoundaryHalfedge(h) || m.IsBoundaryHalfedge(h^1)
}

// IsBoundaryVertex reports whether v lies on the boundary. Isolated vertices
// count as boundary.
func (m *Mesh) IsBoundaryVertex(v Vertex) bool {
	h := m.vconn[v].halfedge
	return !h.IsValid() || m.IsBoundaryHalfedge(h)
}

// IsIsolated reports whether v has no incident edge.
func (m *Mesh) IsIsolated(v Vertex) bool { return !m.vconn[v].halfedge.IsValid() }

// IsManifold reports whether at most one boundary loop passes through v.
func (m *Mesh) IsManifold(v Vertex) bool {
	n := 0
	for h := range m.HalfedgesAround(v) {
		if m.IsBoundaryHalfedge(h) {
			n++
		}
	}
	return n < 2
}

// Valence returns the number of edges incident to v.
func (m *Mesh) Valence(v Vertex) int {
	n := 0
	for range m.HalfedgesAround(v) {
		n++
	}
	return n
}

// FindHalfedge returns the halfedge from start to end, or NoHalfedge.
func (m *Mesh) FindHalfedge(start, end Vertex) Halfedge {
	for h := range m.HalfedgesAround(start) {
		if m.ToVertex(h) == end {
			return h
		}
	}
	return NoHalfedge
}

// HalfedgesAround iterates the outgoing halfedges of v.
func (m *Mesh) HalfedgesAround(v Vertex) iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		start := m.vconn[v].halfedge
		if !start.IsValid() {
			return
		}
		h := start
		for {
			if !yield(h) {
				return
			}
			h = m.ccwRotated(h)
			if h == start {
				return
			}
		}
	}
}

// VerticesAround iterates the one-ring neighbours of v.
func (m *Mesh) VerticesAround(v Vertex) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for h := range m.HalfedgesAround(v) {
			if !yield(m.ToVertex(h)) {
				return
			}
		}
	}
}

// FacesAround iterates the faces incident to v.
func (m *Mesh) FacesAround(v Vertex) iter.Seq[Face] {
	return func(yield func(Face) bool) {
		for h := range m.HalfedgesAround(v) {
			if f := m.Face(h); f.IsValid() && !yield(f) {
				return
			}
		}
	}
}

// HalfedgesOf iterates the halfedges of f.
func (m *Mesh) HalfedgesOf(f Face) iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		start := m.fconn[f].halfedge
		h := start
		for {
			if !yield(h) {
				return
			}
			h = m.Next(h)
			if h == start {
				return
			}
		}
	}
}

// VerticesOf iterates the vertices of f in order.
func (m *Mesh) VerticesOf(f Face) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for h := range m.HalfedgesOf(f) {
			if !yield(m.ToVertex(h)) {
				return
			}
		}
	}
}

// Vertices iterates live vertices in handle order.
func (m *Mesh) Vertices() iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for i, deleted := range m.vdeleted {
			if !deleted && !yield(Vertex(i)) {
				return
			}
		}
	}
}

// Edges iterates live edges in handle order.
func (m *Mesh) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for i, deleted := range m.edeleted {
			if !deleted && !yield(Edge(i)) {
				return
			}
		}
	}
}

// Halfedges iterates live halfedges in handle order.
func (m *Mesh) Halfedges() iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		for i, deleted := range m.edeleted {
			if deleted {
				continue
			}
			if !yield(Halfedge(2*i)) || !yield(Halfedge(2*i+1)) {
				return
			}
		}
	}
}

// Faces iterates live faces in handle order.
func (m *Mesh) Faces() iter.Seq[Face] {
	return func(yield func(Face) bool) {
		for i, deleted := range m.fdeleted {
			if !deleted && !yield(Face(i)) {
				return
			}
		}
	}
}

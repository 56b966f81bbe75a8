package mesh

// IsCollapseOK reports whether collapsing h, moving its from-vertex onto its
// to-vertex, keeps the mesh a manifold. It checks the link condition: the
// one-rings of both endpoints may share only the vertices opposite to h.
func (m *Mesh) IsCollapseOK(h Halfedge) bool {
	o := h ^ 1
	v0 := m.ToVertex(o)
	v1 := m.ToVertex(h)
	vl, vr := NoVertex, NoVertex

	// The edges v1-vl and vl-v0 must not both be boundary edges.
	if !m.IsBoundaryHalfedge(h) {
		h1 := m.Next(h)
		h2 := m.Next(h1)
		vl = m.ToVertex(h1)
		if m.IsBoundaryHalfedge(h1^1) && m.IsBoundaryHalfedge(h2^1) {
			return false
		}
	}

	// The edges v0-vr and vr-v1 must not both be boundary edges.
	if !m.IsBoundaryHalfedge(o) {
		h1 := m.Next(o)
		h2 := m.Next(h1)
		vr = m.ToVertex(h1)
		if m.IsBoundaryHalfedge(h1^1) && m.IsBoundaryHalfedge(h2^1) {
			return false
		}
	}

	if vl == vr {
		return false
	}

	// A tetrahedron would fold into two faces on three vertices.
	if vl.IsValid() && vr.IsValid() && m.FindHalfedge(vl, vr).IsValid() &&
		m.Valence(vl) == 3 && m.Valence(vr) == 3 {
		return false
	}

	// An edge joining two boundary vertices must itself be on the boundary.
	if m.IsBoundaryVertex(v0) && m.IsBoundaryVertex(v1) &&
		!m.IsBoundaryHalfedge(h) && !m.IsBoundaryHalfedge(o) {
		return false
	}

	for vv := range m.VerticesAround(v0) {
		if vv != v1 && vv != vl && vv != vr && m.FindHalfedge(vv, v1).IsValid() {
			return false
		}
	}
	return true
}

// Collapse removes the from-vertex of h and reconnects its edges to the
// to-vertex. Faces that degenerate into two-edge loops are removed. The
// caller must check IsCollapseOK first. The position of the surviving vertex
// is left unchanged.
func (m *Mesh) Collapse(h Halfedge) {
	h1 := m.Prev(h)
	o1 := m.Next(h ^ 1)

	m.removeEdge(h)

	if m.Next(m.Next(h1)) == h1 {
		m.removeLoop(h1)
	}
	if m.Next(m.Next(o1)) == o1 {
		m.removeLoop(o1)
	}
}

func (m *Mesh) removeEdge(h Halfedge) {
	hn, hp := m.Next(h), m.Prev(h)
	o := h ^ 1
	on, op := m.Next(o), m.Prev(o)

	fh, fo := m.Face(h), m.Face(o)
	vh, vo := m.ToVertex(h), m.ToVertex(o)

	for hc := range m.HalfedgesAround(vo) {
		m.hconn[hc^1].to = vh
	}

	m.setNext(hp, hn)
	m.setNext(op, on)

	if fh.IsValid() {
		m.fconn[fh].halfedge = hn
	}
	if fo.IsValid() {
		m.fconn[fo].halfedge = on
	}

	if m.vconn[vh].halfedge == o {
		m.vconn[vh].halfedge = hn
	}
	m.adjustOutgoingHalfedge(vh)
	m.vconn[vo].halfedge = NoHalfedge

	m.vdeleted[vo] = true
	m.deletedVertices++
	m.edeleted[h>>1] = true
	m.deletedEdges++
}

// removeLoop removes the two-edge loop starting at h together with its face,
// merging its second edge into the face across the first.
func (m *Mesh) removeLoop(h Halfedge) {
	h0 := h
	h1 := m.Next(h0)
	o0, o1 := h0^1, h1^1
	v0, v1 := m.ToVertex(h0), m.ToVertex(h1)
	fh, fo := m.Face(h0), m.Face(o0)

	m.setNext(h1, m.Next(o0))
	m.setNext(m.Prev(o0), h1)

	m.hconn[h1].face = fo

	m.vconn[v0].halfedge = h1
	m.adjustOutgoingHalfedge(v0)
	m.vconn[v1].halfedge = o1
	m.adjustOutgoingHalfedge(v1)

	if fo.IsValid() && m.fconn[fo].halfedge == o0 {
		m.fconn[fo].halfedge = h1
	}

	if fh.IsValid() {
		m.fdeleted[fh] = true
		m.deletedFaces++
	}
	m.edeleted[h0>>1] = true
	m.deletedEdges++
}

package mesh

import "github.com/ttzck/gm-meshproc/pkg/math"

// GarbageCollect drops deleted elements and compacts the arenas, keeping the
// relative order of survivors. All handles held by the caller are invalid
// afterwards.
func (m *Mesh) GarbageCollect() {
	if !m.HasGarbage() {
		return
	}

	vmap := make([]Vertex, len(m.vconn))
	nv := 0
	for i, deleted := range m.vdeleted {
		if deleted {
			vmap[i] = NoVertex
			continue
		}
		vmap[i] = Vertex(nv)
		nv++
	}

	hmap := make([]Halfedge, len(m.hconn))
	ne := 0
	for i, deleted := range m.edeleted {
		if deleted {
			hmap[2*i], hmap[2*i+1] = NoHalfedge, NoHalfedge
			continue
		}
		hmap[2*i], hmap[2*i+1] = Halfedge(2*ne), Halfedge(2*ne+1)
		ne++
	}

	fmap := make([]Face, len(m.fconn))
	nf := 0
	for i, deleted := range m.fdeleted {
		if deleted {
			fmap[i] = NoFace
			continue
		}
		fmap[i] = Face(nf)
		nf++
	}

	remapH := func(h Halfedge) Halfedge {
		if !h.IsValid() {
			return h
		}
		return hmap[h]
	}
	remapF := func(f Face) Face {
		if !f.IsValid() {
			return f
		}
		return fmap[f]
	}

	vconn := make([]vertexConn, 0, nv)
	points := make([]math.Vec3, 0, nv)
	for i, deleted := range m.vdeleted {
		if deleted {
			continue
		}
		points = append(points, m.positions[i])
		vconn = append(vconn, vertexConn{halfedge: remapH(m.vconn[i].halfedge)})
	}

	hconn := make([]halfedgeConn, 0, 2*ne)
	for i, deleted := range m.edeleted {
		if deleted {
			continue
		}
		for _, c := range m.hconn[2*i : 2*i+2] {
			hconn = append(hconn, halfedgeConn{
				face: remapF(c.face),
				to:   vmap[c.to],
				next: remapH(c.next),
				prev: remapH(c.prev),
			})
		}
	}

	fconn := make([]faceConn, 0, nf)
	for i, deleted := range m.fdeleted {
		if deleted {
			continue
		}
		fconn = append(fconn, faceConn{halfedge: remapH(m.fconn[i].halfedge)})
	}

	m.positions = points
	m.vconn = vconn
	m.hconn = hconn
	m.fconn = fconn
	m.vdeleted = make([]bool, nv)
	m.edeleted = make([]bool, ne)
	m.fdeleted = make([]bool, nf)
	m.deletedVertices, m.deletedEdges, m.deletedFaces = 0, 0, 0
}

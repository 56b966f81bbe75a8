// Package mesh implements an indexed halfedge surface mesh.
//
// Elements live in arenas and are addressed by integer handles. Removing an
// element only marks it deleted, so handles stay valid as keys for side
// storage until GarbageCollect compacts the arenas. Halfedges are allocated
// in opposite pairs: the opposite of h is h^1 and its edge is h>>1.
package mesh

import (
	"errors"
	"fmt"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

// Vertex is a vertex handle.
type Vertex int32

// Halfedge is a halfedge handle.
type Halfedge int32

// Edge is an edge handle.
type Edge int32

// Face is a face handle.
type Face int32

// Invalid handle values.
const (
	NoVertex   Vertex   = -1
	NoHalfedge Halfedge = -1
	NoEdge     Edge     = -1
	NoFace     Face     = -1
)

// IsValid reports whether v refers to an element.
func (v Vertex) IsValid() bool { return v >= 0 }

// IsValid reports whether h refers to an element.
func (h Halfedge) IsValid() bool { return h >= 0 }

// IsValid reports whether e refers to an element.
func (e Edge) IsValid() bool { return e >= 0 }

// IsValid reports whether f refers to an element.
func (f Face) IsValid() bool { return f >= 0 }

// Errors returned by AddFace.
var (
	ErrDegenerateFace = errors.New("face needs at least three distinct vertices")
	ErrInvalidVertex  = errors.New("invalid vertex handle")
	ErrComplexVertex  = errors.New("complex vertex")
	ErrComplexEdge    = errors.New("complex edge")
	ErrPatchRelink    = errors.New("patch re-linking failed")
)

type vertexConn struct {
	halfedge Halfedge // outgoing, boundary if the vertex is on the boundary
}

type halfedgeConn struct {
	face Face
	to   Vertex
	next Halfedge
	prev Halfedge
}

type faceConn struct {
	halfedge Halfedge
}

// Mesh is a halfedge surface mesh. The zero value is not usable; call New.
type Mesh struct {
	positions []math.Vec3

	vconn []vertexConn
	hconn []halfedgeConn
	fconn []faceConn

	vdeleted []bool
	edeleted []bool
	fdeleted []bool

	deletedVertices int
	deletedEdges    int
	deletedFaces    int
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// Clone returns a deep copy of m. Handles are preserved.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		positions:       append([]math.Vec3(nil), m.positions...),
		vconn:           append([]vertexConn(nil), m.vconn...),
		hconn:           append([]halfedgeConn(nil), m.hconn...),
		fconn:           append([]faceConn(nil), m.fconn...),
		vdeleted:        append([]bool(nil), m.vdeleted...),
		edeleted:        append([]bool(nil), m.edeleted...),
		fdeleted:        append([]bool(nil), m.fdeleted...),
		deletedVertices: m.deletedVertices,
		deletedEdges:    m.deletedEdges,
		deletedFaces:    m.deletedFaces,
	}
}

// NumVertices returns the number of live vertices.
func (m *Mesh) NumVertices() int { return len(m.vconn) - m.deletedVertices }

// NumEdges returns the number of live edges.
func (m *Mesh) NumEdges() int { return len(m.hconn)/2 - m.deletedEdges }

// NumHalfedges returns the number of live halfedges.
func (m *Mesh) NumHalfedges() int { return 2 * m.NumEdges() }

// NumFaces returns the number of live faces.
func (m *Mesh) NumFaces() int { return len(m.fconn) - m.deletedFaces }

// IsEmpty reports whether the mesh has no live vertices.
func (m *Mesh) IsEmpty() bool { return m.NumVertices() == 0 }

// VertexSlots returns the vertex arena length, deleted vertices included.
// Side storage indexed by Vertex must have this length.
func (m *Mesh) VertexSlots() int { return len(m.vconn) }

// HalfedgeSlots returns the halfedge arena length, deleted halfedges included.
func (m *Mesh) HalfedgeSlots() int { return len(m.hconn) }

// FaceSlots returns the face arena length, deleted faces included.
func (m *Mesh) FaceSlots() int { return len(m.fconn) }

// HasGarbage reports whether any element is marked deleted.
func (m *Mesh) HasGarbage() bool {
	return m.deletedVertices+m.deletedEdges+m.deletedFaces > 0
}

// IsDeletedVertex reports whether v was removed.
func (m *Mesh) IsDeletedVertex(v Vertex) bool { return m.vdeleted[v] }

// IsDeletedEdge reports whether e was removed.
func (m *Mesh) IsDeletedEdge(e Edge) bool { return m.edeleted[e] }

// IsDeletedHalfedge reports whether the edge of h was removed.
func (m *Mesh) IsDeletedHalfedge(h Halfedge) bool { return m.edeleted[h>>1] }

// IsDeletedFace reports whether f was removed.
func (m *Mesh) IsDeletedFace(f Face) bool { return m.fdeleted[f] }

// AddVertex appends an isolated vertex at p.
func (m *Mesh) AddVertex(p math.Vec3) Vertex {
	m.positions = append(m.positions, p)
	m.vconn = append(m.vconn, vertexConn{halfedge: NoHalfedge})
	m.vdeleted = append(m.vdeleted, false)
	return Vertex(len(m.vconn) - 1)
}

// Position returns the position of v.
func (m *Mesh) Position(v Vertex) math.Vec3 { return m.positions[v] }

// SetPosition moves v to p.
func (m *Mesh) SetPosition(v Vertex, p math.Vec3) { m.positions[v] = p }

func (m *Mesh) newEdge(start, end Vertex) Halfedge {
	m.hconn = append(m.hconn,
		halfedgeConn{face: NoFace, to: end, next: NoHalfedge, prev: NoHalfedge},
		halfedgeConn{face: NoFace, to: start, next: NoHalfedge, prev: NoHalfedge},
	)
	m.edeleted = append(m.edeleted, false)
	return Halfedge(len(m.hconn) - 2)
}

func (m *Mesh) newFace() Face {
	m.fconn = append(m.fconn, faceConn{halfedge: NoHalfedge})
	m.fdeleted = append(m.fdeleted, false)
	return Face(len(m.fconn) - 1)
}

// AddTriangle adds the face (a, b, c).
func (m *Mesh) AddTriangle(a, b, c Vertex) (Face, error) {
	return m.AddFace(a, b, c)
}

type nextLink struct {
	h, next Halfedge
}

// AddFace adds a polygon through vs in counter-clockwise order. It fails
// without modifying the mesh when the face would make the surface
// non-manifold.
func (m *Mesh) AddFace(vs ...Vertex) (Face, error) {
	n := len(vs)
	if n < 3 {
		return NoFace, ErrDegenerateFace
	}
	for i, v := range vs {
		if v < 0 || int(v) >= len(m.vconn) || m.vdeleted[v] {
			return NoFace, fmt.Errorf("add face: vertex %d: %w", v, ErrInvalidVertex)
		}
		for _, w := range vs[:i] {
			if v == w {
				return NoFace, ErrDegenerateFace
			}
		}
	}

	halfedges := make([]Halfedge, n)
	isNew := make([]bool, n)
	needsAdjust := make([]bool, n)
	cache := make([]nextLink, 0, 3*n)

	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		if !m.IsBoundaryVertex(vs[i]) {
			return NoFace, fmt.Errorf("add face: vertex %d: %w", vs[i], ErrComplexVertex)
		}
		halfedges[i] = m.FindHalfedge(vs[i], vs[ii])
		isNew[i] = !halfedges[i].IsValid()
		if !isNew[i] && !m.IsBoundaryHalfedge(halfedges[i]) {
			return NoFace, fmt.Errorf("add face: edge %d-%d: %w", vs[i], vs[ii], ErrComplexEdge)
		}
	}

	// Re-link patches whose boundary loops would otherwise cross.
	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		if isNew[i] || isNew[ii] {
			continue
		}
		innerPrev, innerNext := halfedges[i], halfedges[ii]
		if m.Next(innerPrev) == innerNext {
			continue
		}
		outerPrev := m.Opposite(innerNext)
		boundaryPrev := outerPrev
		for {
			boundaryPrev = m.Opposite(m.Next(boundaryPrev))
			if m.IsBoundaryHalfedge(boundaryPrev) && boundaryPrev != innerPrev {
				break
			}
		}
		boundaryNext := m.Next(boundaryPrev)
		if boundaryNext == innerNext {
			return NoFace, fmt.Errorf("add face: %w", ErrPatchRelink)
		}
		patchStart := m.Next(innerPrev)
		patchEnd := m.Prev(innerNext)
		cache = append(cache,
			nextLink{boundaryPrev, patchStart},
			nextLink{patchEnd, boundaryNext},
			nextLink{innerPrev, innerNext},
		)
	}

	for i := 0; i < n; i++ {
		if isNew[i] {
			halfedges[i] = m.newEdge(vs[i], vs[(i+1)%n])
		}
	}

	f := m.newFace()
	m.fconn[f].halfedge = halfedges[n-1]

	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		v := vs[ii]
		innerPrev, innerNext := halfedges[i], halfedges[ii]

		id := 0
		if isNew[i] {
			id |= 1
		}
		if isNew[ii] {
			id |= 2
		}

		if id != 0 {
			outerPrev := m.Opposite(innerNext)
			outerNext := m.Opposite(innerPrev)
			switch id {
			case 1: // prev is new, next is old
				boundaryPrev := m.Prev(innerNext)
				cache = append(cache, nextLink{boundaryPrev, outerNext})
				m.vconn[v].halfedge = outerNext
			case 2: // next is new, prev is old
				boundaryNext := m.Next(innerPrev)
				cache = append(cache, nextLink{outerPrev, boundaryNext})
				m.vconn[v].halfedge = boundaryNext
			case 3: // both new
				if !m.vconn[v].halfedge.IsValid() {
					m.vconn[v].halfedge = outerNext
					cache = append(cache, nextLink{outerPrev, outerNext})
				} else {
					boundaryNext := m.vconn[v].halfedge
					boundaryPrev := m.Prev(boundaryNext)
					cache = append(cache,
						nextLink{boundaryPrev, outerNext},
						nextLink{outerPrev, boundaryNext},
					)
				}
			}
			cache = append(cache, nextLink{innerPrev, innerNext})
		} else {
			needsAdjust[ii] = m.vconn[v].halfedge == innerNext
		}
		m.hconn[halfedges[i]].face = f
	}

	for _, l := range cache {
		m.setNext(l.h, l.next)
	}
	for i, adjust := range needsAdjust {
		if adjust {
			m.adjustOutgoingHalfedge(vs[i])
		}
	}
	return f, nil
}

func (m *Mesh) setNext(h, next Halfedge) {
	m.hconn[h].next = next
	m.hconn[next].prev = h
}

// adjustOutgoingHalfedge makes a boundary halfedge the outgoing halfedge of
// v if v has one, so boundary tests on vertices stay O(1).
func (m *Mesh) adjustOutgoingHalfedge(v Vertex) {
	h := m.vconn[v].halfedge
	if !h.IsValid() {
		return
	}
	start := h
	for {
		if m.IsBoundaryHalfedge(h) {
			m.vconn[v].halfedge = h
			return
		}
		h = m.cwRotated(h)
		if h == start {
			return
		}
	}
}

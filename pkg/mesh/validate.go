package mesh

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned by Validate when connectivity is broken.
var ErrInconsistent = errors.New("inconsistent mesh")

// Validate checks the connectivity invariants of the mesh: next/prev agree,
// consecutive halfedges share a vertex and a face, faces are closed loops of
// at least three halfedges, outgoing vertex halfedges start at their vertex
// and prefer the boundary, and no live element refers to a deleted one.
func (m *Mesh) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
	}

	for h := range m.Halfedges() {
		next, prev := m.Next(h), m.Prev(h)
		if !next.IsValid() || !prev.IsValid() {
			return bad("halfedge %d is not linked", h)
		}
		if m.IsDeletedHalfedge(next) || m.IsDeletedHalfedge(prev) {
			return bad("halfedge %d links to a deleted halfedge", h)
		}
		if m.Prev(next) != h || m.Next(prev) != h {
			return bad("halfedge %d next/prev disagree", h)
		}
		if m.FromVertex(next) != m.ToVertex(h) {
			return bad("halfedge %d and its next do not share a vertex", h)
		}
		if m.Face(next) != m.Face(h) {
			return bad("halfedge %d and its next lie in different faces", h)
		}
		if v := m.ToVertex(h); m.IsDeletedVertex(v) {
			return bad("halfedge %d points to deleted vertex %d", h, v)
		}
		if f := m.Face(h); f.IsValid() && m.IsDeletedFace(f) {
			return bad("halfedge %d belongs to deleted face %d", h, f)
		}
		if m.ToVertex(h) == m.FromVertex(h) {
			return bad("halfedge %d is a self loop", h)
		}
	}

	for v := range m.Vertices() {
		h := m.VertexHalfedge(v)
		if !h.IsValid() {
			continue
		}
		if m.IsDeletedHalfedge(h) || m.FromVertex(h) != v {
			return bad("vertex %d has a foreign outgoing halfedge", v)
		}
		boundary := false
		for hh := range m.HalfedgesAround(v) {
			if m.IsBoundaryHalfedge(hh) {
				boundary = true
				break
			}
		}
		if boundary && !m.IsBoundaryHalfedge(h) {
			return bad("boundary vertex %d has an interior outgoing halfedge", v)
		}
	}

	for f := range m.Faces() {
		h := m.FaceHalfedge(f)
		if !h.IsValid() || m.IsDeletedHalfedge(h) {
			return bad("face %d has no live halfedge", f)
		}
		n := 0
		for hh := range m.HalfedgesOf(f) {
			if m.Face(hh) != f {
				return bad("face %d loop leaves the face", f)
			}
			n++
			if n > m.HalfedgeSlots() {
				return bad("face %d loop does not close", f)
			}
		}
		if n < 3 {
			return bad("face %d has %d sides", f, n)
		}
	}
	return nil
}

package model

import (
	"github.com/ttzck/gm-meshproc/pkg/math"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

// BuildMesh flattens m into render buffers. Deleted elements are skipped,
// so it is safe to call between collapses and garbage collection.
func BuildMesh(m *mesh.Mesh) *Mesh {
	out := &Mesh{
		Vertices: make([]Vertex, 0, 3*m.NumFaces()),
		Indices:  make([]uint32, 0, 3*m.NumFaces()),
		Lines:    make([][3]float32, 0, 2*m.NumEdges()),
	}

	box := math.EmptyBox()
	corners := make([]mesh.Vertex, 0, 8)

	for f := range m.Faces() {
		n := m.FaceNormal(f)
		if n.SqrLength() == 0 || !n.IsFinite() {
			out.Skipped++
			continue
		}
		normal := n.Float32()

		corners = corners[:0]
		for v := range m.VerticesOf(f) {
			corners = append(corners, v)
		}

		base := uint32(len(out.Vertices))
		for _, v := range corners {
			p := m.Position(v)
			box = box.Extend(p)
			out.Vertices = append(out.Vertices, Vertex{
				Position: p.Float32(),
				Normal:   normal,
			})
		}

		// Triangle fan around the first corner
		for i := 1; i+1 < len(corners); i++ {
			out.Indices = append(out.Indices, base, base+uint32(i), base+uint32(i+1))
			out.Triangles++
		}
	}

	for e := range m.Edges() {
		h := m.EdgeHalfedge(e, 0)
		out.Lines = append(out.Lines,
			m.Position(m.FromVertex(h)).Float32(),
			m.Position(m.ToVertex(h)).Float32(),
		)
	}

	if !box.IsEmpty() {
		out.Bounds = Bounds{Min: box.Min.Float32(), Max: box.Max.Float32()}
	}
	return out
}

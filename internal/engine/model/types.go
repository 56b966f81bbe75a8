// Package model converts halfedge meshes into GPU-ready vertex and index
// buffers.
package model

// Vertex represents a render vertex with position and flat normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Mesh holds the complete render data ready for GPU upload.
type Mesh struct {
	// Vertices are unshared per face corner so every face can carry
	// its own normal.
	Vertices []Vertex
	// Indices are triangle indices into Vertices.
	Indices []uint32
	// Lines holds one [3]float32 endpoint pair per mesh edge.
	Lines [][3]float32
	// Bounds of the positions that were emitted.
	Bounds Bounds

	// Triangles counts emitted triangles; polygons are fanned.
	Triangles int
	// Skipped counts faces dropped for a zero or non-finite normal.
	Skipped int
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the box midpoint.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

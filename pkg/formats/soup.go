// Package formats reads and writes polygon mesh files.
package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ttzck/gm-meshproc/pkg/math"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

// ErrUnsupportedFormat is returned for file extensions without a codec.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// PolygonSoup is an indexed face list as stored in mesh files.
type PolygonSoup struct {
	Points []math.Vec3
	Faces  [][]int
}

// ToMesh builds a halfedge mesh from the soup. Faces that would make the
// surface non-manifold are skipped and counted.
func (s *PolygonSoup) ToMesh() (*mesh.Mesh, int) {
	m := mesh.New()
	for _, p := range s.Points {
		m.AddVertex(p)
	}
	skipped := 0
	vs := make([]mesh.Vertex, 0, 4)
	for _, face := range s.Faces {
		vs = vs[:0]
		for _, idx := range face {
			vs = append(vs, mesh.Vertex(idx))
		}
		if _, err := m.AddFace(vs...); err != nil {
			skipped++
		}
	}
	return m, skipped
}

// FromMesh collects the live elements of m into a soup with dense indices.
func FromMesh(m *mesh.Mesh) *PolygonSoup {
	s := &PolygonSoup{
		Points: make([]math.Vec3, 0, m.NumVertices()),
		Faces:  make([][]int, 0, m.NumFaces()),
	}
	index := make([]int, m.VertexSlots())
	for v := range m.Vertices() {
		index[v] = len(s.Points)
		s.Points = append(s.Points, m.Position(v))
	}
	for f := range m.Faces() {
		var face []int
		for v := range m.VerticesOf(f) {
			face = append(face, index[v])
		}
		s.Faces = append(s.Faces, face)
	}
	return s
}

func (s *PolygonSoup) checkIndices() error {
	for i, face := range s.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(s.Points) {
				return fmt.Errorf("face %d: %w: %d", i, ErrIndexOutOfRange, idx)
			}
		}
	}
	return nil
}

// ErrIndexOutOfRange is returned when a face refers to a missing point.
var ErrIndexOutOfRange = errors.New("vertex index out of range")

// codec pairs a parser and writer for one file format.
type codec struct {
	parse func([]byte) (*PolygonSoup, error)
	write func(io.Writer, *PolygonSoup) error
}

var codecs = map[string]codec{
	".off": {ParseOFF, WriteOFF},
	".obj": {ParseOBJ, WriteOBJ},
}

func codecFor(path string) (codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return codec{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// ParseFile reads a mesh file, choosing the format by extension.
func ParseFile(path string) (*PolygonSoup, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return c.parse(data)
}

// Load reads a mesh file into a halfedge mesh. It also returns the number of
// faces dropped because they were non-manifold.
func Load(path string) (*mesh.Mesh, int, error) {
	s, err := ParseFile(path)
	if err != nil {
		return nil, 0, err
	}
	m, skipped := s.ToMesh()
	return m, skipped, nil
}

// Save writes the live elements of m, choosing the format by extension.
func Save(path string, m *mesh.Mesh) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mesh file: %w", err)
	}
	if err := c.write(f, FromMesh(m)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package formats

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ttzck/gm-meshproc/pkg/math"
	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

const tetraOFF = `OFF
# regular tetrahedron
4 4 6
 1  1  1
 1 -1 -1
-1  1 -1
-1 -1  1
3 0 1 2
3 0 2 3
3 0 3 1
3 3 2 1
`

func TestParseOFF(t *testing.T) {
	s, err := ParseOFF([]byte(tetraOFF))
	if err != nil {
		t.Fatalf("ParseOFF failed: %v", err)
	}
	if len(s.Points) != 4 || len(s.Faces) != 4 {
		t.Fatalf("got %d points, %d faces, want 4, 4", len(s.Points), len(s.Faces))
	}
	if want := (math.Vec3{X: 1, Y: -1, Z: -1}); s.Points[1] != want {
		t.Errorf("Points[1] = %v, want %v", s.Points[1], want)
	}
	m, skipped := s.ToMesh()
	if skipped != 0 {
		t.Errorf("ToMesh skipped %d faces", skipped)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if m.NumEdges() != 6 {
		t.Errorf("NumEdges() = %d, want 6", m.NumEdges())
	}
}

func TestParseOFFVariants(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"counts on header line", "OFF 3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"},
		{"no header", "3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"},
		{"color", "COFF\n3 1 0\n0 0 0 255 0 0\n1 0 0 0 255 0\n0 1 0 0 0 255\n3 0 1 2 128 128 128\n"},
		{"normals", "NOFF\n3 1 0\n0 0 0 0 0 1\n1 0 0 0 0 1\n0 1 0 0 0 1\n3 0 1 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseOFF([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseOFF failed: %v", err)
			}
			if len(s.Points) != 3 || len(s.Faces) != 1 || len(s.Faces[0]) != 3 {
				t.Errorf("got %d points, %d faces", len(s.Points), len(s.Faces))
			}
		})
	}
}

func TestParseOFFErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"empty", "", ErrInvalidOFFHeader},
		{"bad keyword", "XOFF\n3 1 0\n", ErrInvalidOFFHeader},
		{"binary", "OFF BINARY\n", ErrUnsupportedOFF},
		{"4d", "4OFF\n", ErrUnsupportedOFF},
		{"bad counts", "OFF\nthree 1 0\n", ErrInvalidOFFHeader},
		{"missing vertices", "OFF\n3 1 0\n0 0 0\n", ErrTruncatedOFFData},
		{"missing faces", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n", ErrTruncatedOFFData},
		{"short vertex", "OFF\n3 1 0\n0 0\n1 0 0\n0 1 0\n3 0 1 2\n", ErrInvalidOFFData},
		{"two-sided face", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n2 0 1\n", ErrInvalidOFFData},
		{"index out of range", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 5\n", ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOFF([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseOFF() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseOBJ(t *testing.T) {
	data := `# quad split into two triangles
o plane
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
usemtl none
f 1/1/1 2/1/1 3/1/1
f -4//1 -2//1 -1//1
`
	s, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(s.Points) != 4 || len(s.Faces) != 2 {
		t.Fatalf("got %d points, %d faces, want 4, 2", len(s.Points), len(s.Faces))
	}
	if got := s.Faces[1]; got[0] != 0 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Faces[1] = %v, want [0 2 3]", got)
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"short vertex", "v 1 2\n", ErrInvalidOBJVertex},
		{"bad coordinate", "v 1 x 2\n", ErrInvalidOBJVertex},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrInvalidOBJFace},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrInvalidOBJFace},
		{"missing vertex", "v 0 0 0\nf 1 2 3\n", ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseOBJ() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".off", ".obj"} {
		t.Run(ext, func(t *testing.T) {
			m := mesh.Icosahedron()
			path := filepath.Join(t.TempDir(), "ico"+ext)
			if err := Save(path, m); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, skipped, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if skipped != 0 {
				t.Errorf("Load skipped %d faces", skipped)
			}
			if got.NumVertices() != 12 || got.NumFaces() != 20 {
				t.Errorf("got %d vertices, %d faces", got.NumVertices(), got.NumFaces())
			}
			for v := range m.Vertices() {
				if got.Position(v) != m.Position(v) {
					t.Errorf("Position(%d) = %v, want %v", v, got.Position(v), m.Position(v))
				}
			}
		})
	}
}

func TestFromMeshSkipsDeleted(t *testing.T) {
	m := mesh.Icosahedron()
	m.Collapse(m.FindHalfedge(0, 1))
	s := FromMesh(m)
	if len(s.Points) != 11 || len(s.Faces) != 18 {
		t.Fatalf("got %d points, %d faces, want 11, 18", len(s.Points), len(s.Faces))
	}
	if err := s.checkIndices(); err != nil {
		t.Errorf("dense indices: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteOFF(&buf, s); err != nil {
		t.Fatal(err)
	}
	back, err := ParseOFF(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseOFF of written data: %v", err)
	}
	if _, skipped := back.ToMesh(); skipped != 0 {
		t.Errorf("re-read mesh skipped %d faces", skipped)
	}
}

func TestToMeshSkipsNonManifold(t *testing.T) {
	s := &PolygonSoup{
		Points: []math.Vec3{{}, {X: 1}, {Y: 1}, {Z: 1}},
		Faces:  [][]int{{0, 1, 2}, {0, 1, 2}, {1, 0, 3}},
	}
	m, skipped := s.ToMesh()
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if m.NumFaces() != 2 {
		t.Errorf("NumFaces() = %d, want 2", m.NumFaces())
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, _, err := Load("mesh.stl"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.stl) error = %v, want ErrUnsupportedFormat", err)
	}
	if err := Save(filepath.Join(t.TempDir(), "m.ply"), mesh.Tetrahedron()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Save(.ply) error = %v, want ErrUnsupportedFormat", err)
	}
}

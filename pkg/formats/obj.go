package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ttzck/gm-meshproc/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// ParseOBJ parses the geometry of a Wavefront OBJ file. Only "v" and "f"
// statements are used; normals, texture coordinates, groups and materials
// are skipped. Negative face indices count back from the latest vertex.
func ParseOBJ(data []byte) (*PolygonSoup, error) {
	r := newLineReader(data)
	soup := &PolygonSoup{}

	var xyz [3]float64
	for {
		fields, ok := r.next()
		if !ok {
			break
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: need 3 coordinates", ErrInvalidOBJVertex, r.line)
			}
			if err := parseFloats(fields[1:], xyz[:]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJVertex, r.line, err)
			}
			soup.Points = append(soup.Points, math.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: need at least 3 vertices", ErrInvalidOBJFace, r.line)
			}
			face := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				if i := strings.IndexByte(ref, '/'); i >= 0 {
					ref = ref[:i]
				}
				idx, err := strconv.Atoi(ref)
				if err != nil || idx == 0 {
					return nil, fmt.Errorf("%w: line %d: bad index %q", ErrInvalidOBJFace, r.line, ref)
				}
				if idx < 0 {
					idx += len(soup.Points)
				} else {
					idx--
				}
				face = append(face, idx)
			}
			soup.Faces = append(soup.Faces, face)
		}
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("reading OBJ data: %w", err)
	}
	if err := soup.checkIndices(); err != nil {
		return nil, err
	}
	return soup, nil
}

// WriteOBJ writes s as a Wavefront OBJ file with 1-based indices.
func WriteOBJ(w io.Writer, s *PolygonSoup) error {
	bw := bufio.NewWriter(w)
	for _, p := range s.Points {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}
	for _, face := range s.Faces {
		bw.WriteByte('f')
		for _, idx := range face {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(idx + 1))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing OBJ data: %w", err)
	}
	return nil
}

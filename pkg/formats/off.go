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

// OFF format errors.
var (
	ErrInvalidOFFHeader = errors.New("invalid OFF header")
	ErrUnsupportedOFF   = errors.New("unsupported OFF variant")
	ErrTruncatedOFFData = errors.New("truncated OFF data")
	ErrInvalidOFFData   = errors.New("invalid OFF data")
)

// ParseOFF parses an ASCII Object File Format mesh. Color, normal and
// texture variants (COFF, NOFF, STOFF, ...) are accepted and their extra
// columns ignored.
func ParseOFF(data []byte) (*PolygonSoup, error) {
	r := newLineReader(data)

	fields, ok := r.next()
	if !ok {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidOFFHeader)
	}
	hasNormals, hasColors, hasTex := false, false, false
	if kw := fields[0]; strings.HasSuffix(kw, "OFF") {
		if len(fields) > 1 && fields[1] == "BINARY" {
			return nil, fmt.Errorf("%w: binary", ErrUnsupportedOFF)
		}
		prefix := strings.TrimSuffix(kw, "OFF")
		for _, c := range prefix {
			switch c {
			case 'N':
				hasNormals = true
			case 'C':
				hasColors = true
			case 'S', 'T':
				hasTex = true
			case '4':
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedOFF, kw)
			default:
				return nil, fmt.Errorf("%w: %q", ErrInvalidOFFHeader, kw)
			}
		}
		fields = fields[1:]
		if len(fields) == 0 {
			if fields, ok = r.next(); !ok {
				return nil, fmt.Errorf("%w: missing counts", ErrInvalidOFFHeader)
			}
		}
	}

	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: line %d: expected vertex and face counts", ErrInvalidOFFHeader, r.line)
	}
	nv, err1 := strconv.Atoi(fields[0])
	nf, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || nv < 0 || nf < 0 {
		return nil, fmt.Errorf("%w: line %d: bad counts %v", ErrInvalidOFFHeader, r.line, fields)
	}

	minCols := 3
	if hasNormals {
		minCols += 3
	}
	if hasColors {
		minCols += 3
	}
	if hasTex {
		minCols += 2
	}

	soup := &PolygonSoup{
		Points: make([]math.Vec3, 0, nv),
		Faces:  make([][]int, 0, nf),
	}

	var xyz [3]float64
	for i := 0; i < nv; i++ {
		fields, ok := r.next()
		if !ok {
			return nil, fmt.Errorf("%w: %d of %d vertices", ErrTruncatedOFFData, i, nv)
		}
		if len(fields) < minCols {
			return nil, fmt.Errorf("%w: line %d: vertex needs %d columns", ErrInvalidOFFData, r.line, minCols)
		}
		if err := parseFloats(fields, xyz[:]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOFFData, r.line, err)
		}
		soup.Points = append(soup.Points, math.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}

	for i := 0; i < nf; i++ {
		fields, ok := r.next()
		if !ok {
			return nil, fmt.Errorf("%w: %d of %d faces", ErrTruncatedOFFData, i, nf)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 || len(fields) < n+1 {
			return nil, fmt.Errorf("%w: line %d: bad face", ErrInvalidOFFData, r.line)
		}
		face := make([]int, n)
		for j := range face {
			if face[j], err = strconv.Atoi(fields[j+1]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOFFData, r.line, err)
			}
		}
		soup.Faces = append(soup.Faces, face)
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("reading OFF data: %w", err)
	}
	if err := soup.checkIndices(); err != nil {
		return nil, err
	}
	return soup, nil
}

// WriteOFF writes s as an ASCII OFF file.
func WriteOFF(w io.Writer, s *PolygonSoup) error {
	bw := bufio.NewWriter(w)
	edges := make(map[[2]int]struct{})
	for _, face := range s.Faces {
		for i, a := range face {
			b := face[(i+1)%len(face)]
			edges[[2]int{min(a, b), max(a, b)}] = struct{}{}
		}
	}
	fmt.Fprintf(bw, "OFF\n%d %d %d\n", len(s.Points), len(s.Faces), len(edges))
	for _, p := range s.Points {
		fmt.Fprintf(bw, "%s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}
	for _, face := range s.Faces {
		bw.WriteString(strconv.Itoa(len(face)))
		for _, idx := range face {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(idx))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing OFF data: %w", err)
	}
	return nil
}

package formats

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// lineReader yields the non-empty, comment-stripped lines of a text file
// together with their 1-based line numbers.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func newLineReader(data []byte) *lineReader {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineReader{sc: sc}
}

// next returns the fields of the next meaningful line, or false at EOF.
func (r *lineReader) next() ([]string, bool) {
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) > 0 {
			return fields, true
		}
	}
	return nil, false
}

func (r *lineReader) err() error { return r.sc.Err() }

func parseFloats(fields []string, out []float64) error {
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

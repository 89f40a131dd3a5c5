// Package trajectory reads and writes the tab separated trajectory text
// format consumed by the measurement program.
package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/flowcheck/internal/kinematics"
)

// DefaultGeometry is the geometry file named in the header when none is set.
const DefaultGeometry = "geometry.xml"

// ErrMalformedRecord is returned by the reader for rows it cannot parse.
var ErrMalformedRecord = errors.New("malformed trajectory record")

// Record is one row of a trajectory file. Frame is 1-indexed.
type Record struct {
	ID    int
	Frame int
	X     float64
	Y     float64
	Z     float64
	Shape kinematics.Shape
}

// Header is the commented preamble of a trajectory file.
type Header struct {
	FrameRate float64
	Geometry  string
}

// Writer emits a header followed by records.
type Writer struct {
	bw          *bufio.Writer
	header      Header
	wroteHeader bool
	records     int
}

// NewWriter wraps w. The header is written lazily before the first record,
// or by Flush if no record was written.
func NewWriter(w io.Writer, h Header) *Writer {
	if h.Geometry == "" {
		h.Geometry = DefaultGeometry
	}
	return &Writer{bw: bufio.NewWriter(w), header: h}
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	_, err := fmt.Fprintf(w.bw,
		"#framerate: %.2f\n#geometry: %s\n"+
			"#ID: the agent ID \n#FR: the current frame\n"+
			"#X,Y,Z: the agents coordinates (in metres)\n"+
			"#A, B: semi-axes of the ellipse\n#ANGLE: orientation of the ellipse\n"+
			"#COLOR: color of the ellipse\n\n"+
			"#ID\tFR\tX\tY\tZ\tA\tB\tANGLE\tCOLOR\n",
		w.header.FrameRate, w.header.Geometry)
	return err
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w.bw, "%6d\t%6d\t%.6f\t%.6f\t%.6f\t%.2f\t%.2f\t%.2f\t%d\n",
		r.ID, r.Frame, r.X, r.Y, r.Z, r.Shape.A, r.Shape.B, r.Shape.Angle, r.Shape.Color)
	if err == nil {
		w.records++
	}
	return err
}

// Records returns how many records have been written.
func (w *Writer) Records() int {
	return w.records
}

// Flush writes any buffered data, including the header of an empty file.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Read parses a trajectory file. Header lines are recognised for the frame
// rate and geometry; other comments and blank lines are skipped.
func Read(r io.Reader) (Header, []Record, error) {
	var h Header
	var recs []Record
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			parseHeaderLine(&h, text)
			continue
		}
		rec, err := parseRecord(text)
		if err != nil {
			return h, nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return h, nil, fmt.Errorf("read trajectory: %w", err)
	}
	return h, recs, nil
}

func parseHeaderLine(h *Header, text string) {
	body := strings.TrimSpace(strings.TrimPrefix(text, "#"))
	key, val, ok := strings.Cut(body, ":")
	if !ok {
		return
	}
	val = strings.TrimSpace(val)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "framerate":
		if fps, err := strconv.ParseFloat(val, 64); err == nil {
			h.FrameRate = fps
		}
	case "geometry":
		h.Geometry = val
	}
}

func parseRecord(text string) (Record, error) {
	f := strings.Fields(text)
	if len(f) < 5 {
		return Record{}, fmt.Errorf("%w: want at least 5 fields, got %d", ErrMalformedRecord, len(f))
	}
	var rec Record
	var err error
	if rec.ID, err = strconv.Atoi(f[0]); err != nil {
		return Record{}, fmt.Errorf("%w: id %q", ErrMalformedRecord, f[0])
	}
	if rec.Frame, err = strconv.Atoi(f[1]); err != nil {
		return Record{}, fmt.Errorf("%w: frame %q", ErrMalformedRecord, f[1])
	}
	floats := []*float64{&rec.X, &rec.Y, &rec.Z, &rec.Shape.A, &rec.Shape.B, &rec.Shape.Angle}
	for i, dst := range floats {
		if 2+i >= len(f) {
			break
		}
		if *dst, err = strconv.ParseFloat(f[2+i], 64); err != nil {
			return Record{}, fmt.Errorf("%w: field %d %q", ErrMalformedRecord, 3+i, f[2+i])
		}
	}
	if len(f) > 8 {
		if rec.Shape.Color, err = strconv.Atoi(f[8]); err != nil {
			return Record{}, fmt.Errorf("%w: color %q", ErrMalformedRecord, f[8])
		}
	}
	return rec, nil
}

// Span is the first and last frame a pedestrian appears in.
type Span struct {
	First int
	Last  int
}

// Spans groups records by pedestrian and reports each one's frame range.
// It returns an error if a pedestrian's frames are not contiguous.
func Spans(recs []Record) (map[int]Span, error) {
	spans := make(map[int]Span)
	counts := make(map[int]int)
	for _, r := range recs {
		s, ok := spans[r.ID]
		if !ok {
			s = Span{First: r.Frame, Last: r.Frame}
		}
		s.First = min(s.First, r.Frame)
		s.Last = max(s.Last, r.Frame)
		spans[r.ID] = s
		counts[r.ID]++
	}
	for id, s := range spans {
		if s.Last-s.First+1 != counts[id] {
			return nil, fmt.Errorf("pedestrian %d: %d records over frames %d..%d", id, counts[id], s.First, s.Last)
		}
	}
	return spans, nil
}

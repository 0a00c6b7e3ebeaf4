// Package trace reads and writes the link's boundary artifacts: bit files
// and correlation traces.
//
// A bit file is a single line of '0'/'1' characters (whitespace between
// bits is tolerated on read, matching files produced by older tooling). A
// correlation trace is one row per evaluated offset, comma- or
// whitespace-delimited, with one to four columns:
//
//	value
//	index value
//	index value energy
//	index value energy dot
//
// Malformed input is reported through FormatError with the offending
// position; the package never substitutes defaults for unreadable data.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-framesync/dsp/correlate"
)

// FormatError describes malformed boundary input.
type FormatError struct {
	Line   int // 1-based line, 0 when not line-oriented
	Column int // 1-based column or bit position
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("trace: line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("trace: position %d: %s", e.Column, e.Reason)
}

// ReadBits parses a bit file into a bit sequence.
func ReadBits(r io.Reader) ([]bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: reading bits: %w", err)
	}

	var bits []bool
	for i, c := range string(data) {
		switch c {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		case ' ', '\t', '\n', '\r':
			// Tolerated between bits.
		default:
			return nil, &FormatError{Column: i + 1, Reason: fmt.Sprintf("invalid bit character %q", c)}
		}
	}
	return bits, nil
}

// WriteBits writes bits as a single line of '0'/'1' characters with no
// trailing newline.
func WriteBits(w io.Writer, bits []bool) error {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	_, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("trace: writing bits: %w", err)
	}
	return nil
}

// Row is one parsed correlation-trace row. Columns records how many fields
// the row carried; Energy and Dot are zero when absent.
type Row struct {
	Index   int
	Value   float64
	Energy  float64
	Dot     float64
	Columns int
}

// ReadRows parses a correlation trace. All rows must carry the same number
// of columns; blank lines are skipped. Single-column traces get indices
// assigned in row order.
func ReadRows(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var rows []Row
	columns := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), ",", " "))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 4 {
			return nil, &FormatError{Line: lineNo, Column: 5, Reason: fmt.Sprintf("too many columns: %d", len(fields))}
		}
		if columns == 0 {
			columns = len(fields)
		} else if len(fields) != columns {
			return nil, &FormatError{Line: lineNo, Column: 1, Reason: fmt.Sprintf("inconsistent column count: %d, expected %d", len(fields), columns)}
		}

		row := Row{Columns: columns}
		if columns == 1 {
			v, err := parseFloat(fields[0], lineNo, 1)
			if err != nil {
				return nil, err
			}
			row.Index = len(rows)
			row.Value = v
		} else {
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, &FormatError{Line: lineNo, Column: 1, Reason: fmt.Sprintf("invalid sample index %q", fields[0])}
			}
			row.Index = idx
			if row.Value, err = parseFloat(fields[1], lineNo, 2); err != nil {
				return nil, err
			}
			if columns >= 3 {
				if row.Energy, err = parseFloat(fields[2], lineNo, 3); err != nil {
					return nil, err
				}
			}
			if columns == 4 {
				if row.Dot, err = parseFloat(fields[3], lineNo, 4); err != nil {
					return nil, err
				}
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: reading rows: %w", err)
	}
	return rows, nil
}

func parseFloat(s string, line, col int) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Line: line, Column: col, Reason: fmt.Sprintf("invalid value %q", s)}
	}
	return v, nil
}

// Scores converts parsed rows back into correlation scores for the
// detection stages.
func Scores(rows []Row) []correlate.Score {
	out := make([]correlate.Score, len(rows))
	for i, r := range rows {
		out[i] = correlate.Score{Offset: r.Index, Value: r.Value, Energy: r.Energy, Dot: r.Dot}
	}
	return out
}

// WriteScores writes a correlation trace with the given number of columns
// (2 = index and value, 3 adds energy, 4 adds the dot product), one
// comma-separated row per score.
func WriteScores(w io.Writer, scores []correlate.Score, columns int) error {
	if columns < 2 || columns > 4 {
		return fmt.Errorf("trace: column count must be 2..4: %d", columns)
	}
	bw := bufio.NewWriter(w)
	for _, s := range scores {
		fmt.Fprintf(bw, "%d,%g", s.Offset, s.Value)
		if columns >= 3 {
			fmt.Fprintf(bw, ",%g", s.Energy)
		}
		if columns == 4 {
			fmt.Fprintf(bw, ",%g", s.Dot)
		}
		fmt.Fprintln(bw)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("trace: writing scores: %w", err)
	}
	return nil
}

// ReadSamples parses a recorded sample buffer: float amplitudes separated
// by commas, whitespace, or newlines.
func ReadSamples(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var samples []float64
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.ReplaceAll(scanner.Text(), ",", " ")
		for col, field := range strings.Fields(line) {
			v, err := parseFloat(field, lineNo, col+1)
			if err != nil {
				return nil, err
			}
			samples = append(samples, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: reading samples: %w", err)
	}
	return samples, nil
}

package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedCSV means a feature table CSV lacks a required column or
// holds a value that is not a number
var ErrMalformedCSV = errors.New("malformed feature table")

// Annotation selects the optional annotation columns of a feature CSV
type Annotation struct {
	Adduct  bool
	Isotope bool
}

// WriteCSV writes the table with columns ID, the selected annotations,
// m/z, intensity and one column per time. m/z is rounded to 4 decimals,
// intensities to integers.
func (t *Table) WriteCSV(w io.Writer, ann Annotation) error {
	mz := t.Mz()
	for i := range mz {
		mz[i] = round(mz[i], 4)
	}
	var isotope, adduct []string
	header := []string{"ID"}
	if ann.Isotope {
		header = append(header, "isotope")
		isotope = AnnotateIsotopes(mz, AnnotationTol)
	}
	if ann.Adduct {
		header = append(header, "adduct")
		adduct = AnnotateAdducts(mz, AnnotationTol)
	}
	header = append(header, "m/z", "intensity")
	for _, tm := range t.Time {
		header = append(header, formatFloat(tm))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range t.Rows {
		rec := []string{strconv.Itoa(i)}
		if ann.Isotope {
			rec = append(rec, isotope[i])
		}
		if ann.Adduct {
			rec = append(rec, adduct[i])
		}
		rec = append(rec, formatFloat(mz[i]), formatValue(round(r.Score, 0)))
		for _, v := range r.Intensity {
			rec = append(rec, formatValue(round(v, 0)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. Annotation columns are
// ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	mzCol, scoreCol := -1, -1
	for i, h := range header {
		switch h {
		case "m/z":
			mzCol = i
		case "intensity":
			scoreCol = i
		}
	}
	if mzCol < 0 || scoreCol < 0 {
		return nil, fmt.Errorf("%w: missing m/z or intensity column", ErrMalformedCSV)
	}
	t := &Table{}
	timeCols := header[scoreCol+1:]
	for _, h := range timeCols {
		tm, err := strconv.ParseFloat(h, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: time column %q", ErrMalformedCSV, h)
		}
		t.Time = append(t.Time, tm)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		row := Row{Intensity: make([]float64, len(timeCols))}
		if row.Mz, err = parseValue(rec[mzCol]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		if row.Score, err = parseValue(rec[scoreCol]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		for k := range timeCols {
			if row.Intensity[k], err = parseValue(rec[scoreCol+1+k]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	sort.SliceStable(t.Rows, func(i, j int) bool { return t.Rows[i].Mz < t.Rows[j].Mz })
	return t, nil
}

// WriteCSV writes one row per merged feature: its m/z followed by the
// value of each file. Missing values are left empty.
func (m *MergedTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"m/z"}, m.Names...)); err != nil {
		return err
	}
	for _, r := range m.Rows {
		rec := []string{formatFloat(r.Mz)}
		for _, v := range r.Values {
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// round rounds half to even at the given number of decimals
func round(v float64, decimals int) float64 {
	if decimals == 0 {
		return math.RoundToEven(v)
	}
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}

// formatFloat formats v in the shortest form that reads back exactly.
// Whole numbers keep a decimal point, 3 is written as 3.0.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}

// formatValue formats v, leaving NaN empty
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return formatFloat(v)
}

func parseValue(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

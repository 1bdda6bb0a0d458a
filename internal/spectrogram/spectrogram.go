// Package spectrogram builds a sparse m/z by retention time intensity
// matrix from the MS1 scans of a spectrum file.
package spectrogram

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/524D/breathx/internal/source"
)

// ErrEmptySource means the source holds no MS1 scans
var ErrEmptySource = errors.New("no MS1 scans found")

// NoiseFloor is the fraction of a profile scan's highest intensity that
// a local maximum must exceed to be kept
const NoiseFloor = 0.001

// Cell is a stored (nonzero) intensity
type Cell struct {
	Col       int
	Intensity float64
}

// Spectrogram holds intensities with one row per distinct m/z and one
// column per distinct retention time. Both axes are strictly increasing.
// Only nonzero cells are stored.
type Spectrogram struct {
	mz    []float64
	times []float64
	tic   []float64
	rows  [][]Cell // per row, ordered by column
}

type ms1Scan struct {
	mz, intensity []float64
	rt, tic       float64
}

// Build reads all MS1 scans of src. With centroided set, peaks are taken
// as they are; otherwise each scan is first reduced to its local maxima
// above the noise floor.
func Build(src source.Iterator, centroided bool) (*Spectrogram, error) {
	var scans []ms1Scan
	err := src.Each(func(s source.Spectrum) error {
		if s.Level() != 1 {
			return nil
		}
		mz, intensity := s.Mz(), s.Intensity()
		if !centroided {
			mz, intensity = Purify(mz, intensity)
		}
		scans = append(scans, ms1Scan{mz, intensity, s.ScanStartTime(), s.TIC()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, ErrEmptySource
	}

	var allMz, allTimes []float64
	for _, s := range scans {
		allMz = append(allMz, s.mz...)
		allTimes = append(allTimes, s.rt)
	}
	sg := &Spectrogram{
		mz:    unique(allMz),
		times: unique(allTimes),
	}
	sg.tic = make([]float64, len(sg.times))
	cells := make([]map[int]float64, len(sg.mz))
	for _, s := range scans {
		col := sort.SearchFloat64s(sg.times, s.rt)
		sg.tic[col] = s.tic
		for i, mz := range s.mz {
			row := sort.SearchFloat64s(sg.mz, mz)
			if cells[row] == nil {
				cells[row] = make(map[int]float64)
			}
			if s.intensity[i] == 0 {
				delete(cells[row], col)
				continue
			}
			cells[row][col] = s.intensity[i]
		}
	}
	sg.rows = make([][]Cell, len(sg.mz))
	for r, m := range cells {
		row := make([]Cell, 0, len(m))
		for c, v := range m {
			row = append(row, Cell{c, v})
		}
		sort.Slice(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		sg.rows[r] = row
	}
	return sg, nil
}

// Purify keeps the strict local maxima of a profile scan (first and last
// point excluded) whose intensity exceeds NoiseFloor times the scan's
// highest intensity
func Purify(mz, intensity []float64) ([]float64, []float64) {
	if len(intensity) < 3 {
		return nil, nil
	}
	floor := floats.Max(intensity) * NoiseFloor
	var pmz, pint []float64
	for i := 1; i < len(intensity)-1; i++ {
		v := intensity[i]
		if v > intensity[i-1] && v > intensity[i+1] && v > floor {
			pmz = append(pmz, mz[i])
			pint = append(pint, v)
		}
	}
	return pmz, pint
}

// unique returns the sorted distinct values of v, compared exactly
func unique(v []float64) []float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	out := s[:0]
	for _, x := range s {
		if len(out) == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// Mz returns the row labels. The slice must not be modified.
func (sg *Spectrogram) Mz() []float64 { return sg.mz }

// Times returns the column labels (retention times in minutes). The
// slice must not be modified.
func (sg *Spectrogram) Times() []float64 { return sg.times }

// TIC returns the total ion current of every column
func (sg *Spectrogram) TIC() []float64 { return sg.tic }

// NumRows returns the number of distinct m/z values
func (sg *Spectrogram) NumRows() int { return len(sg.mz) }

// NumCols returns the number of distinct retention times
func (sg *Spectrogram) NumCols() int { return len(sg.times) }

// Row returns the nonzero cells of row r, ordered by column
func (sg *Spectrogram) Row(r int) []Cell { return sg.rows[r] }

// At returns the intensity at row r, column c
func (sg *Spectrogram) At(r, c int) float64 {
	row := sg.rows[r]
	i := sort.Search(len(row), func(i int) bool { return row[i].Col >= c })
	if i < len(row) && row[i].Col == c {
		return row[i].Intensity
	}
	return 0
}

// NonZeroIn counts the nonzero cells of row r in the given columns,
// which must be sorted ascending
func (sg *Spectrogram) NonZeroIn(r int, cols []int) int {
	n := 0
	row := sg.rows[r]
	i, j := 0, 0
	for i < len(row) && j < len(cols) {
		switch {
		case row[i].Col < cols[j]:
			i++
		case row[i].Col > cols[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}

// RowValues returns row r as a dense vector over all columns
func (sg *Spectrogram) RowValues(r int) []float64 {
	v := make([]float64, len(sg.times))
	for _, c := range sg.rows[r] {
		v[c.Col] = c.Intensity
	}
	return v
}

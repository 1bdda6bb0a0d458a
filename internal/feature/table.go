// Package feature holds the feature tables produced by extraction and
// their CSV and MGF representations.
package feature

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/524D/breathx/internal/cluster"
)

// Row is one feature: its representative m/z, its score and its
// intensity at every time of the table
type Row struct {
	Mz        float64
	Score     float64
	Intensity []float64
}

// Table is the feature table of one file. Rows are ordered by m/z and
// every Intensity has len(Time) values.
type Table struct {
	Time []float64
	Rows []Row
}

// Len returns the number of features
func (t *Table) Len() int { return len(t.Rows) }

// Mz returns the m/z of every row
func (t *Table) Mz() []float64 {
	mz := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		mz[i] = r.Mz
	}
	return mz
}

// Scores returns the score of every row
func (t *Table) Scores() []float64 {
	s := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		s[i] = r.Score
	}
	return s
}

// Lookup returns the row whose m/z equals mz exactly
func (t *Table) Lookup(mz float64) (Row, bool) {
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].Mz >= mz })
	if i < len(t.Rows) && t.Rows[i].Mz == mz {
		return t.Rows[i], true
	}
	return Row{}, false
}

// RSD returns the relative standard deviation (population standard
// deviation over mean) of each row's intensities
func (t *Table) RSD() []float64 {
	rsd := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		mean, std := stat.PopMeanStdDev(r.Intensity, nil)
		rsd[i] = std / mean
	}
	return rsd
}

// RSDControl returns a table with the rows whose RSD exceeds threshold
func (t *Table) RSDControl(threshold float64) *Table {
	out := &Table{Time: t.Time}
	for i, rsd := range t.RSD() {
		if rsd > threshold {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// Points returns the (m/z, score) pairs used for cross-file merging
func (t *Table) Points() []cluster.Point {
	p := make([]cluster.Point, len(t.Rows))
	for i, r := range t.Rows {
		p[i] = cluster.Point{Mz: r.Mz, Value: r.Score}
	}
	return p
}

// MergedTable holds features reconciled across files, one value column
// per file
type MergedTable struct {
	Names []string
	Rows  []cluster.MergedRow
}

package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Parameters for clustering features across files
const (
	MergeEps        = 0.0005
	MergeMinSamples = 2
)

// Point is a feature of one file: its m/z and a value such as its score
type Point struct {
	Mz    float64
	Value float64
}

// MergedRow is a feature reconciled across files. Values holds one
// entry per file, NaN where the file has no member.
type MergedRow struct {
	Mz     float64
	Values []float64
}

// Merge clusters the features of several files by m/z. For each
// cluster and file, the value of that file's member closest to the
// cluster mean is taken. Unclustered features become rows of their own.
// Rows are ordered by m/z.
func Merge(files [][]Point) []MergedRow {
	var mzs []float64
	var pts []Point
	var fileOf []int
	for f, points := range files {
		for _, p := range points {
			mzs = append(mzs, p.Mz)
			pts = append(pts, p)
			fileOf = append(fileOf, f)
		}
	}
	labels := DBSCAN(mzs, MergeEps, MergeMinSamples)

	nClusters := 0
	for _, l := range labels {
		if l+1 > nClusters {
			nClusters = l + 1
		}
	}
	members := make([][]int, nClusters)
	var rows []MergedRow
	for i, l := range labels {
		if l == Noise {
			row := MergedRow{Mz: pts[i].Mz, Values: nanSlice(len(files))}
			row.Values[fileOf[i]] = pts[i].Value
			rows = append(rows, row)
			continue
		}
		members[l] = append(members[l], i)
	}
	for _, idx := range members {
		m := make([]float64, len(idx))
		for k, i := range idx {
			m[k] = mzs[i]
		}
		mean := stat.Mean(m, nil)
		row := MergedRow{Mz: mean, Values: nanSlice(len(files))}
		best := make([]float64, len(files))
		for f := range best {
			best[f] = math.Inf(1)
		}
		for _, i := range idx {
			if d := math.Abs(mzs[i] - mean); d < best[fileOf[i]] {
				best[fileOf[i]] = d
				row.Values[fileOf[i]] = pts[i].Value
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Mz < rows[j].Mz })
	return rows
}

func nanSlice(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

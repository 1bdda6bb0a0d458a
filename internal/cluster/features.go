package cluster

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/524D/breathx/internal/spectrogram"
)

// IntraFileEps is the m/z radius for clustering within one file
const IntraFileEps = 0.001

// Feature is a cluster of m/z rows of one spectrogram
type Feature struct {
	Mz float64
	// Intensity has one value per spectrogram column
	Intensity []float64
}

// Features clusters the rows of sg. Every row m/z takes part as often
// as the row has a nonzero intensity in cols, so persistent signals
// weigh more. A feature's m/z is the mean of its members; at each column
// its intensity is that of the nonzero member row closest to the mean.
// Noise is dropped. Features are ordered by m/z.
func Features(sg *spectrogram.Spectrogram, cols []int, eps float64, minSamples int) []Feature {
	mzs := sg.Mz()
	var projected []float64
	var rowOf []int
	for r := range mzs {
		for k := sg.NonZeroIn(r, cols); k > 0; k-- {
			projected = append(projected, mzs[r])
			rowOf = append(rowOf, r)
		}
	}
	labels := DBSCAN(projected, eps, minSamples)

	nClusters := 0
	for _, l := range labels {
		if l+1 > nClusters {
			nClusters = l + 1
		}
	}
	members := make([][]float64, nClusters)
	rows := make([][]int, nClusters)
	for i, l := range labels {
		if l == Noise {
			continue
		}
		members[l] = append(members[l], projected[i])
		// projected is grouped by row, so a row's repeats are adjacent
		if n := len(rows[l]); n == 0 || rows[l][n-1] != rowOf[i] {
			rows[l] = append(rows[l], rowOf[i])
		}
	}

	features := make([]Feature, 0, nClusters)
	for l := range members {
		mean := stat.Mean(members[l], nil)
		features = append(features, Feature{
			Mz:        mean,
			Intensity: closestSurvivor(sg, rows[l], mean),
		})
	}
	return features
}

// closestSurvivor builds an intensity vector over all columns, taking
// at each column the value of the row nearest to mz among the rows with
// a nonzero value there. rows must be in ascending m/z order; on equal
// distance the first row wins.
func closestSurvivor(sg *spectrogram.Spectrogram, rows []int, mz float64) []float64 {
	v := make([]float64, sg.NumCols())
	dist := make([]float64, sg.NumCols())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	for _, r := range rows {
		d := math.Abs(sg.Mz()[r] - mz)
		for _, c := range sg.Row(r) {
			if d < dist[c.Col] {
				dist[c.Col] = d
				v[c.Col] = c.Intensity
			}
		}
	}
	return v
}

// Package cluster groups m/z values into features by one-dimensional
// density based clustering.
package cluster

import "sort"

// Noise is the label of points that belong to no cluster
const Noise = -1

// DBSCAN clusters values: a point with at least minSamples values
// (itself included) within eps is a core point, cores within eps of each
// other share a cluster, and a non-core point within eps of a core joins
// the cluster of its nearest core, the lower cluster on a tie. Clusters
// are numbered from 0 in ascending order of value; all other points are
// Noise.
func DBSCAN(values []float64, eps float64, minSamples int) []int {
	if minSamples < 1 {
		minSamples = 1
	}
	n := len(values)
	labels := make([]int, n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
		labels[i] = Noise
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	v := make([]float64, n)
	for i, o := range order {
		v[i] = values[o]
	}

	// Neighbour counts in sorted order with a sliding window
	core := make([]bool, n)
	lo, hi := 0, 0
	for i := range v {
		for v[i]-v[lo] > eps {
			lo++
		}
		if hi < i {
			hi = i
		}
		for hi+1 < n && v[hi+1]-v[i] <= eps {
			hi++
		}
		core[i] = hi-lo+1 >= minSamples
	}

	sorted := make([]int, n)
	for i := range sorted {
		sorted[i] = Noise
	}
	label, prev := -1, -1
	for i := range v {
		if !core[i] {
			continue
		}
		if prev < 0 || v[i]-v[prev] > eps {
			label++
		}
		sorted[i] = label
		prev = i
	}

	// Border points
	nextCore := make([]int, n)
	next := -1
	for i := n - 1; i >= 0; i-- {
		nextCore[i] = next
		if core[i] {
			next = i
		}
	}
	prevCore := -1
	for i := range v {
		if core[i] {
			prevCore = i
			continue
		}
		dPrev, dNext := -1.0, -1.0
		if prevCore >= 0 && v[i]-v[prevCore] <= eps {
			dPrev = v[i] - v[prevCore]
		}
		if j := nextCore[i]; j >= 0 && v[j]-v[i] <= eps {
			dNext = v[j] - v[i]
		}
		switch {
		case dPrev >= 0 && (dNext < 0 || dPrev <= dNext):
			sorted[i] = sorted[prevCore]
		case dNext >= 0:
			sorted[i] = sorted[nextCore[i]]
		}
	}

	for i, o := range order {
		labels[o] = sorted[i]
	}
	return labels
}

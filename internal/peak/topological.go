package peak

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/524D/breathx/internal/curve"
)

func topological(times, values []float64, cfg Config) ([]Range, error) {
	x, y, err := curve.Resample(times, values, cfg.ResampleMin)
	if err != nil {
		return nil, err
	}
	base := floats.Min(y)
	minHeight := (floats.Max(y) - base) * cfg.MinHeightFrac

	var ranges []Range
	for i := 1; i < len(y)-1; i++ {
		if y[i] > y[i-1] && y[i] > y[i+1] && y[i]-base > minHeight {
			ranges = append(ranges, findRange(x, y, i, base, cfg.CutFrac))
		}
	}
	return mergeRanges(ranges), nil
}

// findRange returns the interval around the peak at idx where y stays
// above base + cutFrac*(y[idx]-base). Boundaries are linearly
// interpolated between samples; without a crossing on one side the
// interval extends to the end of x.
func findRange(x, y []float64, idx int, base, cutFrac float64) Range {
	cut := base + cutFrac*(y[idx]-base)
	r := Range{Start: x[0], End: x[len(x)-1], Value: y[idx]}
	before, after := -1, -1
	for i := 0; i < len(y)-1; i++ {
		if sign(y[i]-cut) == sign(y[i+1]-cut) {
			continue
		}
		if i < idx {
			before = i
		} else {
			after = i
			break
		}
	}
	if before >= 0 {
		r.Start = crossing(x, y, before, cut)
	}
	if after >= 0 {
		r.End = crossing(x, y, after, cut)
	}
	return r
}

// crossing interpolates where y reaches cut between samples i and i+1
func crossing(x, y []float64, i int, cut float64) float64 {
	return x[i] + (x[i+1]-x[i])*((cut-y[i])/(y[i+1]-y[i]))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func overlaps(a, b Range) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// mergeRanges joins overlapping ranges until no two overlap. Merging
// two ranges can make the result overlap a third, so passes repeat
// until one completes without a merge.
func mergeRanges(ranges []Range) []Range {
	merged := append([]Range(nil), ranges...)
	for changed := true; changed; {
		changed = false
		var next []Range
		for _, r := range merged {
			joined := false
			for i := range next {
				if overlaps(r, next[i]) {
					next[i] = Range{
						Start: math.Min(r.Start, next[i].Start),
						End:   math.Max(r.End, next[i].End),
						Value: math.Max(r.Value, next[i].Value),
					}
					joined = true
					changed = true
					break
				}
			}
			if !joined {
				next = append(next, r)
			}
		}
		merged = next
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })
	return merged
}

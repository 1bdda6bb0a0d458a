// Package align puts the feature tables of several files on a common
// time axis.
package align

import (
	"fmt"

	"github.com/524D/breathx/internal/curve"
	"github.com/524D/breathx/internal/feature"
)

// TimeUnion returns the sorted union of the time axes of tables. Times
// are compared exactly.
func TimeUnion(tables []*feature.Table) []float64 {
	axes := make([][]float64, len(tables))
	for i, t := range tables {
		axes[i] = t.Time
	}
	return curve.Union(axes...)
}

// Align resamples the intensity curves of every table onto the union of
// their time axes. Values outside a table's own axis are extrapolated
// and negative results are clamped to zero. Scores are not changed.
// A single table is returned as is.
func Align(tables []*feature.Table, kind curve.Kind) ([]*feature.Table, error) {
	if len(tables) <= 1 {
		return tables, nil
	}
	axis := TimeUnion(tables)
	out := make([]*feature.Table, len(tables))
	for i, t := range tables {
		a := &feature.Table{Time: axis, Rows: make([]feature.Row, len(t.Rows))}
		for k, r := range t.Rows {
			v, err := curve.Interpolate(t.Time, r.Intensity, axis, kind)
			if err != nil {
				return nil, fmt.Errorf("table %d, m/z %v: %w", i, r.Mz, err)
			}
			for j := range v {
				if v[j] < 0 {
					v[j] = 0
				}
			}
			a.Rows[k] = feature.Row{Mz: r.Mz, Score: r.Score, Intensity: v}
		}
		out[i] = a
	}
	return out, nil
}

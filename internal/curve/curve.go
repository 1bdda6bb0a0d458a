// Package curve interpolates and resamples sampled signals such as
// chromatograms and TIC traces.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// ErrMalformedAxis means an axis is too short, not strictly increasing,
// not finite or of a different length than its values
var ErrMalformedAxis = errors.New("malformed axis")

// Kind selects the interpolation method
type Kind int

const (
	// Linear is piecewise linear interpolation
	Linear Kind = iota
	// Cubic is a not-a-knot cubic spline
	Cubic
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts "linear" or "cubic" into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	}
	return Linear, fmt.Errorf("unknown interpolation kind %q", s)
}

// Validate checks that xs can serve as an interpolation axis for ys
func Validate(xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d axis values, %d data values", ErrMalformedAxis, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return fmt.Errorf("%w: %d points", ErrMalformedAxis, len(xs))
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: axis value %d is %v", ErrMalformedAxis, i, x)
		}
		if i > 0 && x <= xs[i-1] {
			return fmt.Errorf("%w: not strictly increasing at %d", ErrMalformedAxis, i)
		}
	}
	return nil
}

// predictor evaluates a fitted curve, extrapolating along the tangent at
// the first and last knot
type predictor struct {
	fx       func(float64) float64
	lo, hi   float64
	ylo, yhi float64
	dlo, dhi float64
}

func (p predictor) at(x float64) float64 {
	switch {
	case x < p.lo:
		return p.ylo + p.dlo*(x-p.lo)
	case x > p.hi:
		return p.yhi + p.dhi*(x-p.hi)
	}
	return p.fx(x)
}

// fit returns a predictor for (xs, ys). Cubic falls back to linear for
// fewer than four points: the not-a-knot conditions leave the spline
// system singular below that.
func fit(xs, ys []float64, kind Kind) (predictor, error) {
	if err := Validate(xs, ys); err != nil {
		return predictor{}, err
	}
	n := len(xs)
	p := predictor{lo: xs[0], hi: xs[n-1], ylo: ys[0], yhi: ys[n-1]}
	if kind == Cubic && n >= 4 {
		var nak interp.NotAKnotCubic
		if err := nak.Fit(xs, ys); err != nil {
			return predictor{}, fmt.Errorf("%w: %v", ErrMalformedAxis, err)
		}
		p.fx = nak.Predict
		p.dlo = nak.PredictDerivative(xs[0])
		p.dhi = nak.PredictDerivative(xs[n-1])
		return p, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return predictor{}, err
	}
	p.fx = pl.Predict
	p.dlo = (ys[1] - ys[0]) / (xs[1] - xs[0])
	p.dhi = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	return p, nil
}

// Interpolate evaluates the curve through (xs, ys) at every point of at.
// Points outside the axis are extrapolated.
func Interpolate(xs, ys, at []float64, kind Kind) ([]float64, error) {
	p, err := fit(xs, ys, kind)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(at))
	for i, x := range at {
		out[i] = p.at(x)
	}
	return out, nil
}

// Resample evaluates a cubic spline through (xs, ys) on an evenly spaced
// grid of max(minPoints, len(xs)) points spanning xs, merged with xs
// itself so no original sample is lost.
func Resample(xs, ys []float64, minPoints int) ([]float64, []float64, error) {
	if err := Validate(xs, ys); err != nil {
		return nil, nil, err
	}
	n := len(xs)
	if minPoints < n {
		minPoints = n
	}
	grid := Union(Linspace(xs[0], xs[n-1], minPoints), xs)
	ny, err := Interpolate(xs, ys, grid, Cubic)
	if err != nil {
		return nil, nil, err
	}
	return grid, ny, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		if n == 1 {
			return []float64{lo}
		}
		return nil
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Union returns the sorted values that occur in any of the inputs, each
// once. Values are compared exactly.
func Union(axes ...[]float64) []float64 {
	var all []float64
	for _, a := range axes {
		all = append(all, a...)
	}
	sort.Float64s(all)
	out := all[:0]
	for _, v := range all {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Package score computes the abundance score of a feature.
package score

import (
	"errors"

	"gonum.org/v1/gonum/integrate"

	"github.com/524D/breathx/internal/curve"
)

// ErrDegenerateNormalization means the normalizer is zero
var ErrDegenerateNormalization = errors.New("normalizer is zero")

// ResampleMin is the minimum number of points the intensity curve is
// resampled to before integration
const ResampleMin = 800

// AUC returns the area under the intensity curve divided by normalizer.
// The curve is resampled with a cubic spline and integrated with the
// trapezoidal rule. Spline undershoot below zero is clamped, so a
// non-negative curve never scores negative.
func AUC(time, intensity []float64, normalizer float64) (float64, error) {
	if normalizer == 0 {
		return 0, ErrDegenerateNormalization
	}
	x, y, err := curve.Resample(time, intensity, ResampleMin)
	if err != nil {
		return 0, err
	}
	for i, v := range y {
		if v < 0 {
			y[i] = 0
		}
	}
	return integrate.Trapezoidal(x, y) / normalizer, nil
}

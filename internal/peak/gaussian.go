package peak

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/524D/breathx/internal/curve"
)

// Mixture fit parameters
const (
	emMaxIter  = 100
	emTol      = 1e-3
	emRegCovar = 1e-6
	kmMaxIter  = 300
)

// gaussian treats the min-subtracted signal as a probability mass over
// time, draws time samples from it and fits a mixture of cfg.NPeak
// Gaussians. Each component gives the range mean ± standard deviation.
func gaussian(times, values []float64, cfg Config) ([]Range, error) {
	if err := curve.Validate(times, values); err != nil {
		return nil, err
	}
	if cfg.NPeak < 1 {
		return nil, fmt.Errorf("invalid number of peaks %d", cfg.NPeak)
	}
	if cfg.GaussianSamples < cfg.NPeak {
		return nil, fmt.Errorf("%d samples can't fit %d peaks", cfg.GaussianSamples, cfg.NPeak)
	}
	w := make([]float64, len(values))
	copy(w, values)
	floats.AddConst(-floats.Min(w), w)
	sum := floats.Sum(w)
	if sum == 0 || math.IsNaN(sum) {
		return nil, ErrFlatSignal
	}
	floats.Scale(1/sum, w)

	src := rand.NewSource(cfg.Seed)
	cat := distuv.NewCategorical(w, src)
	samples := make([]float64, cfg.GaussianSamples)
	for i := range samples {
		samples[i] = times[int(cat.Rand())]
	}

	m := fitMixture(samples, cfg.NPeak, rand.New(src))
	ranges := make([]Range, cfg.NPeak)
	for k := range ranges {
		std := math.Sqrt(m.variances[k])
		ranges[k] = Range{
			Start: m.means[k] - std,
			End:   m.means[k] + std,
			Value: values[floats.NearestIdx(times, m.means[k])],
		}
	}
	return ranges, nil
}

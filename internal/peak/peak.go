// Package peak finds the time windows in which a breath signal (usually
// the TIC trace) is at a peak.
package peak

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrUnknownMethod means the detection method is not Topological or Gaussian
	ErrUnknownMethod = errors.New("unknown peak detection method")
	// ErrFlatSignal means a Gaussian fit was requested on a constant signal
	ErrFlatSignal = errors.New("signal is constant")
)

// Method selects the peak detection algorithm
type Method int

const (
	// Topological resamples the signal with a cubic spline and takes the
	// region around each sufficiently high local maximum
	Topological Method = iota
	// Gaussian fits a Gaussian mixture to the signal
	Gaussian
)

func (m Method) String() string {
	switch m {
	case Topological:
		return "Topological"
	case Gaussian:
		return "Gaussian"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a method name (case insensitive) into a Method
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "topological":
		return Topological, nil
	case "gaussian":
		return Gaussian, nil
	}
	return Topological, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Config holds the detection parameters
type Config struct {
	Method Method
	// NPeak is the number of mixture components (Gaussian only)
	NPeak int
	// Seed makes the Gaussian sampling reproducible
	Seed uint64
	// MinHeightFrac drops local maxima lower than this fraction of the
	// highest point, both measured from the signal minimum
	MinHeightFrac float64
	// CutFrac sets the range boundary of a peak at this fraction of its
	// height above the signal minimum
	CutFrac float64
	// ResampleMin is the minimum number of points the signal is resampled to
	ResampleMin int
	// GaussianSamples is the number of time samples drawn for the mixture fit
	GaussianSamples int
}

// DefaultConfig returns the standard parameters
func DefaultConfig() Config {
	return Config{
		Method:          Topological,
		NPeak:           1,
		MinHeightFrac:   0.2,
		CutFrac:         0.25,
		ResampleMin:     1000,
		GaussianSamples: 5000,
	}
}

// Range is a time interval around one peak. Value is the signal at the peak.
type Range struct {
	Start, End float64
	Value      float64
}

// Window is the outcome of peak detection
type Window struct {
	// Indices of the input samples inside any range, sorted and unique
	Indices []int
	Ranges  []Range
	// Duration is the summed length of all ranges
	Duration float64
}

// Detect finds the peak window of the signal values sampled at times
func Detect(times, values []float64, cfg Config) (Window, error) {
	var ranges []Range
	var err error
	switch cfg.Method {
	case Topological:
		ranges, err = topological(times, values, cfg)
	case Gaussian:
		ranges, err = gaussian(times, values, cfg)
	default:
		err = fmt.Errorf("%w: %v", ErrUnknownMethod, cfg.Method)
	}
	if err != nil {
		return Window{}, err
	}
	return snap(times, ranges), nil
}

// snap maps each range onto the input samples nearest to its boundaries
func snap(times []float64, ranges []Range) Window {
	w := Window{Ranges: ranges}
	seen := make(map[int]bool)
	for _, r := range ranges {
		w.Duration += r.End - r.Start
		s := floats.NearestIdx(times, r.Start)
		e := floats.NearestIdx(times, r.End)
		for i := s; i <= e; i++ {
			if !seen[i] {
				seen[i] = true
				w.Indices = append(w.Indices, i)
			}
		}
	}
	sort.Ints(w.Indices)
	return w
}

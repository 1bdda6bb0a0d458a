// Package extract runs the feature extraction pipeline on spectrum files.
package extract

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/524D/breathx/internal/cluster"
	"github.com/524D/breathx/internal/feature"
	"github.com/524D/breathx/internal/logger"
	"github.com/524D/breathx/internal/peak"
	"github.com/524D/breathx/internal/score"
	"github.com/524D/breathx/internal/source"
	"github.com/524D/breathx/internal/spectrogram"
)

// ErrNoFeatures means clustering found no feature in the peak window
var ErrNoFeatures = errors.New("no features found")

// Options controls a single file extraction
type Options struct {
	// Line is set for centroided (line) spectra; profile spectra are
	// reduced to their local maxima first
	Line bool
	// Quantity is the fraction of the peak window scans a feature must be
	// observed in to form a cluster
	Quantity float64
	Peak     peak.Config
	// Peak detection only considers scans in [MinRT, MaxRT]
	MinRT, MaxRT float64
	// Only features in [MinMz, MaxMz] are reported
	MinMz, MaxMz float64
}

// DefaultOptions returns options that restrict neither time nor m/z
func DefaultOptions() Options {
	return Options{
		Quantity: 0.2,
		Peak:     peak.DefaultConfig(),
		MinRT:    -math.MaxFloat64,
		MaxRT:    math.MaxFloat64,
		MinMz:    -math.MaxFloat64,
		MaxMz:    math.MaxFloat64,
	}
}

// Extraction holds the feature table of a file together with the
// intermediate results it was derived from
type Extraction struct {
	Table      *feature.Table
	Window     peak.Window
	MinSamples int
}

// FindFeatures extracts the feature table of the spectrum file at path
func FindFeatures(path string, opts Options) (*feature.Table, error) {
	ex, err := ExtractFile(path, opts)
	if err != nil {
		return nil, err
	}
	return ex.Table, nil
}

// ExtractFile opens the spectrum file at path and runs Extract on it
func ExtractFile(path string, opts Options) (*Extraction, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	centroided, err := src.Centroided()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if centroided != opts.Line {
		logger.Warn("spectrum type does not match the line spectra option",
			zap.String("file", path), zap.Bool("centroided", centroided), zap.Bool("line", opts.Line))
	}
	ex, err := Extract(src, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ex, nil
}

// Extract builds the spectrogram of src, detects the peak window on its
// TIC, clusters the m/z values seen inside the window and scores every
// feature by its area under the curve per unit of window duration.
func Extract(src source.Iterator, opts Options) (*Extraction, error) {
	t := time.Now()
	sg, err := spectrogram.Build(src, opts.Line)
	if err != nil {
		return nil, err
	}
	if logger.Enabled(zapcore.DebugLevel) {
		cells := 0
		for r := 0; r < sg.NumRows(); r++ {
			cells += len(sg.Row(r))
		}
		logger.Debug("spectrogram built", zap.Int("rows", sg.NumRows()),
			zap.Int("columns", sg.NumCols()), zap.Int("cells", cells),
			zap.Duration("elapsed", time.Since(t)))
	}

	t = time.Now()
	w, err := detectWindow(sg.Times(), sg.TIC(), opts)
	if err != nil {
		return nil, fmt.Errorf("peak detection: %w", err)
	}
	logger.Debug("peak window detected", zap.Int("scans", len(w.Indices)),
		zap.Int("ranges", len(w.Ranges)), zap.Float64("duration", w.Duration),
		zap.Duration("elapsed", time.Since(t)))

	t = time.Now()
	minSamples := int(float64(len(w.Indices)) * opts.Quantity)
	if minSamples < 1 {
		minSamples = 1
	}
	feats := cluster.Features(sg, w.Indices, cluster.IntraFileEps, minSamples)
	if len(feats) == 0 {
		return nil, ErrNoFeatures
	}
	logger.Debug("features clustered", zap.Int("features", len(feats)),
		zap.Int("minSamples", minSamples), zap.Duration("elapsed", time.Since(t)))

	t = time.Now()
	normalizer := w.Duration
	table := &feature.Table{Time: sg.Times()}
	for _, f := range feats {
		if f.Mz < opts.MinMz || f.Mz > opts.MaxMz {
			continue
		}
		s, err := score.AUC(table.Time, f.Intensity, normalizer)
		if errors.Is(err, score.ErrDegenerateNormalization) {
			logger.Debug("zero peak window duration, scoring by plain area")
			normalizer = 1
			s, err = score.AUC(table.Time, f.Intensity, normalizer)
		}
		if err != nil {
			return nil, fmt.Errorf("scoring m/z %v: %w", f.Mz, err)
		}
		table.Rows = append(table.Rows, feature.Row{Mz: f.Mz, Score: s, Intensity: f.Intensity})
	}
	logger.Debug("features scored", zap.Duration("elapsed", time.Since(t)))

	return &Extraction{Table: table, Window: w, MinSamples: minSamples}, nil
}

// detectWindow runs peak detection on the scans inside the retention
// time limits of opts and returns indices relative to all scans
func detectWindow(times, tic []float64, opts Options) (peak.Window, error) {
	lo, hi := 0, len(times)
	for lo < hi && times[lo] < opts.MinRT {
		lo++
	}
	for hi > lo && times[hi-1] > opts.MaxRT {
		hi--
	}
	w, err := peak.Detect(times[lo:hi], tic[lo:hi], opts.Peak)
	if err != nil {
		return peak.Window{}, err
	}
	for i := range w.Indices {
		w.Indices[i] += lo
	}
	return w, nil
}

// MergeResult reconciles the features of several tables by m/z. names
// labels the value column of each table.
func MergeResult(tables []*feature.Table, names []string) (*feature.MergedTable, error) {
	if len(tables) != len(names) {
		return nil, fmt.Errorf("%d tables but %d names", len(tables), len(names))
	}
	points := make([][]cluster.Point, len(tables))
	for i, t := range tables {
		points[i] = t.Points()
	}
	return &feature.MergedTable{Names: names, Rows: cluster.Merge(points)}, nil
}

// RetrieveTandem collects the MS2 spectra of the file at path whose
// precursor lies within radius of a feature of table
func RetrieveTandem(path string, table *feature.Table, radius float64) (*feature.TandemMS, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	tms := feature.NewTandemMS(table.Mz())
	if err := tms.Build(src, radius); err != nil {
		return nil, err
	}
	return tms, nil
}

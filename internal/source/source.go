// Package source gives uniform access to the spectra of mzML and mzXML
// files.
package source

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/524D/breathx/internal/logger"
	"github.com/524D/breathx/internal/mzml"
	"github.com/524D/breathx/internal/mzxml"
)

// ErrUnsupportedFormat means the file extension is neither .mzML nor .mzXML
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Spectrum is a single scan. Retention times are in minutes; Precursor
// is NaN for scans without one.
type Spectrum interface {
	Mz() []float64
	Intensity() []float64
	Level() int
	TIC() float64
	ScanStartTime() float64
	Precursor() float64
}

// Iterator streams spectra in file order. Iteration stops at the first
// error returned by fn.
type Iterator interface {
	Each(fn func(Spectrum) error) error
}

type document interface {
	NumSpecs() int
	spectrum(i int) (Spectrum, error)
	level(i int) (int, error)
	centroid(i int) (bool, error)
}

// Source is an opened spectrum file
type Source struct {
	Path        string
	Instruments []string
	doc         document
	mzML        *mzml.MzML
}

// Open reads a spectrum file, selecting the parser from the extension
func Open(path string) (*Source, error) {
	ext := filepath.Ext(path)
	if ext != ".mzML" && ext != ".mzXML" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Source{Path: path}
	if ext == ".mzML" {
		m, err := mzml.Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		s.mzML = &m
		s.doc = mzmlDocument{&m}
		if s.Instruments, err = m.MSInstruments(); err != nil {
			logger.Warn("unreadable instrument configuration", zap.String("file", path), zap.Error(err))
		}
	} else {
		m, err := mzxml.Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		s.doc = mzxmlDocument{&m}
		s.Instruments = m.MSInstruments()
	}
	logger.Debug("opened spectrum file", zap.String("file", path),
		zap.Int("spectra", s.doc.NumSpecs()), zap.Strings("instruments", s.Instruments))
	return s, nil
}

// NumSpecs returns the number of spectra in the file
func (s *Source) NumSpecs() int {
	return s.doc.NumSpecs()
}

// Each calls fn for every spectrum, in file order
func (s *Source) Each(fn func(Spectrum) error) error {
	for i := 0; i < s.doc.NumSpecs(); i++ {
		sp, err := s.doc.spectrum(i)
		if err != nil {
			if s.mzML != nil {
				if id, idErr := s.mzML.ScanID(i); idErr == nil {
					return fmt.Errorf("%s spectrum %s: %w", s.Path, id, err)
				}
			}
			return fmt.Errorf("%s spectrum %d: %w", s.Path, i, err)
		}
		if err := fn(sp); err != nil {
			return err
		}
	}
	return nil
}

// Centroided reports whether the first MS1 scan of the file is flagged
// as centroided. Files without MS1 scans report false.
func (s *Source) Centroided() (bool, error) {
	for i := 0; i < s.doc.NumSpecs(); i++ {
		level, err := s.doc.level(i)
		if err != nil {
			return false, err
		}
		if level == 1 {
			return s.doc.centroid(i)
		}
	}
	return false, nil
}

// MzML returns the underlying mzML document, or nil for other formats
func (s *Source) MzML() *mzml.MzML {
	return s.mzML
}

// ticOrSum returns tic, or the summed intensity if tic is missing
func ticOrSum(tic float64, intensity []float64) float64 {
	if math.IsNaN(tic) {
		return floats.Sum(intensity)
	}
	return tic
}

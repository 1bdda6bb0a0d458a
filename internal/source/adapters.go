package source

import (
	"github.com/524D/breathx/internal/mzml"
	"github.com/524D/breathx/internal/mzxml"
)

type mzmlDocument struct {
	f *mzml.MzML
}

func (d mzmlDocument) NumSpecs() int                { return d.f.NumSpecs() }
func (d mzmlDocument) level(i int) (int, error)     { return d.f.MSLevel(i) }
func (d mzmlDocument) centroid(i int) (bool, error) { return d.f.Centroid(i) }

func (d mzmlDocument) spectrum(i int) (Spectrum, error) {
	var s mzmlSpectrum
	var err error
	if s.peaks, err = d.f.ReadScan(i); err != nil {
		return nil, err
	}
	if s.level, err = d.f.MSLevel(i); err != nil {
		return nil, err
	}
	if s.rt, err = d.f.ScanStartTime(i); err != nil {
		return nil, err
	}
	if s.tic, err = d.f.TotalIonCurrent(i); err != nil {
		return nil, err
	}
	if s.precursor, err = d.f.PrecursorMz(i); err != nil {
		return nil, err
	}
	s.tic = ticOrSum(s.tic, s.Intensity())
	return &s, nil
}

// mzmlSpectrum adapts a decoded mzML spectrum
type mzmlSpectrum struct {
	peaks     []mzml.Peak
	level     int
	rt        float64
	tic       float64
	precursor float64
}

func (s *mzmlSpectrum) Mz() []float64 {
	mz := make([]float64, len(s.peaks))
	for i, p := range s.peaks {
		mz[i] = p.Mz
	}
	return mz
}

func (s *mzmlSpectrum) Intensity() []float64 {
	in := make([]float64, len(s.peaks))
	for i, p := range s.peaks {
		in[i] = p.Intens
	}
	return in
}

func (s *mzmlSpectrum) Level() int             { return s.level }
func (s *mzmlSpectrum) TIC() float64           { return s.tic }
func (s *mzmlSpectrum) ScanStartTime() float64 { return s.rt }
func (s *mzmlSpectrum) Precursor() float64     { return s.precursor }

type mzxmlDocument struct {
	f *mzxml.MzXML
}

func (d mzxmlDocument) NumSpecs() int                { return d.f.NumSpecs() }
func (d mzxmlDocument) level(i int) (int, error)     { return d.f.MSLevel(i) }
func (d mzxmlDocument) centroid(i int) (bool, error) { return d.f.Centroid(i) }

func (d mzxmlDocument) spectrum(i int) (Spectrum, error) {
	var s mzxmlSpectrum
	var err error
	if s.peaks, err = d.f.ReadScan(i); err != nil {
		return nil, err
	}
	if s.level, err = d.f.MSLevel(i); err != nil {
		return nil, err
	}
	if s.rt, err = d.f.RetentionTime(i); err != nil {
		return nil, err
	}
	if s.tic, err = d.f.TotalIonCurrent(i); err != nil {
		return nil, err
	}
	if s.precursor, err = d.f.PrecursorMz(i); err != nil {
		return nil, err
	}
	s.tic = ticOrSum(s.tic, s.Intensity())
	return &s, nil
}

// mzxmlSpectrum adapts a decoded mzXML scan
type mzxmlSpectrum struct {
	peaks     []mzxml.Peak
	level     int
	rt        float64
	tic       float64
	precursor float64
}

func (s *mzxmlSpectrum) Mz() []float64 {
	mz := make([]float64, len(s.peaks))
	for i, p := range s.peaks {
		mz[i] = p.Mz
	}
	return mz
}

func (s *mzxmlSpectrum) Intensity() []float64 {
	in := make([]float64, len(s.peaks))
	for i, p := range s.peaks {
		in[i] = p.Intens
	}
	return in
}

func (s *mzxmlSpectrum) Level() int             { return s.level }
func (s *mzxmlSpectrum) TIC() float64           { return s.tic }
func (s *mzxmlSpectrum) ScanStartTime() float64 { return s.rt }
func (s *mzxmlSpectrum) Precursor() float64     { return s.precursor }

package feature

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/524D/breathx/internal/source"
)

// ErrEmptyFeature means tandem spectra were requested for no features
var ErrEmptyFeature = errors.New("empty feature list")

// mgfMinIntensity is the intensity a peak must exceed to be written to MGF
const mgfMinIntensity = 0.001

// Tandem is an MS2 spectrum selected for a feature
type Tandem struct {
	Precursor float64
	Mz        []float64
	Intensity []float64
}

// TandemMS collects the MS2 spectra whose precursor matches a feature
type TandemMS struct {
	Features []float64
	Spectra  []Tandem
}

// NewTandemMS returns a collection for the given feature m/z values
func NewTandemMS(features []float64) *TandemMS {
	return &TandemMS{Features: features}
}

// Build keeps the level 2 spectra of src whose precursor lies within
// radius of any feature. Of spectra with identical precursors the last
// one is kept. Spectra are ordered by precursor.
func (t *TandemMS) Build(src source.Iterator, radius float64) error {
	t.Spectra = nil
	if len(t.Features) == 0 {
		return ErrEmptyFeature
	}
	byPrecursor := make(map[float64]int)
	err := src.Each(func(sp source.Spectrum) error {
		if sp.Level() != 2 {
			return nil
		}
		p := sp.Precursor()
		if !t.matches(p, radius) {
			return nil
		}
		s := Tandem{Precursor: p, Mz: sp.Mz(), Intensity: sp.Intensity()}
		if i, ok := byPrecursor[p]; ok {
			t.Spectra[i] = s
			return nil
		}
		byPrecursor[p] = len(t.Spectra)
		t.Spectra = append(t.Spectra, s)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(t.Spectra, func(i, j int) bool { return t.Spectra[i].Precursor < t.Spectra[j].Precursor })
	return nil
}

func (t *TandemMS) matches(precursor, radius float64) bool {
	for _, f := range t.Features {
		if math.Abs(f-precursor) < radius {
			return true
		}
	}
	return false
}

// WriteMGF writes the spectra in Mascot generic format
func (t *TandemMS) WriteMGF(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range t.Spectra {
		fmt.Fprintf(bw, "BEGIN IONS\nPEPMASS=%s\nMSLEVEL=2\n", formatFloat(s.Precursor))
		first := true
		for i, mz := range s.Mz {
			if s.Intensity[i] <= mgfMinIntensity {
				continue
			}
			if !first {
				bw.WriteByte('\n')
			}
			first = false
			fmt.Fprintf(bw, "%s %s", formatFloat(mz), formatFloat(s.Intensity[i]))
		}
		bw.WriteString("\nEND IONS\n\n")
	}
	return bw.Flush()
}

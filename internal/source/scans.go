package source

// Scan is an in-memory spectrum
type Scan struct {
	MzValues    []float64
	Intensities []float64
	MSLevel     int
	TotalIon    float64
	StartTime   float64
	PrecursorMz float64
}

func (s Scan) Mz() []float64          { return s.MzValues }
func (s Scan) Intensity() []float64   { return s.Intensities }
func (s Scan) TIC() float64           { return s.TotalIon }
func (s Scan) ScanStartTime() float64 { return s.StartTime }
func (s Scan) Precursor() float64     { return s.PrecursorMz }

// Level returns the MS level, 1 if unset
func (s Scan) Level() int {
	if s.MSLevel == 0 {
		return 1
	}
	return s.MSLevel
}

// Scans is an Iterator over in-memory spectra
type Scans []Scan

// Each calls fn for every scan in order
func (ss Scans) Each(fn func(Spectrum) error) error {
	for _, s := range ss {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

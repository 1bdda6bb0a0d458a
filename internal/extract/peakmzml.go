package extract

import (
	"fmt"
	"io"

	"github.com/524D/breathx/internal/mzml"
	"github.com/524D/breathx/internal/source"
)

var peakWindowProcessing = mzml.DataProcessing{
	ID: "breathx_peak_window",
	ProcessingMeth: []mzml.ProcessingMethod{
		{
			Count: 0,
			CvPar: []mzml.CVParam{
				{
					Accession: `MS:1001486`,
					Name:      `data filtering`,
				},
			},
		},
	},
}

// WritePeakMzML writes the mzML document of src reduced to the MS1
// scans inside the peak window of ex. Scans of higher levels are all
// kept. The document of src is modified.
func WritePeakMzML(w io.Writer, src *source.Source, ex *Extraction, software, version string) error {
	m := src.MzML()
	if m == nil {
		return fmt.Errorf("%w: %s is not mzML", source.ErrUnsupportedFormat, src.Path)
	}
	inWindow := make(map[float64]bool, len(ex.Window.Indices))
	for _, i := range ex.Window.Indices {
		inWindow[ex.Table.Time[i]] = true
	}

	var keepErr error
	err := m.KeepSpectra(func(i int) bool {
		level, err := m.MSLevel(i)
		if err != nil {
			keepErr = err
			return false
		}
		if level != 1 {
			return true
		}
		rt, err := m.ScanStartTime(i)
		if err != nil {
			keepErr = err
			return false
		}
		return inWindow[rt]
	})
	if keepErr != nil {
		return keepErr
	}
	if err != nil {
		return err
	}

	proc := peakWindowProcessing
	proc.ProcessingMeth = append([]mzml.ProcessingMethod(nil), peakWindowProcessing.ProcessingMeth...)
	proc.ProcessingMeth[0].SoftwareRef = software
	m.AppendSoftwareInfo(software, version)
	m.AppendDataProcessing(proc)
	return m.Write(w)
}

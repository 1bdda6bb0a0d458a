package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
)

const cvListXML = `
  <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/>
  <cv id="UO" fullName="Unit Ontology" URI="https://raw.githubusercontent.com/bio-ontology-research-group/unit-ontology/master/unit.obo"/>
`

// Spectrum describes a spectrum to be added with AppendSpectrum
type Spectrum struct {
	ID            string
	MSLevel       int
	Centroid      bool
	ScanStartTime float64 // minutes
	TIC           float64 // NaN: not written
	Precursor     float64 // only written for MSLevel > 1
	Peaks         []Peak
}

// New returns an empty mzML document, to which spectra can be added
// with AppendSpectrum
func New(runID string) MzML {
	var f MzML
	f.content.XMLName = xml.Name{Space: "http://psi.hupo.org/ms/mzml", Local: "mzML"}
	f.content.CvList = cvList{Count: 2, CvListXML: []byte(cvListXML)}
	f.content.FileDescription.FileDescriptionXML = `<fileContent/>`
	f.content.SoftwareList = &softwareList{}
	f.content.DataProcessingList = &dataProcessingList{}
	f.content.Run.ID = runID
	f.index2id = []string{}
	f.id2Index = map[string]int{}
	return f
}

func (f *MzML) Write(writer io.Writer) error {
	_, err := writer.Write(([]byte)(
		`<?xml version="1.0" encoding="utf-8"?>
`))
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	// FIXME: We want readable XML, with XML tags starting on a new line.
	// GO's Encode doesn't always insert newlines, and using
	// Indent only works if the indent string is not empty,
	// resuling in a single space indent.
	enc.Indent(` `, `  `)
	var content mzMLContentWrite

	content.XMLName = f.content.XMLName
	content.Sl1 = "http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd"
	content.Version = "1.1.0"
	content.Sl2 = "http://www.w3.org/2001/XMLSchema-instance"
	content.CvList = f.content.CvList
	content.FileDescription = f.content.FileDescription
	content.ReferenceableParamGroupList = f.content.ReferenceableParamGroupList
	content.SoftwareList = f.content.SoftwareList
	content.InstrumentConfigurationList = f.content.InstrumentConfigurationList
	content.DataProcessingList = f.content.DataProcessingList
	content.Run = f.content.Run
	content.Run.SpectrumList.Count = len(content.Run.SpectrumList.Spectrum)

	return enc.Encode(&content)
}

// AppendSoftwareInfo adds info to the SoftwareList tag of the mzML file
func (f *MzML) AppendSoftwareInfo(id string, version string) error {
	var sw software

	sw.ID = id
	sw.Version = version
	if f.content.SoftwareList == nil {
		f.content.SoftwareList = &softwareList{}
	}
	f.content.SoftwareList.Count++
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software, sw)
	return nil
}

// AppendDataProcessing adds info to the DataProcessing tag of the mzML file
func (f *MzML) AppendDataProcessing(proc DataProcessing) error {
	if f.content.DataProcessingList == nil {
		f.content.DataProcessingList = &dataProcessingList{}
	}
	f.content.DataProcessingList.Count++
	f.content.DataProcessingList.DataProcessingd = append(f.content.DataProcessingList.DataProcessingd, proc)
	return nil
}

// AppendSpectrum adds a spectrum at the end of the spectrum list.
// Peaks are stored as zlib compressed 64 bit floats.
func (f *MzML) AppendSpectrum(s Spectrum) error {
	if _, ok := f.id2Index[s.ID]; ok || s.ID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidScanID, s.ID)
	}
	level := s.MSLevel
	if level == 0 {
		level = 1
	}
	var spec spectrum
	spec.Index = f.NumSpecs()
	spec.ID = s.ID
	spec.CvPar = append(spec.CvPar, CVParam{Accession: cvMSLevel,
		Name: "ms level", Value: strconv.Itoa(level)})
	if s.Centroid {
		spec.CvPar = append(spec.CvPar, CVParam{Accession: cvCentroid,
			Name: "centroid spectrum"})
	} else {
		spec.CvPar = append(spec.CvPar, CVParam{Accession: cvProfile,
			Name: "profile spectrum"})
	}
	if !math.IsNaN(s.TIC) {
		spec.CvPar = append(spec.CvPar, CVParam{Accession: cvTotalIonCurrent,
			Name: "total ion current", Value: formatFloat(s.TIC),
			UnitCvRef: "MS", UnitAccession: unitNumberOfCounts, UnitName: "number of detector counts"})
	}
	spec.ScanList = scanList{Count: 1, Scan: []scan{{CvPar: []CVParam{{
		Accession: cvScanStartTime, Name: "scan start time",
		Value: formatFloat(s.ScanStartTime), UnitCvRef: "UO",
		UnitAccession: unitMinute, UnitName: "minute"}}}}}
	if level > 1 {
		var prec XMLprecursor
		prec.SelectedIonList = selectedIonList{Count: 1, SelectedIon: []selectedIon{{
			CvPar: []CVParam{{Accession: cvSelectedIonMz, Name: "selected ion m/z",
				Value: formatFloat(s.Precursor), UnitCvRef: "MS",
				UnitAccession: unitMz, UnitName: "m/z"}}}}}
		spec.PrecursorList = []precursorList{{Count: 1, Precursor: []XMLprecursor{prec}}}
	}
	compression := []CVParam{
		{Accession: cvFloat64, Name: "64-bit float"},
		{Accession: cvZlibCompression, Name: "zlib compression"},
	}
	spec.BinaryDataArrayList = binaryDataArrayList{Count: 2, BinaryDataArray: []binaryDataArray{
		{CvPar: append([]CVParam{{Accession: cvMzArray, Name: "m/z array",
			UnitCvRef: "MS", UnitAccession: unitMz, UnitName: "m/z"}}, compression...)},
		{CvPar: append([]CVParam{{Accession: cvIntensityArray, Name: "intensity array",
			UnitCvRef: "MS", UnitAccession: unitNumberOfCounts, UnitName: "number of detector counts"}}, compression...)},
	}}

	f.content.Run.SpectrumList.Spectrum = append(f.content.Run.SpectrumList.Spectrum, spec)
	f.index2id = append(f.index2id, spec.ID)
	if err := f.addSpecToIndex(spec.Index); err != nil {
		return err
	}
	return f.UpdateScan(spec.Index, s.Peaks, true, true)
}

// KeepSpectra removes all spectra for which keep returns false. The
// remaining spectra are re-indexed.
func (f *MzML) KeepSpectra(keep func(scanIndex int) bool) error {
	var kept []spectrum
	for i, spec := range f.content.Run.SpectrumList.Spectrum {
		if keep(i) {
			spec.Index = len(kept)
			kept = append(kept, spec)
		}
	}
	f.content.Run.SpectrumList.Spectrum = kept
	f.content.Run.SpectrumList.Count = len(kept)
	return f.traverseScan()
}

// UpdateScan sets the mz/intensity info of a scan
func (f *MzML) UpdateScan(scanIndex int, p []Peak,
	updateMz bool, updateIntens bool) error {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return ErrInvalidScanIndex
	}

	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	spec.DefaultArrayLength = int64(len(p))
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		bda := &spec.BinaryDataArrayList.BinaryDataArray[i]
		zlibCompression, bits64, mzArray, intensityArray, err := binaryDataPars(bda)
		if err != nil {
			return err
		}
		// We are only interested in mz and intensity
		if (mzArray && updateMz) || (intensityArray && updateIntens) {
			b64, err := encodeBinary(p, zlibCompression, bits64, mzArray)
			if err != nil {
				return err
			}
			bda.Binary = b64
			bda.ArrayLength = len(p)
			bda.EncodedLength = len(b64)
		}
	}
	return nil
}

func encodeBinary(p []Peak, zlibCompression bool, bits64 bool, mzArray bool) (
	string, error) {

	var data []byte
	var rawUncompressed []byte

	// Some code duplication below in order to optimize loops
	if bits64 {
		// Allocate room for uncompressed binary data
		rawUncompressed = make([]byte, len(p)*8)
		if mzArray {
			for i, peak := range p {
				u64bits := math.Float64bits(peak.Mz)
				binary.LittleEndian.PutUint64(rawUncompressed[(8*i):], u64bits)
			}
		} else {
			for i, peak := range p {
				u64bits := math.Float64bits(peak.Intens)
				binary.LittleEndian.PutUint64(rawUncompressed[(8*i):], u64bits)
			}
		}
	} else {
		rawUncompressed = make([]byte, len(p)*4)
		if mzArray {
			for i, peak := range p {
				u32bits := math.Float32bits(float32(peak.Mz))
				binary.LittleEndian.PutUint32(rawUncompressed[(4*i):], u32bits)
			}
		} else {
			for i, peak := range p {
				u32bits := math.Float32bits(float32(peak.Intens))
				binary.LittleEndian.PutUint32(rawUncompressed[(4*i):], u32bits)
			}
		}
	}
	if zlibCompression {
		var b bytes.Buffer
		z := zlib.NewWriter(&b)
		if _, err := z.Write(rawUncompressed); err != nil {
			return "", err
		}
		// zlib writer must explicitly be closed here, otherwise result is invalid
		if err := z.Close(); err != nil {
			return "", err
		}
		data = b.Bytes()
	} else {
		data = rawUncompressed
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

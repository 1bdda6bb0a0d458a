package mzxml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"

	"golang.org/x/net/html/charset"
)

// Read reads an mzXML file from an io.Reader
func Read(reader io.Reader) (MzXML, error) {
	var mzXML MzXML

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	// mzXML is usually wrapped in msRun index elements; only the
	// mzXML element itself is decoded
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzXML, tokenErr
		}
		if t, ok := t.(xml.StartElement); ok && t.Name.Local == "mzXML" {
			if err := d.DecodeElement(&mzXML.content, &t); err != nil {
				return mzXML, err
			}
		}
	}
	mzXML.scans = flatten(nil, mzXML.content.MsRun.Scan)
	return mzXML, nil
}

func flatten(dst []*scan, scans []scan) []*scan {
	for i := range scans {
		dst = append(dst, &scans[i])
		dst = flatten(dst, scans[i].Scan)
	}
	return dst
}

// NumSpecs returns the number of scans, nested scans included
func (f *MzXML) NumSpecs() int {
	return len(f.scans)
}

func (f *MzXML) scan(scanIndex int) (*scan, error) {
	if scanIndex < 0 || scanIndex >= len(f.scans) {
		return nil, ErrInvalidScanIndex
	}
	return f.scans[scanIndex], nil
}

// ReadScan decodes the peak list of a scan
func (f *MzXML) ReadScan(scanIndex int) ([]Peak, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return nil, err
	}
	var p []Peak
	for i := range s.Peaks {
		p, err = decodePeaks(&s.Peaks[i])
		if err != nil {
			return nil, err
		}
	}
	if s.PeaksCount != 0 && len(p) != s.PeaksCount {
		return nil, fmt.Errorf("%w: %d peaks, peaksCount %d", ErrPeaksCount, len(p), s.PeaksCount)
	}
	return p, nil
}

// decodePeaks decodes base64 encoded, optionally zlib compressed,
// m/z-intensity pairs in network byte order
func decodePeaks(pk *peaks) ([]Peak, error) {
	if pk.ByteOrder != "" && pk.ByteOrder != "network" {
		return nil, fmt.Errorf("%w: byte order %s", ErrUnsupportedEncoding, pk.ByteOrder)
	}
	if pk.PairOrder != "" && pk.PairOrder != "m/z-int" {
		return nil, fmt.Errorf("%w: pair order %s", ErrUnsupportedEncoding, pk.PairOrder)
	}
	data, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(pk.Binary))))
	if err != nil {
		return nil, err
	}
	switch pk.CompressionType {
	case "", "none":
	case "zlib":
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedEncoding, pk.CompressionType)
	}

	var width int
	switch pk.Precision {
	case 0, 32:
		width = 4
	case 64:
		width = 8
	default:
		return nil, fmt.Errorf("%w: precision %d", ErrUnsupportedEncoding, pk.Precision)
	}
	cnt := len(data) / (2 * width)
	p := make([]Peak, cnt)
	for i := 0; i < cnt; i++ {
		if width == 8 {
			p[i].Mz = math.Float64frombits(binary.BigEndian.Uint64(data[16*i:]))
			p[i].Intens = math.Float64frombits(binary.BigEndian.Uint64(data[16*i+8:]))
		} else {
			p[i].Mz = float64(math.Float32frombits(binary.BigEndian.Uint32(data[8*i:])))
			p[i].Intens = float64(math.Float32frombits(binary.BigEndian.Uint32(data[8*i+4:])))
		}
	}
	return p, nil
}

// RetentionTime returns the retention time of a scan in minutes
func (f *MzXML) RetentionTime(scanIndex int) (float64, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return 0.0, err
	}
	sec, err := parseDuration(s.RetentionTime)
	if err != nil {
		return 0.0, err
	}
	return sec / 60, nil
}

// MSLevel returns the MS level of a scan
func (f *MzXML) MSLevel(scanIndex int) (int, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return 0, err
	}
	if s.MsLevel == 0 {
		return 1, nil
	}
	return s.MsLevel, nil
}

// TotalIonCurrent returns the total ion current, or NaN if not found
func (f *MzXML) TotalIonCurrent(scanIndex int) (float64, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return 0.0, err
	}
	if s.TotIonCurrent == nil {
		return math.NaN(), nil
	}
	return *s.TotIonCurrent, nil
}

// PrecursorMz returns the first precursor m/z of a scan, or NaN if the
// scan has none
func (f *MzXML) PrecursorMz(scanIndex int) (float64, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return 0.0, err
	}
	if len(s.PrecursorMz) == 0 {
		return math.NaN(), nil
	}
	return s.PrecursorMz[0].Value, nil
}

// Centroid returns true if the scan is flagged as centroided
func (f *MzXML) Centroid(scanIndex int) (bool, error) {
	s, err := f.scan(scanIndex)
	if err != nil {
		return false, err
	}
	return s.Centroided == "1" || s.Centroided == "true", nil
}

// MSInstruments returns the mass analyzers of the run
func (f *MzXML) MSInstruments() []string {
	var instr []string
	for _, m := range f.content.MsRun.MsInstrument {
		if m.MsMassAnalyzer.Value != "" {
			instr = append(instr, m.MsMassAnalyzer.Value)
		}
	}
	return instr
}

var durationRe = regexp.MustCompile(
	`^(-)?P(?:(\d+(?:\.\d*)?)D)?(?:T(?:(\d+(?:\.\d*)?)H)?(?:(\d+(?:\.\d*)?)M)?(?:(\d+(?:\.\d*)?)S)?)?$`)

// parseDuration converts an xs:duration without year and month
// components (e.g. PT1M30.5S) into seconds
func parseDuration(s string) (float64, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0.0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	scale := []float64{86400, 3600, 60, 1}
	sec := 0.0
	for i, part := range m[2:] {
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0.0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		sec += v * scale[i]
	}
	if m[1] == "-" {
		sec = -sec
	}
	return sec, nil
}

package mzxml

import (
	"encoding/xml"
	"errors"
)

// MzXML wraps the scans of an mzXML file, flattened in document order
type MzXML struct {
	content mzXMLContent
	scans   []*scan
}

// Peak contains the actual ms peak info
type Peak struct {
	Mz     float64
	Intens float64
}

type mzXMLContent struct {
	XMLName xml.Name `xml:"mzXML"`
	MsRun   msRun    `xml:"msRun"`
}

type msRun struct {
	ScanCount    int            `xml:"scanCount,attr"`
	StartTime    string         `xml:"startTime,attr"`
	EndTime      string         `xml:"endTime,attr"`
	MsInstrument []msInstrument `xml:"msInstrument"`
	Scan         []scan         `xml:"scan"`
}

type msInstrument struct {
	MsManufacturer nameValue `xml:"msManufacturer"`
	MsModel        nameValue `xml:"msModel"`
	MsMassAnalyzer nameValue `xml:"msMassAnalyzer"`
}

type nameValue struct {
	Category string `xml:"category,attr"`
	Value    string `xml:"value,attr"`
}

// scan is recursive: mzXML 2 nests MS2 scans inside their MS1 scan
type scan struct {
	Num           int           `xml:"num,attr"`
	MsLevel       int           `xml:"msLevel,attr"`
	PeaksCount    int           `xml:"peaksCount,attr"`
	Centroided    string        `xml:"centroided,attr"`
	RetentionTime string        `xml:"retentionTime,attr"`
	TotIonCurrent *float64      `xml:"totIonCurrent,attr"`
	PrecursorMz   []precursorMz `xml:"precursorMz"`
	Peaks         []peaks       `xml:"peaks"`
	Scan          []scan        `xml:"scan"`
}

type precursorMz struct {
	PrecursorIntensity float64 `xml:"precursorIntensity,attr"`
	PrecursorCharge    int     `xml:"precursorCharge,attr"`
	Value              float64 `xml:",chardata"`
}

type peaks struct {
	Precision       int    `xml:"precision,attr"`
	ByteOrder       string `xml:"byteOrder,attr"`
	PairOrder       string `xml:"pairOrder,attr"`
	ContentType     string `xml:"contentType,attr"`
	CompressionType string `xml:"compressionType,attr"`
	CompressedLen   int    `xml:"compressedLen,attr"`
	Binary          string `xml:",chardata"`
}

var (
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = errors.New("MzXML: invalid scan index")
	// ErrInvalidDuration means a retention time is not a valid xs:duration
	ErrInvalidDuration = errors.New("MzXML: invalid duration")
	// ErrUnsupportedEncoding means the peak list uses an unknown precision, byte order or compression
	ErrUnsupportedEncoding = errors.New("MzXML: unsupported peak encoding")
	// ErrPeaksCount means the number of decoded peaks differs from peaksCount
	ErrPeaksCount = errors.New("MzXML: peaks count mismatch")
)

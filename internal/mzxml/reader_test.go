package mzxml

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// An MS1 scan with an MS2 scan nested inside it (mzXML 2 layout)
const testMzXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<mzXML xmlns="http://sashimi.sourceforge.net/schema_revision/mzXML_3.2">
 <msRun scanCount="2" startTime="PT0S" endTime="PT120S">
  <msInstrument>
   <msManufacturer category="msManufacturer" value="Thermo Scientific"/>
   <msMassAnalyzer category="msMassAnalyzer" value="FTMS"/>
  </msInstrument>
  <scan num="1" msLevel="1" peaksCount="2" centroided="1" retentionTime="PT90S" totIonCurrent="30">
   <peaks precision="32" byteOrder="network" pairOrder="m/z-int" compressionType="none">QskAAEEgAABDSEAAQaAAAA==</peaks>
   <scan num="2" msLevel="2" peaksCount="2" centroided="1" retentionTime="PT1M33S">
    <precursorMz precursorIntensity="120" precursorCharge="1">100.5</precursorMz>
    <peaks precision="64" byteOrder="network" pairOrder="m/z-int" compressionType="zlib">eJxz8D7AAAIOHAwQ2k8BTNs7JPle+rjyDwBIrQbY</peaks>
   </scan>
  </scan>
 </msRun>
</mzXML>
`

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(testMzXML))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	if f.NumSpecs() != 2 {
		t.Fatalf("NumSpecs: %d, should be 2", f.NumSpecs())
	}

	p, err := f.ReadScan(0)
	if err != nil {
		t.Errorf("ReadScan: error return %v", err)
	}
	if len(p) != 2 || p[0].Mz != 100.5 || p[0].Intens != 10 ||
		p[1].Mz != 200.25 || p[1].Intens != 20 {
		t.Errorf("ReadScan: peaks %+v", p)
	}
	p, err = f.ReadScan(1)
	if err != nil {
		t.Errorf("ReadScan: error return %v", err)
	}
	if len(p) != 2 || p[0].Mz != 55.5 || p[1].Intens != 0.0005 {
		t.Errorf("ReadScan: peaks %+v", p)
	}

	rt, _ := f.RetentionTime(0)
	if rt != 1.5 {
		t.Errorf("RetentionTime: %v, should be 1.5", rt)
	}
	rt, _ = f.RetentionTime(1)
	if rt != 1.55 {
		t.Errorf("RetentionTime: %v, should be 1.55", rt)
	}
	level, _ := f.MSLevel(1)
	if level != 2 {
		t.Errorf("MSLevel: %d, should be 2", level)
	}
	tic, _ := f.TotalIonCurrent(0)
	if tic != 30 {
		t.Errorf("TotalIonCurrent: %v, should be 30", tic)
	}
	tic, _ = f.TotalIonCurrent(1)
	if !math.IsNaN(tic) {
		t.Errorf("TotalIonCurrent: %v, should be NaN", tic)
	}
	prec, _ := f.PrecursorMz(1)
	if prec != 100.5 {
		t.Errorf("PrecursorMz: %v, should be 100.5", prec)
	}
	prec, _ = f.PrecursorMz(0)
	if !math.IsNaN(prec) {
		t.Errorf("PrecursorMz: %v, should be NaN", prec)
	}
	centroid, _ := f.Centroid(0)
	if !centroid {
		t.Errorf("Centroid: false, should be true")
	}
	if _, err := f.MSLevel(2); err != ErrInvalidScanIndex {
		t.Errorf("MSLevel: error return %v, should be ErrInvalidScanIndex", err)
	}
	if instr := f.MSInstruments(); len(instr) != 1 || instr[0] != "FTMS" {
		t.Errorf("MSInstruments: %v", instr)
	}
}

func TestReadPeaksCount(t *testing.T) {
	bad := strings.Replace(testMzXML, `peaksCount="2" centroided="1" retentionTime="PT90S"`,
		`peaksCount="3" centroided="1" retentionTime="PT90S"`, 1)
	f, err := Read(strings.NewReader(bad))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	if _, err := f.ReadScan(0); !errors.Is(err, ErrPeaksCount) {
		t.Errorf("ReadScan: error return %v, should be ErrPeaksCount", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"PT12.5S", 12.5, false},
		{"PT1M30S", 90, false},
		{"PT1H", 3600, false},
		{"P1DT1S", 86401, false},
		{"-PT2S", -2, false},
		{"PT", 0, true},
		{"12.5", 0, true},
		{"PT1.5X", 0, true},
	}
	for i, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Test case %d: error %v, wantErr %v", i, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Test case %d: got %v, want %v", i, got, tt.want)
		}
		if err != nil && !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("Test case %d: error %v, should be ErrInvalidDuration", i, err)
		}
	}
}

package mzml

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// Two spectra: an MS1 profile scan with scan time in seconds and no TIC,
// and an MS2 centroid scan with a precursor
const testMzML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
 <cvList count="1"><cv id="MS" fullName="PSI-MS"/></cvList>
 <fileDescription><fileContent/></fileDescription>
 <instrumentConfigurationList count="1">
  <instrumentConfiguration id="IC1">
   <componentList count="1">
    <analyzer order="1"><cvParam cvRef="MS" accession="MS:1000484" name="orbitrap"/></analyzer>
   </componentList>
  </instrumentConfiguration>
 </instrumentConfigurationList>
 <run id="breath">
  <spectrumList count="2">
   <spectrum index="0" id="scan=1" defaultArrayLength="2">
    <cvParam accession="MS:1000511" name="ms level" value="1"/>
    <cvParam accession="MS:1000128" name="profile spectrum"/>
    <scanList count="1">
     <scan>
      <cvParam accession="MS:1000016" name="scan start time" value="90" unitAccession="UO:0000010" unitName="second"/>
     </scan>
    </scanList>
    <binaryDataArrayList count="2">
     <binaryDataArray encodedLength="12">
      <cvParam accession="MS:1000521" name="32-bit float"/>
      <cvParam accession="MS:1000576" name="no compression"/>
      <cvParam accession="MS:1000514" name="m/z array"/>
      <binary>AADJQgBASEM=</binary>
     </binaryDataArray>
     <binaryDataArray encodedLength="12">
      <cvParam accession="MS:1000521" name="32-bit float"/>
      <cvParam accession="MS:1000576" name="no compression"/>
      <cvParam accession="MS:1000515" name="intensity array"/>
      <binary>AAAgQQAAoEE=</binary>
     </binaryDataArray>
    </binaryDataArrayList>
   </spectrum>
   <spectrum index="1" id="scan=2" defaultArrayLength="2">
    <cvParam accession="MS:1000511" name="ms level" value="2"/>
    <cvParam accession="MS:1000127" name="centroid spectrum"/>
    <cvParam accession="MS:1000285" name="total ion current" value="30"/>
    <scanList count="1">
     <scan>
      <cvParam accession="MS:1000016" name="scan start time" value="1.55" unitAccession="UO:0000031" unitName="minute"/>
     </scan>
    </scanList>
    <precursorList count="1">
     <precursor>
      <selectedIonList count="1">
       <selectedIon>
        <cvParam accession="MS:1000744" name="selected ion m/z" value="101.0597"/>
       </selectedIon>
      </selectedIonList>
      <activation/>
     </precursor>
    </precursorList>
    <binaryDataArrayList count="2">
     <binaryDataArray encodedLength="12">
      <cvParam accession="MS:1000521" name="32-bit float"/>
      <cvParam accession="MS:1000514" name="m/z array"/>
      <binary>AADJQgBASEM=</binary>
     </binaryDataArray>
     <binaryDataArray encodedLength="12">
      <cvParam accession="MS:1000521" name="32-bit float"/>
      <cvParam accession="MS:1000515" name="intensity array"/>
      <binary>AAAgQQAAoEE=</binary>
     </binaryDataArray>
    </binaryDataArrayList>
   </spectrum>
  </spectrumList>
 </run>
</mzML>
</indexedmzML>
`

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(testMzML))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	if n := f.NumSpecs(); n != 2 {
		t.Fatalf("NumSpecs: %d, should be 2", n)
	}
	p, err := f.ReadScan(0)
	if err != nil {
		t.Errorf("ReadScan: error return %v", err)
	}
	if len(p) != 2 || p[0].Mz != 100.5 || p[1].Mz != 200.25 ||
		p[0].Intens != 10 || p[1].Intens != 20 {
		t.Errorf("ReadScan: peaks %+v", p)
	}
	centroid, err := f.Centroid(0)
	if err != nil || centroid {
		t.Errorf("Centroid: %v %v, should be false", centroid, err)
	}
	centroid, _ = f.Centroid(1)
	if !centroid {
		t.Errorf("Centroid: false, should be true")
	}
	_, err = f.Centroid(2)
	if err != ErrInvalidScanIndex {
		t.Errorf("Centroid: error return %v, should be ErrInvalidScanIndex", err)
	}

	rt, err := f.ScanStartTime(0)
	if err != nil || rt != 1.5 {
		t.Errorf("ScanStartTime: %v %v, should be 1.5 minutes", rt, err)
	}
	rt, _ = f.ScanStartTime(1)
	if rt != 1.55 {
		t.Errorf("ScanStartTime: %v, should be 1.55 minutes", rt)
	}

	tic, err := f.TotalIonCurrent(0)
	if err != nil || !math.IsNaN(tic) {
		t.Errorf("TotalIonCurrent: %v %v, should be NaN", tic, err)
	}
	tic, _ = f.TotalIonCurrent(1)
	if tic != 30 {
		t.Errorf("TotalIonCurrent: %v, should be 30", tic)
	}

	msLevel, err := f.MSLevel(1)
	if err != nil || msLevel != 2 {
		t.Errorf("MSLevel: %d %v, should be 2", msLevel, err)
	}
	prec, err := f.PrecursorMz(1)
	if err != nil || prec != 101.0597 {
		t.Errorf("PrecursorMz: %v %v, should be 101.0597", prec, err)
	}
	prec, _ = f.PrecursorMz(0)
	if !math.IsNaN(prec) {
		t.Errorf("PrecursorMz: %v, should be NaN", prec)
	}

	scanID, _ := f.ScanID(0)
	if scanID != `scan=1` {
		t.Errorf("ScanID: %s, should be scan=1", scanID)
	}

	instr, err := f.MSInstruments()
	if err != nil || len(instr) != 1 || instr[0] != "MS:1000484" {
		t.Errorf("MSInstruments: %v %v", instr, err)
	}
}

func TestReadNumpress(t *testing.T) {
	numpress := strings.Replace(testMzML, `<cvParam accession="MS:1000576" name="no compression"/>
      <cvParam accession="MS:1000514" name="m/z array"/>`,
		`<cvParam accession="MS:1002312" name="MS-Numpress linear prediction compression"/>
      <cvParam accession="MS:1000514" name="m/z array"/>`, 1)
	f, err := Read(strings.NewReader(numpress))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	_, err = f.ReadScan(0)
	if !errors.Is(err, ErrUnsupportedCompression) {
		t.Errorf("ReadScan: error return %v, should be ErrUnsupportedCompression", err)
	}
}

func TestReadArrayLength(t *testing.T) {
	short := strings.Replace(testMzML, `<binary>AAAgQQAAoEE=</binary>`, `<binary>AABeQg==</binary>`, 1)
	f, err := Read(strings.NewReader(short))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	_, err = f.ReadScan(0)
	if !errors.Is(err, ErrArrayLength) {
		t.Errorf("ReadScan: error return %v, should be ErrArrayLength", err)
	}
}

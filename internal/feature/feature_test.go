package feature

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/524D/breathx/internal/cluster"
	"github.com/524D/breathx/internal/source"
)

func testTable() *Table {
	return &Table{
		Time: []float64{0.5, 1.25},
		Rows: []Row{
			{Mz: 100.00004, Score: 12.5, Intensity: []float64{3.5, 0.4}},
			{Mz: 101.00733, Score: 7.49, Intensity: []float64{1, 2}},
		},
	}
}

func TestLookup(t *testing.T) {
	tab := testTable()
	if r, ok := tab.Lookup(101.00733); !ok || r.Score != 7.49 {
		t.Errorf("Lookup(101.00733): %+v %v", r, ok)
	}
	// no tolerance
	if _, ok := tab.Lookup(101.0073); ok {
		t.Errorf("Lookup(101.0073): found, should not match")
	}
	if _, ok := (&Table{}).Lookup(1); ok {
		t.Errorf("Lookup on empty table: found")
	}
}

func TestRSD(t *testing.T) {
	tab := &Table{
		Time: []float64{0, 1},
		Rows: []Row{
			{Mz: 1, Intensity: []float64{2, 2}},
			{Mz: 2, Intensity: []float64{1, 3}},
			{Mz: 3, Intensity: []float64{0, 0}},
		},
	}
	want := []float64{0, 0.5, math.NaN()}
	if diff := cmp.Diff(want, tab.RSD(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("RSD mismatch (-want +got):\n%s", diff)
	}
	got := tab.RSDControl(0.1)
	if got.Len() != 1 || got.Rows[0].Mz != 2 {
		t.Errorf("RSDControl(0.1): %+v, want only m/z 2", got.Rows)
	}
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		mz   []float64
		f    func([]float64, float64) []string
		want []string
	}{
		{
			[]float64{100, 101.0073, 123.9892, 200},
			AnnotateAdducts,
			[]string{"unknown adduct", "M+H of m/z:100.0", "M+Na of m/z:100.0", "unknown adduct"},
		},
		{
			[]float64{150.1234, 151.1268, 152.1301},
			AnnotateIsotopes,
			[]string{"unknown isotope", "M+1 of m/z:150.1234", "M+2 of m/z:150.1234"},
		},
		// an isotope is never a parent itself
		{
			[]float64{100, 101.0034, 103.0101},
			AnnotateIsotopes,
			[]string{"unknown isotope", "M+1 of m/z:100.0", "unknown isotope"},
		},
		{nil, AnnotateAdducts, []string{}},
	}
	for i, tt := range tests {
		got := tt.f(tt.mz, AnnotationTol)
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Test case %d: mismatch (-want +got):\n%s", i, diff)
		}
	}
}

const testCSV = `ID,isotope,adduct,m/z,intensity,0.5,1.25
0,unknown isotope,unknown adduct,100.0,12.0,4.0,0.0
1,unknown isotope,M+H of m/z:100.0,101.0073,7.0,1.0,2.0
`

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := testTable().WriteCSV(&buf, Annotation{Adduct: true, Isotope: true}); err != nil {
		t.Fatalf("WriteCSV: error return %v", err)
	}
	if diff := cmp.Diff(testCSV, buf.String()); diff != "" {
		t.Errorf("WriteCSV mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := testTable().WriteCSV(&buf, Annotation{}); err != nil {
		t.Fatalf("WriteCSV: error return %v", err)
	}
	header, _, _ := strings.Cut(buf.String(), "\n")
	if header != "ID,m/z,intensity,0.5,1.25" {
		t.Errorf("WriteCSV header %q", header)
	}
}

func TestReadCSV(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("ReadCSV: error return %v", err)
	}
	want := &Table{
		Time: []float64{0.5, 1.25},
		Rows: []Row{
			{Mz: 100, Score: 12, Intensity: []float64{4, 0}},
			{Mz: 101.0073, Score: 7, Intensity: []float64{1, 2}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}

	got, err = ReadCSV(strings.NewReader("ID,m/z,intensity,2\n0,200,5,\n1,150,3,1\n"))
	if err != nil {
		t.Fatalf("ReadCSV: error return %v", err)
	}
	want = &Table{
		Time: []float64{2},
		Rows: []Row{
			{Mz: 150, Score: 3, Intensity: []float64{1}},
			{Mz: 200, Score: 5, Intensity: []float64{math.NaN()}},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}

	for i, in := range []string{
		"",
		"ID,intensity\n",
		"ID,m/z,intensity,x\n",
		"ID,m/z,intensity\n0,abc,1\n",
	} {
		if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, ErrMalformedCSV) {
			t.Errorf("Test case %d: error return %v, should be ErrMalformedCSV", i, err)
		}
	}
}

func TestMergedWriteCSV(t *testing.T) {
	m := &MergedTable{
		Names: []string{"a", "b"},
		Rows: []cluster.MergedRow{
			{Mz: 100.5, Values: []float64{1, math.NaN()}},
			{Mz: 130.25, Values: []float64{math.NaN(), 2.5}},
		},
	}
	var buf bytes.Buffer
	if err := m.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: error return %v", err)
	}
	want := "m/z,a,b\n100.5,1.0,\n130.25,,2.5\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestTandemMS(t *testing.T) {
	scans := source.Scans{
		{MSLevel: 2, PrecursorMz: 100.0005, MzValues: []float64{50, 60}, Intensities: []float64{10, 0.0005}},
		{MSLevel: 1, MzValues: []float64{100}, Intensities: []float64{1}},
		{MSLevel: 2, PrecursorMz: 300, MzValues: []float64{40}, Intensities: []float64{1}},
		{MSLevel: 2, PrecursorMz: 90, MzValues: []float64{70}, Intensities: []float64{2}},
		{MSLevel: 2, PrecursorMz: 100.0005, MzValues: []float64{55}, Intensities: []float64{5}},
		{MSLevel: 2, PrecursorMz: math.NaN(), MzValues: []float64{1}, Intensities: []float64{1}},
	}
	tms := NewTandemMS([]float64{100, 90})
	if err := tms.Build(scans, 0.01); err != nil {
		t.Fatalf("Build: error return %v", err)
	}
	var buf bytes.Buffer
	if err := tms.WriteMGF(&buf); err != nil {
		t.Fatalf("WriteMGF: error return %v", err)
	}
	want := "BEGIN IONS\nPEPMASS=90.0\nMSLEVEL=2\n70.0 2.0\nEND IONS\n\n" +
		"BEGIN IONS\nPEPMASS=100.0005\nMSLEVEL=2\n55.0 5.0\nEND IONS\n\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteMGF mismatch (-want +got):\n%s", diff)
	}

	if err := NewTandemMS(nil).Build(scans, 0.01); !errors.Is(err, ErrEmptyFeature) {
		t.Errorf("Build: error return %v, should be ErrEmptyFeature", err)
	}
}

func TestPoints(t *testing.T) {
	want := []cluster.Point{{Mz: 100.00004, Value: 12.5}, {Mz: 101.00733, Value: 7.49}}
	if diff := cmp.Diff(want, testTable().Points()); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
}

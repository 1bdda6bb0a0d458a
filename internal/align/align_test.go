package align

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/524D/breathx/internal/curve"
	"github.com/524D/breathx/internal/feature"
)

func TestTimeUnion(t *testing.T) {
	tables := []*feature.Table{
		{Time: []float64{0, 1, 2}},
		{Time: []float64{0.5, 1, 3}},
	}
	want := []float64{0, 0.5, 1, 2, 3}
	if diff := cmp.Diff(want, TimeUnion(tables)); diff != "" {
		t.Errorf("TimeUnion mismatch (-want +got):\n%s", diff)
	}
}

func TestAlignSingle(t *testing.T) {
	tab := &feature.Table{
		Time: []float64{0, 1},
		Rows: []feature.Row{{Mz: 100, Score: 3, Intensity: []float64{-1, 2}}},
	}
	got, err := Align([]*feature.Table{tab}, curve.Linear)
	if err != nil {
		t.Fatalf("Align: error return %v", err)
	}
	if len(got) != 1 || got[0] != tab {
		t.Errorf("Align of one table should return it unchanged")
	}
}

func TestAlignSame(t *testing.T) {
	tab := &feature.Table{
		Time: []float64{0, 1, 2},
		Rows: []feature.Row{{Mz: 100, Score: 3, Intensity: []float64{1, 2, 4}}},
	}
	got, err := Align([]*feature.Table{tab, tab}, curve.Cubic)
	if err != nil {
		t.Fatalf("Align: error return %v", err)
	}
	for i := range got {
		if diff := cmp.Diff(tab, got[i], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("table %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestAlignShifted(t *testing.T) {
	a := &feature.Table{
		Time: []float64{0, 1, 2},
		Rows: []feature.Row{{Mz: 100, Score: 3, Intensity: []float64{0, 2, 4}}},
	}
	b := &feature.Table{
		Time: []float64{1.5, 2.5, 3.5},
		Rows: []feature.Row{
			{Mz: 100.0001, Score: 5, Intensity: []float64{6, 4, 2}},
			{Mz: 180, Score: 1, Intensity: []float64{1, 1, 1}},
		},
	}
	got, err := Align([]*feature.Table{a, b}, curve.Linear)
	if err != nil {
		t.Fatalf("Align: error return %v", err)
	}
	axis := []float64{0, 1, 1.5, 2, 2.5, 3.5}
	want := []*feature.Table{
		{
			Time: axis,
			Rows: []feature.Row{{Mz: 100, Score: 3, Intensity: []float64{0, 2, 3, 4, 5, 7}}},
		},
		{
			Time: axis,
			Rows: []feature.Row{
				{Mz: 100.0001, Score: 5, Intensity: []float64{9, 7, 6, 5, 4, 2}},
				{Mz: 180, Score: 1, Intensity: []float64{1, 1, 1, 1, 1, 1}},
			},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Align mismatch (-want +got):\n%s", diff)
	}

	// extrapolation below zero is clamped
	b.Rows[0].Intensity = []float64{2, 4, 6}
	got, err = Align([]*feature.Table{a, b}, curve.Linear)
	if err != nil {
		t.Fatalf("Align: error return %v", err)
	}
	wantLow := []float64{0, 1, 2, 3, 4, 6}
	if diff := cmp.Diff(wantLow, got[1].Rows[0].Intensity, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("clamped row mismatch (-want +got):\n%s", diff)
	}
}

func TestAlignMalformed(t *testing.T) {
	a := &feature.Table{Time: []float64{0, 1}, Rows: []feature.Row{{Mz: 1, Intensity: []float64{1, 2}}}}
	b := &feature.Table{Time: []float64{1, 1}, Rows: []feature.Row{{Mz: 1, Intensity: []float64{1, 2}}}}
	if _, err := Align([]*feature.Table{a, b}, curve.Linear); !errors.Is(err, curve.ErrMalformedAxis) {
		t.Errorf("Align: error return %v, should be ErrMalformedAxis", err)
	}
}

func TestAlignTimeShift(t *testing.T) {
	// Three runs of one sample whose clocks differ slightly
	shifts := []float64{0.001, -0.002, 0}
	tables := make([]*feature.Table, len(shifts))
	for k, s := range shifts {
		tab := &feature.Table{Rows: []feature.Row{{Mz: 100, Score: 1}}}
		for i := 0; i <= 40; i++ {
			tm := float64(i) / 10
			tab.Time = append(tab.Time, tm+s)
			tab.Rows[0].Intensity = append(tab.Rows[0].Intensity, 1000*math.Exp(-(tm-2)*(tm-2)/0.5))
		}
		tables[k] = tab
	}
	for _, kind := range []curve.Kind{curve.Linear, curve.Cubic} {
		got, err := Align(tables, kind)
		if err != nil {
			t.Fatalf("Align %v: error return %v", kind, err)
		}
		ref := got[len(got)-1].Time
		for k, tab := range got {
			if len(tab.Time) != len(ref) {
				t.Fatalf("Align %v: table %d has %d times, want %d", kind, k, len(tab.Time), len(ref))
			}
			for i := range ref {
				if math.Abs(tab.Time[i]-ref[i]) > 0.001 {
					t.Errorf("Align %v: table %d time %d is %v, want %v", kind, k, i, tab.Time[i], ref[i])
				}
			}
			if len(tab.Rows[0].Intensity) != len(ref) {
				t.Errorf("Align %v: table %d has %d intensities, want %d",
					kind, k, len(tab.Rows[0].Intensity), len(ref))
			}
		}
		// the unshifted table keeps its own samples
		for i, tm := range tables[2].Time {
			j := sort.SearchFloat64s(ref, tm)
			if diff := math.Abs(got[2].Rows[0].Intensity[j] - tables[2].Rows[0].Intensity[i]); diff > 1e-6 {
				t.Errorf("Align %v: value at %v off by %v", kind, tm, diff)
			}
		}
	}
}

package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		xs, ys  []float64
		wantErr bool
	}{
		{[]float64{0, 1, 2}, []float64{1, 2, 3}, false},
		{[]float64{0, 1}, []float64{1, 2, 3}, true},
		{[]float64{0}, []float64{1}, true},
		{[]float64{0, 1, 1}, []float64{1, 2, 3}, true},
		{[]float64{0, 2, 1}, []float64{1, 2, 3}, true},
		{[]float64{0, math.NaN(), 1}, []float64{1, 2, 3}, true},
	}
	for i, tt := range tests {
		err := Validate(tt.xs, tt.ys)
		if (err != nil) != tt.wantErr {
			t.Errorf("Test case %d: error %v, wantErr %v", i, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrMalformedAxis) {
			t.Errorf("Test case %d: error %v, should be ErrMalformedAxis", i, err)
		}
	}
}

func TestInterpolateLinear(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{0, 2, 3}
	got, err := Interpolate(xs, ys, []float64{-1, 0, 0.5, 1.5, 2, 4}, Linear)
	if err != nil {
		t.Fatalf("Interpolate: error return %v", err)
	}
	want := []float64{-2, 0, 1, 2.5, 3, 5}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Interpolate mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpolateCubic(t *testing.T) {
	// A not-a-knot spline reproduces a cubic polynomial exactly
	f := func(x float64) float64 { return x*x*x - 2*x + 1 }
	xs := []float64{0, 0.5, 1.5, 2, 3, 4}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	at := []float64{0.25, 1, 2.5, 3.75}
	got, err := Interpolate(xs, ys, at, Cubic)
	if err != nil {
		t.Fatalf("Interpolate: error return %v", err)
	}
	for i, x := range at {
		if math.Abs(got[i]-f(x)) > 1e-9 {
			t.Errorf("Interpolate(%v): %v, want %v", x, got[i], f(x))
		}
	}
	// Beyond the last knot the tangent is followed: f(4)=57, f'(4)=46
	got, _ = Interpolate(xs, ys, []float64{5}, Cubic)
	if math.Abs(got[0]-(57+46)) > 1e-6 {
		t.Errorf("Interpolate(5): %v, want %v", got[0], 57+46)
	}
}

func TestCubicFewPoints(t *testing.T) {
	// Below four knots cubic interpolation is linear
	tests := []struct {
		xs, ys []float64
		at     float64
		want   float64
	}{
		{[]float64{0, 2}, []float64{0, 4}, 1, 2},
		{[]float64{0, 1, 2}, []float64{0, 2, 3}, 1.5, 2.5},
		{[]float64{0, 1, 2}, []float64{1, 3, 1}, 0.5, 2},
	}
	for i, tt := range tests {
		got, err := Interpolate(tt.xs, tt.ys, []float64{tt.at}, Cubic)
		if err != nil {
			t.Errorf("Test case %d: error return %v", i, err)
			continue
		}
		if math.Abs(got[0]-tt.want) > 1e-12 {
			t.Errorf("Test case %d: got %v, want %v", i, got[0], tt.want)
		}
	}
}

func TestResample(t *testing.T) {
	xs := []float64{0, 0.35, 1}
	ys := []float64{1, 1, 1}
	nx, ny, err := Resample(xs, ys, 5)
	if err != nil {
		t.Fatalf("Resample: error return %v", err)
	}
	want := []float64{0, 0.25, 0.35, 0.5, 0.75, 1}
	if diff := cmp.Diff(want, nx); diff != "" {
		t.Errorf("Resample grid mismatch (-want +got):\n%s", diff)
	}
	for i, y := range ny {
		if math.Abs(y-1) > 1e-12 {
			t.Errorf("Resample value %d: %v, want 1", i, y)
		}
	}
	if _, _, err := Resample([]float64{1, 0}, []float64{1, 1}, 5); !errors.Is(err, ErrMalformedAxis) {
		t.Errorf("Resample: error return %v, should be ErrMalformedAxis", err)
	}
}

func TestUnion(t *testing.T) {
	got := Union([]float64{3, 1, 2}, []float64{2, 5}, nil, []float64{1})
	if diff := cmp.Diff([]float64{1, 2, 3, 5}, got); diff != "" {
		t.Errorf("Union mismatch (-want +got):\n%s", diff)
	}
	if got := Union(); len(got) != 0 {
		t.Errorf("Union(): %v, want empty", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Linear, Cubic} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%s): %v %v", k, got, err)
		}
	}
	if _, err := ParseKind("quadratic"); err == nil {
		t.Errorf("ParseKind(quadratic): no error")
	}
}

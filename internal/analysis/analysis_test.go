package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name  string
		omega float64
		dt    float64
		n     int
	}{
		{"slow", 0.8, 0.05, 400},
		{"fast", 3.0, 0.02, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = 1.5 + math.Cos(tt.omega*float64(i)*tt.dt)
			}
			got, err := DominantFrequency(data, tt.dt)
			if err != nil {
				t.Fatal(err)
			}
			resolution := 2 * math.Pi / (float64(tt.n) * tt.dt)
			if math.Abs(got-tt.omega) > resolution {
				t.Errorf("DominantFrequency = %.4f, want %.4f ± %.4f", got, tt.omega, resolution)
			}
		})
	}
}

func TestDominantFrequencyShortSeries(t *testing.T) {
	if _, err := DominantFrequency([]float64{1, 2}, 0.1); !errors.Is(err, ErrShortSeries) {
		t.Errorf("err = %v, want ErrShortSeries", err)
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 7
	}
	for i, v := range PowerSpectrum(data) {
		if v > 1e-20 {
			t.Errorf("bin %d = %e for a constant series", i, v)
		}
	}
	if len(PowerSpectrum(data)) != len(Frequencies(64, 0.1)) {
		t.Error("spectrum and frequency grids differ in length")
	}
}

func TestPortraitASCII(t *testing.T) {
	n := 200
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		phi := 2 * math.Pi * float64(i) / float64(n)
		x[i], y[i] = math.Cos(phi), math.Sin(phi)
	}
	p, err := NewPortrait("X", "P", x, y)
	if err != nil {
		t.Fatal(err)
	}
	out := p.ASCII(40, 20)
	if lines := strings.Count(out, "\n"); lines != 20 {
		t.Errorf("rows = %d, want 20", lines)
	}
	for _, r := range []string{"•", "│", "─"} {
		if !strings.Contains(out, r) {
			t.Errorf("portrait missing %q", r)
		}
	}

	if _, err := NewPortrait("X", "P", x, y[:3]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

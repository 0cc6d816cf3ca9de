package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrShortSeries is returned when a series has too few samples to resolve
// a frequency.
var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns |X(ω_j)|² for j = 0..N/2 of the Hann-windowed,
// mean-subtracted series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range data {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	spec := fft.FFTReal(x)
	ps := make([]float64, n/2+1)
	for i := range ps {
		a := cmplx.Abs(spec[i])
		ps[i] = a * a
	}
	return ps
}

// Frequencies returns the angular frequencies 2πj/(N dt) of the bins of
// PowerSpectrum for a series of n samples.
func Frequencies(n int, dt float64) []float64 {
	w := make([]float64, n/2+1)
	for j := range w {
		w[j] = 2 * math.Pi * float64(j) / (float64(n) * dt)
	}
	return w
}

// DominantFrequency returns the angular frequency of the largest non-zero
// bin of the power spectrum, refined by parabolic interpolation between
// neighboring bins.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if len(data) < 4 {
		return 0, ErrShortSeries
	}
	ps := PowerSpectrum(data)
	peak := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}
	shift := 0.0
	if peak > 0 && peak < len(ps)-1 {
		l, c, r := ps[peak-1], ps[peak], ps[peak+1]
		if d := l - 2*c + r; d != 0 {
			shift = 0.5 * (l - r) / d
		}
	}
	return 2 * math.Pi * (float64(peak) + shift) / (float64(len(data)) * dt), nil
}

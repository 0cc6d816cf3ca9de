// Package analysis extracts characteristic frequencies and phase-space
// pictures from observable time series of a finished run.
//
//   - [PowerSpectrum]: one-sided power spectrum of an equally spaced series
//   - [DominantFrequency]: angular frequency of the strongest spectral peak
//   - [NewPortrait]: (X, P) trajectory of the classical phonon coordinate
//
// # Phonon Oscillations
//
// After a coupling quench the lattice displacement oscillates at a
// renormalized frequency that is read off the spectrum:
//
//	w, err := analysis.DominantFrequency(xph, dt)
package analysis

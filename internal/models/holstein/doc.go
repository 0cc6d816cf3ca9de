// Package holstein is a self-energy provider for the Holstein model on the
// Bethe lattice in the unrenormalised Migdal approximation.
//
// Each site couples one electronic level (two spin species) to a
// dispersionless phonon X = b + b^†:
//
//	H = -J Σ c†c + ω0/4 (X² + P²) + g n X
//
// The lattice enters through the Bethe self-consistency Δ(t,t') =
// J(t) G(t,t') J(t'). The phonon is split into a classical displacement,
// which shifts the level as a time dependent mean field, and free
// fluctuations D0 entering Σ = i g g D0 G.
package holstein

// Package contour provides storage for matrix-valued functions on the
// Keldysh contour.
//
// The package defines:
//
//   - [Function]: f(t) on the real axis, with t = -1 holding the equilibrium value
//   - [HermMatrix]: a two-time Green's function stored through its retarded,
//     lesser, left-mixing and Matsubara components
//   - [Timestep]: an owned snapshot of one time slice
//   - [View]: a borrowed slice aliasing the owner's storage
//
// # Storage
//
// Timestep n of a HermMatrix consists of the retarded row R(n, 0..n), the
// mixing row ⌉(n, 0..ntau) and the lesser column <(0..n, n). Timestep -1 is
// the Matsubara component M(0..ntau). Everything else follows from the
// Hermitian symmetry G^<(i,j) = -[G^<(j,i)]^†.
//
// # Preconditions
//
// Index violations panic. The types are internal building blocks of the
// solvers, not a user-facing API.
package contour

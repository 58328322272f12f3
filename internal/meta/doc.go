// Package meta provides the canonical type definitions for Metamorph.
//
// This package contains type definitions only. All other internal packages
// import meta; meta imports nothing internal. This ensures meta remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Cardinality bounds are plain ints; the upper bound -1 ("many") is a
//     sentinel preserved verbatim end to end, never normalized
//   - Element names are NFC-normalized before comparison
//   - MutationIntent is a sealed interface - exactly nine variants exist,
//     enabling exhaustive type switches in the applier
package meta

// Package codegen lowers array element reads, writes, swaps and
// index-based iteration into IR, with the runtime bounds checks and
// reference-validity checks those operations require.
//
// Every element access goes through CheckIndexInBounds before an address
// is computed. Values read out of an array are validated by the owning
// region before the caller sees them.
package codegen

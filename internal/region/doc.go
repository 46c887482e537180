// Package region models memory regions: how references of each semantic
// type are represented in the low-level IR, and which code must run
// before a reference can be trusted.
//
// A Ref couples a raw IR value with its declared reference type and the
// region that owns it. The raw value is only reachable through a
// ReferenceValidator's CheckValidReference, which performs the structural
// checks at compile time and emits the region's runtime checks.
//
// Regions:
//
//   - unsafe: structural checks only
//   - assist: unsafe + non-null assertion on yonder references
//   - resilient: assist + liveness assertion on the referend's control block
//
// Array and struct wrappers always start with the owning region's control
// block; see the *Field constants for the remaining structural offsets.
package region

// Package entityindex maintains the secondary index from extracted
// entities to items, with deterministic value canonicalization.
//
// All writes pass through Normalize: lowercase, trim, collapse whitespace
// and punctuation variants, singularize simple plurals, then map through a
// static, versioned, type-scoped synonym table. "workshops", "class" and
// "workshop" all resolve to one canonical activity value.
package entityindex

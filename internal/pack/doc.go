// Package pack owns value serialization and type descriptors.
//
// Ownership boundary:
// - type descriptors (TypeInfo) and their wire encoding
// - big-endian value encoding driven by static Go types
// - dynamic decode for callers that only hold a descriptor
//
// Wire rules:
// - integers and floats are fixed width, big endian
// - strings and bytes are a u32 length followed by the raw bytes
// - lists and maps carry a u32 element count; map pairs are ordered by encoded key
// - optionals carry a u8 presence flag (0 or 1)
// - tuples are the plain concatenation of their elements
// - values are not self-describing; the descriptor travels separately
package pack

// Package util holds the pure, dependency-free functions the rest of the
// core shares: ETag encoding, If-Match parsing, cursor encode/decode,
// canonical JSON sizing, and limit clamping. None of these functions
// touch a backend; they are the "utility layer" of SPEC_FULL.md §2.
package util

// Package ir provides the canonical value model shared by synthkit packages.
//
// Formula trees, specification fragments, transition systems and synthesis
// results are all reduced to ir values before they are hashed or persisted.
// This package imports nothing internal, so every other package may depend on
// it without creating cycles.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Canonical JSON follows RFC 8785 and is the ONLY input to hashing
//   - All JSON tags use snake_case
//   - Hashes are domain separated and versioned
package ir

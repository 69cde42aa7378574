package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainFormula  = "synthkit/formula/v1"
	DomainFragment = "synthkit/fragment/v1"
	DomainSystem   = "synthkit/system/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte keeps domain and data boundaries unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash canonically marshals v and hashes it under domain.
func Hash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// FormulaKey returns the identity of a formula tree given its canonical value.
// Two formulas share a key iff their trees are structurally identical.
func FormulaKey(tree Value) (string, error) {
	return Hash(DomainFormula, tree)
}

// FragmentHash returns the identity of a specification fragment.
func FragmentHash(fragment Object) (string, error) {
	return Hash(DomainFragment, fragment)
}

// SystemHash returns the identity of a transition system.
func SystemHash(system Object) (string, error) {
	return Hash(DomainSystem, system)
}

// MustFormulaKey is like FormulaKey but panics on error.
// Formula trees only contain strings, lists and objects, so marshaling
// cannot fail for values produced by the ltl package.
func MustFormulaKey(tree Value) string {
	key, err := FormulaKey(tree)
	if err != nil {
		panic(err)
	}
	return key
}

// Package derive computes program-derived account addresses. An address is a
// pure function of a seed tag, the seed buffers, and the owning program id,
// so every call site that derives the same account must produce the same
// address. Derived addresses are forced off the ed25519 curve so no key pair
// can ever sign for them; only the owning program controls the account.
package derive

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

// marker is appended to the seed material so derived addresses can never
// collide with hashes produced for any other purpose.
const marker = "ProgramDerivedAccount"

// ErrBumpExhausted is returned when no bump value in [0,255] produces an
// off-curve address. Statistically this should never happen; callers treat
// it as fatal.
var ErrBumpExhausted = errors.New("unable to find a viable bump for the seeds")

// Address computes the program-derived address and bump value for the
// specified tag and seed buffers. The bump is the highest value in [0,255]
// whose derived hash does not decode as an ed25519 curve point.
func Address(program ProgramID, tag string, seeds ...[]byte) (AccountAddress, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr := hashSeeds(program, tag, seeds, uint8(bump))
		if isOffCurve(addr) {
			return addr, uint8(bump), nil
		}
	}

	return AccountAddress{}, 0, ErrBumpExhausted
}

// AddressWithBump recomputes the address for a known bump. Used to validate
// an address produced by a previous call to Address.
func AddressWithBump(program ProgramID, tag string, bump uint8, seeds ...[]byte) (AccountAddress, error) {
	addr := hashSeeds(program, tag, seeds, bump)
	if !isOffCurve(addr) {
		return AccountAddress{}, errors.New("bump produces an on-curve address")
	}

	return addr, nil
}

// hashSeeds produces the 32 byte account address for the seed material.
func hashSeeds(program ProgramID, tag string, seeds [][]byte, bump uint8) AccountAddress {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(program[:])
	h.Write([]byte(marker))

	var addr AccountAddress
	copy(addr[:], h.Sum(nil))
	return addr
}

// isOffCurve reports whether the 32 bytes fail to decode as a valid ed25519
// point. Addresses that decode as points are rejected during the bump search.
func isOffCurve(addr AccountAddress) bool {
	if _, err := new(edwards25519.Point).SetBytes(addr[:]); err != nil {
		return true
	}
	return false
}

package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity represents the public key that identifies a user. It is the owner
// recorded on profile and post accounts and the key every mirror record is
// filed under.
type Identity string

// ToIdentity converts a hex-encoded string to an identity and validates the
// hex-encoded string is formatted correctly.
func ToIdentity(hexStr string) (Identity, error) {
	id := Identity(hexStr)
	if !id.IsValid() {
		return "", errors.New("invalid identity format")
	}

	return id, nil
}

// PublicKeyToIdentity converts the public key to an identity value.
func PublicKeyToIdentity(pk ecdsa.PublicKey) Identity {
	return Identity(crypto.PubkeyToAddress(pk).String())
}

// IsValid verifies whether the underlying data represents a valid
// hex-encoded identity.
func (id Identity) IsValid() bool {
	const addressLength = 20

	str := string(id)
	if len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
		str = str[2:]
	}

	if len(str) != 2*addressLength {
		return false
	}

	_, err := hex.DecodeString(str)
	return err == nil
}

// String implements the fmt.Stringer interface.
func (id Identity) String() string {
	return string(id)
}

// =============================================================================

// Signature represents a 65 byte [R|S|V] wallet signature.
type Signature [65]byte

// SignatureFromBytes validates the raw signature bytes and converts them to a
// signature value.
func SignatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != 65 {
		return Signature{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	var s Signature
	copy(s[:], sig)
	return s, nil
}

// SignatureFromHex converts a hex representation into a signature value.
func SignatureFromHex(sigStr string) (Signature, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return Signature{}, fmt.Errorf("decoding signature: %w", err)
	}

	return SignatureFromBytes(sig)
}

// String returns the signature as a hex string.
func (s Signature) String() string {
	return hexutil.Encode(s[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Signature) UnmarshalText(data []byte) error {
	sig, err := SignatureFromHex(string(data))
	if err != nil {
		return err
	}

	*s = sig
	return nil
}

func (s Signature) bytes() []byte {
	return s[:]
}

// Package wallet provides the identity and message signing support used to
// authorize publishing activity. Keys are standard ECDSA keys kept on disk;
// the ledger and the mirror never see private key material, only signatures.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// keyExtension is the file extension used for private keys on disk.
const keyExtension = ".ecdsa"

// Wallet represents a single identity and its signing capability.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
}

// Generate creates a wallet with a brand new private key.
func Generate() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return &Wallet{privateKey: privateKey}, nil
}

// Open loads a wallet from the private key stored at the specified path.
func Open(path string) (*Wallet, error) {
	if !strings.HasSuffix(path, keyExtension) {
		path += keyExtension
	}

	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading private key: %w", err)
	}

	return &Wallet{privateKey: privateKey}, nil
}

// FromHex constructs a wallet from a hex-encoded private key. Used by tests
// and tooling that keep throwaway keys inline.
func FromHex(hexKey string) (*Wallet, error) {
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &Wallet{privateKey: privateKey}, nil
}

// Save writes the wallet's private key to the specified path.
func (w *Wallet) Save(path string) error {
	if !strings.HasSuffix(path, keyExtension) {
		path += keyExtension
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	return crypto.SaveECDSA(path, w.privateKey)
}

// Identity returns the public identity derived from the wallet's key.
func (w *Wallet) Identity() Identity {
	return PublicKeyToIdentity(w.privateKey.PublicKey)
}

// SignMessage signs arbitrary bytes with the wallet's private key and returns
// the 65 byte [R|S|V] signature. The mirror uses this signature to verify the
// caller controls the identity it claims.
func (w *Wallet) SignMessage(message []byte) (Signature, error) {
	sig, err := crypto.Sign(stamp(message), w.privateKey)
	if err != nil {
		return Signature{}, fmt.Errorf("signing message: %w", err)
	}

	return SignatureFromBytes(sig)
}

// =============================================================================

// ErrInvalidSignature is returned when a signature does not recover to the
// claimed identity.
var ErrInvalidSignature = errors.New("invalid signature")

// RecoverIdentity extracts the identity that produced the specified signature
// over the specified message.
func RecoverIdentity(message []byte, sig Signature) (Identity, error) {
	publicKey, err := crypto.SigToPub(stamp(message), sig.bytes())
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}

	return PublicKeyToIdentity(*publicKey), nil
}

// VerifyMessage checks the signature over the message was produced by the
// specified identity.
func VerifyMessage(identity Identity, message []byte, sig Signature) error {
	recovered, err := RecoverIdentity(message, sig)
	if err != nil {
		return err
	}

	if recovered != identity {
		return ErrInvalidSignature
	}

	return nil
}

// stamp hashes the message with a fixed prefix so signatures produced for
// mirror authorization can never be replayed as ledger transactions.
func stamp(message []byte) []byte {
	prefix := []byte("\x19Scribe Signed Message:\n32")
	return crypto.Keccak256(prefix, crypto.Keccak256(message))
}

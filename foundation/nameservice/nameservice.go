// Package nameservice reads a directory of private key files and creates a
// name lookup for the identities they control. The name of an identity is
// the file name of its key.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/scribenet/scribe/foundation/wallet"
)

// NameService maintains a map of identities for name lookup.
type NameService struct {
	identities map[wallet.Identity]string
}

// New constructs a name service with identities from the specified folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		identities: make(map[wallet.Identity]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		identity := wallet.PublicKeyToIdentity(privateKey.PublicKey)
		ns.identities[identity] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified identity.
func (ns *NameService) Lookup(identity wallet.Identity) string {
	name, exists := ns.identities[identity]
	if !exists {
		return identity.String()
	}
	return name
}

// Copy returns a copy of the map of names and identities.
func (ns *NameService) Copy() map[wallet.Identity]string {
	cpy := make(map[wallet.Identity]string, len(ns.identities))
	for identity, name := range ns.identities {
		cpy[identity] = name
	}
	return cpy
}

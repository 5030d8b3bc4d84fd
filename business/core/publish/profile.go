package publish

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/wallet"
)

// profileHashLen is the length of the random seed generated once per
// identity. The hash must never be regenerated; the profile address is only
// stable while the same hash feeds the derivation.
const profileHashLen = 32

// ProfileRef identifies a profile account on the ledger together with the
// hash it was derived from.
type ProfileRef struct {
	Address derive.AccountAddress
	Hash    []byte
	Created bool
}

// ensureProfile guarantees a profile account exists for the signer's
// identity, creating one exactly once on the first publish. The fast path,
// which covers every publish after the first, is a mirror hash lookup
// followed by a ledger read.
func (c *Coordinator) ensureProfile(ctx context.Context, signer Signer, sig wallet.Signature) (ProfileRef, error) {
	identity := signer.Identity()

	hash, err := c.lookupHash(ctx, identity)
	if err != nil {
		return ProfileRef{}, err
	}

	if hash != nil {
		address, _, err := derive.Address(c.ledger.Program(), SeedProfile, hash)
		if err != nil {
			return ProfileRef{}, fmt.Errorf("deriving profile address: %w", err)
		}

		if _, err := c.ledger.ReadAccount(ctx, address); err == nil {
			return ProfileRef{Address: address, Hash: hash}, nil
		} else if !errors.Is(err, ledger.ErrAccountNotFound) {

			// Non-critical read; log and fall through to creation with
			// the stored hash so derivation stays stable.
			c.ev("publish: ensure profile: read failed: %s", err)
		}

		return c.createProfile(ctx, signer, sig, hash, false)
	}

	hash = make([]byte, profileHashLen)
	if _, err := rand.Read(hash); err != nil {
		return ProfileRef{}, fmt.Errorf("generating profile hash: %w", err)
	}

	return c.createProfile(ctx, signer, sig, hash, true)
}

// lookupHash retrieves the stored profile hash for the identity. A nil hash
// with a nil error means the identity has never published; lookup failures
// are logged and treated the same, the creation path will settle it.
func (c *Coordinator) lookupHash(ctx context.Context, identity wallet.Identity) ([]byte, error) {
	hashHex, err := c.mirror.ProfileHash(ctx, identity)

	switch {
	case errors.Is(err, mirror.ErrNoProfileHash):
		return nil, nil

	case err != nil:
		c.ev("publish: ensure profile: hash lookup failed: %s", err)
		return nil, nil
	}

	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return nil, fmt.Errorf("decoding stored profile hash: %w", err)
	}

	return hash, nil
}

// createProfile submits the profile creation transaction and, for a fresh
// hash, persists it to the mirror. The mirror stores a hash at most once per
// identity; when a concurrent session already persisted one, the stored
// hash wins and the reference is re-derived from it.
func (c *Coordinator) createProfile(ctx context.Context, signer Signer, sig wallet.Signature, hash []byte, fresh bool) (ProfileRef, error) {
	identity := signer.Identity()
	c.ev("publish: profile does not exist, creating one")

	address, _, err := derive.Address(c.ledger.Program(), SeedProfile, hash)
	if err != nil {
		return ProfileRef{}, fmt.Errorf("deriving profile address: %w", err)
	}

	tx := ledger.NewInitializeProfileTx(c.ledger.Program(), identity, address, hash)
	signedTx, err := tx.Sign(signer)
	if err != nil {
		return ProfileRef{}, fmt.Errorf("%w: %s", ErrProfileCreateFailed, err)
	}

	txID, err := c.ledger.Submit(ctx, signedTx)
	if err != nil {
		return ProfileRef{}, fmt.Errorf("%w: %s", ErrProfileCreateFailed, err)
	}

	if err := c.confirm(ctx, txID); err != nil {
		return ProfileRef{}, fmt.Errorf("%w: %s", ErrProfileCreateFailed, err)
	}

	if fresh {
		stored, err := c.mirror.StoreProfileHash(ctx, identity, hex.EncodeToString(hash), sig)
		if err != nil {
			return ProfileRef{}, fmt.Errorf("profile hash save failed: %w", err)
		}

		// A concurrent session may have stored its hash first. The stored
		// hash is the durable one; re-derive so this session converges on
		// the same profile account as everyone else.
		if stored != hex.EncodeToString(hash) {
			c.ev("publish: ensure profile: lost hash race, re-deriving")

			hash, err = hex.DecodeString(stored)
			if err != nil {
				return ProfileRef{}, fmt.Errorf("decoding stored profile hash: %w", err)
			}

			address, _, err = derive.Address(c.ledger.Program(), SeedProfile, hash)
			if err != nil {
				return ProfileRef{}, fmt.Errorf("deriving profile address: %w", err)
			}
		}
	}

	return ProfileRef{Address: address, Hash: hash, Created: true}, nil
}

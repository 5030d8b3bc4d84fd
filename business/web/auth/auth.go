// Package auth verifies that mutation requests were authorized by the wallet
// that owns the claimed identity. There are no sessions or tokens; every
//write request carries the identity and a signature over it, and the mirror
// trusts nothing it cannot recover from the signature itself.
package auth

import (
	"errors"
	"net/http"

	"github.com/scribenet/scribe/business/web/errs"
	"github.com/scribenet/scribe/foundation/wallet"
)

// ErrAuthFailed is returned when a request's signature does not prove
// control of the claimed identity.
var ErrAuthFailed = errors.New("signature does not match public key")

// VerifyOwnership checks the signature was produced by the wallet behind
// the claimed identity. The signed message is the identity string itself, so
// a signature proves key control without binding to any one payload; drafts
// reuse it across autosaves.
func VerifyOwnership(publicKey string, sig wallet.Signature) (wallet.Identity, error) {
	identity := wallet.Identity(publicKey)
	if !identity.IsValid() {
		return "", errs.NewTrusted(errors.New("invalid public key"), http.StatusBadRequest)
	}

	if err := wallet.VerifyMessage(identity, []byte(identity), sig); err != nil {
		return "", errs.NewTrusted(ErrAuthFailed, http.StatusUnauthorized)
	}

	return identity, nil
}

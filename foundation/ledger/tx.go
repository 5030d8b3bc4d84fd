package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Instruction method names understood by the publishing program.
const (
	MethodInitializeProfile = "initialize_profile"
	MethodCreatePost        = "create_post"
	MethodUpdatePost        = "update_post"
)

// TxID represents the identifier assigned to a submitted transaction.
type TxID string

// Signer represents the behavior needed to authorize a transaction. The
// wallet package provides the concrete implementation; the ledger client
// never sees private key material.
type Signer interface {
	Identity() wallet.Identity
	SignMessage(message []byte) (wallet.Signature, error)
}

// Instruction describes a single program call, the method to invoke, the
// accounts it touches, and its arguments.
type Instruction struct {
	Program  derive.ProgramID  `json:"program"`
	Method   string            `json:"method"`
	Accounts map[string]string `json:"accounts"`
	Args     map[string]string `json:"args,omitempty"`
}

// Tx is the unsigned form of a transaction, one instruction and the
// authority submitting it.
type Tx struct {
	Instruction Instruction     `json:"instruction"`
	Authority   wallet.Identity `json:"authority"`
}

// SignedTx is a transaction with the authority's signature attached.
type SignedTx struct {
	Tx        Tx               `json:"tx"`
	Signature wallet.Signature `json:"signature"`
}

// Sign marshals the transaction and signs it with the provided signer.
func (tx Tx) Sign(signer Signer) (SignedTx, error) {
	if tx.Authority != signer.Identity() {
		return SignedTx{}, fmt.Errorf("authority %s does not match signer %s", tx.Authority, signer.Identity())
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return SignedTx{}, fmt.Errorf("marshaling tx: %w", err)
	}

	sig, err := signer.SignMessage(data)
	if err != nil {
		return SignedTx{}, fmt.Errorf("signing tx: %w", err)
	}

	return SignedTx{Tx: tx, Signature: sig}, nil
}

// =============================================================================

// NewInitializeProfileTx constructs the transaction that creates a profile
// account bound to the specified profile hash.
func NewInitializeProfileTx(program derive.ProgramID, authority wallet.Identity, profile derive.AccountAddress, profileHash []byte) Tx {
	return Tx{
		Instruction: Instruction{
			Program: program,
			Method:  MethodInitializeProfile,
			Accounts: map[string]string{
				"profile": profile.String(),
				"user":    authority.String(),
			},
			Args: map[string]string{
				"profile_hash": fmt.Sprintf("%x", profileHash),
			},
		},
		Authority: authority,
	}
}

// NewCreatePostTx constructs the transaction that creates a post account
// binding the profile and content URI to a fresh post address.
func NewCreatePostTx(program derive.ProgramID, authority wallet.Identity, post derive.AccountAddress, profile derive.AccountAddress, uri string, postHash []byte) Tx {
	return Tx{
		Instruction: Instruction{
			Program: program,
			Method:  MethodCreatePost,
			Accounts: map[string]string{
				"post":      post.String(),
				"profile":   profile.String(),
				"authority": authority.String(),
			},
			Args: map[string]string{
				"uri":       uri,
				"post_hash": fmt.Sprintf("%x", postHash),
			},
		},
		Authority: authority,
	}
}

// NewUpdatePostTx constructs the transaction that replaces the content URI
// on an existing post account.
func NewUpdatePostTx(program derive.ProgramID, authority wallet.Identity, post derive.AccountAddress, profile derive.AccountAddress, uri string) Tx {
	return Tx{
		Instruction: Instruction{
			Program: program,
			Method:  MethodUpdatePost,
			Accounts: map[string]string{
				"post":      post.String(),
				"profile":   profile.String(),
				"authority": authority.String(),
			},
			Args: map[string]string{
				"uri": uri,
			},
		},
		Authority: authority,
	}
}

package publish

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
)

// postHashLen is the length of the random seed generated per new article.
// Unlike the profile hash a post hash is never reused; edits update the
// existing account in place.
const postHashLen = 32

// writePost binds the content URI to a post account. When existingPost is
// set this is an edit; the instruction updates the URI on that address and
// no new account is derived. Otherwise a fresh hash and address are derived
// and a create instruction is submitted. The returned transaction id does
// not imply finality.
func (c *Coordinator) writePost(ctx context.Context, signer Signer, profile ProfileRef, uri string, existingPost derive.AccountAddress) (ledger.TxID, derive.AccountAddress, error) {
	identity := signer.Identity()
	program := c.ledger.Program()

	var tx ledger.Tx
	post := existingPost

	if existingPost.IsZero() {
		postHash := make([]byte, postHashLen)
		if _, err := rand.Read(postHash); err != nil {
			return "", derive.AccountAddress{}, fmt.Errorf("generating post hash: %w", err)
		}

		var err error
		post, _, err = derive.Address(program, SeedPost, postHash)
		if err != nil {
			return "", derive.AccountAddress{}, fmt.Errorf("deriving post address: %w", err)
		}

		tx = ledger.NewCreatePostTx(program, identity, post, profile.Address, uri, postHash)
	} else {
		tx = ledger.NewUpdatePostTx(program, identity, post, profile.Address, uri)
	}

	signedTx, err := tx.Sign(signer)
	if err != nil {
		return "", derive.AccountAddress{}, fmt.Errorf("signing post tx: %w", err)
	}

	// Submission-time errors are fatal and reported verbatim.
	txID, err := c.ledger.Submit(ctx, signedTx)
	if err != nil {
		return "", derive.AccountAddress{}, err
	}

	return txID, post, nil
}

// confirm performs the single blocking wait for a transaction's terminal
// status. The wait is bounded by the configured confirmation timeout, never
// by whatever default the network client happens to carry. A transaction
// that lands with a non-empty ledger error is classified as failed even
// though an id exists for it.
func (c *Coordinator) confirm(ctx context.Context, txID ledger.TxID) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	conf, err := c.ledger.Confirm(ctx, txID)
	if err != nil {
		return fmt.Errorf("confirming tx %s: %w", txID, err)
	}

	if !conf.Confirmed() {
		return fmt.Errorf("%w: tx[%s] err[%s]", ErrTxFailed, txID, conf.Err)
	}

	return nil
}

package ledger

import (
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Account kinds stored by the publishing program.
const (
	KindProfile = "profile"
	KindPost    = "post"
)

// Account represents the state of a program-owned account as reported by the
// ledger.
type Account struct {
	Address    derive.AccountAddress `json:"address"`
	Kind       string                `json:"kind"`
	Authority  wallet.Identity       `json:"authority"`
	Profile    derive.AccountAddress `json:"profile,omitempty"`
	ContentURI string                `json:"content_uri,omitempty"`
}

// Confirmation represents the terminal status the ledger reports for a
// transaction. Err carries the ledger's own error string; an empty Err means
// the transaction executed cleanly.
type Confirmation struct {
	TxID TxID   `json:"tx_id"`
	Slot uint64 `json:"slot"`
	Err  string `json:"err,omitempty"`
}

// Confirmed reports whether the ledger recorded the transaction with zero
// error. Anything else counts as a failed transaction even though an id
// exists for it.
func (c Confirmation) Confirmed() bool {
	return c.Err == ""
}

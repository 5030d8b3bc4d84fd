// Package ledger provides the client for talking to the ledger network. The
// client exposes the three calls the publishing workflow needs, account read
// by address, transaction submit, and confirmation by transaction id. Every
// call is a plain network request with no implicit retry; retry policy
// belongs to the caller.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/scribenet/scribe/foundation/ledger/derive"
)

// ErrAccountNotFound is returned when the requested account does not exist
// on the ledger.
var ErrAccountNotFound = errors.New("account not found")

// Config represents the configuration required to construct a client.
type Config struct {
	Endpoint string
	Program  derive.ProgramID
}

// Client manages access to a ledger node over its JSON API.
type Client struct {
	endpoint string
	program  derive.ProgramID
	http     http.Client
}

// NewClient constructs a client for the specified ledger endpoint.
func NewClient(cfg Config) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		program:  cfg.Program,
	}
}

// Program returns the program id the client submits instructions against.
func (c *Client) Program() derive.ProgramID {
	return c.program
}

// ReadAccount retrieves the raw account state stored at the specified
// address. ErrAccountNotFound is returned when the ledger has no account at
// that address.
func (c *Client) ReadAccount(ctx context.Context, address derive.AccountAddress) (Account, error) {
	url := fmt.Sprintf("%s/v1/account/%s", c.endpoint, address)

	var account Account
	if err := c.send(ctx, http.MethodGet, url, nil, &account); err != nil {
		return Account{}, err
	}

	return account, nil
}

// Submit sends a signed transaction to the ledger and returns the assigned
// transaction id. A returned id does not imply finality, only acceptance
// into the network. Callers must confirm separately.
func (c *Client) Submit(ctx context.Context, tx SignedTx) (TxID, error) {
	url := fmt.Sprintf("%s/v1/tx/submit", c.endpoint)

	var result struct {
		TxID TxID `json:"tx_id"`
	}
	if err := c.send(ctx, http.MethodPost, url, tx, &result); err != nil {
		return "", err
	}

	if result.TxID == "" {
		return "", errors.New("ledger returned an empty transaction id")
	}

	return result.TxID, nil
}

// Confirm blocks until the ledger reports a terminal status for the
// transaction or the context expires. The returned confirmation carries the
// ledger's error field verbatim; a non-empty error means the transaction
// landed but failed.
func (c *Client) Confirm(ctx context.Context, txID TxID) (Confirmation, error) {
	url := fmt.Sprintf("%s/v1/tx/confirm/%s", c.endpoint, txID)

	var conf Confirmation
	if err := c.send(ctx, http.MethodGet, url, nil, &conf); err != nil {
		return Confirmation{}, err
	}

	return conf, nil
}

// =============================================================================

// send is a helper function to make an HTTP request to the ledger node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrAccountNotFound
	default:
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}

// Package mirror provides the client for the mirror service, the relational
// read cache that sits beside the ledger. Every mutation carries the
// caller's wallet signature; the mirror verifies it server side before
// accepting the write.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
)

// ErrNoProfileHash is returned when the identity has no stored profile hash.
var ErrNoProfileHash = errors.New("no profile hash on record")

// Config represents the configuration required to construct a client.
type Config struct {
	Endpoint string
}

// Client manages access to the mirror service.
type Client struct {
	endpoint string
	http     http.Client
}

// NewClient constructs a client for the specified mirror endpoint.
func NewClient(cfg Config) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
	}
}

// =============================================================================

// ProfileHashRequest is the payload for storing a profile hash.
type ProfileHashRequest struct {
	PublicKey   string           `json:"public_key"`
	ProfileHash string           `json:"profile_hash"`
	Signature   wallet.Signature `json:"signature"`
}

// PublishRequest is the payload for mirroring a confirmed publish.
type PublishRequest struct {
	ArticleID   uint             `json:"article_id,omitempty"`
	PublicKey   string           `json:"public_key"`
	ContentURI  string           `json:"content_uri"`
	ProofOfPost string           `json:"proof_of_post"`
	Blocks      []bundle.Block   `json:"blocks"`
	Signature   wallet.Signature `json:"signature"`
}

// UserRequest is the payload for registering a publishing identity.
type UserRequest struct {
	PublicKey string           `json:"public_key"`
	Username  string           `json:"username"`
	Name      string           `json:"name,omitempty"`
	BlogName  string           `json:"blog_name,omitempty"`
	ImageURL  string           `json:"image_url,omitempty"`
	Signature wallet.Signature `json:"signature"`
}

// User is the mirror's record of a publishing identity.
type User struct {
	ID        uint   `json:"id"`
	PublicKey string `json:"public_key"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	BlogName  string `json:"blog_name"`
}

// DraftRequest is the payload for saving a draft.
type DraftRequest struct {
	DraftID   uint             `json:"draft_id,omitempty"`
	PublicKey string           `json:"public_key"`
	Blocks    []bundle.Block   `json:"blocks"`
	Signature wallet.Signature `json:"signature"`
}

// Article is the mirror's record of a published post.
type Article struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	ContentURI  string `json:"content_uri"`
	ProofOfPost string `json:"proof_of_post"`
	OnChain     bool   `json:"on_chain"`
}

// PublishResponse is the mirror's answer to a publish, the stored record
// plus the owner's username for building the canonical URL.
type PublishResponse struct {
	Article  Article `json:"article"`
	Username string  `json:"username"`
}

// Draft is the mirror's record of unpublished work.
type Draft struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Blocks string `json:"blocks"`
}

// =============================================================================

// CreateUser registers the identity with the mirror. Every mutation the
// mirror accepts is keyed to a user row, so this must happen before the
// first draft save or publish. A conflict means the identity is already
// registered.
func (c *Client) CreateUser(ctx context.Context, req UserRequest) (User, error) {
	url := fmt.Sprintf("%s/v1/user", c.endpoint)

	var usr User
	if err := c.send(ctx, http.MethodPost, url, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

// ProfileHash retrieves the stored profile hash for the identity.
// ErrNoProfileHash is returned when the identity has never published.
func (c *Client) ProfileHash(ctx context.Context, identity wallet.Identity) (string, error) {
	url := fmt.Sprintf("%s/v1/profile/hash/%s", c.endpoint, identity)

	var resp struct {
		ProfileHash string `json:"profile_hash"`
	}
	if err := c.send(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return "", err
	}

	if resp.ProfileHash == "" {
		return "", ErrNoProfileHash
	}

	return resp.ProfileHash, nil
}

// StoreProfileHash records the profile hash for the identity. The mirror
// stores a hash at most once; the returned hash is the one that actually
// stuck and must be the one used for derivation from here on.
func (c *Client) StoreProfileHash(ctx context.Context, identity wallet.Identity, profileHash string, sig wallet.Signature) (string, error) {
	url := fmt.Sprintf("%s/v1/profile/hash", c.endpoint)

	req := ProfileHashRequest{
		PublicKey:   identity.String(),
		ProfileHash: profileHash,
		Signature:   sig,
	}

	var resp struct {
		ProfileHash string `json:"profile_hash"`
	}
	if err := c.send(ctx, http.MethodPost, url, req, &resp); err != nil {
		return "", err
	}

	return resp.ProfileHash, nil
}

// PublishArticle mirrors a confirmed publish.
func (c *Client) PublishArticle(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	url := fmt.Sprintf("%s/v1/article/publish", c.endpoint)

	var resp PublishResponse
	if err := c.send(ctx, http.MethodPost, url, req, &resp); err != nil {
		return PublishResponse{}, err
	}

	return resp, nil
}

// SaveDraft creates or updates a draft.
func (c *Client) SaveDraft(ctx context.Context, req DraftRequest) (Draft, error) {
	url := fmt.Sprintf("%s/v1/draft", c.endpoint)

	var resp struct {
		Draft Draft `json:"draft"`
	}
	if err := c.send(ctx, http.MethodPost, url, req, &resp); err != nil {
		return Draft{}, err
	}

	return resp.Draft, nil
}

// DeleteDraft removes a draft after its content has been published.
func (c *Client) DeleteDraft(ctx context.Context, identity wallet.Identity, draftID uint, sig wallet.Signature) error {
	url := fmt.Sprintf("%s/v1/draft/delete", c.endpoint)

	req := DraftRequest{
		DraftID:   draftID,
		PublicKey: identity.String(),
		Signature: sig,
	}

	return c.send(ctx, http.MethodPost, url, req, nil)
}

// =============================================================================

// send is a helper function to make an HTTP request to the mirror service.
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
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
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

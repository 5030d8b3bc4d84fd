// Package user provides the business API for publishing identities on the
// mirror side, user records and the one-shot profile hash.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/scribenet/scribe/business/data/mirrordb"
	"github.com/scribenet/scribe/foundation/wallet"
	"go.uber.org/zap"
)

// Set of error variables for user operations.
var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

// NewUser contains the information needed to register a publishing identity.
type NewUser struct {
	PublicKey string `json:"public_key" validate:"required"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Name      string `json:"name"`
	BlogName  string `json:"blog_name"`
	ImageURL  string `json:"image_url"`
}

// Core manages the set of APIs for user access.
type Core struct {
	log   *zap.SugaredLogger
	store *mirrordb.Store
}

// NewCore constructs a core for user api access.
func NewCore(log *zap.SugaredLogger, store *mirrordb.Store) *Core {
	return &Core{
		log:   log,
		store: store,
	}
}

// Create registers a new publishing identity.
func (c *Core) Create(ctx context.Context, nu NewUser) (mirrordb.User, error) {
	usr := mirrordb.User{
		PublicKey: nu.PublicKey,
		Username:  nu.Username,
		Name:      nu.Name,
		BlogName:  nu.BlogName,
		ImageURL:  nu.ImageURL,
	}

	if err := c.store.CreateUser(ctx, &usr); err != nil {
		if errors.Is(err, mirrordb.ErrUserExists) {
			return mirrordb.User{}, ErrExists
		}
		return mirrordb.User{}, fmt.Errorf("creating user: %w", err)
	}

	return usr, nil
}

// QueryByIdentity retrieves the user for the specified identity.
func (c *Core) QueryByIdentity(ctx context.Context, identity wallet.Identity) (mirrordb.User, error) {
	usr, err := c.store.UserByPublicKey(ctx, identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return mirrordb.User{}, ErrNotFound
		}
		return mirrordb.User{}, fmt.Errorf("querying user: %w", err)
	}

	return usr, nil
}

// ProfileHash returns the stored profile hash for the identity. An empty
// string with a nil error means the user exists and has never published.
func (c *Core) ProfileHash(ctx context.Context, identity wallet.Identity) (string, error) {
	usr, err := c.QueryByIdentity(ctx, identity)
	if err != nil {
		return "", err
	}

	return usr.ProfileHash, nil
}

// StoreProfileHash records the profile hash for the identity at most once.
// The returned hash is the one that is actually stored; when another session
// already persisted a hash, that hash wins and the caller must derive with
// it instead.
func (c *Core) StoreProfileHash(ctx context.Context, identity wallet.Identity, profileHash string) (string, error) {
	stored, err := c.store.SetProfileHash(ctx, identity.String(), profileHash)

	switch {
	case errors.Is(err, mirrordb.ErrHashImmutable):
		c.log.Infow("profile hash already stored", "identity", identity)
		return stored, nil

	case errors.Is(err, mirrordb.ErrNotFound):
		return "", ErrNotFound

	case err != nil:
		return "", fmt.Errorf("storing profile hash: %w", err)
	}

	return stored, nil
}

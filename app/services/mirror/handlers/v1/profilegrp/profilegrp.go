// Package profilegrp maintains the group of profile hash endpoints.
package profilegrp

import (
	"context"
	"errors"
	"net/http"

	"github.com/scribenet/scribe/business/core/user"
	"github.com/scribenet/scribe/business/web/auth"
	"github.com/scribenet/scribe/business/web/errs"
	"github.com/scribenet/scribe/foundation/validate"
	"github.com/scribenet/scribe/foundation/wallet"
	"github.com/scribenet/scribe/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of profile hash endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	User *user.Core
}

// Query returns the stored profile hash for an identity. An identity that
// exists but has never published gets an empty hash, which the publishing
// client reads as "generate a fresh one".
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	identity := wallet.Identity(web.Param(r, "public_key"))
	if !identity.IsValid() {
		return errs.NewTrusted(errors.New("invalid public key"), http.StatusBadRequest)
	}

	hash, err := h.User.ProfileHash(ctx, identity)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp := struct {
		ProfileHash string `json:"profile_hash"`
	}{
		ProfileHash: hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Store records a profile hash for an identity. A hash is stored at most
// once; when one is already on record the stored hash is returned unchanged
// and the caller must derive with it.
func (h Handlers) Store(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		PublicKey   string           `json:"public_key" validate:"required"`
		ProfileHash string           `json:"profile_hash" validate:"required,len=64,hexadecimal"`
		Signature   wallet.Signature `json:"signature"`
	}
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	if err := validate.Check(req); err != nil {
		return err
	}

	identity, err := auth.VerifyOwnership(req.PublicKey, req.Signature)
	if err != nil {
		return err
	}

	stored, err := h.User.StoreProfileHash(ctx, identity, req.ProfileHash)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	h.Log.Infow("profile hash stored", "traceid", v.TraceID, "identity", identity, "accepted", stored == req.ProfileHash)

	resp := struct {
		ProfileHash string `json:"profile_hash"`
	}{
		ProfileHash: stored,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

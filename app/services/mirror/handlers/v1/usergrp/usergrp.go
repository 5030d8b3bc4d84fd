// Package usergrp maintains the group of user endpoints.
package usergrp

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

// Handlers manages the set of user endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	User *user.Core
}

// Create registers a new publishing identity. The signature proves the
// caller controls the key they are registering; there is no other
// onboarding ceremony.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		user.NewUser
		Signature wallet.Signature `json:"signature"`
	}
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	if err := validate.Check(req.NewUser); err != nil {
		return err
	}

	identity, err := auth.VerifyOwnership(req.PublicKey, req.Signature)
	if err != nil {
		return err
	}

	usr, err := h.User.Create(ctx, req.NewUser)
	if err != nil {
		if errors.Is(err, user.ErrExists) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	h.Log.Infow("user created", "traceid", v.TraceID, "identity", identity, "username", usr.Username)

	return web.Respond(ctx, w, usr, http.StatusCreated)
}

// Query returns the user record for an identity.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	identity := wallet.Identity(web.Param(r, "public_key"))
	if !identity.IsValid() {
		return errs.NewTrusted(errors.New("invalid public key"), http.StatusBadRequest)
	}

	usr, err := h.User.QueryByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, usr, http.StatusOK)
}

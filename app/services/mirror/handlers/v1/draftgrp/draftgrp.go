// Package draftgrp maintains the group of draft endpoints.
package draftgrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/scribenet/scribe/business/core/article"
	"github.com/scribenet/scribe/business/web/auth"
	"github.com/scribenet/scribe/business/web/errs"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/validate"
	"github.com/scribenet/scribe/foundation/wallet"
	"github.com/scribenet/scribe/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of draft endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Article *article.Core
}

// Save creates or updates a draft. The autosave loop hits this endpoint on
// a fixed interval, so failures here are routine and the client treats them
// as soft.
func (h Handlers) Save(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req struct {
		DraftID   uint             `json:"draft_id"`
		PublicKey string           `json:"public_key" validate:"required"`
		Blocks    []bundle.Block   `json:"blocks" validate:"required,min=1"`
		Signature wallet.Signature `json:"signature"`
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

	draft, err := h.Article.SaveDraft(ctx, identity, req.DraftID, req.Blocks)
	if err != nil {
		switch {
		case errors.Is(err, article.ErrUserNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, article.ErrDraftNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp := struct {
		Draft any `json:"draft"`
	}{
		Draft: draft,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Query returns a draft owned by the identity proven by the auth headers.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	identity, err := headerIdentity(r)
	if err != nil {
		return err
	}

	draftID, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("invalid draft id"), http.StatusBadRequest)
	}

	draft, err := h.Article.QueryDraft(ctx, identity, uint(draftID))
	if err != nil {
		switch {
		case errors.Is(err, article.ErrUserNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, article.ErrDraftNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, draft, http.StatusOK)
}

// Delete removes a draft, typically after its content has been published.
func (h Handlers) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req struct {
		DraftID   uint             `json:"draft_id" validate:"required"`
		PublicKey string           `json:"public_key" validate:"required"`
		Signature wallet.Signature `json:"signature"`
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

	if err := h.Article.DeleteDraft(ctx, identity, req.DraftID); err != nil {
		switch {
		case errors.Is(err, article.ErrUserNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, article.ErrDraftNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// headerIdentity authenticates a read request from the X-Public-Key and
// X-Signature headers. Reads cannot carry a body, so the proof rides in
// headers instead.
func headerIdentity(r *http.Request) (wallet.Identity, error) {
	publicKey := r.Header.Get("X-Public-Key")
	sig, err := wallet.SignatureFromHex(r.Header.Get("X-Signature"))
	if err != nil {
		return "", errs.NewTrusted(errors.New("missing or malformed signature header"), http.StatusUnauthorized)
	}

	return auth.VerifyOwnership(publicKey, sig)
}

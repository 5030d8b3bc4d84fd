// Package articlegrp maintains the group of article endpoints.
package articlegrp

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/scribenet/scribe/business/core/article"
	"github.com/scribenet/scribe/business/web/auth"
	"github.com/scribenet/scribe/business/web/errs"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/validate"
	"github.com/scribenet/scribe/foundation/wallet"
	"github.com/scribenet/scribe/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of article endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Article *article.Core
}

// Publish upserts the mirror record for a confirmed publish. The caller is
// the publishing client, which only gets here after the ledger confirmed
// the post transaction.
func (h Handlers) Publish(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		ArticleID   uint             `json:"article_id"`
		PublicKey   string           `json:"public_key" validate:"required"`
		ContentURI  string           `json:"content_uri" validate:"required"`
		ProofOfPost string           `json:"proof_of_post" validate:"required"`
		Blocks      []bundle.Block   `json:"blocks" validate:"required,min=1"`
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

	h.Log.Infow("mirror publish", "traceid", v.TraceID, "identity", identity, "proof", req.ProofOfPost)

	pub, err := h.Article.Publish(ctx, article.PublishRecord{
		Identity:    identity,
		ContentURI:  req.ContentURI,
		ProofOfPost: req.ProofOfPost,
		Blocks:      req.Blocks,
	})
	if err != nil {
		if errors.Is(err, article.ErrUserNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, pub, http.StatusOK)
}

// QueryByURI returns the mirror record for a content URI. The URI arrives
// path-escaped since it contains slashes.
func (h Handlers) QueryByURI(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	uri, err := url.PathUnescape(web.Param(r, "uri"))
	if err != nil {
		return errs.NewTrusted(errors.New("invalid content uri"), http.StatusBadRequest)
	}

	art, err := h.Article.QueryByURI(ctx, uri)
	if err != nil {
		if errors.Is(err, article.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, art, http.StatusOK)
}

// QueryByIdentity returns all mirror records owned by an identity.
func (h Handlers) QueryByIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	identity := wallet.Identity(web.Param(r, "public_key"))
	if !identity.IsValid() {
		return errs.NewTrusted(errors.New("invalid public key"), http.StatusBadRequest)
	}

	arts, err := h.Article.QueryByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, article.ErrUserNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, arts, http.StatusOK)
}

package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scribenet/scribe/business/data/mirrordb"
	"github.com/scribenet/scribe/foundation/events"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
)

// ErrDraftNotFound is returned when a draft does not exist or is owned by a
// different identity.
var ErrDraftNotFound = errors.New("draft not found")

// SaveDraft creates or updates a draft for the identity. A zero draft id
// creates a new draft; otherwise the existing draft is overwritten with the
// latest blocks and its header fields are refreshed.
func (c *Core) SaveDraft(ctx context.Context, identity wallet.Identity, draftID uint, blocks []bundle.Block) (mirrordb.Draft, error) {
	usr, err := c.store.UserByPublicKey(ctx, identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return mirrordb.Draft{}, ErrUserNotFound
		}
		return mirrordb.Draft{}, fmt.Errorf("querying user: %w", err)
	}

	data, err := json.Marshal(blocks)
	if err != nil {
		return mirrordb.Draft{}, fmt.Errorf("marshaling blocks: %w", err)
	}

	header := bundle.ExtractHeader(blocks)

	var draft mirrordb.Draft
	if draftID != 0 {
		draft, err = c.store.DraftByID(ctx, draftID, usr.ID)
		if err != nil {
			if errors.Is(err, mirrordb.ErrNotFound) {
				return mirrordb.Draft{}, ErrDraftNotFound
			}
			return mirrordb.Draft{}, fmt.Errorf("querying draft: %w", err)
		}
	}

	draft.Title = header.Title
	draft.Description = header.Description
	draft.ImageURL = header.ImageURL
	draft.Blocks = string(data)
	draft.UserID = usr.ID

	if draftID == 0 {
		draft.ShareHash = uuid.NewString()
		if err := c.store.CreateDraft(ctx, &draft); err != nil {
			return mirrordb.Draft{}, fmt.Errorf("creating draft: %w", err)
		}
	} else {
		if err := c.store.UpdateDraft(ctx, &draft); err != nil {
			return mirrordb.Draft{}, fmt.Errorf("updating draft: %w", err)
		}
	}

	if c.evts != nil {
		c.evts.Send(events.Event{
			Kind:     events.KindDraftSaved,
			Identity: identity.String(),
		})
	}

	return draft, nil
}

// QueryDraft retrieves a draft owned by the identity.
func (c *Core) QueryDraft(ctx context.Context, identity wallet.Identity, draftID uint) (mirrordb.Draft, error) {
	usr, err := c.store.UserByPublicKey(ctx, identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return mirrordb.Draft{}, ErrUserNotFound
		}
		return mirrordb.Draft{}, fmt.Errorf("querying user: %w", err)
	}

	draft, err := c.store.DraftByID(ctx, draftID, usr.ID)
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return mirrordb.Draft{}, ErrDraftNotFound
		}
		return mirrordb.Draft{}, fmt.Errorf("querying draft: %w", err)
	}

	return draft, nil
}

// DeleteDraft removes a draft owned by the identity. Publishing a draft is
// followed by a delete so published work stops showing up as in progress.
func (c *Core) DeleteDraft(ctx context.Context, identity wallet.Identity, draftID uint) error {
	usr, err := c.store.UserByPublicKey(ctx, identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("querying user: %w", err)
	}

	return c.store.DeleteDraft(ctx, draftID, usr.ID)
}

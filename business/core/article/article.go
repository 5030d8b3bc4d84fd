// Package article provides the business API for the mirror copies of
// published posts and for unpublished drafts. The ledger stays the source of
// truth for what is published; these records exist so reads never touch the
// chain.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/scribenet/scribe/business/data/mirrordb"
	"github.com/scribenet/scribe/foundation/events"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
	"go.uber.org/zap"
)

// cacheTTL bounds how stale a cached article read can get.
const cacheTTL = 5 * time.Minute

// Set of error variables for article operations.
var (
	ErrNotFound     = errors.New("article not found")
	ErrUserNotFound = errors.New("user does not exist")
)

// PublishRecord contains the information needed to mirror a confirmed
// publish.
type PublishRecord struct {
	Identity    wallet.Identity
	ContentURI  string
	ProofOfPost string
	Blocks      []bundle.Block
}

// PublishedArticle is the stored article together with the owner's username,
// which the caller needs to build the canonical URL.
type PublishedArticle struct {
	Article  mirrordb.Article `json:"article"`
	Username string           `json:"username"`
}

// Core manages the set of APIs for article access.
type Core struct {
	log   *zap.SugaredLogger
	store *mirrordb.Store
	cache *redis.Client
	evts  *events.Events
}

// NewCore constructs a core for article api access. The cache client and
// events value may be nil; both are best effort.
func NewCore(log *zap.SugaredLogger, store *mirrordb.Store, cache *redis.Client, evts *events.Events) *Core {
	return &Core{
		log:   log,
		store: store,
		cache: cache,
		evts:  evts,
	}
}

// Publish upserts the mirror record for a confirmed publish. The post
// account address is the natural key, so replaying the same publish is
// idempotent and an edit lands on the existing row.
func (c *Core) Publish(ctx context.Context, rec PublishRecord) (PublishedArticle, error) {
	usr, err := c.store.UserByPublicKey(ctx, rec.Identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return PublishedArticle{}, ErrUserNotFound
		}
		return PublishedArticle{}, fmt.Errorf("querying user: %w", err)
	}

	header := bundle.ExtractHeader(rec.Blocks)

	art := mirrordb.Article{
		Title:       header.Title,
		Description: header.Description,
		ImageURL:    header.ImageURL,
		Slug:        slugify(header.Title),
		ContentURI:  rec.ContentURI,
		ProofOfPost: rec.ProofOfPost,
		OnChain:     true,
		UserID:      usr.ID,
	}

	// Keep the existing slug when this publish is an edit of a mirrored
	// article; canonical URLs must survive edits.
	existing, err := c.store.ArticleByProof(ctx, rec.ProofOfPost)
	kind := events.KindArticlePublished
	if err == nil {
		art.Slug = existing.Slug
		kind = events.KindArticleUpdated
	}

	if err := c.store.UpsertArticle(ctx, &art); err != nil {
		return PublishedArticle{}, fmt.Errorf("upserting article: %w", err)
	}

	c.invalidate(ctx, art.ContentURI)

	if c.evts != nil {
		c.evts.Send(events.Event{
			Kind:     kind,
			Identity: rec.Identity.String(),
			Slug:     art.Slug,
		})
	}

	return PublishedArticle{Article: art, Username: usr.Username}, nil
}

// QueryByURI retrieves the article mirrored for a content URI, serving from
// the cache when possible.
func (c *Core) QueryByURI(ctx context.Context, uri string) (mirrordb.Article, error) {
	var art mirrordb.Article
	if c.cacheGet(ctx, cacheKey(uri), &art) {
		return art, nil
	}

	art, err := c.store.ArticleByURI(ctx, uri)
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return mirrordb.Article{}, ErrNotFound
		}
		return mirrordb.Article{}, fmt.Errorf("querying article: %w", err)
	}

	c.cacheSet(ctx, cacheKey(uri), art)

	return art, nil
}

// QueryByIdentity retrieves the articles owned by the specified identity,
// newest first.
func (c *Core) QueryByIdentity(ctx context.Context, identity wallet.Identity) ([]mirrordb.Article, error) {
	usr, err := c.store.UserByPublicKey(ctx, identity.String())
	if err != nil {
		if errors.Is(err, mirrordb.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return c.store.ArticlesByUser(ctx, usr.ID)
}

// =============================================================================

// slugify produces a URL-safe slug from the article title. A random suffix
// keeps slugs unique across articles that share a title.
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, slug)
	slug = strings.Trim(slug, "-")

	const maxSlug = 80
	if len(slug) > maxSlug {
		slug = slug[:maxSlug]
	}
	if slug == "" {
		slug = "untitled"
	}

	return slug + "-" + uuid.NewString()[:8]
}

func cacheKey(uri string) string {
	return "article:uri:" + uri
}

func (c *Core) cacheGet(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}

	s, err := c.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Infow("cache read failed", "key", key, "ERROR", err)
		}
		return false
	}

	return json.Unmarshal([]byte(s), dest) == nil
}

func (c *Core) cacheSet(ctx context.Context, key string, val any) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(val)
	if err != nil {
		return
	}

	if err := c.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		c.log.Infow("cache write failed", "key", key, "ERROR", err)
	}
}

func (c *Core) invalidate(ctx context.Context, uri string) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Del(ctx, cacheKey(uri)).Err(); err != nil {
		c.log.Infow("cache invalidate failed", "uri", uri, "ERROR", err)
	}
}

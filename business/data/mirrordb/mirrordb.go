// Package mirrordb provides the relational store behind the mirror service.
// Everything in here is a read cache of ledger-derived state plus the draft
// and user records that never touch the chain.
package mirrordb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Set of error variables for store operations.
var (
	ErrNotFound      = errors.New("record not found")
	ErrUserExists    = errors.New("user already exists")
	ErrHashImmutable = errors.New("profile hash already set")
)

// Config represents the configuration required to open the database.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Open establishes the database connection and migrates the schema.
func Open(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Article{}, &Draft{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return db, nil
}

// Store manages the set of APIs for mirror database access.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a store for api access.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// =============================================================================
// Users

// CreateUser adds a new user to the database.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// UserByPublicKey retrieves the user filed under the specified public key.
func (s *Store) UserByPublicKey(ctx context.Context, publicKey string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("public_key = ?", publicKey).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetProfileHash records the profile hash for the user if, and only if, no
// hash is stored yet. The conditional update runs as a single statement so
// two sessions racing to set the hash cannot both win; the loser gets
// ErrHashImmutable together with the hash that actually stuck.
func (s *Store) SetProfileHash(ctx context.Context, publicKey string, profileHash string) (string, error) {
	result := s.db.WithContext(ctx).
		Model(&User{}).
		Where("public_key = ? AND (profile_hash IS NULL OR profile_hash = '')", publicKey).
		Update("profile_hash", profileHash)
	if result.Error != nil {
		return "", result.Error
	}

	if result.RowsAffected == 1 {
		return profileHash, nil
	}

	// Nothing updated. Either the user does not exist or a hash is
	// already stored.
	user, err := s.UserByPublicKey(ctx, publicKey)
	if err != nil {
		return "", err
	}
	if user.ProfileHash == "" {
		return "", ErrNotFound
	}

	return user.ProfileHash, ErrHashImmutable
}

// =============================================================================
// Articles

// UpsertArticle creates the article row for a first publish or updates the
// existing row for an edit. ProofOfPost, the post account address, is the
// natural key; the operation is idempotent for the same address.
func (s *Store) UpsertArticle(ctx context.Context, article *Article) error {
	var existing Article
	err := s.db.WithContext(ctx).Where("proof_of_post = ?", article.ProofOfPost).First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(article).Error

	case err != nil:
		return err
	}

	article.ID = existing.ID
	article.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(article).Error
}

// ArticleByProof retrieves the article mirrored for the specified post
// account address.
func (s *Store) ArticleByProof(ctx context.Context, proofOfPost string) (Article, error) {
	var article Article
	err := s.db.WithContext(ctx).Where("proof_of_post = ?", proofOfPost).First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Article{}, ErrNotFound
		}
		return Article{}, err
	}
	return article, nil
}

// ArticleByURI retrieves the article mirrored for the specified content URI.
func (s *Store) ArticleByURI(ctx context.Context, uri string) (Article, error) {
	var article Article
	err := s.db.WithContext(ctx).Where("content_uri = ?", uri).First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Article{}, ErrNotFound
		}
		return Article{}, err
	}
	return article, nil
}

// ArticlesByUser retrieves the set of articles owned by the specified user,
// newest first.
func (s *Store) ArticlesByUser(ctx context.Context, userID uint) ([]Article, error) {
	var articles []Article
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&articles).Error
	return articles, err
}

// =============================================================================
// Drafts

// CreateDraft adds a new draft to the database.
func (s *Store) CreateDraft(ctx context.Context, draft *Draft) error {
	return s.db.WithContext(ctx).Create(draft).Error
}

// UpdateDraft saves the current state of an existing draft.
func (s *Store) UpdateDraft(ctx context.Context, draft *Draft) error {
	return s.db.WithContext(ctx).Save(draft).Error
}

// DraftByID retrieves a draft owned by the specified user.
func (s *Store) DraftByID(ctx context.Context, id uint, userID uint) (Draft, error) {
	var draft Draft
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, err
	}
	return draft, nil
}

// DeleteDraft removes a draft owned by the specified user. Deleting a draft
// that was already deleted is not an error.
func (s *Store) DeleteDraft(ctx context.Context, id uint, userID uint) error {
	return s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Draft{}).Error
}

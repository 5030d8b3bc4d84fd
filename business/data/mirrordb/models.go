package mirrordb

import (
	"time"
)

// User represents a publishing identity known to the mirror. ProfileHash is
// written at most once; the store enforces that an existing hash is never
// overwritten, which closes the race where two sessions for the same
// identity both try to create a profile.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PublicKey   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"public_key"`
	Username    string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Name        string    `gorm:"type:varchar(128)" json:"name"`
	BlogName    string    `gorm:"type:varchar(128)" json:"blog_name"`
	ProfileHash string    `gorm:"type:varchar(64)" json:"profile_hash,omitempty"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Article represents the mirror copy of a published post. The ledger is the
// source of truth for whether a post is published; this row exists for fast
// reads. ProofOfPost is the post account address on the ledger and is the
// natural key for upserts.
type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	Slug        string    `gorm:"type:varchar(160);not null;index" json:"slug"`
	ContentURI  string    `gorm:"type:text;not null" json:"content_uri"`
	ProofOfPost string    `gorm:"type:varchar(80);not null;uniqueIndex" json:"proof_of_post"`
	OnChain     bool      `gorm:"not null" json:"on_chain"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `json:"-"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Draft represents unpublished work saved by the autosave loop. Blocks hold
// the raw editor content; the header fields are denormalized from it on
// every save.
type Draft struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	Blocks      string    `gorm:"type:text;not null" json:"blocks"`
	ShareHash   string    `gorm:"type:varchar(64);index" json:"share_hash,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `json:"-"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

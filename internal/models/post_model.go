package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	PersonaID    *uuid.UUID `db:"persona_id" json:"persona_id"`
	Content      string     `db:"content" json:"content"`
	Images       []string   `db:"images" json:"images"`
	Status       string     `db:"status" json:"status"` // draft, scheduled, publishing, published, failed
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at"`
	RetryCount   int        `db:"retry_count" json:"retry_count"`
	MaxRetries   int        `db:"max_retries" json:"max_retries"`
	LastRetryAt  *time.Time `db:"last_retry_at" json:"last_retry_at"`
	AutoSchedule bool       `db:"auto_schedule" json:"auto_schedule"`
	Priority     int        `db:"priority" json:"priority"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	// PostStatusPublishing marks a post claimed by one dispatch pass. It only
	// exists between the claim and the outcome write.
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	DefaultMaxRetries = 3
	MaxPostImages     = 4
	MaxContentLength  = 500
)

// EffectiveMaxRetries treats an unset cap as the default.
func (p *Post) EffectiveMaxRetries() int {
	if p.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return p.MaxRetries
}

// DuePost is a scheduled post joined with the credential of its persona.
type DuePost struct {
	Post           Post
	PersonaUserID  uuid.UUID
	PersonaActive  bool
	EncryptedToken string
}

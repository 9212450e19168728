package models

import (
	"time"

	"github.com/google/uuid"
)

// AutoReply is a keyword rule answering replies with a fixed template.
type AutoReply struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	PersonaID        uuid.UUID `db:"persona_id" json:"persona_id"`
	TriggerKeywords  []string  `db:"trigger_keywords" json:"trigger_keywords"`
	ResponseTemplate string    `db:"response_template" json:"response_template"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ThreadReply is an incoming reply to one of a persona's published posts.
type ThreadReply struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	UserID              uuid.UUID `db:"user_id" json:"user_id"`
	PersonaID           uuid.UUID `db:"persona_id" json:"persona_id"`
	OriginalPostID      string    `db:"original_post_id" json:"original_post_id"`
	ReplyID             string    `db:"reply_id" json:"reply_id"`
	ReplyAuthorID       string    `db:"reply_author_id" json:"reply_author_id"`
	ReplyAuthorUsername string    `db:"reply_author_username" json:"reply_author_username"`
	ReplyText           string    `db:"reply_text" json:"reply_text"`
	AutoReplySent       bool      `db:"auto_reply_sent" json:"auto_reply_sent"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

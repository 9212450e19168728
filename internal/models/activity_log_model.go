package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityLog struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	PersonaID   *uuid.UUID     `db:"persona_id" json:"persona_id"`
	ActionType  string         `db:"action_type" json:"action_type"`
	Description string         `db:"description" json:"description"`
	Metadata    map[string]any `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

const (
	ActionPostPublished          = "post_published"
	ActionScheduledPostPublished = "scheduled_post_published"
	ActionPostPublishFailed      = "post_publish_failed"
	ActionPostAutoScheduled      = "post_auto_scheduled"
	ActionAutoReplySent          = "auto_reply_sent"
	ActionPersonaConnected       = "persona_connected"
)

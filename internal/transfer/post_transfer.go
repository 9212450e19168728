package transfer

import (
	"time"

	"github.com/google/uuid"
)

type PostRequest struct {
	PersonaID    *uuid.UUID `json:"persona_id"`
	Content      string     `json:"content"`
	Images       []string   `json:"images"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	AutoSchedule bool       `json:"auto_schedule"`
	MaxRetries   int        `json:"max_retries"`
	Priority     int        `json:"priority"`
}

type PersonaRequest struct {
	Name               string   `json:"name"`
	Personality        string   `json:"personality"`
	ToneOfVoice        string   `json:"tone_of_voice"`
	Expertise          []string `json:"expertise"`
	AIAutoReplyEnabled bool     `json:"ai_auto_reply_enabled"`
}

type SettingsRequest struct {
	OptimalHours        []int  `json:"optimal_hours"`
	AutoScheduleEnabled bool   `json:"auto_schedule_enabled"`
	QueueLimit          int    `json:"queue_limit"`
	RetryEnabled        *bool  `json:"retry_enabled"`
	Timezone            string `json:"timezone"`
}

type AutoReplyRequest struct {
	PersonaID        uuid.UUID `json:"persona_id"`
	TriggerKeywords  []string  `json:"trigger_keywords"`
	ResponseTemplate string    `json:"response_template"`
}

// ReplyEvent is an incoming reply to one of a persona's threads.
type ReplyEvent struct {
	PersonaID           uuid.UUID `json:"persona_id"`
	OriginalPostID      string    `json:"original_post_id"`
	ReplyID             string    `json:"reply_id"`
	ReplyAuthorID       string    `json:"reply_author_id"`
	ReplyAuthorUsername string    `json:"reply_author_username"`
	ReplyText           string    `json:"reply_text"`
}

type PublishResult struct {
	PostID   uuid.UUID `json:"post_id"`
	RemoteID string    `json:"remote_id"`
}

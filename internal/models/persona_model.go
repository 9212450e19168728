package models

import (
	"time"

	"github.com/google/uuid"
)

type Persona struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	Name               string     `db:"name" json:"name"`
	Personality        string     `db:"personality" json:"personality"`
	ToneOfVoice        string     `db:"tone_of_voice" json:"tone_of_voice"`
	Expertise          []string   `db:"expertise" json:"expertise"`
	ThreadsUserID      string     `db:"threads_user_id" json:"threads_user_id"`
	ThreadsUsername    string     `db:"threads_username" json:"threads_username"`
	AccessToken        string     `db:"threads_access_token" json:"-"` // encrypted, empty until OAuth completes
	TokenExpiresAt     *time.Time `db:"token_expires_at" json:"token_expires_at"`
	AIAutoReplyEnabled bool       `db:"ai_auto_reply_enabled" json:"ai_auto_reply_enabled"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Connected reports whether the OAuth flow has deposited a credential.
func (p *Persona) Connected() bool {
	return p.AccessToken != ""
}

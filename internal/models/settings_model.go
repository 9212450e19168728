package models

import (
	"time"

	"github.com/google/uuid"
)

type SchedulingSettings struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	UserID              uuid.UUID `db:"user_id" json:"user_id"`
	PersonaID           uuid.UUID `db:"persona_id" json:"persona_id"`
	OptimalHours        []int     `db:"optimal_hours" json:"optimal_hours"`
	AutoScheduleEnabled bool      `db:"auto_schedule_enabled" json:"auto_schedule_enabled"`
	QueueLimit          int       `db:"queue_limit" json:"queue_limit"`
	RetryEnabled        bool      `db:"retry_enabled" json:"retry_enabled"`
	Timezone            string    `db:"timezone" json:"timezone"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

var DefaultOptimalHours = []int{9, 12, 15, 18, 21}

const (
	DefaultTimezone   = "Asia/Tokyo"
	DefaultQueueLimit = 10
)

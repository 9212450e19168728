package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/maheshrc27/threadflow/internal/models"
)

type SettingsRepository interface {
	GetByPersonaID(ctx context.Context, personaID uuid.UUID) (*models.SchedulingSettings, bool, error)
	Upsert(ctx context.Context, s *models.SchedulingSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByPersonaID(ctx context.Context, personaID uuid.UUID) (*models.SchedulingSettings, bool, error) {
	query := `
		SELECT id, user_id, persona_id, optimal_hours, auto_schedule_enabled, queue_limit, retry_enabled,
			timezone, created_at, updated_at
		FROM scheduling_settings WHERE persona_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, personaID)

	var s models.SchedulingSettings
	var hours pq.Int64Array
	err := row.Scan(&s.ID, &s.UserID, &s.PersonaID, &hours, &s.AutoScheduleEnabled, &s.QueueLimit,
		&s.RetryEnabled, &s.Timezone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	s.OptimalHours = make([]int, len(hours))
	for i, h := range hours {
		s.OptimalHours[i] = int(h)
	}
	return &s, true, nil
}

// Upsert keeps at most one settings row per persona.
func (r *settingsRepository) Upsert(ctx context.Context, s *models.SchedulingSettings) error {
	query := `
		INSERT INTO scheduling_settings (id, user_id, persona_id, optimal_hours, auto_schedule_enabled,
			queue_limit, retry_enabled, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (persona_id) DO UPDATE
		SET optimal_hours = EXCLUDED.optimal_hours,
			auto_schedule_enabled = EXCLUDED.auto_schedule_enabled,
			queue_limit = EXCLUDED.queue_limit,
			retry_enabled = EXCLUDED.retry_enabled,
			timezone = EXCLUDED.timezone,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	hours := make(pq.Int64Array, len(s.OptimalHours))
	for i, h := range s.OptimalHours {
		hours[i] = int64(h)
	}

	err := r.db.QueryRowContext(ctx, query, s.ID, s.UserID, s.PersonaID, hours, s.AutoScheduleEnabled,
		s.QueueLimit, s.RetryEnabled, s.Timezone).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

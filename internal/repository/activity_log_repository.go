package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
)

// ActivityLogRepository is append-only; entries are never updated.
type ActivityLogRepository interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error)
}

type activityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Insert(ctx context.Context, entry *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, user_id, persona_id, action_type, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	var personaID uuid.NullUUID
	if entry.PersonaID != nil {
		personaID = uuid.NullUUID{UUID: *entry.PersonaID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query, entry.ID, entry.UserID, personaID, entry.ActionType, entry.Description, raw)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *activityLogRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, user_id, persona_id, action_type, description, metadata, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		var personaID uuid.NullUUID
		var raw []byte

		err := rows.Scan(&entry.ID, &entry.UserID, &personaID, &entry.ActionType, &entry.Description, &raw, &entry.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if personaID.Valid {
			entry.PersonaID = &personaID.UUID
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return logs, nil
}

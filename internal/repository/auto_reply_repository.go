package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/maheshrc27/threadflow/internal/models"
)

type AutoReplyRepository interface {
	Create(ctx context.Context, rule *models.AutoReply) (uuid.UUID, error)
	ListByPersonaID(ctx context.Context, personaID uuid.UUID) ([]*models.AutoReply, error)
	ListActiveByPersonaID(ctx context.Context, personaID uuid.UUID) ([]*models.AutoReply, error)
	Remove(ctx context.Context, id, userID uuid.UUID) error
}

type autoReplyRepository struct {
	db *sql.DB
}

func NewAutoReplyRepository(db *sql.DB) AutoReplyRepository {
	return &autoReplyRepository{db: db}
}

func (r *autoReplyRepository) Create(ctx context.Context, rule *models.AutoReply) (uuid.UUID, error) {
	query := `
		INSERT INTO auto_replies (id, user_id, persona_id, trigger_keywords, response_template, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, rule.ID, rule.UserID, rule.PersonaID, pq.Array(rule.TriggerKeywords),
		rule.ResponseTemplate, rule.IsActive).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

func (r *autoReplyRepository) ListByPersonaID(ctx context.Context, personaID uuid.UUID) ([]*models.AutoReply, error) {
	query := `
		SELECT id, user_id, persona_id, trigger_keywords, response_template, is_active, created_at, updated_at
		FROM auto_replies WHERE persona_id = $1 ORDER BY created_at
	`
	return r.list(ctx, query, personaID)
}

func (r *autoReplyRepository) ListActiveByPersonaID(ctx context.Context, personaID uuid.UUID) ([]*models.AutoReply, error) {
	query := `
		SELECT id, user_id, persona_id, trigger_keywords, response_template, is_active, created_at, updated_at
		FROM auto_replies WHERE persona_id = $1 AND is_active = TRUE ORDER BY created_at
	`
	return r.list(ctx, query, personaID)
}

func (r *autoReplyRepository) list(ctx context.Context, query string, args ...any) ([]*models.AutoReply, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var rules []*models.AutoReply
	for rows.Next() {
		var rule models.AutoReply
		err := rows.Scan(&rule.ID, &rule.UserID, &rule.PersonaID, pq.Array(&rule.TriggerKeywords),
			&rule.ResponseTemplate, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

func (r *autoReplyRepository) Remove(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM auto_replies WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

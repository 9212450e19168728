package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/maheshrc27/threadflow/internal/models"
)

type PersonaRepository interface {
	Create(ctx context.Context, p *models.Persona) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Persona, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Persona, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.Persona, error)
	CheckByUserID(ctx context.Context, personaID, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, p *models.Persona) error
	SetCredential(ctx context.Context, id uuid.UUID, threadsUserID, username, encryptedToken string, expiresAt time.Time) error
	RotateCredential(ctx context.Context, id uuid.UUID, oldEncryptedToken, newEncryptedToken string, expiresAt time.Time) error
	ClearCredential(ctx context.Context, id uuid.UUID) error
	Remove(ctx context.Context, id uuid.UUID) error
}

type personaRepository struct {
	db *sql.DB
}

func NewPersonaRepository(db *sql.DB) PersonaRepository {
	return &personaRepository{db: db}
}

const personaColumns = `id, user_id, name, personality, tone_of_voice, expertise, threads_user_id,
	threads_username, threads_access_token, token_expires_at, ai_auto_reply_enabled, is_active, created_at, updated_at`

func scanPersona(row rowScanner, p *models.Persona) error {
	var username, token sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Personality, &p.ToneOfVoice, pq.Array(&p.Expertise),
		&p.ThreadsUserID, &username, &token, &expiresAt, &p.AIAutoReplyEnabled, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	p.ThreadsUsername = username.String
	p.AccessToken = token.String
	p.TokenExpiresAt = nullTimePtr(expiresAt)
	return nil
}

func (r *personaRepository) Create(ctx context.Context, p *models.Persona) (uuid.UUID, error) {
	query := `
		INSERT INTO personas (id, user_id, name, personality, tone_of_voice, expertise, ai_auto_reply_enabled, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.Name, p.Personality, p.ToneOfVoice,
		pq.Array(p.Expertise), p.AIAutoReplyEnabled, p.IsActive).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

func (r *personaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas WHERE id = $1`

	var p models.Persona
	if err := scanPersona(r.db.QueryRowContext(ctx, query, id), &p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &p, nil
}

func (r *personaRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas WHERE user_id = $1 ORDER BY created_at`
	return r.list(ctx, query, userID)
}

// ListExpiring returns connected personas whose token expires before the given time.
func (r *personaRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas
		WHERE threads_access_token IS NOT NULL AND token_expires_at IS NOT NULL AND token_expires_at < $1`
	return r.list(ctx, query, before)
}

func (r *personaRepository) list(ctx context.Context, query string, args ...any) ([]*models.Persona, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var personas []*models.Persona
	for rows.Next() {
		var p models.Persona
		if err := scanPersona(rows, &p); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		personas = append(personas, &p)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return personas, nil
}

func (r *personaRepository) CheckByUserID(ctx context.Context, personaID, userID uuid.UUID) (bool, error) {
	query := "SELECT 1 FROM personas WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, personaID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *personaRepository) Update(ctx context.Context, p *models.Persona) error {
	query := `
		UPDATE personas
		SET name = $1,
			personality = $2,
			tone_of_voice = $3,
			expertise = $4,
			ai_auto_reply_enabled = $5,
			is_active = $6,
			updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query, p.Name, p.Personality, p.ToneOfVoice, pq.Array(p.Expertise),
		p.AIAutoReplyEnabled, p.IsActive, time.Now(), p.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *personaRepository) SetCredential(ctx context.Context, id uuid.UUID, threadsUserID, username, encryptedToken string, expiresAt time.Time) error {
	query := `
		UPDATE personas
		SET threads_user_id = $1,
			threads_username = $2,
			threads_access_token = $3,
			token_expires_at = $4,
			is_active = TRUE,
			updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query, threadsUserID, username, encryptedToken, expiresAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

// RotateCredential swaps the token only if it still matches the one that was
// refreshed, so a concurrent reconnect is not overwritten.
func (r *personaRepository) RotateCredential(ctx context.Context, id uuid.UUID, oldEncryptedToken, newEncryptedToken string, expiresAt time.Time) error {
	query := `
		UPDATE personas
		SET threads_access_token = $1,
			token_expires_at = $2,
			updated_at = $3
		WHERE id = $4 AND threads_access_token = $5
	`
	result, err := r.db.ExecContext(ctx, query, newEncryptedToken, expiresAt, time.Now(), id, oldEncryptedToken)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(result)
}

func (r *personaRepository) ClearCredential(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE personas
		SET threads_access_token = NULL,
			token_expires_at = NULL,
			updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Remove deletes the persona and everything that references it. The schema
// has no ON DELETE CASCADE, so dependents are removed here in one transaction.
func (r *personaRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	queries := []string{
		`DELETE FROM thread_replies WHERE persona_id = $1`,
		`DELETE FROM auto_replies WHERE persona_id = $1`,
		`DELETE FROM activity_logs WHERE persona_id = $1`,
		`DELETE FROM scheduling_settings WHERE persona_id = $1`,
		`DELETE FROM posts WHERE persona_id = $1`,
		`DELETE FROM personas WHERE id = $1`,
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
